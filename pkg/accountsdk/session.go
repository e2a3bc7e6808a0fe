package accountsdk

import (
	"context"
	"net/http"
	"sync"
)

// Session is the signed-in state returned by Login. After Logout every
// method returns ErrLoggedOut.
type Session struct {
	client *Client

	mu    sync.RWMutex
	user  User
	token string
}

func newSession(client *Client, user User, token string) *Session {
	return &Session{client: client, user: user, token: token}
}

// User returns the user as of login.
func (s *Session) User() User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user
}

func (s *Session) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

func (s *Session) LoggedIn() bool {
	return s.Token() != ""
}

// Logout discards the token and user.
func (s *Session) Logout() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = ""
	s.user = User{}
}

// GetProfile fetches the current profile of the signed-in user.
func (s *Session) GetProfile(ctx context.Context) (*Profile, error) {
	token := s.Token()
	if token == "" {
		return nil, ErrLoggedOut
	}

	resp, err := s.client.doRequest(ctx, http.MethodGet, "/profile", nil, nil, token)
	if err != nil {
		return nil, err
	}

	var profile Profile
	if err := decodeJSON(resp, &profile, http.StatusOK); err != nil {
		return nil, err
	}
	return &profile, nil
}

// UploadPhoto replaces the signed-in user's profile image.
func (s *Session) UploadPhoto(ctx context.Context, filename string, image []byte) error {
	user := s.User()
	if !s.LoggedIn() {
		return ErrLoggedOut
	}
	return s.client.UploadProfileImage(ctx, user.UserID, filename, image)
}

// FetchPhoto returns the signed-in user's stored image.
func (s *Session) FetchPhoto(ctx context.Context) ([]byte, error) {
	user := s.User()
	if !s.LoggedIn() {
		return nil, ErrLoggedOut
	}
	return s.client.FetchProfileImage(ctx, user.UserID)
}
