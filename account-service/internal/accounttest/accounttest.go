// Package accounttest provides in-memory stand-ins for the account service
// stores, shared by the command, query and handler tests.
package accounttest

import (
	"context"
	"sync"

	"golang.org/x/crypto/bcrypt"

	"github.com/MiguelKingofcodes/project-ppdm/shared/apperr"
	"github.com/MiguelKingofcodes/project-ppdm/shared/events"
	"github.com/MiguelKingofcodes/project-ppdm/shared/models"
	"github.com/MiguelKingofcodes/project-ppdm/shared/utils"
)

// FastHasher is bcrypt at its minimum cost.
func FastHasher() *utils.BcryptHasher {
	return utils.NewBcryptHasher(bcrypt.MinCost)
}

// Store is an in-memory credential store with a unique email index and
// sequential ids starting at 1.
type Store struct {
	mu      sync.Mutex
	nextID  int64
	byID    map[int64]*models.User
	byEmail map[string]int64

	CachedViews map[int64]*models.UserView
	Invalidated []int64

	// Err, when set, is returned by every store call.
	Err error
}

func NewStore() *Store {
	return &Store{
		byID:        map[int64]*models.User{},
		byEmail:     map[string]int64{},
		CachedViews: map[int64]*models.UserView{},
	}
}

func (s *Store) Create(_ context.Context, user *models.User) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return 0, s.Err
	}
	if _, ok := s.byEmail[user.Email]; ok {
		return 0, apperr.ErrDuplicateEmail
	}
	s.nextID++
	stored := *user
	stored.ID = s.nextID
	s.byID[stored.ID] = &stored
	s.byEmail[stored.Email] = stored.ID
	user.ID = stored.ID
	return stored.ID, nil
}

func (s *Store) ExistsByEmail(_ context.Context, email string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return false, s.Err
	}
	_, ok := s.byEmail[email]
	return ok, nil
}

func (s *Store) UpdatePasswordHash(_ context.Context, email, passwordHash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	id, ok := s.byEmail[email]
	if !ok {
		return apperr.NotFound("user")
	}
	s.byID[id].PasswordHash = passwordHash
	return nil
}

func (s *Store) UpdateProfileImage(_ context.Context, userID int64, image []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	u, ok := s.byID[userID]
	if !ok {
		return apperr.NotFound("user")
	}
	u.ProfileImage = append([]byte(nil), image...)
	return nil
}

func (s *Store) GetByEmail(_ context.Context, email string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	id, ok := s.byEmail[email]
	if !ok {
		return nil, apperr.NotFound("user")
	}
	u := *s.byID[id]
	return &u, nil
}

func (s *Store) GetProfileImage(_ context.Context, userID int64) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	u, ok := s.byID[userID]
	if !ok {
		return nil, apperr.NotFound("user")
	}
	if !u.HasProfileImage() {
		return nil, apperr.NotFound("profile image")
	}
	return append([]byte(nil), u.ProfileImage...), nil
}

func (s *Store) GetViewByID(_ context.Context, userID int64) (*models.UserView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	u, ok := s.byID[userID]
	if !ok {
		return nil, apperr.NotFound("user")
	}
	return &models.UserView{UserID: u.ID, Name: u.Name, Email: u.Email, HasPhoto: u.HasProfileImage()}, nil
}

func (s *Store) CacheUserView(_ context.Context, view *models.UserView) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.CachedViews[view.UserID] = view
}

func (s *Store) InvalidateUserView(_ context.Context, userID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.CachedViews, userID)
	s.Invalidated = append(s.Invalidated, userID)
}

// User returns a copy of the stored row, hashes included.
func (s *Store) User(email string) (*models.User, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.byEmail[email]
	if !ok {
		return nil, false
	}
	u := *s.byID[id]
	return &u, true
}

func (s *Store) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.byID)
}

// Grants is an in-memory single-use recovery grant store.
type Grants struct {
	mu     sync.Mutex
	tokens map[string]string
}

func NewGrants() *Grants {
	return &Grants{tokens: map[string]string{}}
}

func (g *Grants) Issue(_ context.Context, email string) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	token, err := utils.GenerateToken(16)
	if err != nil {
		return "", err
	}
	g.tokens[email] = token
	return token, nil
}

func (g *Grants) Consume(_ context.Context, email, token string) (bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	stored, ok := g.tokens[email]
	delete(g.tokens, email)
	return ok && stored == token, nil
}

func (g *Grants) Restore(_ context.Context, email, token string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, ok := g.tokens[email]; !ok {
		g.tokens[email] = token
	}
	return nil
}

func (g *Grants) Revoke(_ context.Context, email string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.tokens, email)
	return nil
}

func (g *Grants) Outstanding(email string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	_, ok := g.tokens[email]
	return ok
}

// Publisher records published events.
type Publisher struct {
	mu     sync.Mutex
	Events []events.Event
	Err    error
}

func (p *Publisher) Publish(_ context.Context, stream, eventType string, data any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.Err != nil {
		return p.Err
	}
	p.Events = append(p.Events, events.Event{Type: eventType, Data: data})
	return nil
}

func (p *Publisher) Types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	types := make([]string, 0, len(p.Events))
	for _, e := range p.Events {
		types = append(types, e.Type)
	}
	return types
}
