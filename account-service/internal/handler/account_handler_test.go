package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/MiguelKingofcodes/project-ppdm/shared/apperr"
	"github.com/MiguelKingofcodes/project-ppdm/shared/cqrs"
	"github.com/MiguelKingofcodes/project-ppdm/shared/middleware"
	"github.com/MiguelKingofcodes/project-ppdm/shared/models"
)

// ---- mock implementations ----

type mockAccountCommander struct {
	registerFn func(cqrs.RegisterUserCommand) (int64, error)
	resetFn    func(cqrs.ResetPasswordCommand) error
	uploadFn   func(cqrs.UploadProfileImageCommand) error
}

func (m *mockAccountCommander) Register(_ context.Context, cmd cqrs.RegisterUserCommand) (int64, error) {
	if m.registerFn != nil {
		return m.registerFn(cmd)
	}
	return 0, fmt.Errorf("not configured")
}
func (m *mockAccountCommander) ResetPassword(_ context.Context, cmd cqrs.ResetPasswordCommand) error {
	if m.resetFn != nil {
		return m.resetFn(cmd)
	}
	return fmt.Errorf("not configured")
}
func (m *mockAccountCommander) UploadProfileImage(_ context.Context, cmd cqrs.UploadProfileImageCommand) error {
	if m.uploadFn != nil {
		return m.uploadFn(cmd)
	}
	return fmt.Errorf("not configured")
}

type mockAccountQuerier struct {
	loginFn      func(cqrs.LoginQuery) (*models.LoginResult, error)
	checkEmailFn func(cqrs.CheckEmailQuery) error
	checkAnsFn   func(cqrs.CheckSecurityAnswerQuery) (string, error)
	imageFn      func(cqrs.FetchProfileImageQuery) ([]byte, error)
	profileFn    func(cqrs.GetProfileQuery) (*models.UserView, error)
}

func (m *mockAccountQuerier) Login(_ context.Context, q cqrs.LoginQuery) (*models.LoginResult, error) {
	if m.loginFn != nil {
		return m.loginFn(q)
	}
	return nil, fmt.Errorf("not configured")
}
func (m *mockAccountQuerier) CheckEmail(_ context.Context, q cqrs.CheckEmailQuery) error {
	if m.checkEmailFn != nil {
		return m.checkEmailFn(q)
	}
	return fmt.Errorf("not configured")
}
func (m *mockAccountQuerier) CheckSecurityAnswer(_ context.Context, q cqrs.CheckSecurityAnswerQuery) (string, error) {
	if m.checkAnsFn != nil {
		return m.checkAnsFn(q)
	}
	return "", fmt.Errorf("not configured")
}
func (m *mockAccountQuerier) FetchProfileImage(_ context.Context, q cqrs.FetchProfileImageQuery) ([]byte, error) {
	if m.imageFn != nil {
		return m.imageFn(q)
	}
	return nil, fmt.Errorf("not configured")
}
func (m *mockAccountQuerier) GetProfile(_ context.Context, q cqrs.GetProfileQuery) (*models.UserView, error) {
	if m.profileFn != nil {
		return m.profileFn(q)
	}
	return nil, fmt.Errorf("not configured")
}

// ---- helpers ----

var handlerTestSecret = []byte("handler-test-secret")

const testMaxUpload = 1024

func newAccountTestRouter(cmds AccountCommander, qrys AccountQuerier) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router, err := NewRouter(NewAccountHandler(cmds, qrys, testMaxUpload), RouterConfig{JWTSecret: handlerTestSecret})
	if err != nil {
		panic(err)
	}
	return router
}

func accountDoRequest(router *gin.Engine, method, url string, body any) *httptest.ResponseRecorder {
	req, _ := http.NewRequest(method, url, nil)
	if body != nil {
		b, _ := json.Marshal(body)
		req, _ = http.NewRequest(method, url, bytes.NewReader(b))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func multipartUpload(t *testing.T, userID string, image []byte, contentType string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if userID != "" {
		if err := mw.WriteField("userId", userID); err != nil {
			t.Fatal(err)
		}
	}
	if image != nil {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", `form-data; name="profile_image"; filename="me.jpg"`)
		h.Set("Content-Type", contentType)
		part, err := mw.CreatePart(h)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := part.Write(image); err != nil {
			t.Fatal(err)
		}
	}
	if err := mw.Close(); err != nil {
		t.Fatal(err)
	}
	return &buf, mw.FormDataContentType()
}

func errorKind(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var body middleware.ErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to decode error body %q: %v", w.Body.String(), err)
	}
	return body.Kind
}

// ---- test data ----

func validRegisterBody() map[string]any {
	return map[string]any{
		"name": "Ana", "email": "ana@x.com", "password": "pw1",
		"securityQuestion": "Pet?", "securityAnswer": "Rex",
	}
}

// ---- tests ----

func TestRegister(t *testing.T) {
	tests := []struct {
		name           string
		body           any
		registerFn     func(cqrs.RegisterUserCommand) (int64, error)
		expectedStatus int
		expectedKind   string
	}{
		{
			name:           "success - creates user",
			body:           validRegisterBody(),
			registerFn:     func(cqrs.RegisterUserCommand) (int64, error) { return 1, nil },
			expectedStatus: http.StatusCreated,
		},
		{
			name:           "bad request - missing fields",
			body:           map[string]any{"email": "ana@x.com"},
			expectedStatus: http.StatusBadRequest,
			expectedKind:   "ValidationError",
		},
		{
			name:           "bad request - duplicate email",
			body:           validRegisterBody(),
			registerFn:     func(cqrs.RegisterUserCommand) (int64, error) { return 0, apperr.ErrDuplicateEmail },
			expectedStatus: http.StatusBadRequest,
			expectedKind:   "DuplicateEmail",
		},
		{
			name:           "internal error - store failure",
			body:           validRegisterBody(),
			registerFn:     func(cqrs.RegisterUserCommand) (int64, error) { return 0, apperr.Store(fmt.Errorf("db down")) },
			expectedStatus: http.StatusInternalServerError,
			expectedKind:   "StoreError",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := newAccountTestRouter(&mockAccountCommander{registerFn: tt.registerFn}, &mockAccountQuerier{})
			w := accountDoRequest(router, http.MethodPost, "/register", tt.body)

			if w.Code != tt.expectedStatus {
				t.Fatalf("expected status %d, got %d: %s", tt.expectedStatus, w.Code, w.Body.String())
			}
			if tt.expectedKind != "" {
				if kind := errorKind(t, w); kind != tt.expectedKind {
					t.Errorf("expected kind %s, got %s", tt.expectedKind, kind)
				}
				return
			}
			var resp map[string]any
			_ = json.Unmarshal(w.Body.Bytes(), &resp)
			if resp["userId"] != float64(1) {
				t.Errorf("expected userId 1, got %v", resp["userId"])
			}
		})
	}
}

func TestRegister_StoreErrorDoesNotLeakDetail(t *testing.T) {
	router := newAccountTestRouter(&mockAccountCommander{
		registerFn: func(cqrs.RegisterUserCommand) (int64, error) {
			return 0, apperr.Store(fmt.Errorf("pq: password authentication failed for user postgres"))
		},
	}, &mockAccountQuerier{})

	w := accountDoRequest(router, http.MethodPost, "/register", validRegisterBody())
	if strings.Contains(w.Body.String(), "postgres") {
		t.Errorf("store detail leaked to client: %s", w.Body.String())
	}
}

func TestLogin(t *testing.T) {
	photo := "data:image/jpeg;base64,/9g="
	tests := []struct {
		name           string
		body           any
		loginFn        func(cqrs.LoginQuery) (*models.LoginResult, error)
		expectedStatus int
	}{
		{
			name: "success - returns user and token",
			body: map[string]string{"email": "ana@x.com", "password": "pw1"},
			loginFn: func(cqrs.LoginQuery) (*models.LoginResult, error) {
				return &models.LoginResult{
					User:  models.UserProfile{UserID: 1, Name: "Ana", Email: "ana@x.com", Photo: &photo},
					Token: "jwt",
				}, nil
			},
			expectedStatus: http.StatusOK,
		},
		{
			name:           "unauthorized - invalid credentials",
			body:           map[string]string{"email": "ana@x.com", "password": "wrong"},
			loginFn:        func(cqrs.LoginQuery) (*models.LoginResult, error) { return nil, apperr.ErrInvalidCredentials },
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:           "bad request - missing password",
			body:           map[string]string{"email": "ana@x.com"},
			expectedStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := newAccountTestRouter(&mockAccountCommander{}, &mockAccountQuerier{loginFn: tt.loginFn})
			w := accountDoRequest(router, http.MethodPost, "/login", tt.body)

			if w.Code != tt.expectedStatus {
				t.Fatalf("expected status %d, got %d: %s", tt.expectedStatus, w.Code, w.Body.String())
			}
			if tt.expectedStatus == http.StatusOK {
				var resp models.LoginResult
				_ = json.Unmarshal(w.Body.Bytes(), &resp)
				if resp.User.UserID != 1 || resp.Token != "jwt" || resp.User.Photo == nil {
					t.Errorf("unexpected body %s", w.Body.String())
				}
			}
		})
	}
}

func TestCheckEmail(t *testing.T) {
	tests := []struct {
		name           string
		checkFn        func(cqrs.CheckEmailQuery) error
		expectedStatus int
	}{
		{"success", func(cqrs.CheckEmailQuery) error { return nil }, http.StatusOK},
		{"not found", func(cqrs.CheckEmailQuery) error { return apperr.NotFound("user") }, http.StatusNotFound},
		{"store error", func(cqrs.CheckEmailQuery) error { return apperr.Store(fmt.Errorf("boom")) }, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := newAccountTestRouter(&mockAccountCommander{}, &mockAccountQuerier{checkEmailFn: tt.checkFn})
			w := accountDoRequest(router, http.MethodPost, "/check-email", map[string]string{"email": "ana@x.com"})
			if w.Code != tt.expectedStatus {
				t.Errorf("expected status %d, got %d", tt.expectedStatus, w.Code)
			}
		})
	}
}

func TestCheckSecurityAnswer(t *testing.T) {
	body := map[string]string{"email": "ana@x.com", "securityQuestion": "Pet?", "securityAnswer": "rex"}
	tests := []struct {
		name           string
		checkFn        func(cqrs.CheckSecurityAnswerQuery) (string, error)
		expectedStatus int
	}{
		{"success - returns recovery token", func(cqrs.CheckSecurityAnswerQuery) (string, error) { return "grant", nil }, http.StatusOK},
		{"mismatch", func(cqrs.CheckSecurityAnswerQuery) (string, error) { return "", apperr.ErrSecurityMismatch }, http.StatusUnauthorized},
		{"unknown email", func(cqrs.CheckSecurityAnswerQuery) (string, error) { return "", apperr.NotFound("user") }, http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := newAccountTestRouter(&mockAccountCommander{}, &mockAccountQuerier{checkAnsFn: tt.checkFn})
			w := accountDoRequest(router, http.MethodPost, "/check-security-question-answer", body)
			if w.Code != tt.expectedStatus {
				t.Fatalf("expected status %d, got %d", tt.expectedStatus, w.Code)
			}
			if w.Code == http.StatusOK && !strings.Contains(w.Body.String(), `"recoveryToken":"grant"`) {
				t.Errorf("missing recovery token: %s", w.Body.String())
			}
		})
	}
}

func TestResetPassword(t *testing.T) {
	tests := []struct {
		name           string
		body           any
		resetFn        func(cqrs.ResetPasswordCommand) error
		expectedStatus int
	}{
		{
			name: "success - forwards token",
			body: map[string]string{"email": "ana@x.com", "newPassword": "pw2", "recoveryToken": "grant"},
			resetFn: func(cmd cqrs.ResetPasswordCommand) error {
				if cmd.RecoveryToken != "grant" {
					return fmt.Errorf("token not forwarded")
				}
				return nil
			},
			expectedStatus: http.StatusOK,
		},
		{
			name:           "invalid token",
			body:           map[string]string{"email": "ana@x.com", "newPassword": "pw2", "recoveryToken": "x"},
			resetFn:        func(cqrs.ResetPasswordCommand) error { return apperr.ErrInvalidRecoveryToken },
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:           "unknown email",
			body:           map[string]string{"email": "bob@x.com", "newPassword": "pw2"},
			resetFn:        func(cqrs.ResetPasswordCommand) error { return apperr.NotFound("user") },
			expectedStatus: http.StatusNotFound,
		},
		{
			name:           "malformed json",
			body:           "not an object",
			expectedStatus: http.StatusBadRequest,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := newAccountTestRouter(&mockAccountCommander{resetFn: tt.resetFn}, &mockAccountQuerier{})
			w := accountDoRequest(router, http.MethodPost, "/reset-password", tt.body)
			if w.Code != tt.expectedStatus {
				t.Fatalf("expected status %d, got %d: %s", tt.expectedStatus, w.Code, w.Body.String())
			}
			if w.Code == http.StatusOK && !strings.Contains(w.Body.String(), `"success":true`) {
				t.Errorf("expected success flag, got %s", w.Body.String())
			}
		})
	}
}

func TestUploadProfileImage(t *testing.T) {
	jpeg := []byte{0xFF, 0xD8, 0xFF, 0xE0}
	tests := []struct {
		name           string
		userID         string
		image          []byte
		uploadFn       func(cqrs.UploadProfileImageCommand) error
		expectedStatus int
	}{
		{
			name:   "success - stores bytes",
			userID: "1",
			image:  jpeg,
			uploadFn: func(cmd cqrs.UploadProfileImageCommand) error {
				if cmd.UserID != 1 || !bytes.Equal(cmd.Image, jpeg) || cmd.ContentType != "image/jpeg" {
					return fmt.Errorf("unexpected command %+v", cmd)
				}
				return nil
			},
			expectedStatus: http.StatusOK,
		},
		{name: "missing userId", image: jpeg, expectedStatus: http.StatusBadRequest},
		{name: "non numeric userId", userID: "abc", image: jpeg, expectedStatus: http.StatusBadRequest},
		{name: "missing file", userID: "1", expectedStatus: http.StatusBadRequest},
		{
			name:           "unknown user",
			userID:         "9",
			image:          jpeg,
			uploadFn:       func(cqrs.UploadProfileImageCommand) error { return apperr.NotFound("user") },
			expectedStatus: http.StatusNotFound,
		},
		{name: "too large", userID: "1", image: bytes.Repeat([]byte{0xAB}, testMaxUpload+1), expectedStatus: http.StatusRequestEntityTooLarge},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := newAccountTestRouter(&mockAccountCommander{uploadFn: tt.uploadFn}, &mockAccountQuerier{})
			body, contentType := multipartUpload(t, tt.userID, tt.image, "image/jpeg")

			req := httptest.NewRequest(http.MethodPost, "/upload", body)
			req.Header.Set("Content-Type", contentType)
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			if w.Code != tt.expectedStatus {
				t.Errorf("expected status %d, got %d: %s", tt.expectedStatus, w.Code, w.Body.String())
			}
		})
	}
}

func TestUploadProfileImage_NotMultipart(t *testing.T) {
	router := newAccountTestRouter(&mockAccountCommander{}, &mockAccountQuerier{})
	w := accountDoRequest(router, http.MethodPost, "/upload", map[string]string{"userId": "1"})
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
}

func TestFetchProfileImage(t *testing.T) {
	image := []byte{0xFF, 0xD8, 0xFF, 0xDB}
	tests := []struct {
		name           string
		path           string
		imageFn        func(cqrs.FetchProfileImageQuery) ([]byte, error)
		expectedStatus int
	}{
		{"success - raw bytes", "/image/1", func(cqrs.FetchProfileImageQuery) ([]byte, error) { return image, nil }, http.StatusOK},
		{"no image", "/image/2", func(cqrs.FetchProfileImageQuery) ([]byte, error) { return nil, apperr.NotFound("profile image") }, http.StatusNotFound},
		{"bad id", "/image/abc", nil, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := newAccountTestRouter(&mockAccountCommander{}, &mockAccountQuerier{imageFn: tt.imageFn})
			w := accountDoRequest(router, http.MethodGet, tt.path, nil)
			if w.Code != tt.expectedStatus {
				t.Fatalf("expected status %d, got %d", tt.expectedStatus, w.Code)
			}
			if w.Code == http.StatusOK {
				if ct := w.Header().Get("Content-Type"); ct != "image/jpeg" {
					t.Errorf("expected image/jpeg, got %s", ct)
				}
				if !bytes.Equal(w.Body.Bytes(), image) {
					t.Errorf("image bytes changed in transit")
				}
			}
		})
	}
}

func TestGetProfile(t *testing.T) {
	token, err := middleware.NewToken(handlerTestSecret, 1, "ana@x.com", time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	querier := &mockAccountQuerier{profileFn: func(q cqrs.GetProfileQuery) (*models.UserView, error) {
		if q.UserID != 1 {
			return nil, apperr.NotFound("user")
		}
		return &models.UserView{UserID: 1, Name: "Ana", Email: "ana@x.com", HasPhoto: true}, nil
	}}
	router := newAccountTestRouter(&mockAccountCommander{}, querier)

	req := httptest.NewRequest(http.MethodGet, "/profile", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if !strings.Contains(w.Body.String(), `"hasPhoto":true`) {
		t.Errorf("unexpected body %s", w.Body.String())
	}

	w = accountDoRequest(router, http.MethodGet, "/profile", nil)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 without token, got %d", w.Code)
	}
}

func TestHealth(t *testing.T) {
	router := newAccountTestRouter(&mockAccountCommander{}, &mockAccountQuerier{})
	w := accountDoRequest(router, http.MethodGet, "/health", nil)
	if w.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", w.Code)
	}
}

func TestStrictLimitClientAddress(t *testing.T) {
	tests := []struct {
		name        string
		proxies     []string
		wantLimited int
	}{
		{"untrusted peer cannot pick its bucket", nil, 4},
		{"gateway forwarded address is honored", []string{"192.0.2.1"}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gin.SetMode(gin.TestMode)
			qrys := &mockAccountQuerier{loginFn: func(cqrs.LoginQuery) (*models.LoginResult, error) {
				return nil, apperr.ErrInvalidCredentials
			}}
			router, err := NewRouter(NewAccountHandler(&mockAccountCommander{}, qrys, testMaxUpload), RouterConfig{
				JWTSecret:      handlerTestSecret,
				StrictLimit:    middleware.RateLimitByIP(middleware.RateLimitConfig{RequestsPerWindow: 2, Window: time.Minute, Burst: 2}),
				TrustedProxies: tt.proxies,
			})
			if err != nil {
				t.Fatalf("NewRouter: %v", err)
			}

			limited := 0
			for i := 0; i < 6; i++ {
				req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(`{"email":"a@x.com","password":"pw"}`))
				req.Header.Set("Content-Type", "application/json")
				req.Header.Set("X-Forwarded-For", fmt.Sprintf("198.51.100.%d", i))
				w := httptest.NewRecorder()
				router.ServeHTTP(w, req)
				if w.Code == http.StatusTooManyRequests {
					limited++
				}
			}
			if limited != tt.wantLimited {
				t.Errorf("limited = %d, want %d", limited, tt.wantLimited)
			}
		})
	}
}
