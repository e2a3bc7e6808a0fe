package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MiguelKingofcodes/project-ppdm/pkg/accountsdk"
)

// fakeAPI is an in-memory stand-in for the gateway with one user.
type fakeAPI struct {
	password string
	photo    []byte
	products []accountsdk.Product
	resets   int
}

func (f *fakeAPI) handler(t *testing.T) http.Handler {
	writeJSON := func(w http.ResponseWriter, status int, v any) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(v)
	}
	decode := func(r *http.Request) map[string]any {
		var m map[string]any
		_ = json.NewDecoder(r.Body).Decode(&m)
		return m
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /register", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusCreated, map[string]any{"message": "ok", "userId": 1})
	})
	mux.HandleFunc("POST /login", func(w http.ResponseWriter, r *http.Request) {
		req := decode(r)
		if req["email"] != "ana@example.com" || req["password"] != f.password {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid credentials", "kind": "InvalidCredentials"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"user":  map[string]any{"userId": 1, "name": "Ana", "email": "ana@example.com", "photo": nil},
			"token": "tok",
		})
	})
	mux.HandleFunc("GET /profile", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"userId": 1, "name": "Ana", "email": "ana@example.com", "hasPhoto": f.photo != nil})
	})
	mux.HandleFunc("POST /upload", func(w http.ResponseWriter, r *http.Request) {
		file, _, err := r.FormFile("profile_image")
		require.NoError(t, err)
		defer file.Close()
		var buf bytes.Buffer
		_, _ = buf.ReadFrom(file)
		f.photo = buf.Bytes()
		writeJSON(w, http.StatusOK, map[string]string{"message": "profile image updated successfully"})
	})
	mux.HandleFunc("GET /image/1", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(f.photo)
	})
	mux.HandleFunc("POST /check-email", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"message": "email verified"})
	})
	mux.HandleFunc("POST /check-security-question-answer", func(w http.ResponseWriter, r *http.Request) {
		if decode(r)["securityAnswer"] != "rex" {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "incorrect security question or answer", "kind": "SecurityMismatch"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"message": "ok", "recoveryToken": "grant"})
	})
	mux.HandleFunc("POST /reset-password", func(w http.ResponseWriter, r *http.Request) {
		f.password = decode(r)["newPassword"].(string)
		f.resets++
		writeJSON(w, http.StatusOK, map[string]any{"success": true, "message": "password changed successfully"})
	})
	mux.HandleFunc("GET /products", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, f.products)
	})
	mux.HandleFunc("POST /products", func(w http.ResponseWriter, r *http.Request) {
		req := decode(r)
		p := accountsdk.Product{ID: int64(len(f.products) + 1), Name: req["name_product"].(string), Price: req["price_product"].(float64)}
		f.products = append(f.products, p)
		writeJSON(w, http.StatusCreated, map[string]any{"id_product": p.ID})
	})
	return mux
}

func passwords(pw ...string) PasswordReader {
	return func() ([]byte, error) {
		next := pw[0]
		pw = pw[1:]
		return []byte(next), nil
	}
}

func runScript(t *testing.T, api *fakeAPI, pw PasswordReader, photoDir string, lines ...string) string {
	t.Helper()
	srv := httptest.NewServer(api.handler(t))
	t.Cleanup(srv.Close)

	var out bytes.Buffer
	app := NewApp(accountsdk.NewClient(srv.URL), Options{
		In:       strings.NewReader(strings.Join(lines, "\n") + "\n"),
		Out:      &out,
		Password: pw,
		PhotoDir: photoDir,
	})
	app.Run(context.Background())
	return out.String()
}

func TestRun_LoginProfileLogout(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "me.jpg")
	require.NoError(t, os.WriteFile(src, []byte("jpeg"), 0o600))

	api := &fakeAPI{password: "secret"}
	out := runScript(t, api, passwords("wrong", "secret"), dir,
		"profile",
		"login", "ana@example.com",
		"login", "ana@example.com",
		"photo "+src,
		"profile",
		"logout",
		"profile",
		"exit",
	)

	assert.Equal(t, 2, strings.Count(out, "Please log in first."))
	assert.Contains(t, out, "error: invalid credentials")
	assert.Contains(t, out, "Welcome, Ana!")
	assert.Contains(t, out, "Profile photo updated.")
	assert.Contains(t, out, "Logged out.")
	assert.Contains(t, out, "Bye!")

	saved, err := os.ReadFile(filepath.Join(dir, "profile_1.jpg"))
	require.NoError(t, err)
	assert.Equal(t, []byte("jpeg"), saved)
}

func TestRun_ForgotRetriesUntilAnswerMatches(t *testing.T) {
	api := &fakeAPI{password: "old"}
	out := runScript(t, api, passwords("new-secret"), t.TempDir(),
		"forgot",
		"ana@example.com",
		"Pet?", "cat",
		"y",
		"Pet?", "rex",
		"exit",
	)

	assert.Contains(t, out, "error: incorrect security question or answer")
	assert.Contains(t, out, "Password changed.")
	assert.Equal(t, 1, api.resets)
	assert.Equal(t, "new-secret", api.password)
}

func TestRun_ProductsAndUnknownCommand(t *testing.T) {
	api := &fakeAPI{}
	out := runScript(t, api, passwords(), t.TempDir(),
		"products",
		"addproduct", "Coffee", "4,50",
		"addproduct", "Tea", "abc",
		"products",
		"dance",
	)

	assert.Contains(t, out, "No products.")
	assert.Contains(t, out, "Product 1 created.")
	assert.Contains(t, out, "error: price must be a number")
	assert.Contains(t, out, "Coffee")
	assert.Contains(t, out, "4.50")
	assert.Contains(t, out, "Unknown command: dance")
	require.Len(t, api.products, 1)
	assert.InDelta(t, 4.5, api.products[0].Price, 0.0001)
}
