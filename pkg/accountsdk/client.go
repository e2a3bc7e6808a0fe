package accountsdk

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Client talks to the gateway without credentials.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		BaseURL: strings.TrimSuffix(baseURL, "/"),
		HTTPClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

// Register creates an account and returns the new user id.
func (c *Client) Register(ctx context.Context, req RegisterRequest) (int64, error) {
	var resp RegisterResponse
	if err := c.postJSON(ctx, "/register", req, &resp, http.StatusCreated); err != nil {
		return 0, err
	}
	return resp.UserID, nil
}

// Login verifies credentials and returns a Session for the signed-in user.
func (c *Client) Login(ctx context.Context, email, password string) (*Session, error) {
	var resp loginResponse
	payload := map[string]string{"email": email, "password": password}
	if err := c.postJSON(ctx, "/login", payload, &resp, http.StatusOK); err != nil {
		return nil, err
	}
	return newSession(c, resp.User, resp.Token), nil
}

// CheckEmail succeeds when an account exists for email.
func (c *Client) CheckEmail(ctx context.Context, email string) error {
	return c.postJSON(ctx, "/check-email", map[string]string{"email": email}, &messageResponse{}, http.StatusOK)
}

// CheckSecurityAnswer verifies the recovery question and answer and returns
// the recovery token issued for the following password reset.
func (c *Client) CheckSecurityAnswer(ctx context.Context, email, question, answer string) (string, error) {
	var resp securityAnswerResponse
	payload := map[string]string{
		"email":            email,
		"securityQuestion": question,
		"securityAnswer":   answer,
	}
	if err := c.postJSON(ctx, "/check-security-question-answer", payload, &resp, http.StatusOK); err != nil {
		return "", err
	}
	return resp.RecoveryToken, nil
}

// ResetPassword sets a new password. recoveryToken may be empty when the
// server does not require one.
func (c *Client) ResetPassword(ctx context.Context, email, newPassword, recoveryToken string) error {
	payload := map[string]string{"email": email, "newPassword": newPassword}
	if recoveryToken != "" {
		payload["recoveryToken"] = recoveryToken
	}
	return c.postJSON(ctx, "/reset-password", payload, &messageResponse{}, http.StatusOK)
}

// UploadProfileImage replaces the stored image of userID. The part content
// type is guessed from filename.
func (c *Client) UploadProfileImage(ctx context.Context, userID int64, filename string, image []byte) error {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	if err := w.WriteField("userId", strconv.FormatInt(userID, 10)); err != nil {
		return fmt.Errorf("failed to encode form: %w", err)
	}

	contentType := mime.TypeByExtension(strings.ToLower(filepath.Ext(filename)))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="profile_image"; filename="%s"`, filepath.Base(filename)))
	h.Set("Content-Type", contentType)
	part, err := w.CreatePart(h)
	if err != nil {
		return fmt.Errorf("failed to encode form: %w", err)
	}
	if _, err := part.Write(image); err != nil {
		return fmt.Errorf("failed to encode form: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("failed to encode form: %w", err)
	}

	resp, err := c.doRequest(ctx, http.MethodPost, "/upload", &buf,
		map[string]string{"Content-Type": w.FormDataContentType()}, "")
	if err != nil {
		return err
	}
	return decodeJSON(resp, &messageResponse{}, http.StatusOK)
}

// FetchProfileImage returns the raw stored image of userID.
func (c *Client) FetchProfileImage(ctx context.Context, userID int64) ([]byte, error) {
	resp, err := c.doRequest(ctx, http.MethodGet, "/image/"+strconv.FormatInt(userID, 10), nil, nil, "")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, parseErrorResponse(resp, body)
	}
	return body, nil
}

func (c *Client) ListProducts(ctx context.Context) ([]Product, error) {
	resp, err := c.doRequest(ctx, http.MethodGet, "/products", nil, nil, "")
	if err != nil {
		return nil, err
	}

	var products []Product
	if err := decodeJSON(resp, &products, http.StatusOK); err != nil {
		return nil, err
	}
	return products, nil
}

// CreateProduct adds a product and returns its id.
func (c *Client) CreateProduct(ctx context.Context, name string, price float64) (int64, error) {
	var resp createProductResponse
	payload := map[string]any{"name_product": name, "price_product": price}
	if err := c.postJSON(ctx, "/products", payload, &resp, http.StatusCreated); err != nil {
		return 0, err
	}
	return resp.ID, nil
}
