package utils

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"strings"
)

// PhotoMediaType is the content type assumed for every stored profile image.
const PhotoMediaType = "image/jpeg"

// NormalizeEmail trims and lower-cases an email so that registration and
// every later lookup agree on one spelling.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// NormalizeAnswer makes security answers case and whitespace insensitive:
// " Rex ", "rex" and "REX" all normalize to "rex".
func NormalizeAnswer(answer string) string {
	return strings.ToLower(strings.Join(strings.Fields(answer), " "))
}

// PhotoDataURI encodes stored image bytes for transport. It returns nil when
// there is no image so that the JSON field renders as null.
func PhotoDataURI(image []byte) *string {
	if len(image) == 0 {
		return nil
	}
	uri := fmt.Sprintf("data:%s;base64,%s", PhotoMediaType, base64.StdEncoding.EncodeToString(image))
	return &uri
}

// GenerateToken returns n random bytes encoded as unpadded base64url.
func GenerateToken(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to read random bytes: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
