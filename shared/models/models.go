package models

import "time"

// User is the credential store row. Hashes and image bytes never leave the
// service; use UserView or UserProfile for responses.
type User struct {
	ID                 int64     `json:"userId"`
	Name               string    `json:"name"`
	Email              string    `json:"email"`
	PasswordHash       string    `json:"-"`
	SecurityQuestion   string    `json:"-"`
	SecurityAnswerHash string    `json:"-"`
	ProfileImage       []byte    `json:"-"`
	CreatedAt          time.Time `json:"createdTimestamp"`
	UpdatedAt          time.Time `json:"updatedTimestamp"`
}

// HasProfileImage reports whether a complete image is stored.
func (u *User) HasProfileImage() bool {
	return len(u.ProfileImage) > 0
}

type Product struct {
	ID        int64     `json:"id_product"`
	Name      string    `json:"name_product"`
	Price     float64   `json:"price_product"`
	CreatedAt time.Time `json:"createdTimestamp"`
}
