package models

// UserView is the cacheable projection of a user. It never carries hashes or
// image bytes, only whether an image exists.
type UserView struct {
	UserID   int64  `json:"userId"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	HasPhoto bool   `json:"hasPhoto"`
}

// UserProfile is returned by login. Photo is the stored image encoded as a
// data URI at the response boundary, or nil when no image is stored.
type UserProfile struct {
	UserID int64   `json:"userId"`
	Name   string  `json:"name"`
	Email  string  `json:"email"`
	Photo  *string `json:"photo"`
}

// ProductView is the read model served by the product list.
type ProductView struct {
	ID    int64   `json:"id_product"`
	Name  string  `json:"name_product"`
	Price float64 `json:"price_product"`
}

// LoginResult is the body returned by a successful login.
type LoginResult struct {
	User  UserProfile `json:"user"`
	Token string      `json:"token"`
}
