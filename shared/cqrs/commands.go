package cqrs

type RegisterUserCommand struct {
	Name             string
	Email            string
	Password         string
	SecurityQuestion string
	SecurityAnswer   string
}

// ResetPasswordCommand overwrites the password of the account owning Email.
// RecoveryToken is the grant returned by a successful security answer check;
// it may be empty unless the service requires it.
type ResetPasswordCommand struct {
	Email         string
	NewPassword   string
	RecoveryToken string
}

type UploadProfileImageCommand struct {
	UserID      int64
	Image       []byte
	ContentType string
}

type CreateProductCommand struct {
	Name  string
	Price float64
}
