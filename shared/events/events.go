package events

import "time"

// Event types
const (
	UserRegistered          = "user.registered"
	UserPasswordReset       = "user.password_reset"
	UserProfileImageUpdated = "user.profile_image_updated"

	ProductCreated = "product.created"
)

// Stream names
const (
	UserEventsStream    = "user.events"
	ProductEventsStream = "product.events"
)

// Event is the envelope written to every stream.
type Event struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Data      any       `json:"data"`
}

// User events
type UserRegisteredEvent struct {
	UserID int64  `json:"userId"`
	Email  string `json:"email"`
	Name   string `json:"name"`
}

type UserPasswordResetEvent struct {
	Email string `json:"email"`
}

type UserProfileImageUpdatedEvent struct {
	UserID int64 `json:"userId"`
	Size   int   `json:"size"`
}

// Product events
type ProductCreatedEvent struct {
	ProductID int64   `json:"productId"`
	Name      string  `json:"name"`
	Price     float64 `json:"price"`
}
