package cqrs

// ---------- Account queries ----------

type LoginQuery struct {
	Email    string
	Password string
}

// CheckEmailQuery is step 1 of password recovery.
type CheckEmailQuery struct {
	Email string
}

// CheckSecurityAnswerQuery is step 2 of password recovery.
type CheckSecurityAnswerQuery struct {
	Email            string
	SecurityQuestion string
	SecurityAnswer   string
}

type FetchProfileImageQuery struct {
	UserID int64
}

// GetProfileQuery fetches the public view of the authenticated user.
type GetProfileQuery struct {
	UserID int64
}

// ---------- Product queries ----------

type ListProductsQuery struct{}
