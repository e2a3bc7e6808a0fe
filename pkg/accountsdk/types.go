package accountsdk

type RegisterRequest struct {
	Name             string `json:"name"`
	Email            string `json:"email"`
	Password         string `json:"password"`
	SecurityQuestion string `json:"securityQuestion"`
	SecurityAnswer   string `json:"securityAnswer"`
}

type RegisterResponse struct {
	Message string `json:"message"`
	UserID  int64  `json:"userId"`
}

// User is the signed-in user returned by login. Photo is a data URI or nil.
type User struct {
	UserID int64   `json:"userId"`
	Name   string  `json:"name"`
	Email  string  `json:"email"`
	Photo  *string `json:"photo"`
}

type Profile struct {
	UserID   int64  `json:"userId"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	HasPhoto bool   `json:"hasPhoto"`
}

type Product struct {
	ID    int64   `json:"id_product"`
	Name  string  `json:"name_product"`
	Price float64 `json:"price_product"`
}

type loginResponse struct {
	User  User   `json:"user"`
	Token string `json:"token"`
}

type messageResponse struct {
	Message string `json:"message"`
}

type securityAnswerResponse struct {
	Message       string `json:"message"`
	RecoveryToken string `json:"recoveryToken"`
}

type createProductResponse struct {
	ID int64 `json:"id_product"`
}
