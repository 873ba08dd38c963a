package models

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type RegisterRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthResponse is returned by login and register.
type AuthResponse struct {
	Token string `json:"token"`
	User  *User  `json:"user,omitempty"`
}

type ShareRequest struct {
	Email string `json:"email"`
	Role  Role   `json:"role"`
}

type UpdateShareRequest struct {
	UserID string `json:"userId"`
	Role   Role   `json:"role"`
}
