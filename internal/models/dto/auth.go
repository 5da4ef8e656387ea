package dto

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginResponse struct {
	Success     bool   `json:"success"`
	Token       string `json:"token"`
	DisplayName string `json:"displayName"`
	Email       string `json:"email"`
	Role        string `json:"role"`
	ExpiresIn   int64  `json:"expiresIn"`
}

// TokenRequest is the optional body of verify and refresh calls.
type TokenRequest struct {
	Token string `json:"token"`
}

type SessionUser struct {
	ID          string `json:"id"`
	Email       string `json:"email"`
	DisplayName string `json:"displayName"`
	Role        string `json:"role"`
}

type VerifyResponse struct {
	Valid   bool        `json:"valid"`
	Success bool        `json:"success"`
	User    SessionUser `json:"user"`
}

type VerifyFailure struct {
	Valid   bool   `json:"valid"`
	Message string `json:"message"`
}

type RefreshResponse struct {
	Success   bool   `json:"success"`
	Token     string `json:"token"`
	ExpiresIn int64  `json:"expiresIn"`
}

type UserResponse struct {
	Success bool        `json:"success"`
	User    SessionUser `json:"user"`
}
