package model

import "time"

// TokenTypeBearer is the token type reported alongside issued session tokens.
const TokenTypeBearer = "Bearer"

// RegisterRequest is the body of POST /api/auth/register.
type RegisterRequest struct {
	Username  string `json:"username" validate:"required,min=3,max=50"`
	Email     string `json:"email" validate:"required,email,max=100"`
	Password  string `json:"password" validate:"required,min=6,maxbytes=72"`
	FirstName string `json:"firstName" validate:"max=50"`
	LastName  string `json:"lastName" validate:"max=50"`
}

// LoginRequest is the body of POST /api/auth/login.
type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// AuthResponse is returned by both register and login.
type AuthResponse struct {
	Token     string `json:"token"`
	TokenType string `json:"tokenType"`
	ID        int64  `json:"id"`
	Username  string `json:"username"`
	Email     string `json:"email"`
	Role      Role   `json:"role"`
}

// APIKeyRequest is the body of POST /api/admin/keygen. ValidFor overrides the
// configured expiration offset when present.
type APIKeyRequest struct {
	Label    string    `json:"label" validate:"required,max=100"`
	ValidFor *Duration `json:"validFor,omitempty"`
}

// APIKeyResponse carries the raw key. It is the only time the raw value is
// ever returned.
type APIKeyResponse struct {
	APIKey    string     `json:"apiKey"`
	ExpiresAt *time.Time `json:"expiresAt,omitempty"`
}

// MeasurementRequest is the body of measurement create and update calls.
type MeasurementRequest struct {
	Weight             *float64   `json:"weight" validate:"required,gt=0,lt=1000"`
	Height             *float64   `json:"height" validate:"required,gt=0,lt=1000"`
	ChestCircumference *float64   `json:"chestCircumference" validate:"omitempty,gte=0,lt=1000"`
	ArmCircumference   *float64   `json:"armCircumference" validate:"omitempty,gte=0,lt=1000"`
	LegCircumference   *float64   `json:"legCircumference" validate:"omitempty,gte=0,lt=1000"`
	WaistCircumference *float64   `json:"waistCircumference" validate:"omitempty,gte=0,lt=1000"`
	MeasurementDate    *time.Time `json:"measurementDate,omitempty"`
}
