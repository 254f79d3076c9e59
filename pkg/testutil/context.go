package testutil

import (
	"net/http"

	"github.com/google/uuid"

	"lineage/internal/platform/middleware"
	dErrors "lineage/pkg/domain-errors"
)

// Bearer tokens accepted by TokenValidator.
const (
	ReaderToken  = "reader-token"
	ManagerToken = "manager-token"
	AdminToken   = "admin-token"
)

// TestUserID is the subject of every token TokenValidator accepts.
var TestUserID = uuid.MustParse("8c5d1c4e-4d3a-4a63-9f0e-3d4c2b1a0f9e")

// TokenValidator accepts the fixed test tokens and maps each to its role.
// This simulates what the JWT service does for authenticated requests.
type TokenValidator struct{}

func (TokenValidator) ValidateToken(token string) (*middleware.JWTClaims, error) {
	var role string
	switch token {
	case ReaderToken:
		role = "reader"
	case ManagerToken:
		role = "manager"
	case AdminToken:
		role = "admin"
	default:
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid token")
	}
	return &middleware.JWTClaims{UserID: TestUserID.String(), Role: role}, nil
}

// WithBearer sets the Authorization header.
func WithBearer(req *http.Request, token string) *http.Request {
	req.Header.Set("Authorization", "Bearer "+token)
	return req
}
