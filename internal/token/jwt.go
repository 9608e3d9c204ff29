package token

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"gatekeeper/internal/platform/middleware"
	dErrors "gatekeeper/pkg/domain-errors"
)

// Claims are the JWT claims carried by operator access tokens. The operator
// identity rides in the subject; role membership is resolved against the
// configured authorization lists at dispatch time, not baked into the token.
type Claims struct {
	OperatorID string `json:"operator_id"`
	jwt.RegisteredClaims
}

// Service creates and validates operator tokens (HS256).
type Service struct {
	signingKey []byte
	issuer     string
}

func NewService(signingKey, issuer string) *Service {
	return &Service{signingKey: []byte(signingKey), issuer: issuer}
}

// GenerateToken mints a token for an operator. Used by provisioning tooling
// and tests; the service itself never mints tokens on behalf of callers.
func (s *Service) GenerateToken(operatorID string, expiresIn time.Duration) (string, error) {
	newToken := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		OperatorID: operatorID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   operatorID,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(expiresIn)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			Issuer:    s.issuer,
			ID:        uuid.NewString(),
		},
	})
	return newToken.SignedString(s.signingKey)
}

// ValidateToken parses and verifies a token, returning middleware claims.
func (s *Service) ValidateToken(tokenString string) (*middleware.OperatorClaims, error) {
	parsed, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrTokenUnverifiable
		}
		return s.signingKey, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, dErrors.New(dErrors.CodeUnauthorized, "token has expired")
		}
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid token")
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid token")
	}
	operatorID := claims.OperatorID
	if operatorID == "" {
		operatorID = claims.Subject
	}
	if operatorID == "" {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "token missing operator identity")
	}
	return &middleware.OperatorClaims{OperatorID: operatorID}, nil
}
