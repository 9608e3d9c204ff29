package token

import (
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	dErrors "gatekeeper/pkg/domain-errors"
)

type TokenServiceSuite struct {
	suite.Suite
	service *Service
}

func (s *TokenServiceSuite) SetupTest() {
	s.service = NewService("test-signing-key", "gatekeeper")
}

func TestTokenServiceSuite(t *testing.T) {
	suite.Run(t, new(TokenServiceSuite))
}

// TestRoundTrip verifies a minted token validates back to its operator.
func (s *TokenServiceSuite) TestRoundTrip() {
	tok, err := s.service.GenerateToken("op-a", time.Hour)
	s.Require().NoError(err)

	claims, err := s.service.ValidateToken(tok)
	s.Require().NoError(err)
	s.Equal("op-a", claims.OperatorID)
}

// TestRejections verifies expired, foreign-key and garbage tokens all map
// to the unauthorized code.
func (s *TokenServiceSuite) TestRejections() {
	s.Run("expired token", func() {
		tok, err := s.service.GenerateToken("op-a", -time.Minute)
		s.Require().NoError(err)

		_, err = s.service.ValidateToken(tok)
		s.Require().Error(err)
		s.Equal(dErrors.CodeUnauthorized, dErrors.CodeOf(err))
	})

	s.Run("wrong signing key", func() {
		other := NewService("different-key", "gatekeeper")
		tok, err := other.GenerateToken("op-a", time.Hour)
		s.Require().NoError(err)

		_, err = s.service.ValidateToken(tok)
		s.Require().Error(err)
		s.Equal(dErrors.CodeUnauthorized, dErrors.CodeOf(err))
	})

	s.Run("garbage token", func() {
		_, err := s.service.ValidateToken("not.a.token")
		s.Require().Error(err)
		s.Equal(dErrors.CodeUnauthorized, dErrors.CodeOf(err))
	})

	s.Run("empty operator identity", func() {
		tok, err := s.service.GenerateToken("", time.Hour)
		s.Require().NoError(err)

		_, err = s.service.ValidateToken(tok)
		s.Require().Error(err)
		s.Equal(dErrors.CodeUnauthorized, dErrors.CodeOf(err))
	})
}
