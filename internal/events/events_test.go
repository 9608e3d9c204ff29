package events

import (
	"testing"

	"github.com/stretchr/testify/suite"
)

type TokenSuite struct {
	suite.Suite
}

func TestTokenSuite(t *testing.T) {
	suite.Run(t, new(TokenSuite))
}

// TestRoundTrip verifies Token and ParseToken agree for every verb.
func (s *TokenSuite) TestRoundTrip() {
	for _, verb := range []string{VerbSelect, VerbConfirm, VerbReject, VerbEmergency} {
		token := Token(verb, "1234567890")
		gotVerb, gotID, ok := ParseToken(token)
		s.True(ok, "token %q", token)
		s.Equal(verb, gotVerb)
		s.Equal("1234567890", gotID)
	}
}

// TestCancel verifies the bare cancel token parses without an identity.
func (s *TokenSuite) TestCancel() {
	verb, id, ok := ParseToken(TokenCancel)
	s.True(ok)
	s.Equal(TokenCancel, verb)
	s.Empty(id)
}

// TestMalformed verifies junk tokens are refused.
func (s *TokenSuite) TestMalformed() {
	for _, token := range []string{"", "confirm", "confirm_", "launch_1234567890", "_1234567890"} {
		_, _, ok := ParseToken(token)
		s.False(ok, "token %q", token)
	}
}

// TestKindValidity exercises the inbound kind whitelist.
func (s *TokenSuite) TestKindValidity() {
	for _, k := range []Kind{KindText, KindSelection, KindDisposition, KindCancel, KindUpload} {
		s.True(k.IsValid(), "kind %q", k)
	}
	s.False(Kind("poke").IsValid())
	s.False(Kind("").IsValid())
}
