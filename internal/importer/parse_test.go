package importer

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"gatekeeper/internal/checkin/models"
)

type ParseSuite struct {
	suite.Suite
	importedAt time.Time
}

func (s *ParseSuite) SetupTest() {
	s.importedAt = time.Date(2026, 3, 14, 8, 0, 0, 0, time.UTC)
}

func TestParseSuite(t *testing.T) {
	suite.Run(t, new(ParseSuite))
}

func (s *ParseSuite) parse(csv string) ([]models.Participant, int, error) {
	return Parse(strings.NewReader(csv), s.importedAt)
}

// TestHeaderMatching verifies required columns are matched loosely and
// extras are tolerated.
func (s *ParseSuite) TestHeaderMatching() {
	s.Run("canonical header", func() {
		batch, skipped, err := s.parse("national_id,full_name,father_name,payment_status\n1234567890,Sara,Hassan,paid\n")
		s.Require().NoError(err)
		s.Zero(skipped)
		s.Require().Len(batch, 1)
		s.Equal("Sara", batch[0].FullName)
		s.Equal(s.importedAt, batch[0].ImportedAt)
	})

	s.Run("case and whitespace insensitive", func() {
		batch, _, err := s.parse(" National_ID , FULL_NAME ,Father_Name, Payment_Status \n1234567890,Sara,Hassan,PAID\n")
		s.Require().NoError(err)
		s.Require().Len(batch, 1)
		s.Equal(models.PaymentPaid, batch[0].PaymentStatus)
	})

	s.Run("extra columns allowed", func() {
		batch, _, err := s.parse("seat,national_id,full_name,father_name,payment_status\nA1,1234567890,Sara,Hassan,paid\n")
		s.Require().NoError(err)
		s.Len(batch, 1)
	})

	s.Run("missing column fails validation", func() {
		_, _, err := s.parse("national_id,full_name,payment_status\n1234567890,Sara,paid\n")
		s.Require().ErrorIs(err, ErrValidation)
	})

	s.Run("empty input fails validation", func() {
		_, _, err := s.parse("")
		s.Require().ErrorIs(err, ErrValidation)
	})
}

// TestRowHandling verifies invalid rows are skipped, not fatal.
func (s *ParseSuite) TestRowHandling() {
	csv := "national_id,full_name,father_name,payment_status\n" +
		"1234567890,Sara Ahmadi,Hassan,paid\n" +
		"12345,Short Id,Nobody,paid\n" +
		"abcdefghij,Letters,Nobody,unpaid\n" +
		"9876543210,Ali Rezaei,Mohsen,something-else\n"

	batch, skipped, err := s.parse(csv)
	s.Require().NoError(err)
	s.Equal(1, skipped) // letters row; the short id zero-pads to validity
	s.Require().Len(batch, 3)

	s.Equal("0000012345", batch[1].NationalID)
	s.Equal(models.PaymentUnpaid, batch[2].PaymentStatus, "unknown payment text defaults to unpaid")
}

// TestNormalizeNationalID verifies leading-zero restoration.
func (s *ParseSuite) TestNormalizeNationalID() {
	cases := map[string]string{
		"1234567890":   "1234567890",
		"12345":        "0000012345",
		" 12345 ":      "0000012345",
		"":             "",
		"12a45":        "12a45",
		"123456789012": "123456789012",
	}
	for in, want := range cases {
		s.Equal(want, NormalizeNationalID(in), "input %q", in)
	}
}
