//go:build integration

package participant_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"gatekeeper/internal/checkin/models"
	"gatekeeper/internal/checkin/store/participant"
	"gatekeeper/internal/platform/postgres"
	"gatekeeper/pkg/testutil/containers"
)

type PostgresParticipantSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *participant.PostgresStore
	ctx      context.Context
}

func TestPostgresParticipantSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresParticipantSuite))
}

func (s *PostgresParticipantSuite) SetupSuite() {
	s.ctx = context.Background()
	s.postgres = containers.NewPostgresContainer(s.T())
	s.Require().NoError(postgres.EnsureSchema(s.ctx, s.postgres.DB))
	s.store = participant.NewPostgres(s.postgres.DB)
}

func (s *PostgresParticipantSuite) SetupTest() {
	s.Require().NoError(s.postgres.TruncateTables(s.ctx, "participants"))
}

func (s *PostgresParticipantSuite) newParticipant(id, name string, status models.PaymentStatus) models.Participant {
	return models.Participant{
		NationalID:    id,
		FullName:      name,
		FatherName:    "Hassan",
		PaymentStatus: status,
		ImportedAt:    time.Now().UTC().Truncate(time.Microsecond),
	}
}

// TestUpsertBatch verifies batch import overwrites rows in place and is
// idempotent across repeated files.
func (s *PostgresParticipantSuite) TestUpsertBatch() {
	batch := []models.Participant{
		s.newParticipant("1234567890", "Sara Ahmadi", models.PaymentPaid),
		s.newParticipant("9876543210", "Ali Rezaei", models.PaymentUnpaid),
	}
	s.Require().NoError(s.store.UpsertBatch(s.ctx, batch))

	count, err := s.store.Count(s.ctx)
	s.Require().NoError(err)
	s.Equal(2, count)

	// Second file flips a payment status; rows are replaced, not duplicated.
	batch[1].PaymentStatus = models.PaymentPaid
	s.Require().NoError(s.store.UpsertBatch(s.ctx, batch))

	count, err = s.store.Count(s.ctx)
	s.Require().NoError(err)
	s.Equal(2, count)

	got, err := s.store.Get(s.ctx, "9876543210")
	s.Require().NoError(err)
	s.Equal(models.PaymentPaid, got.PaymentStatus)

	unpaid, err := s.store.CountUnpaid(s.ctx)
	s.Require().NoError(err)
	s.Zero(unpaid)
}

// TestSearch verifies name substring matching with ordering and bound.
func (s *PostgresParticipantSuite) TestSearch() {
	s.Require().NoError(s.store.UpsertBatch(s.ctx, []models.Participant{
		s.newParticipant("1111111111", "Ali Rezaei", models.PaymentPaid),
		s.newParticipant("2222222222", "Alireza Moradi", models.PaymentPaid),
		s.newParticipant("3333333333", "Maryam Karimi", models.PaymentPaid),
	}))

	hits, err := s.store.Search(s.ctx, "Ali", 10)
	s.Require().NoError(err)
	s.Require().Len(hits, 2)
	s.Equal("Ali Rezaei", hits[0].FullName)

	hits, err = s.store.Search(s.ctx, "Hassan", 1)
	s.Require().NoError(err)
	s.Len(hits, 1)

	hits, err = s.store.Search(s.ctx, "Nobody", 10)
	s.Require().NoError(err)
	s.Empty(hits)
}
