package participant

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"gatekeeper/internal/checkin/models"
	"gatekeeper/pkg/platform/sentinel"
)

type ParticipantStoreSuite struct {
	suite.Suite
	store *InMemoryStore
	ctx   context.Context
}

func (s *ParticipantStoreSuite) SetupTest() {
	s.store = NewInMemory()
	s.ctx = context.Background()
}

func TestParticipantStoreSuite(t *testing.T) {
	suite.Run(t, new(ParticipantStoreSuite))
}

func (s *ParticipantStoreSuite) newParticipant(id, name string, status models.PaymentStatus) models.Participant {
	return models.Participant{
		NationalID:    id,
		FullName:      name,
		FatherName:    "Hassan",
		PaymentStatus: status,
		ImportedAt:    time.Date(2026, 3, 14, 8, 0, 0, 0, time.UTC),
	}
}

// TestUpsert verifies import overwrites by identity.
func (s *ParticipantStoreSuite) TestUpsert() {
	s.Run("inserts a new row", func() {
		s.Require().NoError(s.store.Upsert(s.ctx, s.newParticipant("1234567890", "Sara Ahmadi", models.PaymentPaid)))

		got, err := s.store.Get(s.ctx, "1234567890")
		s.Require().NoError(err)
		s.Equal("Sara Ahmadi", got.FullName)
	})

	s.Run("re-upsert overwrites in place", func() {
		s.Require().NoError(s.store.Upsert(s.ctx, s.newParticipant("1234567890", "Sara Ahmadi", models.PaymentUnpaid)))

		got, err := s.store.Get(s.ctx, "1234567890")
		s.Require().NoError(err)
		s.Equal(models.PaymentUnpaid, got.PaymentStatus)

		count, err := s.store.Count(s.ctx)
		s.Require().NoError(err)
		s.Equal(1, count)
	})

	s.Run("unknown identity yields ErrNotFound", func() {
		_, err := s.store.Get(s.ctx, "0000000000")
		s.Require().ErrorIs(err, sentinel.ErrNotFound)
	})
}

// TestUpsertBatch verifies import batches land atomically from the caller's
// point of view and repeated batches are idempotent.
func (s *ParticipantStoreSuite) TestUpsertBatch() {
	batch := []models.Participant{
		s.newParticipant("1111111111", "Ali Rezaei", models.PaymentPaid),
		s.newParticipant("2222222222", "Maryam Karimi", models.PaymentUnpaid),
	}

	s.Require().NoError(s.store.UpsertBatch(s.ctx, batch))
	count, err := s.store.Count(s.ctx)
	s.Require().NoError(err)
	s.Equal(2, count)

	s.Require().NoError(s.store.UpsertBatch(s.ctx, batch))
	count, err = s.store.Count(s.ctx)
	s.Require().NoError(err)
	s.Equal(2, count)
}

// TestSearch verifies substring matching over names with a result bound.
func (s *ParticipantStoreSuite) TestSearch() {
	s.Require().NoError(s.store.Upsert(s.ctx, s.newParticipant("1111111111", "Ali Rezaei", models.PaymentPaid)))
	s.Require().NoError(s.store.Upsert(s.ctx, s.newParticipant("2222222222", "Alireza Moradi", models.PaymentPaid)))
	s.Require().NoError(s.store.Upsert(s.ctx, s.newParticipant("3333333333", "Maryam Karimi", models.PaymentPaid)))

	s.Run("matches substring of full name", func() {
		hits, err := s.store.Search(s.ctx, "Ali", 10)
		s.Require().NoError(err)
		s.Len(hits, 2)
	})

	s.Run("matches father name", func() {
		hits, err := s.store.Search(s.ctx, "Hassan", 10)
		s.Require().NoError(err)
		s.Len(hits, 3)
	})

	s.Run("honors the limit", func() {
		hits, err := s.store.Search(s.ctx, "Hassan", 2)
		s.Require().NoError(err)
		s.Len(hits, 2)
	})

	s.Run("no hits yields empty slice", func() {
		hits, err := s.store.Search(s.ctx, "Nobody", 10)
		s.Require().NoError(err)
		s.Empty(hits)
	})
}

// TestCounts verifies the roster aggregates used by stats.
func (s *ParticipantStoreSuite) TestCounts() {
	s.Require().NoError(s.store.Upsert(s.ctx, s.newParticipant("1111111111", "Ali Rezaei", models.PaymentPaid)))
	s.Require().NoError(s.store.Upsert(s.ctx, s.newParticipant("2222222222", "Maryam Karimi", models.PaymentUnpaid)))
	s.Require().NoError(s.store.Upsert(s.ctx, s.newParticipant("3333333333", "Reza Ghasemi", models.PaymentUnpaid)))

	count, err := s.store.Count(s.ctx)
	s.Require().NoError(err)
	s.Equal(3, count)

	unpaid, err := s.store.CountUnpaid(s.ctx)
	s.Require().NoError(err)
	s.Equal(2, unpaid)

	all, err := s.store.List(s.ctx)
	s.Require().NoError(err)
	s.Len(all, 3)
}
