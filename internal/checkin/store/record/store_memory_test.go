package record

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"gatekeeper/internal/checkin/models"
	"gatekeeper/pkg/platform/sentinel"
)

type RecordStoreSuite struct {
	suite.Suite
	store *InMemoryStore
	ctx   context.Context
}

func (s *RecordStoreSuite) SetupTest() {
	s.store = NewInMemory()
	s.ctx = context.Background()
}

func TestRecordStoreSuite(t *testing.T) {
	suite.Run(t, new(RecordStoreSuite))
}

func (s *RecordStoreSuite) newRecord(id, operator string, d models.Disposition) models.CheckinRecord {
	return models.CheckinRecord{
		NationalID:  id,
		OperatorID:  operator,
		Disposition: d,
		RecordedAt:  time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC),
	}
}

// TestInsertOnly verifies a record is final once written.
func (s *RecordStoreSuite) TestInsertOnly() {
	s.Run("inserts and reads back", func() {
		rec := s.newRecord("1234567890", "op-a", models.DispositionConfirmed)
		s.Require().NoError(s.store.Insert(s.ctx, rec))

		got, err := s.store.Get(s.ctx, "1234567890")
		s.Require().NoError(err)
		s.Equal(models.DispositionConfirmed, got.Disposition)
		s.Equal("op-a", got.OperatorID)
	})

	s.Run("second insert conflicts and mutates nothing", func() {
		err := s.store.Insert(s.ctx, s.newRecord("1234567890", "op-b", models.DispositionRejected))
		s.Require().ErrorIs(err, sentinel.ErrConflict)

		got, err := s.store.Get(s.ctx, "1234567890")
		s.Require().NoError(err)
		s.Equal(models.DispositionConfirmed, got.Disposition)
		s.Equal("op-a", got.OperatorID)
	})

	s.Run("unknown identity yields ErrNotFound", func() {
		_, err := s.store.Get(s.ctx, "0000000000")
		s.Require().ErrorIs(err, sentinel.ErrNotFound)
	})
}

// TestAggregates verifies the counting and listing surface used by stats.
func (s *RecordStoreSuite) TestAggregates() {
	s.Require().NoError(s.store.Insert(s.ctx, s.newRecord("1111111111", "op-a", models.DispositionConfirmed)))
	s.Require().NoError(s.store.Insert(s.ctx, s.newRecord("2222222222", "op-a", models.DispositionConfirmed)))
	s.Require().NoError(s.store.Insert(s.ctx, s.newRecord("3333333333", "op-b", models.DispositionEmergency)))
	s.Require().NoError(s.store.Insert(s.ctx, s.newRecord("4444444444", "op-b", models.DispositionRejected)))

	counts, err := s.store.CountByDisposition(s.ctx)
	s.Require().NoError(err)
	s.Equal(2, counts[models.DispositionConfirmed])
	s.Equal(1, counts[models.DispositionEmergency])
	s.Equal(1, counts[models.DispositionRejected])

	all, err := s.store.ListAll(s.ctx)
	s.Require().NoError(err)
	s.Len(all, 4)
}
