package importer

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/suite"

	"gatekeeper/internal/checkin/models"
	participantStore "gatekeeper/internal/checkin/store/participant"
	"gatekeeper/internal/platform/logger"
)

const validRoster = "national_id,full_name,father_name,payment_status\n" +
	"1234567890,Sara Ahmadi,Hassan,paid\n" +
	"9876543210,Ali Rezaei,Mohsen,unpaid\n"

type failingStore struct{}

func (failingStore) UpsertBatch(context.Context, []models.Participant) error {
	return errors.New("connection refused")
}

type importAudit struct {
	actions []string
	details []string
}

func (a *importAudit) Record(_ context.Context, action, _, _, details string) {
	a.actions = append(a.actions, action)
	a.details = append(a.details, details)
}

type ImporterSuite struct {
	suite.Suite
	workflow     *Workflow
	participants *participantStore.InMemoryStore
	audit        *importAudit
	ctx          context.Context
}

func (s *ImporterSuite) SetupTest() {
	s.ctx = context.Background()
	s.participants = participantStore.NewInMemory()
	s.audit = &importAudit{}

	var err error
	s.workflow, err = New(s.participants,
		WithLogger(logger.NewNop()), WithAuditor(s.audit))
	s.Require().NoError(err)
}

func TestImporterSuite(t *testing.T) {
	suite.Run(t, new(ImporterSuite))
}

// TestUploadGate verifies files are only accepted after an explicit request.
func (s *ImporterSuite) TestUploadGate() {
	s.Run("unrequested upload is refused", func() {
		p := s.workflow.HandleUpload(s.ctx, "admin-1", validRoster)
		s.Equal(msgNotAwaiting, p.Text)

		count, err := s.participants.Count(s.ctx)
		s.Require().NoError(err)
		s.Zero(count)
	})

	s.Run("requested upload lands", func() {
		p := s.workflow.RequestUpload(s.ctx, "admin-1")
		s.Equal(msgSendFile, p.Text)
		s.True(s.workflow.AwaitingFile("admin-1"))

		p = s.workflow.HandleUpload(s.ctx, "admin-1", validRoster)
		s.Contains(p.Text, "2 participants updated")
		s.False(s.workflow.AwaitingFile("admin-1"))

		got, err := s.participants.Get(s.ctx, "1234567890")
		s.Require().NoError(err)
		s.Equal("Sara Ahmadi", got.FullName)
		s.Equal(models.PaymentPaid, got.PaymentStatus)
	})

	s.Run("gate closes after success", func() {
		p := s.workflow.HandleUpload(s.ctx, "admin-1", validRoster)
		s.Equal(msgNotAwaiting, p.Text)
	})
}

// TestRepeatedImportIdempotent verifies re-importing the same file changes
// nothing but the import timestamp.
func (s *ImporterSuite) TestRepeatedImportIdempotent() {
	s.workflow.RequestUpload(s.ctx, "admin-1")
	s.workflow.HandleUpload(s.ctx, "admin-1", validRoster)

	s.workflow.RequestUpload(s.ctx, "admin-1")
	p := s.workflow.HandleUpload(s.ctx, "admin-1", validRoster)
	s.Contains(p.Text, "2 participants updated")

	count, err := s.participants.Count(s.ctx)
	s.Require().NoError(err)
	s.Equal(2, count)
}

// TestValidationKeepsGateOpen verifies a structurally broken file can be
// corrected and resent without a new request.
func (s *ImporterSuite) TestValidationKeepsGateOpen() {
	s.workflow.RequestUpload(s.ctx, "admin-1")

	p := s.workflow.HandleUpload(s.ctx, "admin-1", "full_name,father_name\nSara,Hassan\n")
	s.Equal(msgUploadInvalid, p.Text)
	s.True(s.workflow.AwaitingFile("admin-1"))

	p = s.workflow.HandleUpload(s.ctx, "admin-1", validRoster)
	s.Contains(p.Text, "2 participants updated")
}

// TestStoreFailureKeepsGateOpen verifies a failed upsert asks for a resend.
func (s *ImporterSuite) TestStoreFailureKeepsGateOpen() {
	w, err := New(failingStore{}, WithLogger(logger.NewNop()))
	s.Require().NoError(err)

	w.RequestUpload(s.ctx, "admin-1")
	p := w.HandleUpload(s.ctx, "admin-1", validRoster)
	s.Equal(msgUploadRetry, p.Text)
	s.True(w.AwaitingFile("admin-1"))
}

// TestSkippedRowsReported verifies invalid ids skip individual rows only.
func (s *ImporterSuite) TestSkippedRowsReported() {
	roster := "national_id,full_name,father_name,payment_status\n" +
		"1234567890,Sara Ahmadi,Hassan,paid\n" +
		"not-a-number,Broken Row,Nobody,paid\n"

	s.workflow.RequestUpload(s.ctx, "admin-1")
	p := s.workflow.HandleUpload(s.ctx, "admin-1", roster)
	s.Contains(p.Text, "1 participants updated")
	s.Contains(p.Text, "1 rows skipped")

	s.Require().Len(s.audit.actions, 1)
	s.Equal("import_completed", s.audit.actions[0])
	s.Equal("rows=1 skipped=1", s.audit.details[0])
}

// TestCancel verifies cancel closes the gate without importing.
func (s *ImporterSuite) TestCancel() {
	s.workflow.RequestUpload(s.ctx, "admin-1")
	p := s.workflow.Cancel(s.ctx, "admin-1")
	s.Equal(msgCancelled, p.Text)
	s.False(s.workflow.AwaitingFile("admin-1"))
}

// TestGateIsPerOperator verifies one admin's request never opens another's.
func (s *ImporterSuite) TestGateIsPerOperator() {
	s.workflow.RequestUpload(s.ctx, "admin-1")

	p := s.workflow.HandleUpload(s.ctx, "admin-2", validRoster)
	s.Equal(msgNotAwaiting, p.Text)
	s.True(s.workflow.AwaitingFile("admin-1"))
}
