// Package stats assembles live counts and export datasets from the
// participant and check-in stores. Read-only; it never touches locks.
package stats

import (
	"context"
	"fmt"
	"time"

	"gatekeeper/internal/checkin/models"
)

// ParticipantStore is the roster read surface stats needs.
type ParticipantStore interface {
	List(ctx context.Context) ([]models.Participant, error)
	Count(ctx context.Context) (int, error)
	CountUnpaid(ctx context.Context) (int, error)
}

// RecordStore is the check-in read surface stats needs.
type RecordStore interface {
	CountByDisposition(ctx context.Context) (map[models.Disposition]int, error)
	ListAll(ctx context.Context) ([]models.CheckinRecord, error)
}

// Summary is the live stats snapshot shown to elevated operators.
type Summary struct {
	Total          int `json:"total"`
	Confirmed      int `json:"confirmed"`
	Emergency      int `json:"emergency"`
	Rejected       int `json:"rejected"`
	CheckedInTotal int `json:"checked_in_total"`
	Remaining      int `json:"remaining"`
	UnpaidCount    int `json:"unpaid_count"`
}

// PresentRow is one line of the present-list export: a participant with a
// confirmed or emergency disposition.
type PresentRow struct {
	FullName      string
	NationalID    string
	PaymentStatus models.PaymentStatus
	OperatorID    string
	RecordedAt    time.Time
}

// AbsentRow is one line of the absent-list export: a roster row with no
// check-in record at all. Rejected participants appear on neither list.
type AbsentRow struct {
	FullName      string
	NationalID    string
	FatherName    string
	PaymentStatus models.PaymentStatus
}

// Service computes summaries and export datasets.
type Service struct {
	participants ParticipantStore
	records      RecordStore
}

func New(participants ParticipantStore, records RecordStore) (*Service, error) {
	if participants == nil || records == nil {
		return nil, fmt.Errorf("participant and record stores are required")
	}
	return &Service{participants: participants, records: records}, nil
}

// Summary returns the live snapshot. Only confirmed and emergency count as
// checked in; rejected stays separate, matching the reporting convention.
func (s *Service) Summary(ctx context.Context) (*Summary, error) {
	total, err := s.participants.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("count participants: %w", err)
	}
	unpaid, err := s.participants.CountUnpaid(ctx)
	if err != nil {
		return nil, fmt.Errorf("count unpaid: %w", err)
	}
	counts, err := s.records.CountByDisposition(ctx)
	if err != nil {
		return nil, fmt.Errorf("count dispositions: %w", err)
	}

	summary := &Summary{
		Total:       total,
		Confirmed:   counts[models.DispositionConfirmed],
		Emergency:   counts[models.DispositionEmergency],
		Rejected:    counts[models.DispositionRejected],
		UnpaidCount: unpaid,
	}
	summary.CheckedInTotal = summary.Confirmed + summary.Emergency
	summary.Remaining = summary.Total - summary.CheckedInTotal
	return summary, nil
}

// PresentList returns roster rows admitted as confirmed or emergency, in
// record order. Emergency admits without a roster row still appear, with
// only their identity filled in.
func (s *Service) PresentList(ctx context.Context) ([]PresentRow, error) {
	records, err := s.records.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}
	roster, err := s.participants.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list participants: %w", err)
	}
	byID := make(map[string]models.Participant, len(roster))
	for _, p := range roster {
		byID[p.NationalID] = p
	}

	var out []PresentRow
	for _, rec := range records {
		if rec.Disposition != models.DispositionConfirmed && rec.Disposition != models.DispositionEmergency {
			continue
		}
		row := PresentRow{
			NationalID: rec.NationalID,
			OperatorID: rec.OperatorID,
			RecordedAt: rec.RecordedAt,
		}
		if p, ok := byID[rec.NationalID]; ok {
			row.FullName = p.FullName
			row.PaymentStatus = p.PaymentStatus
		}
		out = append(out, row)
	}
	return out, nil
}

// AbsentList returns roster rows that have no check-in record.
func (s *Service) AbsentList(ctx context.Context) ([]AbsentRow, error) {
	roster, err := s.participants.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list participants: %w", err)
	}
	records, err := s.records.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}
	processed := make(map[string]struct{}, len(records))
	for _, rec := range records {
		processed[rec.NationalID] = struct{}{}
	}

	var out []AbsentRow
	for _, p := range roster {
		if _, ok := processed[p.NationalID]; ok {
			continue
		}
		out = append(out, AbsentRow{
			FullName:      p.FullName,
			NationalID:    p.NationalID,
			FatherName:    p.FatherName,
			PaymentStatus: p.PaymentStatus,
		})
	}
	return out, nil
}
