package importer

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"time"

	"gatekeeper/internal/checkin/models"
)

// Parse reads a CSV roster into participant rows. The header row is matched
// case-insensitively with surrounding whitespace ignored; extra columns are
// allowed. Rows whose national id cannot be normalized to the fixed format
// are skipped and counted rather than failing the whole file.
func Parse(r io.Reader, importedAt time.Time) ([]models.Participant, int, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, 0, fmt.Errorf("%w: unreadable header", ErrValidation)
	}

	index := make(map[string]int, len(header))
	for i, col := range header {
		index[strings.ToLower(strings.TrimSpace(col))] = i
	}
	for _, col := range requiredColumns {
		if _, ok := index[col]; !ok {
			return nil, 0, fmt.Errorf("%w: missing column %q", ErrValidation, col)
		}
	}

	var batch []models.Participant
	skipped := 0
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, 0, fmt.Errorf("read roster row: %w", err)
		}

		nationalID := NormalizeNationalID(field(row, index["national_id"]))
		if !models.ValidNationalID(nationalID) {
			skipped++
			continue
		}
		batch = append(batch, models.Participant{
			NationalID:    nationalID,
			FullName:      strings.TrimSpace(field(row, index["full_name"])),
			FatherName:    strings.TrimSpace(field(row, index["father_name"])),
			PaymentStatus: normalizePayment(field(row, index["payment_status"])),
			ImportedAt:    importedAt,
		})
	}
	return batch, skipped, nil
}

// NormalizeNationalID trims the raw cell and restores leading zeros that
// spreadsheet tools strip from numeric-looking identifiers.
func NormalizeNationalID(raw string) string {
	s := strings.TrimSpace(raw)
	if s == "" || len(s) >= models.NationalIDLength {
		return s
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return s
		}
	}
	return strings.Repeat("0", models.NationalIDLength-len(s)) + s
}

func normalizePayment(raw string) models.PaymentStatus {
	if strings.EqualFold(strings.TrimSpace(raw), string(models.PaymentPaid)) {
		return models.PaymentPaid
	}
	return models.PaymentUnpaid
}

func field(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return row[i]
}
