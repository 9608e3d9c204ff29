package httptransport

import (
	"encoding/csv"
	"net/http"
	"time"

	dErrors "gatekeeper/pkg/domain-errors"
)

// handleExportPresent streams the present list (confirmed and emergency
// admissions) as CSV.
func (h *Handler) handleExportPresent(w http.ResponseWriter, r *http.Request) {
	rows, err := h.stats.PresentList(r.Context())
	if err != nil {
		writeError(w, dErrors.Wrap(err, dErrors.CodeUnavailable, "export unavailable"))
		return
	}

	records := [][]string{{"full_name", "national_id", "payment_status", "operator_id", "recorded_at"}}
	for _, row := range rows {
		records = append(records, []string{
			row.FullName,
			row.NationalID,
			string(row.PaymentStatus),
			row.OperatorID,
			row.RecordedAt.Format(time.RFC3339),
		})
	}
	writeCSV(w, "present_list.csv", records)
}

// handleExportAbsent streams roster rows with no check-in record as CSV.
func (h *Handler) handleExportAbsent(w http.ResponseWriter, r *http.Request) {
	rows, err := h.stats.AbsentList(r.Context())
	if err != nil {
		writeError(w, dErrors.Wrap(err, dErrors.CodeUnavailable, "export unavailable"))
		return
	}

	records := [][]string{{"full_name", "national_id", "father_name", "payment_status"}}
	for _, row := range rows {
		records = append(records, []string{
			row.FullName,
			row.NationalID,
			row.FatherName,
			string(row.PaymentStatus),
		})
	}
	writeCSV(w, "absent_list.csv", records)
}

func writeCSV(w http.ResponseWriter, filename string, records [][]string) {
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	_ = csv.NewWriter(w).WriteAll(records)
}
