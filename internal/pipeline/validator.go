package pipeline

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/adpulse/adpulse/internal/contracts"
)

// RequiredColumns must be present in every batch. "revenue" is optional and
// defaults to 0 when the column or cell is missing.
var RequiredColumns = []string{"date", "campaign_name", "impressions", "clicks", "spend"}

const dateLayout = "2006-01-02"

// ValidateBatch checks a batch of candidate rows against the structural and
// business rules. A structural violation (missing required columns, empty
// batch) rejects the whole batch and returns a *contracts.StructuralError.
// Otherwise rows are coerced one by one; rows that fail type coercion or the
// clicks<=impressions rule are reported in the rejection list while the rest
// of the batch is kept. The check is pure: no side effects.
func ValidateBatch(rows []contracts.RawRow) ([]contracts.RawRecord, []contracts.RowError, error) {
	if len(rows) == 0 {
		return nil, nil, &contracts.StructuralError{Reason: "batch is empty"}
	}

	if missing := missingColumns(rows[0]); len(missing) > 0 {
		return nil, nil, &contracts.StructuralError{MissingColumns: missing}
	}

	accepted := make([]contracts.RawRecord, 0, len(rows))
	var rejected []contracts.RowError
	for i, row := range rows {
		rec, err := coerceRow(row)
		if err != nil {
			rejected = append(rejected, contracts.RowError{Index: i, Reason: err.Error()})
			continue
		}
		if rec.Clicks > rec.Impressions {
			rejected = append(rejected, contracts.RowError{
				Index:  i,
				Reason: fmt.Sprintf("clicks (%d) cannot exceed impressions (%d)", rec.Clicks, rec.Impressions),
			})
			continue
		}
		accepted = append(accepted, rec)
	}

	return accepted, rejected, nil
}

// missingColumns returns the required columns absent from the row's column
// set. Rows in one batch share a header, so checking the first row suffices.
func missingColumns(row contracts.RawRow) []string {
	var missing []string
	for _, col := range RequiredColumns {
		if _, ok := row[col]; !ok {
			missing = append(missing, col)
		}
	}
	return missing
}

// coerceRow converts raw cell text into a typed record. Dates must be
// ISO 8601 calendar dates; anything else is rejected as ambiguous.
// Impressions and clicks must be non-negative integers, spend a non-negative
// decimal. Revenue may be negative (a loss) and defaults to 0 when absent.
func coerceRow(row contracts.RawRow) (contracts.RawRecord, error) {
	var rec contracts.RawRecord

	date, err := time.Parse(dateLayout, strings.TrimSpace(row["date"]))
	if err != nil {
		return rec, fmt.Errorf("invalid date %q (expected YYYY-MM-DD)", row["date"])
	}
	rec.Date = date.UTC()

	rec.CampaignName = strings.TrimSpace(row["campaign_name"])
	if rec.CampaignName == "" {
		return rec, fmt.Errorf("campaign_name is empty")
	}

	if rec.Impressions, err = parseCount("impressions", row["impressions"]); err != nil {
		return rec, err
	}
	if rec.Clicks, err = parseCount("clicks", row["clicks"]); err != nil {
		return rec, err
	}

	rec.Spend, err = strconv.ParseFloat(strings.TrimSpace(row["spend"]), 64)
	if err != nil || !isFinite(rec.Spend) {
		return rec, fmt.Errorf("invalid spend %q", row["spend"])
	}
	if rec.Spend < 0 {
		return rec, fmt.Errorf("spend must be non-negative, got %v", rec.Spend)
	}

	// Revenue is optional; a missing column or empty cell means 0. Negative
	// revenue is allowed, it represents a loss.
	if raw, ok := row["revenue"]; ok && strings.TrimSpace(raw) != "" {
		rec.Revenue, err = strconv.ParseFloat(strings.TrimSpace(raw), 64)
		if err != nil || !isFinite(rec.Revenue) {
			return rec, fmt.Errorf("invalid revenue %q", raw)
		}
	}

	return rec, nil
}

// isFinite rejects the NaN/Inf values ParseFloat happily produces. A
// non-finite amount would poison every aggregate downstream and cannot be
// JSON-encoded, so it is a row error like any other bad cell.
func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func parseCount(field, raw string) (int64, error) {
	v, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q (expected integer)", field, raw)
	}
	if v < 0 {
		return 0, fmt.Errorf("%s must be non-negative, got %d", field, v)
	}
	return v, nil
}
