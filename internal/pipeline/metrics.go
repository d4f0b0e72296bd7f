package pipeline

import (
	"time"

	"github.com/adpulse/adpulse/internal/contracts"
)

// Enrich derives CTR, CPC and ROI for one cleaned row. Zero denominators
// yield 0, never an error. Values are kept unrounded; rounding is a
// presentation concern at the transport boundary.
func Enrich(rec contracts.RawRecord, at time.Time) contracts.EnrichedRecord {
	out := contracts.EnrichedRecord{RawRecord: rec, CalculatedAt: at}

	if rec.Impressions > 0 {
		out.CTR = float64(rec.Clicks) / float64(rec.Impressions) * 100
	}
	if rec.Clicks > 0 {
		out.CPC = rec.Spend / float64(rec.Clicks)
	}
	if rec.Spend > 0 {
		out.ROI = (rec.Revenue - rec.Spend) / rec.Spend * 100
	}

	return out
}

// EnrichBatch enriches every row with a shared calculation timestamp.
func EnrichBatch(recs []contracts.RawRecord, at time.Time) []contracts.EnrichedRecord {
	out := make([]contracts.EnrichedRecord, len(recs))
	for i, rec := range recs {
		out[i] = Enrich(rec, at)
	}
	return out
}
