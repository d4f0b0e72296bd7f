package pipeline

import (
	"strings"
	"time"
	"unicode"

	"github.com/adpulse/adpulse/internal/contracts"
)

// rowIdentity is the deduplication key: two rows with the same identity are
// exact duplicates within a batch.
type rowIdentity struct {
	date        time.Time
	campaign    string
	impressions int64
	clicks      int64
	spend       float64
	revenue     float64
}

// CleanBatch normalizes campaign names and drops exact duplicates within the
// batch, keeping the first occurrence. Input order is preserved for the
// retained rows. Returns the cleaned batch and the number of rows dropped.
func CleanBatch(rows []contracts.RawRecord) ([]contracts.RawRecord, int) {
	seen := make(map[rowIdentity]struct{}, len(rows))
	kept := make([]contracts.RawRecord, 0, len(rows))
	dropped := 0

	for _, rec := range rows {
		rec.CampaignName = NormalizeCampaign(rec.CampaignName)
		id := rowIdentity{
			date:        rec.Date,
			campaign:    rec.CampaignName,
			impressions: rec.Impressions,
			clicks:      rec.Clicks,
			spend:       rec.Spend,
			revenue:     rec.Revenue,
		}
		if _, dup := seen[id]; dup {
			dropped++
			continue
		}
		seen[id] = struct{}{}
		kept = append(kept, rec)
	}

	return kept, dropped
}

// NormalizeCampaign produces the canonical campaign name: surrounding
// whitespace trimmed, internal whitespace collapsed to single spaces, and
// each word title-cased. The canonical form is the group-by key everywhere
// downstream, so it is applied once here and stored as-is.
func NormalizeCampaign(name string) string {
	words := strings.Fields(name)
	for i, w := range words {
		words[i] = titleWord(w)
	}
	return strings.Join(words, " ")
}

func titleWord(w string) string {
	runes := []rune(strings.ToLower(w))
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}
