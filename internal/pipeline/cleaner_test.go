package pipeline

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adpulse/adpulse/internal/contracts"
)

func TestNormalizeCampaign(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"google search", "Google Search"},
		{"  GOOGLE   SEARCH  ", "Google Search"},
		{"Google Search", "Google Search"},
		{"fb retargeting Q1", "Fb Retargeting Q1"},
		{"", ""},
		{"   ", ""},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, NormalizeCampaign(tt.in), "input %q", tt.in)
	}
}

func TestCleanBatch_DropsExactDuplicates(t *testing.T) {
	day := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	rec := contracts.RawRecord{
		Date:         day,
		CampaignName: "google search",
		Impressions:  100,
		Clicks:       10,
		Spend:        50,
		Revenue:      200,
	}
	// Same identity with different raw casing collapses after normalization.
	dup := rec
	dup.CampaignName = "  GOOGLE search "

	kept, dropped := CleanBatch([]contracts.RawRecord{rec, dup, rec})
	require.Len(t, kept, 1)
	assert.Equal(t, 2, dropped)
	assert.Equal(t, "Google Search", kept[0].CampaignName)
}

func TestCleanBatch_NearDuplicatesKept(t *testing.T) {
	day := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	a := contracts.RawRecord{Date: day, CampaignName: "Email Blast", Impressions: 100, Clicks: 10, Spend: 50, Revenue: 200}
	b := a
	b.Spend = 50.01

	kept, dropped := CleanBatch([]contracts.RawRecord{a, b})
	assert.Len(t, kept, 2)
	assert.Equal(t, 0, dropped)
}

func TestCleanBatch_PreservesOrder(t *testing.T) {
	day := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	names := []string{"alpha", "beta", "gamma"}
	rows := make([]contracts.RawRecord, 0, len(names))
	for i, n := range names {
		rows = append(rows, contracts.RawRecord{Date: day, CampaignName: n, Impressions: int64(i + 1)})
	}

	kept, dropped := CleanBatch(rows)
	require.Len(t, kept, 3)
	assert.Equal(t, 0, dropped)
	assert.Equal(t, "Alpha", kept[0].CampaignName)
	assert.Equal(t, "Beta", kept[1].CampaignName)
	assert.Equal(t, "Gamma", kept[2].CampaignName)
}
