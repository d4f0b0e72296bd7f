package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adpulse/adpulse/internal/contracts"
)

func rec(d time.Time, name string, impressions int64) contracts.EnrichedRecord {
	return contracts.EnrichedRecord{
		RawRecord: contracts.RawRecord{
			Date:         d,
			CampaignName: name,
			Impressions:  impressions,
		},
		CalculatedAt: time.Now().UTC(),
	}
}

func appendOne(t *testing.T, m *Memory, e contracts.EnrichedRecord) {
	t.Helper()
	err := m.AppendBatch(context.Background(), []contracts.RawRecord{e.RawRecord}, []contracts.EnrichedRecord{e}, contracts.IngestOutcome{
		SourceName:   "test.csv",
		RowsAccepted: 1,
		Status:       contracts.StatusSuccess,
		Timestamp:    time.Now().UTC(),
	})
	require.NoError(t, err)
}

func TestMemory_AppendBatchKeepsRawEnrichedAndOutcome(t *testing.T) {
	m := NewMemory()
	d := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)
	appendOne(t, m, rec(d, "Alpha", 100))

	assert.Equal(t, 1, m.RawCount())

	recs, err := m.Records(context.Background(), contracts.RecordFilter{})
	require.NoError(t, err)
	assert.Len(t, recs, 1)

	outcomes, err := m.Recent(context.Background(), 5)
	require.NoError(t, err)
	assert.Len(t, outcomes, 1)
}

func TestMemory_RecordsFilterAndOrder(t *testing.T) {
	m := NewMemory()
	d1 := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)
	d2 := time.Date(2026, 4, 2, 0, 0, 0, 0, time.UTC)
	appendOne(t, m, rec(d1, "Google Search", 100))
	appendOne(t, m, rec(d2, "Email Blast", 200))
	appendOne(t, m, rec(d2, "Google Display", 300))

	recs, err := m.Records(context.Background(), contracts.RecordFilter{})
	require.NoError(t, err)
	require.Len(t, recs, 3)
	// Newest date first, then campaign name ascending.
	assert.Equal(t, "Email Blast", recs[0].CampaignName)
	assert.Equal(t, "Google Display", recs[1].CampaignName)
	assert.Equal(t, "Google Search", recs[2].CampaignName)

	recs, err = m.Records(context.Background(), contracts.RecordFilter{Campaign: "google"})
	require.NoError(t, err)
	assert.Len(t, recs, 2)

	from := d2
	recs, err = m.Records(context.Background(), contracts.RecordFilter{DateFrom: &from})
	require.NoError(t, err)
	assert.Len(t, recs, 2)

	to := d1
	recs, err = m.Records(context.Background(), contracts.RecordFilter{DateTo: &to})
	require.NoError(t, err)
	assert.Len(t, recs, 1)
}

func TestMemory_RecentNewestFirstAndLimited(t *testing.T) {
	m := NewMemory()
	for i := 1; i <= 4; i++ {
		require.NoError(t, m.Record(context.Background(), contracts.IngestOutcome{
			SourceName: "batch",
			Timestamp:  time.Date(2026, 4, i, 0, 0, 0, 0, time.UTC),
		}))
	}

	outcomes, err := m.Recent(context.Background(), 2)
	require.NoError(t, err)
	require.Len(t, outcomes, 2)
	assert.Equal(t, 4, outcomes[0].Timestamp.Day())
	assert.Equal(t, 3, outcomes[1].Timestamp.Day())
}

func TestMemory_PruneBefore(t *testing.T) {
	m := NewMemory()
	for i := 1; i <= 4; i++ {
		require.NoError(t, m.Record(context.Background(), contracts.IngestOutcome{
			Timestamp: time.Date(2026, 4, i, 0, 0, 0, 0, time.UTC),
		}))
	}

	removed, err := m.PruneBefore(context.Background(), time.Date(2026, 4, 3, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, int64(2), removed)

	outcomes, err := m.Recent(context.Background(), 10)
	require.NoError(t, err)
	assert.Len(t, outcomes, 2)
}
