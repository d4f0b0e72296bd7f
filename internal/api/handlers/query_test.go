package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adpulse/adpulse/internal/contracts"
	"github.com/adpulse/adpulse/internal/pipeline"
	"github.com/adpulse/adpulse/internal/query"
	"github.com/adpulse/adpulse/internal/store"
	"github.com/adpulse/adpulse/pkg/logger"
	"github.com/adpulse/adpulse/pkg/redis"
)

func newQueryFixture(t *testing.T) (*QueryHandler, *store.Memory) {
	t.Helper()
	mem := store.NewMemory()
	log := logger.NewNop()
	queries := query.NewService(mem, mem, redis.NewCache(redis.Disabled(), "test"), log)
	return NewQueryHandler(queries, log), mem
}

func seedRecord(t *testing.T, mem *store.Memory, date time.Time, name string, impressions, clicks int64, spend, revenue float64) {
	t.Helper()
	raw := contracts.RawRecord{
		Date:         date,
		CampaignName: name,
		Impressions:  impressions,
		Clicks:       clicks,
		Spend:        spend,
		Revenue:      revenue,
	}
	e := pipeline.Enrich(raw, time.Now().UTC())
	err := mem.AppendBatch(context.Background(), []contracts.RawRecord{raw}, []contracts.EnrichedRecord{e}, contracts.IngestOutcome{
		SourceName:   "seed.csv",
		RowsAccepted: 1,
		Status:       contracts.StatusSuccess,
		Timestamp:    time.Now().UTC(),
	})
	require.NoError(t, err)
}

func get(t *testing.T, handler http.HandlerFunc, target string) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	rr := httptest.NewRecorder()
	handler(rr, httptest.NewRequest(http.MethodGet, target, nil))

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	return rr, body
}

func TestListRecords_RoundsMetricsForDisplay(t *testing.T) {
	h, mem := newQueryFixture(t)
	// CTR = 1/3*100 = 33.333...; served as 33.33.
	seedRecord(t, mem, time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC), "Alpha", 3, 1, 10, 10)

	rr, body := get(t, h.ListRecords, "/api/records")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, float64(1), body["count"])

	data := body["data"].([]interface{})
	rec := data[0].(map[string]interface{})
	assert.Equal(t, "2026-05-01", rec["date"])
	assert.Equal(t, 33.33, rec["ctr"])
	assert.Equal(t, 10.0, rec["cpc"])
}

func TestListRecords_BadDateFilter(t *testing.T) {
	h, _ := newQueryFixture(t)

	rr, _ := get(t, h.ListRecords, "/api/records?date_from=01-05-2026")
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestGetSummary(t *testing.T) {
	h, mem := newQueryFixture(t)
	seedRecord(t, mem, time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC), "Alpha", 10, 5, 100, 150)
	seedRecord(t, mem, time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC), "Beta", 1000, 10, 100, 300)

	rr, body := get(t, h.GetSummary, "/api/summary")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, float64(1010), body["total_impressions"])
	assert.Equal(t, float64(2), body["campaign_count"])
	// Mean of 50% and 1%, rounded to two decimals.
	assert.Equal(t, 25.5, body["avg_ctr"])
}

func TestListCampaigns(t *testing.T) {
	h, mem := newQueryFixture(t)
	seedRecord(t, mem, time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC), "Zeta", 10, 1, 1, 1)
	seedRecord(t, mem, time.Date(2026, 5, 2, 0, 0, 0, 0, time.UTC), "Alpha", 10, 1, 1, 1)

	rr, body := get(t, h.ListCampaigns, "/api/campaigns")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, []interface{}{"Alpha", "Zeta"}, body["campaigns"])
}

func TestGetDailyRollup(t *testing.T) {
	h, mem := newQueryFixture(t)
	seedRecord(t, mem, time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC), "Alpha", 10, 5, 100, 150)
	seedRecord(t, mem, time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC), "Beta", 1000, 10, 100, 300)

	rr, body := get(t, h.GetDailyRollup, "/api/daily")
	assert.Equal(t, http.StatusOK, rr.Code)

	data := body["data"].([]interface{})
	require.Len(t, data, 1)
	d := data[0].(map[string]interface{})
	assert.Equal(t, "2026-05-01", d["date"])
	// Day-total CTR, not the per-record mean: 15/1010*100 rounded.
	assert.Equal(t, 1.49, d["ctr"])
	assert.Equal(t, float64(2), d["campaigns"])
}

func TestGetTopCampaigns(t *testing.T) {
	h, mem := newQueryFixture(t)
	seedRecord(t, mem, time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC), "Alpha", 100, 10, 100, 0)
	seedRecord(t, mem, time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC), "Beta", 100, 10, 500, 0)
	seedRecord(t, mem, time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC), "Gamma", 100, 10, 300, 0)

	rr, body := get(t, h.GetTopCampaigns, "/api/top-campaigns?metric=spend&limit=2")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "spend", body["metric"])

	data := body["data"].([]interface{})
	require.Len(t, data, 2)
	first := data[0].(map[string]interface{})
	assert.Equal(t, "Beta", first["campaign_name"])
}

func TestGetTopCampaigns_UnknownMetric(t *testing.T) {
	h, _ := newQueryFixture(t)

	rr, body := get(t, h.GetTopCampaigns, "/api/top-campaigns?metric=conversions")
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, body["error"], "conversions")
}

func TestListIngestOutcomes(t *testing.T) {
	h, mem := newQueryFixture(t)
	require.NoError(t, mem.Record(context.Background(), contracts.IngestOutcome{
		SourceName: "jan.csv",
		Status:     contracts.StatusSuccess,
		Timestamp:  time.Now().UTC(),
	}))

	rr, body := get(t, h.ListIngestOutcomes, "/api/ingest-log")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, float64(1), body["count"])
}
