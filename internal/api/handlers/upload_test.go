package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adpulse/adpulse/internal/pipeline"
	"github.com/adpulse/adpulse/internal/query"
	"github.com/adpulse/adpulse/internal/store"
	"github.com/adpulse/adpulse/pkg/logger"
	"github.com/adpulse/adpulse/pkg/redis"
)

func newUploadFixture(t *testing.T) (*UploadHandler, *store.Memory) {
	t.Helper()
	mem := store.NewMemory()
	log := logger.NewNop()
	ingestor := pipeline.NewIngestor(mem, mem, log)
	queries := query.NewService(mem, mem, redis.NewCache(redis.Disabled(), "test"), log)
	return NewUploadHandler(ingestor, queries, log), mem
}

func multipartCSV(t *testing.T, filename, content string) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = io.WriteString(fw, content)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/upload", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func decodeBody(t *testing.T, rr *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	return body
}

func TestUploadCSV_Success(t *testing.T) {
	h, mem := newUploadFixture(t)

	csv := "date,campaign_name,impressions,clicks,spend,revenue\n" +
		"2026-01-01,google search,5000,150,500.0,2500.0\n" +
		"2026-01-02,email blast,1200,80,75.5,120\n"

	rr := httptest.NewRecorder()
	h.UploadCSV(rr, multipartCSV(t, "jan.csv", csv))

	assert.Equal(t, http.StatusOK, rr.Code)
	body := decodeBody(t, rr)
	assert.Equal(t, float64(2), body["rows_accepted"])

	outcome := body["outcome"].(map[string]interface{})
	assert.Equal(t, "success", outcome["status"])
	assert.Equal(t, "jan.csv", outcome["source_name"])
	assert.Equal(t, 2, mem.RawCount())
}

func TestUploadCSV_PartialBatch(t *testing.T) {
	h, mem := newUploadFixture(t)

	csv := "date,campaign_name,impressions,clicks,spend\n" +
		"2026-01-01,ok campaign,100,10,5\n" +
		"not-a-date,bad campaign,100,10,5\n"

	rr := httptest.NewRecorder()
	h.UploadCSV(rr, multipartCSV(t, "feb.csv", csv))

	assert.Equal(t, http.StatusOK, rr.Code)
	body := decodeBody(t, rr)
	assert.Equal(t, float64(1), body["rows_accepted"])
	assert.Len(t, body["rejected"], 1)

	outcome := body["outcome"].(map[string]interface{})
	assert.Equal(t, "partial", outcome["status"])
	assert.Equal(t, 1, mem.RawCount())
}

func TestUploadCSV_MissingColumns(t *testing.T) {
	h, mem := newUploadFixture(t)

	csv := "date,campaign_name\n2026-01-01,incomplete\n"

	rr := httptest.NewRecorder()
	h.UploadCSV(rr, multipartCSV(t, "bad.csv", csv))

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	body := decodeBody(t, rr)
	outcome := body["outcome"].(map[string]interface{})
	assert.Equal(t, "failed", outcome["status"])
	assert.Equal(t, 0, mem.RawCount())
}

func TestUploadCSV_MissingFileField(t *testing.T) {
	h, _ := newUploadFixture(t)

	req := httptest.NewRequest(http.MethodPost, "/api/upload", nil)
	rr := httptest.NewRecorder()
	h.UploadCSV(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestUploadCSV_RejectsNonCSVFilename(t *testing.T) {
	h, mem := newUploadFixture(t)

	rr := httptest.NewRecorder()
	h.UploadCSV(rr, multipartCSV(t, "report.xlsx", "whatever"))

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, 0, mem.RawCount())
}

func TestUploadCSV_UnreadableCSVLogsFailedOutcome(t *testing.T) {
	h, mem := newUploadFixture(t)

	rr := httptest.NewRecorder()
	h.UploadCSV(rr, multipartCSV(t, "empty.csv", ""))

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, 0, mem.RawCount())

	outcomes, err := mem.Recent(context.Background(), 5)
	require.NoError(t, err)
	require.Len(t, outcomes, 1)
	assert.Equal(t, "failed", string(outcomes[0].Status))
}
