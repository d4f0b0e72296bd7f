package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/adpulse/adpulse/internal/contracts"
	"github.com/adpulse/adpulse/internal/query"
	"github.com/adpulse/adpulse/pkg/logger"
)

// QueryHandler serves the aggregate views over the accumulated records.
type QueryHandler struct {
	queries *query.Service
	logger  *logger.Logger
}

// NewQueryHandler creates a new query handler.
func NewQueryHandler(queries *query.Service, log *logger.Logger) *QueryHandler {
	return &QueryHandler{queries: queries, logger: log}
}

const dateLayout = "2006-01-02"

// recordDTO is one enriched record shaped for transport, metrics rounded
// for display.
type recordDTO struct {
	Date         string  `json:"date"`
	CampaignName string  `json:"campaign_name"`
	Impressions  int64   `json:"impressions"`
	Clicks       int64   `json:"clicks"`
	Spend        float64 `json:"spend"`
	Revenue      float64 `json:"revenue"`
	CTR          float64 `json:"ctr"`
	CPC          float64 `json:"cpc"`
	ROI          float64 `json:"roi"`
}

// ListRecords handles GET /api/records with optional campaign, date_from
// and date_to filters.
func (h *QueryHandler) ListRecords(w http.ResponseWriter, r *http.Request) {
	filter, err := parseFilter(r)
	if err != nil {
		respondError(h.logger, w, http.StatusBadRequest, err.Error())
		return
	}

	recs, err := h.queries.List(r.Context(), filter)
	if err != nil {
		h.logger.WithError(err).Error("Failed to list records")
		respondError(h.logger, w, http.StatusInternalServerError, "Failed to list records")
		return
	}

	data := make([]recordDTO, 0, len(recs))
	for _, rec := range recs {
		data = append(data, recordDTO{
			Date:         rec.Date.Format(dateLayout),
			CampaignName: rec.CampaignName,
			Impressions:  rec.Impressions,
			Clicks:       rec.Clicks,
			Spend:        round2(rec.Spend),
			Revenue:      round2(rec.Revenue),
			CTR:          round2(rec.CTR),
			CPC:          round2(rec.CPC),
			ROI:          round2(rec.ROI),
		})
	}

	respondJSON(h.logger, w, http.StatusOK, map[string]interface{}{
		"data":  data,
		"count": len(data),
	})
}

// GetSummary handles GET /api/summary with the same optional filters as the
// listing.
func (h *QueryHandler) GetSummary(w http.ResponseWriter, r *http.Request) {
	filter, err := parseFilter(r)
	if err != nil {
		respondError(h.logger, w, http.StatusBadRequest, err.Error())
		return
	}

	sum, err := h.queries.Summary(r.Context(), filter)
	if err != nil {
		h.logger.WithError(err).Error("Failed to compute summary")
		respondError(h.logger, w, http.StatusInternalServerError, "Failed to compute summary")
		return
	}

	respondJSON(h.logger, w, http.StatusOK, map[string]interface{}{
		"total_impressions": sum.TotalImpressions,
		"total_clicks":      sum.TotalClicks,
		"total_spend":       round2(sum.TotalSpend),
		"total_revenue":     round2(sum.TotalRevenue),
		"avg_ctr":           round2(sum.AvgCTR),
		"avg_cpc":           round2(sum.AvgCPC),
		"avg_roi":           round2(sum.AvgROI),
		"campaign_count":    sum.CampaignCount,
		"record_count":      sum.RecordCount,
	})
}

// ListCampaigns handles GET /api/campaigns.
func (h *QueryHandler) ListCampaigns(w http.ResponseWriter, r *http.Request) {
	names, err := h.queries.Campaigns(r.Context())
	if err != nil {
		h.logger.WithError(err).Error("Failed to list campaigns")
		respondError(h.logger, w, http.StatusInternalServerError, "Failed to list campaigns")
		return
	}

	respondJSON(h.logger, w, http.StatusOK, map[string]interface{}{
		"campaigns": names,
		"count":     len(names),
	})
}

// GetDailyRollup handles GET /api/daily.
func (h *QueryHandler) GetDailyRollup(w http.ResponseWriter, r *http.Request) {
	days, err := h.queries.DailyRollup(r.Context())
	if err != nil {
		h.logger.WithError(err).Error("Failed to compute daily rollup")
		respondError(h.logger, w, http.StatusInternalServerError, "Failed to compute daily rollup")
		return
	}

	type dayDTO struct {
		Date        string  `json:"date"`
		Impressions int64   `json:"impressions"`
		Clicks      int64   `json:"clicks"`
		Spend       float64 `json:"spend"`
		Revenue     float64 `json:"revenue"`
		Campaigns   int     `json:"campaigns"`
		CTR         float64 `json:"ctr"`
		CPC         float64 `json:"cpc"`
		ROI         float64 `json:"roi"`
	}

	data := make([]dayDTO, 0, len(days))
	for _, d := range days {
		data = append(data, dayDTO{
			Date:        d.Date.Format(dateLayout),
			Impressions: d.Impressions,
			Clicks:      d.Clicks,
			Spend:       round2(d.Spend),
			Revenue:     round2(d.Revenue),
			Campaigns:   d.Campaigns,
			CTR:         round2(d.CTR),
			CPC:         round2(d.CPC),
			ROI:         round2(d.ROI),
		})
	}

	respondJSON(h.logger, w, http.StatusOK, map[string]interface{}{
		"data":  data,
		"count": len(data),
	})
}

// GetTopCampaigns handles GET /api/top-campaigns?metric=spend&limit=5. An
// unknown metric is a 400, never silently defaulted.
func (h *QueryHandler) GetTopCampaigns(w http.ResponseWriter, r *http.Request) {
	metric := r.URL.Query().Get("metric")
	if metric == "" {
		metric = "spend"
	}
	limit := atoiDefault(r.URL.Query().Get("limit"), query.DefaultTopLimit)

	ranked, err := h.queries.TopCampaigns(r.Context(), metric, limit)
	if err != nil {
		if errors.Is(err, contracts.ErrUnknownMetric) {
			respondError(h.logger, w, http.StatusBadRequest, err.Error())
			return
		}
		h.logger.WithError(err).Error("Failed to rank campaigns")
		respondError(h.logger, w, http.StatusInternalServerError, "Failed to rank campaigns")
		return
	}

	type campaignDTO struct {
		CampaignName string  `json:"campaign_name"`
		Impressions  int64   `json:"impressions"`
		Clicks       int64   `json:"clicks"`
		Spend        float64 `json:"spend"`
		Revenue      float64 `json:"revenue"`
		Records      int     `json:"records"`
		CTR          float64 `json:"ctr"`
		CPC          float64 `json:"cpc"`
		ROI          float64 `json:"roi"`
	}

	data := make([]campaignDTO, 0, len(ranked))
	for _, c := range ranked {
		data = append(data, campaignDTO{
			CampaignName: c.CampaignName,
			Impressions:  c.Impressions,
			Clicks:       c.Clicks,
			Spend:        round2(c.Spend),
			Revenue:      round2(c.Revenue),
			Records:      c.Records,
			CTR:          round2(c.CTR),
			CPC:          round2(c.CPC),
			ROI:          round2(c.ROI),
		})
	}

	respondJSON(h.logger, w, http.StatusOK, map[string]interface{}{
		"data":   data,
		"count":  len(data),
		"metric": metric,
	})
}

// ListIngestOutcomes handles GET /api/ingest-log?limit=20.
func (h *QueryHandler) ListIngestOutcomes(w http.ResponseWriter, r *http.Request) {
	limit := atoiDefault(r.URL.Query().Get("limit"), 20)

	outcomes, err := h.queries.RecentOutcomes(r.Context(), limit)
	if err != nil {
		h.logger.WithError(err).Error("Failed to list ingest outcomes")
		respondError(h.logger, w, http.StatusInternalServerError, "Failed to list ingest outcomes")
		return
	}

	respondJSON(h.logger, w, http.StatusOK, map[string]interface{}{
		"data":  outcomes,
		"count": len(outcomes),
	})
}

// parseFilter builds a record filter from campaign, date_from and date_to
// query parameters.
func parseFilter(r *http.Request) (contracts.RecordFilter, error) {
	q := r.URL.Query()
	filter := contracts.RecordFilter{Campaign: q.Get("campaign")}

	if raw := q.Get("date_from"); raw != "" {
		from, err := time.Parse(dateLayout, raw)
		if err != nil {
			return filter, errors.New("invalid 'date_from' (expected YYYY-MM-DD)")
		}
		from = from.UTC()
		filter.DateFrom = &from
	}
	if raw := q.Get("date_to"); raw != "" {
		to, err := time.Parse(dateLayout, raw)
		if err != nil {
			return filter, errors.New("invalid 'date_to' (expected YYYY-MM-DD)")
		}
		to = to.UTC()
		filter.DateTo = &to
	}

	return filter, nil
}

func atoiDefault(s string, def int) int {
	if s == "" {
		return def
	}
	v, err := strconv.Atoi(s)
	if err != nil || v <= 0 {
		return def
	}
	return v
}
