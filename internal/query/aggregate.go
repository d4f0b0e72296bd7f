package query

import (
	"fmt"
	"sort"
	"time"

	"github.com/adpulse/adpulse/internal/contracts"
)

// Summary is the cross-record view: summed raw fields plus the mean of the
// per-record metric values. The averages are deliberately NOT recomputed
// from the totals; a per-record mean weights every record equally, which is
// a different (and intended) statistic from the global ratio.
type Summary struct {
	TotalImpressions int64   `json:"total_impressions"`
	TotalClicks      int64   `json:"total_clicks"`
	TotalSpend       float64 `json:"total_spend"`
	TotalRevenue     float64 `json:"total_revenue"`
	AvgCTR           float64 `json:"avg_ctr"`
	AvgCPC           float64 `json:"avg_cpc"`
	AvgROI           float64 `json:"avg_roi"`
	CampaignCount    int     `json:"campaign_count"`
	RecordCount      int     `json:"record_count"`
}

// DailyPerformance is one day's rollup: raw fields summed across the day's
// records and ratio metrics derived from those day totals.
type DailyPerformance struct {
	Date        time.Time `json:"date"`
	Impressions int64     `json:"impressions"`
	Clicks      int64     `json:"clicks"`
	Spend       float64   `json:"spend"`
	Revenue     float64   `json:"revenue"`
	Campaigns   int       `json:"campaigns"`
	CTR         float64   `json:"ctr"`
	CPC         float64   `json:"cpc"`
	ROI         float64   `json:"roi"`
}

// CampaignTotals is one campaign's rollup across all its records.
type CampaignTotals struct {
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

// RankMetrics are the sort keys accepted by RankCampaigns.
var RankMetrics = []string{"impressions", "clicks", "spend", "revenue", "ctr", "roi"}

// DefaultTopLimit bounds a ranking query when the caller gives no limit.
const DefaultTopLimit = 5

// Summarize computes the Summary over a record set. The metric averages are
// the arithmetic mean of per-record values. An empty set yields all zeros.
func Summarize(recs []contracts.EnrichedRecord) Summary {
	var s Summary
	if len(recs) == 0 {
		return s
	}

	campaigns := make(map[string]struct{})
	var ctrSum, cpcSum, roiSum float64
	for _, r := range recs {
		s.TotalImpressions += r.Impressions
		s.TotalClicks += r.Clicks
		s.TotalSpend += r.Spend
		s.TotalRevenue += r.Revenue
		ctrSum += r.CTR
		cpcSum += r.CPC
		roiSum += r.ROI
		campaigns[r.CampaignName] = struct{}{}
	}

	n := float64(len(recs))
	s.AvgCTR = ctrSum / n
	s.AvgCPC = cpcSum / n
	s.AvgROI = roiSum / n
	s.CampaignCount = len(campaigns)
	s.RecordCount = len(recs)
	return s
}

// RollupDaily groups records by date, sums the raw fields per day and
// derives CTR/CPC/ROI from the day's totals. This is global-per-day
// semantics, intentionally different from Summarize's per-record mean.
// Result is sorted by date ascending.
func RollupDaily(recs []contracts.EnrichedRecord) []DailyPerformance {
	type dayAcc struct {
		perf      DailyPerformance
		campaigns map[string]struct{}
	}
	days := make(map[time.Time]*dayAcc)

	for _, r := range recs {
		acc, ok := days[r.Date]
		if !ok {
			acc = &dayAcc{
				perf:      DailyPerformance{Date: r.Date},
				campaigns: make(map[string]struct{}),
			}
			days[r.Date] = acc
		}
		acc.perf.Impressions += r.Impressions
		acc.perf.Clicks += r.Clicks
		acc.perf.Spend += r.Spend
		acc.perf.Revenue += r.Revenue
		acc.campaigns[r.CampaignName] = struct{}{}
	}

	out := make([]DailyPerformance, 0, len(days))
	for _, acc := range days {
		d := acc.perf
		d.Campaigns = len(acc.campaigns)
		d.CTR, d.CPC, d.ROI = deriveFromTotals(d.Impressions, d.Clicks, d.Spend, d.Revenue)
		out = append(out, d)
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out
}

// RankCampaigns groups records by campaign, derives metrics from the summed
// totals (same global semantics as RollupDaily) and returns the top limit
// campaigns sorted descending by the requested metric. Ties break by
// campaign name ascending so results are deterministic. An unknown metric
// is a caller error wrapping contracts.ErrUnknownMetric.
func RankCampaigns(recs []contracts.EnrichedRecord, metric string, limit int) ([]CampaignTotals, error) {
	if !validRankMetric(metric) {
		return nil, fmt.Errorf("%w: %q (must be one of %v)", contracts.ErrUnknownMetric, metric, RankMetrics)
	}
	if limit <= 0 {
		limit = DefaultTopLimit
	}

	byName := make(map[string]*CampaignTotals)
	for _, r := range recs {
		ct, ok := byName[r.CampaignName]
		if !ok {
			ct = &CampaignTotals{CampaignName: r.CampaignName}
			byName[r.CampaignName] = ct
		}
		ct.Impressions += r.Impressions
		ct.Clicks += r.Clicks
		ct.Spend += r.Spend
		ct.Revenue += r.Revenue
		ct.Records++
	}

	ranked := make([]CampaignTotals, 0, len(byName))
	for _, ct := range byName {
		ct.CTR, ct.CPC, ct.ROI = deriveFromTotals(ct.Impressions, ct.Clicks, ct.Spend, ct.Revenue)
		ranked = append(ranked, *ct)
	}

	sort.Slice(ranked, func(i, j int) bool {
		vi, vj := rankValue(ranked[i], metric), rankValue(ranked[j], metric)
		if vi != vj {
			return vi > vj
		}
		return ranked[i].CampaignName < ranked[j].CampaignName
	})

	if len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked, nil
}

// deriveFromTotals applies the metric formulas to summed fields, with the
// same zero-denominator policy as per-record enrichment.
func deriveFromTotals(impressions, clicks int64, spend, revenue float64) (ctr, cpc, roi float64) {
	if impressions > 0 {
		ctr = float64(clicks) / float64(impressions) * 100
	}
	if clicks > 0 {
		cpc = spend / float64(clicks)
	}
	if spend > 0 {
		roi = (revenue - spend) / spend * 100
	}
	return ctr, cpc, roi
}

func validRankMetric(metric string) bool {
	for _, m := range RankMetrics {
		if m == metric {
			return true
		}
	}
	return false
}

func rankValue(ct CampaignTotals, metric string) float64 {
	switch metric {
	case "impressions":
		return float64(ct.Impressions)
	case "clicks":
		return float64(ct.Clicks)
	case "spend":
		return ct.Spend
	case "revenue":
		return ct.Revenue
	case "ctr":
		return ct.CTR
	case "roi":
		return ct.ROI
	}
	return 0
}
