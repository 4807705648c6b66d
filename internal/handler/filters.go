package handler

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"statsnbet/internal/cache"
	"statsnbet/internal/pipeline"
)

const defaultCollection = "bets"

func filterRequest(c *gin.Context) pipeline.Request {
	collection := defaultCollection
	if v := strQueryPtr(c, "collection"); v != nil {
		collection = *v
	}
	params := pipeline.Params{
		LiquidityMin: floatQueryPtr(c, "liquidity_min"),
		PayoutMin:    floatQueryPtr(c, "payout_min"),
		EVMin:        floatQueryPtr(c, "ev_min"),
		Sports:       csvQuery(c, "sports"),
		Bookmakers:   csvQuery(c, "bookmakers"),
		DateMin:      c.Query("date_min"),
		DateMax:      c.Query("date_max"),
		DateField:    c.Query("date_field"),
	}
	return pipeline.Request{
		Collection: collection,
		UserID:     strQueryPtr(c, "user_id"),
		Params:     params,
	}
}

// DashboardHandler serves the dashboard filter flow: full filtered document
// plus rows, absolute stakes, no pagination.
type DashboardHandler struct {
	Engine *pipeline.Engine
	Logger *zap.Logger
}

func (h *DashboardHandler) Register(r *gin.Engine) {
	r.GET("/api/v1/dashboard/filter", h.filter)
}

func (h *DashboardHandler) filter(c *gin.Context) {
	if h.Engine == nil {
		Error(c, http.StatusInternalServerError, "pipeline unavailable", nil)
		return
	}
	req := filterRequest(c)
	res, err := h.Engine.Run(c.Request.Context(), pipeline.DashboardVariant(h.Engine.Config), req)
	if err != nil {
		pipelineError(c, err)
		return
	}
	Ok(c, gin.H{
		"source_key":         res.SourceKey,
		"applied_filters":    res.AppliedFilters,
		"bankroll_reference": res.BankrollReference,
		"metrics": gin.H{
			"total_profit":      res.Metrics.TotalProfit,
			"settled_count":     res.Metrics.SettledCount,
			"settled_stake_sum": res.Metrics.SettledStakeSum,
		},
		"total_rows": res.TotalRows,
		"document":   res.Doc,
		"rows":       res.Rows,
	}, nil)
}

// HistoryHandler serves the history filter flow: deduplicated, percent-stake
// PnL, newest-first, one page per request. Responses are optionally cached in
// Redis for a short TTL.
type HistoryHandler struct {
	Engine *pipeline.Engine
	Cache  *cache.PageCache
	Logger *zap.Logger
}

func (h *HistoryHandler) Register(r *gin.Engine) {
	r.GET("/api/v1/history/filter", h.filter)
}

func (h *HistoryHandler) filter(c *gin.Context) {
	if h.Engine == nil {
		Error(c, http.StatusInternalServerError, "pipeline unavailable", nil)
		return
	}
	req := filterRequest(c)
	req.PageSize = intQuery(c, "page_size", h.Engine.Config.PageSize)
	req.PageNumber = intQuery(c, "page_number", 1)

	key := cache.RequestKey("history", c.Request.URL.RawQuery)
	if h.Cache != nil {
		if raw, hit := h.Cache.Get(c.Request.Context(), key); hit {
			Ok(c, json.RawMessage(raw), map[string]any{"cache": "hit"})
			return
		}
	}

	res, err := h.Engine.Run(c.Request.Context(), pipeline.HistoryVariant(), req)
	if err != nil {
		pipelineError(c, err)
		return
	}
	data := gin.H{
		"source_key":         res.SourceKey,
		"applied_filters":    res.AppliedFilters,
		"bankroll_reference": res.BankrollReference,
		"metrics": gin.H{
			"total_profit":      res.Metrics.TotalProfit,
			"settled_count":     res.Metrics.SettledCount,
			"settled_stake_sum": res.Metrics.SettledStakeSum,
			"roi":               res.Metrics.ROI,
		},
		"total_rows": res.TotalRows,
		"page":       res.Page.Page,
		"page_count": res.Page.PageCount,
		"page_size":  res.Page.PageSize,
		"rows":       res.Rows,
	}
	if h.Cache != nil {
		if raw, err := json.Marshal(data); err == nil {
			h.Cache.Set(c.Request.Context(), key, raw)
		}
	}
	Ok(c, data, nil)
}
