package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"statsnbet/internal/repository"
)

// SummariesHandler lists stored summary documents (live and cached) for
// inspection.
type SummariesHandler struct {
	Repo repository.Repository
}

func (h *SummariesHandler) Register(r *gin.Engine) {
	r.GET("/api/v1/summaries", h.list)
}

func (h *SummariesHandler) list(c *gin.Context) {
	if h.Repo == nil {
		Error(c, http.StatusInternalServerError, "repo unavailable", nil)
		return
	}
	limit := intQuery(c, "limit", 50)
	offset := intQuery(c, "offset", 0)
	params := repository.ListSummariesParams{
		Collection: strQueryPtr(c, "collection"),
		UserID:     strQueryPtr(c, "user_id"),
		Flag:       strQueryPtr(c, "flag"),
		Limit:      limit,
		Offset:     offset,
		OrderBy:    "created_at",
		Asc:        boolPtr(false),
	}
	items, err := h.Repo.ListSummaries(c.Request.Context(), params)
	if err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	total, err := h.Repo.CountSummaries(c.Request.Context(), params)
	if err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	Ok(c, items, paginationMeta(limit, offset, total))
}
