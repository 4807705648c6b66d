package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"statsnbet/internal/models"
	"statsnbet/internal/repository"
)

// SettingsHandler reads and writes the per-user reference document the
// history pipeline sources its bankroll from.
type SettingsHandler struct {
	Repo repository.Repository
}

func (h *SettingsHandler) Register(r *gin.Engine) {
	g := r.Group("/api/v1/settings")
	g.GET("/:user_id", h.get)
	g.PUT("/:user_id", h.put)
}

func (h *SettingsHandler) get(c *gin.Context) {
	if h.Repo == nil {
		Error(c, http.StatusInternalServerError, "repo unavailable", nil)
		return
	}
	userID := strings.TrimSpace(c.Param("user_id"))
	if userID == "" {
		Error(c, http.StatusBadRequest, "invalid user_id", nil)
		return
	}
	collection := defaultCollection
	if v := strQueryPtr(c, "collection"); v != nil {
		collection = *v
	}
	item, err := h.Repo.GetUserSetting(c.Request.Context(), userID, collection)
	if err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	if item == nil {
		Error(c, http.StatusNotFound, "settings not found", nil)
		return
	}
	Ok(c, item, nil)
}

type putSettingsRequest struct {
	Collection        string  `json:"collection"`
	BankrollReference *string `json:"bankroll_reference"`
	Currency          string  `json:"currency"`
}

func (h *SettingsHandler) put(c *gin.Context) {
	if h.Repo == nil {
		Error(c, http.StatusInternalServerError, "repo unavailable", nil)
		return
	}
	userID := strings.TrimSpace(c.Param("user_id"))
	if userID == "" {
		Error(c, http.StatusBadRequest, "invalid user_id", nil)
		return
	}
	var req putSettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Error(c, http.StatusBadRequest, "invalid body", nil)
		return
	}
	collection := strings.TrimSpace(req.Collection)
	if collection == "" {
		collection = defaultCollection
	}
	item := &models.UserSetting{
		UserID:     userID,
		Collection: collection,
		Currency:   strings.TrimSpace(req.Currency),
	}
	if req.BankrollReference != nil {
		d, err := decimal.NewFromString(strings.TrimSpace(*req.BankrollReference))
		if err != nil || d.IsNegative() {
			Error(c, http.StatusBadRequest, "invalid bankroll_reference", nil)
			return
		}
		item.BankrollReference = &d
	}
	if err := h.Repo.UpsertUserSetting(c.Request.Context(), item); err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	saved, _ := h.Repo.GetUserSetting(c.Request.Context(), userID, collection)
	Ok(c, saved, nil)
}
