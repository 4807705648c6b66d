package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"statsnbet/internal/pipeline"
)

type apiResponse struct {
	Code    int            `json:"code"`
	Message string         `json:"message"`
	Data    any            `json:"data,omitempty"`
	Meta    map[string]any `json:"meta,omitempty"`
}

func Ok(c *gin.Context, data any, meta map[string]any) {
	c.JSON(http.StatusOK, apiResponse{
		Code:    0,
		Message: "ok",
		Data:    data,
		Meta:    meta,
	})
}

func Error(c *gin.Context, status int, message string, meta map[string]any) {
	c.JSON(status, apiResponse{
		Code:    status,
		Message: message,
		Meta:    meta,
	})
}

// pipelineError maps pipeline failures onto the envelope: missing summaries
// are 404, schema violations 400, everything else (store, decode) 502.
func pipelineError(c *gin.Context, err error) {
	var notFound *pipeline.NotFoundError
	var schema *pipeline.SchemaError
	switch {
	case errors.As(err, &notFound):
		Error(c, http.StatusNotFound, err.Error(), nil)
	case errors.As(err, &schema):
		Error(c, http.StatusBadRequest, err.Error(), nil)
	default:
		Error(c, http.StatusBadGateway, err.Error(), nil)
	}
}
