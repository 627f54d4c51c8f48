package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/andresuchdata/rxflow/internal/pipeline"
	"github.com/andresuchdata/rxflow/internal/rollup"
	"github.com/andresuchdata/rxflow/internal/service"
	"github.com/andresuchdata/rxflow/internal/spreadsheet"
)

// statusOf maps caller mistakes to 400 and everything else to 500.
func statusOf(err error) int {
	var tooLarge *http.MaxBytesError
	switch {
	case errors.As(err, &tooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, spreadsheet.ErrSchemaMismatch),
		errors.Is(err, spreadsheet.ErrUnsupportedFormat),
		errors.Is(err, pipeline.ErrUnknownFamily),
		errors.Is(err, rollup.ErrInvalidQuery):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrArchiveDisabled):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func errorResponse(c *gin.Context, err error) {
	status := statusOf(err)
	if status >= http.StatusInternalServerError {
		log.Error().Err(err).Str("path", c.Request.URL.Path).Msg("request failed")
	} else {
		log.Warn().Err(err).Str("path", c.Request.URL.Path).Msg("request rejected")
	}
	c.JSON(status, gin.H{"error": err.Error()})
}
