package util

import (
	"net/http"

	"github.com/gin-gonic/gin"

	scrapeerrors "vehiclescraper/internal/errors"
	"vehiclescraper/internal/logger"
)

var log = logger.ForComponent("http")

// SafeErrorResponse writes {error, message}. The underlying error is always
// logged but only echoed to the client outside release mode.
func SafeErrorResponse(c *gin.Context, statusCode int, userMessage string, err error) {
	if err != nil {
		ev := log.Error()
		if statusCode < http.StatusInternalServerError {
			ev = log.Warn()
		}
		ev.Err(err).
			Str("path", c.Request.URL.Path).
			Int("status", statusCode).
			Str("error_type", string(scrapeerrors.TypeOf(err))).
			Msg(userMessage)
	}

	response := gin.H{"error": userMessage}
	if gin.Mode() != gin.ReleaseMode && err != nil {
		response["details"] = err.Error()
	}
	c.JSON(statusCode, response)
}

// StatusFor maps an error to the HTTP status the API reports for it.
func StatusFor(err error) int {
	switch scrapeerrors.TypeOf(err) {
	case scrapeerrors.ErrorTypeValidation, scrapeerrors.ErrorTypeUnsupported:
		return http.StatusBadRequest
	case scrapeerrors.ErrorTypeRateLimit:
		return http.StatusTooManyRequests
	case scrapeerrors.ErrorTypeUnavailable:
		return http.StatusServiceUnavailable
	case scrapeerrors.ErrorTypeUpstream, scrapeerrors.ErrorTypeNavigation:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
