package ui

import (
	stderrors "errors"
	"log"
	"net/http"

	"psycdata/internal/errors"
	"psycdata/internal/panel"

	"github.com/gin-gonic/gin"
)

// statusFor maps an error to the HTTP status returned to pages
func statusFor(err error) int {
	if stderrors.Is(err, panel.ErrPreviewPending) || stderrors.Is(err, panel.ErrSelectionDisabled) {
		return http.StatusConflict
	}
	switch errors.GetCode(err) {
	case errors.CodeNotFound:
		return http.StatusNotFound
	case errors.CodeInvalidInput, errors.CodeParse:
		return http.StatusBadRequest
	case errors.CodeValidation:
		return http.StatusUnprocessableEntity
	case errors.CodeIO:
		return http.StatusBadGateway
	case errors.CodeOrchestration:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// writeError answers with {"error", "code"}. Uncoded server failures are
// reported as INTERNAL_ERROR.
func writeError(c *gin.Context, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		log.Printf("[UI] %s %s: %v", c.Request.Method, c.Request.URL.Path, err)
	}
	var appErr *errors.AppError
	if !stderrors.As(err, &appErr) && status == http.StatusInternalServerError {
		err = errors.InternalError(errors.Message(err))
	}
	c.AbortWithStatusJSON(status, gin.H{"error": errors.Message(err), "code": errors.GetCode(err)})
}
