package middleware

import (
	"context"
	"errors"
	"net/http"

	"github.com/GoPolymarket/logkeep/internal/model"
	"github.com/GoPolymarket/logkeep/internal/pkg/apperrors"
	"github.com/GoPolymarket/logkeep/internal/pkg/logger"
	"github.com/gin-gonic/gin"
)

// Recorder is the part of the log store the HTTP layer writes to.
type Recorder interface {
	AppendHTTP(ctx context.Context, level model.Level, tag, message string, metadata interface{}, httpCtx *model.HTTPContext) (*model.LogEntry, error)
}

const tagAPI = "API"

// ErrorHandler renders the last gin error as an AppError. Server-side
// failures are also recorded in the log store when rec is set.
func ErrorHandler(rec Recorder) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		// Only handle if there are errors
		if len(c.Errors) == 0 {
			return
		}

		// Get the last error
		err := c.Errors.Last().Err
		var appErr *apperrors.AppError

		if !errors.As(err, &appErr) {
			// Unknown error, wrap as Internal
			appErr = apperrors.New(apperrors.ErrInternal, err.Error(), err)
		}

		// Log the error
		logFields := []any{
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"code", appErr.Type,
			"client_ip", c.ClientIP(),
		}

		if appErr.HTTPStatus >= 500 {
			logger.LogError(c.Request.Context(), appErr, "Internal Server Error", logFields...)
			// A persistence failure is not recorded again: the store just failed to write.
			if rec != nil && appErr.Type != apperrors.ErrPersistence {
				recordFailure(c, rec, appErr)
			}
		} else {
			logger.Warn(appErr.Message, logFields...)
		}

		// Handlers may already have written a body (e.g. the entry kept in
		// memory on a persistence failure).
		if !c.Writer.Written() {
			c.JSON(appErr.HTTPStatus, appErr)
		}
	}
}

func recordFailure(c *gin.Context, rec Recorder, appErr *apperrors.AppError) {
	httpCtx := &model.HTTPContext{
		Method:     c.Request.Method,
		URL:        c.Request.URL.String(),
		Status:     appErr.HTTPStatus,
		StatusText: http.StatusText(appErr.HTTPStatus),
		Headers:    RedactHeaders(c.Request.Header),
	}
	meta := map[string]interface{}{"code": appErr.Type, "client_ip": c.ClientIP()}
	if _, err := rec.AppendHTTP(c.Request.Context(), model.LevelError, tagAPI, appErr.Error(), meta, httpCtx); err != nil {
		logger.LogError(c.Request.Context(), err, "failed to record API error")
	}
}
