package handler

import (
	stdErrors "errors"
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/johnquangdev/meeting-stats/errors"
	"github.com/johnquangdev/meeting-stats/internal/adapter/dto/common"
	usecaseErrors "github.com/johnquangdev/meeting-stats/internal/usecase/errors"
)

// getRequestID tries to read X-Request-ID from the request
func getRequestID(c echo.Context) string {
	if c == nil || c.Request() == nil {
		return ""
	}
	return c.Request().Header.Get(echo.HeaderXRequestID)
}

// HandleSuccess writes data as the response body using provided logger
func HandleSuccess(logger *zap.Logger, c echo.Context, data interface{}) error {
	if logger != nil {
		logger.Debug("http.response.success",
			zap.String("request_id", getRequestID(c)),
			zap.String("path", c.Path()),
		)
	}

	return c.JSON(http.StatusOK, data)
}

// HandleError centralizes error handling and logging using provided logger.
// Clients only see the AppError message; the wrapped cause goes to the log.
func HandleError(logger *zap.Logger, c echo.Context, err error) error {
	reqID := getRequestID(c)

	var appErr errors.AppError
	if !stdErrors.As(err, &appErr) {
		appErr = errors.ErrInternal(err)
	}

	if logger != nil {
		fields := []zap.Field{
			zap.String("request_id", reqID),
			zap.String("path", c.Path()),
			zap.String("app_code", appErr.Code.String()),
			zap.Error(err),
		}
		for k, v := range appErr.Details {
			fields = append(fields, zap.String(k, v))
		}
		if appErr.HTTPCode >= http.StatusInternalServerError {
			logger.Error("http.response.error", fields...)
		} else {
			logger.Warn("http.response.error", fields...)
		}
	}

	return c.JSON(appErr.HTTPCode, common.ErrorResponse{
		Error: appErr.Message,
		Code:  appErr.Code.String(),
	})
}

// toUpdateError maps a failed lifecycle action to the error clients see
func toUpdateError(action string, err error) errors.AppError {
	switch {
	case stdErrors.Is(err, usecaseErrors.ErrInvalidAction):
		return errors.ErrInvalidAction(action)
	case stdErrors.Is(err, usecaseErrors.ErrMissingMeetingID):
		return errors.ErrInvalidArgument("meetingId is required")
	case stdErrors.Is(err, usecaseErrors.ErrInvalidInput):
		return errors.ErrInvalidArgument("meetingId and meetingTitle must be at most 255 characters")
	default:
		return errors.ErrStatsUpdateFailed(action, err)
	}
}

// validationError turns validator output into a 400 naming the first bad field
func validationError(err error) errors.AppError {
	var verrs validator.ValidationErrors
	if !stdErrors.As(err, &verrs) || len(verrs) == 0 {
		return errors.ErrInvalidPayload()
	}

	fe := verrs[0]
	switch fe.Tag() {
	case "required":
		return errors.ErrInvalidArgument(fmt.Sprintf("%s is required", fe.Field()))
	case "oneof":
		if fe.Field() == "action" {
			return errors.ErrInvalidAction(fmt.Sprint(fe.Value()))
		}
		return errors.ErrInvalidArgument(fmt.Sprintf("%s must be one of: %s", fe.Field(), fe.Param()))
	case "max":
		return errors.ErrInvalidArgument(fmt.Sprintf("%s must be at most %s characters", fe.Field(), fe.Param()))
	default:
		return errors.ErrInvalidArgument(fmt.Sprintf("%s is invalid", fe.Field()))
	}
}
