package http

import (
	"errors"
	"net/http"

	"brand-publisher/domain/dto"
	"brand-publisher/domain/model"
	"brand-publisher/infrastructure/logger"

	"github.com/gin-gonic/gin"
)

// statusFor maps a pipeline error onto an HTTP status.
func statusFor(err error) int {
	var pe *model.PublishError
	if !errors.As(err, &pe) {
		return http.StatusInternalServerError
	}
	switch pe.Kind {
	case model.ErrorKindValidation, model.ErrorKindCSRF:
		return http.StatusBadRequest
	case model.ErrorKindNotFound:
		return http.StatusNotFound
	case model.ErrorKindConflict:
		return http.StatusConflict
	case model.ErrorKindToken:
		if pe.Code == model.ErrNoRefreshToken.Code {
			return http.StatusUnauthorized
		}
		return http.StatusBadGateway
	case model.ErrorKindPersistence:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func respondError(ctx *gin.Context, err error) {
	status := statusFor(err)
	res := dto.ErrorResponse{Error: err.Error(), ErrorCode: model.ErrorCode(err)}
	var pe *model.PublishError
	if errors.As(err, &pe) {
		res.Error = pe.Message
	}
	if status >= http.StatusInternalServerError {
		logger.GetLogger().WithField("error", err).WithField("path", ctx.FullPath()).Error("Request failed")
		if res.ErrorCode == "" {
			res.Error = "internal server error"
			res.ErrorCode = "INTERNAL_ERROR"
		}
	}
	ctx.AbortWithStatusJSON(status, res)
}

func badRequest(ctx *gin.Context, msg string) {
	ctx.AbortWithStatusJSON(http.StatusBadRequest, dto.ErrorResponse{Error: msg, ErrorCode: "INVALID_REQUEST"})
}
