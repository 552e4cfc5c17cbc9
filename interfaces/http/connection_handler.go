package http

import (
	"net/http"

	"brand-publisher/domain/dto"
	"brand-publisher/domain/model"
	"brand-publisher/interfaces/middleware"
	"brand-publisher/usecase"

	"github.com/gin-gonic/gin"
)

type IConnectionHandler interface {
	Refresh(ctx *gin.Context)
	Verify(ctx *gin.Context)
	Disconnect(ctx *gin.Context)
}

type ConnectionHandler struct {
	connections usecase.IConnectionUsecase
}

func NewConnectionHandler(connections usecase.IConnectionUsecase) IConnectionHandler {
	return &ConnectionHandler{connections: connections}
}

func target(ctx *gin.Context) (tenantID, brandID string, platform model.Platform) {
	return ctx.GetString(middleware.ContextTenantID), ctx.Param("brandId"), model.Platform(ctx.Param("platform"))
}

func (h *ConnectionHandler) Refresh(ctx *gin.Context) {
	tenantID, brandID, platform := target(ctx)
	if err := h.connections.Refresh(ctx.Request.Context(), tenantID, brandID, platform); err != nil {
		respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.ActionResponse{Success: true})
}

func (h *ConnectionHandler) Verify(ctx *gin.Context) {
	tenantID, brandID, platform := target(ctx)
	status, err := h.connections.Verify(ctx.Request.Context(), tenantID, brandID, platform)
	if err != nil {
		respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, status)
}

func (h *ConnectionHandler) Disconnect(ctx *gin.Context) {
	tenantID, brandID, platform := target(ctx)
	if err := h.connections.Disconnect(ctx.Request.Context(), tenantID, brandID, platform); err != nil {
		respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.ActionResponse{Success: true, Message: "disconnected"})
}
