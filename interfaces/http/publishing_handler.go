package http

import (
	"net/http"

	"brand-publisher/domain/dto"
	"brand-publisher/interfaces/middleware"
	"brand-publisher/usecase"

	"github.com/gin-gonic/gin"
)

type IPublishingHandler interface {
	Publish(ctx *gin.Context)
	ListJobs(ctx *gin.Context)
	RetryJob(ctx *gin.Context)
	CancelJob(ctx *gin.Context)
}

type PublishingHandler struct {
	publishing usecase.IPublishingUsecase
}

func NewPublishingHandler(publishing usecase.IPublishingUsecase) IPublishingHandler {
	return &PublishingHandler{publishing: publishing}
}

// Publish fans a post out to the requested platforms of brand :id.
func (h *PublishingHandler) Publish(ctx *gin.Context) {
	var req dto.PublishRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		badRequest(ctx, "invalid request body: "+err.Error())
		return
	}
	res, err := h.publishing.Publish(ctx.Request.Context(), ctx.GetString(middleware.ContextTenantID), ctx.Param("id"), req)
	if err != nil {
		respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, res)
}

func (h *PublishingHandler) ListJobs(ctx *gin.Context) {
	var q dto.JobListQuery
	if err := ctx.ShouldBindQuery(&q); err != nil {
		badRequest(ctx, "invalid query: "+err.Error())
		return
	}
	jobs, err := h.publishing.ListJobs(ctx.Request.Context(), ctx.GetString(middleware.ContextTenantID), ctx.Param("id"), q)
	if err != nil {
		respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, jobs)
}

func (h *PublishingHandler) RetryJob(ctx *gin.Context) {
	if err := h.publishing.RetryJob(ctx.Request.Context(), ctx.GetString(middleware.ContextTenantID), ctx.Param("id")); err != nil {
		respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.ActionResponse{Success: true, Message: "job queued for retry"})
}

func (h *PublishingHandler) CancelJob(ctx *gin.Context) {
	if err := h.publishing.CancelJob(ctx.Request.Context(), ctx.GetString(middleware.ContextTenantID), ctx.Param("id")); err != nil {
		respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.ActionResponse{Success: true, Message: "job cancelled"})
}
