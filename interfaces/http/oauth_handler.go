package http

import (
	"net/http"
	"net/url"
	"strings"

	"brand-publisher/domain/dto"
	"brand-publisher/domain/model"
	"brand-publisher/infrastructure/logger"
	"brand-publisher/interfaces/middleware"
	"brand-publisher/usecase"

	"github.com/gin-gonic/gin"
)

type IOAuthHandler interface {
	Initiate(ctx *gin.Context)
	Callback(ctx *gin.Context)
}

// CallbackObserver is told about every finished callback; outcome is "success" or an error code.
type CallbackObserver func(platform, outcome string)

type oauthHandler struct {
	connections usecase.IConnectionUsecase
	frontendURL string
	observe     CallbackObserver
}

func NewOAuthHandler(connections usecase.IConnectionUsecase, frontendURL string, observe CallbackObserver) IOAuthHandler {
	if observe == nil {
		observe = func(string, string) {}
	}
	return &oauthHandler{
		connections: connections,
		frontendURL: strings.TrimRight(frontendURL, "/"),
		observe:     observe,
	}
}

// Initiate starts an authorization flow for the caller's tenant.
func (h *oauthHandler) Initiate(ctx *gin.Context) {
	var req dto.OAuthInitiateRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		badRequest(ctx, "platform and brandId are required")
		return
	}
	tenantID := ctx.GetString(middleware.ContextTenantID)
	auth, err := h.connections.InitiateOAuth(ctx.Request.Context(), tenantID, req.BrandID, model.Platform(req.Platform))
	if err != nil {
		respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, auth)
}

// Callback finishes the flow and sends the browser back to the frontend.
func (h *oauthHandler) Callback(ctx *gin.Context) {
	platform := ctx.Param("platform")
	if providerErr := ctx.Query("error"); providerErr != "" {
		logger.GetLogger().WithField("platform", platform).WithField("provider_error", providerErr).
			WithField("description", ctx.Query("error_description")).Warn("Authorization denied by provider")
		h.redirect(ctx, platform, "", providerErr)
		return
	}
	state, ok := middleware.ParsedStateFrom(ctx)
	if !ok {
		h.redirect(ctx, platform, "", model.ErrInvalidState.Code)
		return
	}
	_, err := h.connections.CompleteOAuth(ctx.Request.Context(), model.Platform(platform), ctx.Query("code"), state.FullState)
	if err != nil {
		code := model.ErrorCode(err)
		if code == "" {
			code = "OAUTH_FAILED"
		}
		h.redirect(ctx, platform, "", code)
		return
	}
	h.redirect(ctx, platform, platform, "")
}

func (h *oauthHandler) redirect(ctx *gin.Context, platform, success, errCode string) {
	q := url.Values{}
	outcome := "success"
	if errCode != "" {
		q.Set("error", errCode)
		q.Set("platform", platform)
		outcome = errCode
	} else {
		q.Set("success", success)
	}
	h.observe(platform, outcome)
	ctx.Redirect(http.StatusFound, h.frontendURL+"/integrations?"+q.Encode())
}
