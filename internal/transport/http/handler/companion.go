package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"mindwell/internal/app"
	"mindwell/internal/transport/http/response"
)

type CompanionHandler struct {
	companionService *app.CompanionService
}

type ConsentRequest struct {
	Granted *bool `json:"granted" binding:"required"`
}

type CompanionMessageRequest struct {
	Content string `json:"content" binding:"required,max=4000"`
}

func NewCompanionHandler(companionService *app.CompanionService) *CompanionHandler {
	return &CompanionHandler{companionService: companionService}
}

func (h *CompanionHandler) OpenSession(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "invalid token payload")
		return
	}

	state, err := h.companionService.Open(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, err.Error())
		return
	}
	response.OK(c, state)
}

func (h *CompanionHandler) GetSession(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "invalid token payload")
		return
	}

	state, found := h.companionService.State(userID)
	if !found {
		response.Error(c, http.StatusNotFound, response.CodeSessionNotFound, app.ErrSessionNotFound.Error())
		return
	}
	response.OK(c, state)
}

func (h *CompanionHandler) CloseSession(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "invalid token payload")
		return
	}

	if !h.companionService.Close(userID) {
		response.Error(c, http.StatusNotFound, response.CodeSessionNotFound, app.ErrSessionNotFound.Error())
		return
	}
	response.OK(c, gin.H{"closed": true})
}

func (h *CompanionHandler) SetConsent(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "invalid token payload")
		return
	}

	var req ConsentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid request payload")
		return
	}

	state, err := h.companionService.SetConsent(c.Request.Context(), userID, *req.Granted)
	if err != nil {
		response.ErrorWithData(c, http.StatusInternalServerError, response.CodeInternalServer, "save consent failed", state)
		return
	}
	response.OK(c, state)
}

func (h *CompanionHandler) LoadHistory(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "invalid token payload")
		return
	}

	err := h.companionService.LoadHistory(c.Request.Context(), userID)
	state, _ := h.companionService.State(userID)
	if err != nil {
		switch {
		case errors.Is(err, app.ErrConsentRequired):
			response.ErrorWithData(c, http.StatusConflict, response.CodeConsentRequired, err.Error(), state)
		case errors.Is(err, app.ErrHistoryLoad):
			response.ErrorWithData(c, http.StatusInternalServerError, response.CodeHistoryLoad, state.Error, state)
		default:
			response.Error(c, http.StatusBadRequest, response.CodeBadRequest, err.Error())
		}
		return
	}
	response.OK(c, state)
}

func (h *CompanionHandler) SendMessage(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "invalid token payload")
		return
	}

	var req CompanionMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid request payload")
		return
	}

	result, err := h.companionService.SendMessage(c.Request.Context(), userID, req.Content)
	if err != nil {
		var sendErr *app.SendError
		switch {
		case errors.As(err, &sendErr):
			response.ErrorWithData(c, sendErrorStatus(sendErr.Kind), sendErrorCode(sendErr.Kind), sendErr.Message, gin.H{
				"kind":   sendErr.Kind,
				"crisis": result.Crisis,
			})
		case errors.Is(err, app.ErrSendInProgress):
			response.Error(c, http.StatusConflict, response.CodeSendInProgress, err.Error())
		case errors.Is(err, app.ErrMessageEmpty), errors.Is(err, app.ErrInvalidInput):
			response.Error(c, http.StatusBadRequest, response.CodeBadRequest, err.Error())
		default:
			response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "send message failed")
		}
		return
	}
	response.OK(c, result)
}

func (h *CompanionHandler) ClearError(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "invalid token payload")
		return
	}

	state, err := h.companionService.ClearError(userID)
	if err != nil {
		response.Error(c, http.StatusNotFound, response.CodeSessionNotFound, err.Error())
		return
	}
	response.OK(c, state)
}

func sendErrorStatus(kind app.SendErrorKind) int {
	switch kind {
	case app.SendErrorConfig:
		return http.StatusInternalServerError
	case app.SendErrorRateLimit:
		return http.StatusTooManyRequests
	default:
		return http.StatusBadGateway
	}
}

func sendErrorCode(kind app.SendErrorKind) int {
	switch kind {
	case app.SendErrorConfig:
		return response.CodeLLMConfig
	case app.SendErrorRateLimit:
		return response.CodeRateLimited
	default:
		return response.CodeCompletionFailed
	}
}
