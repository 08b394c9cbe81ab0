package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"mindwell/internal/app"
	"mindwell/internal/transport/http/response"
)

type MessageHandler struct {
	messagingService *app.MessagingService
}

type DirectMessageRequest struct {
	RecipientID uint   `json:"recipient_id" binding:"required,gt=0"`
	Content     string `json:"content" binding:"required,max=4000"`
}

type MarkReadRequest struct {
	IDs []uint `json:"ids" binding:"required,min=1,max=200"`
}

func NewMessageHandler(messagingService *app.MessagingService) *MessageHandler {
	return &MessageHandler{messagingService: messagingService}
}

func (h *MessageHandler) Conversations(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "invalid token payload")
		return
	}

	conversations, err := h.messagingService.Conversations(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "failed to load conversations")
		return
	}
	response.OK(c, gin.H{"conversations": conversations})
}

func (h *MessageHandler) Thread(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "invalid token payload")
		return
	}
	partnerID, ok := uintParam(c, "partnerId")
	if !ok {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid partner id")
		return
	}

	messages, err := h.messagingService.Thread(c.Request.Context(), userID, partnerID)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "failed to load messages")
		return
	}
	response.OK(c, gin.H{"messages": messages})
}

func (h *MessageHandler) Send(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "invalid token payload")
		return
	}

	var req DirectMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid request payload")
		return
	}

	msg, err := h.messagingService.Send(c.Request.Context(), userID, req.RecipientID, req.Content)
	if err != nil {
		switch {
		case errors.Is(err, app.ErrInvalidInput), errors.Is(err, app.ErrMessageEmpty):
			response.Error(c, http.StatusBadRequest, response.CodeBadRequest, err.Error())
		case errors.Is(err, app.ErrRecipientNotFound):
			response.Error(c, http.StatusNotFound, response.CodeRecipientNotFound, err.Error())
		default:
			response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "send message failed")
		}
		return
	}
	response.OK(c, msg)
}

func (h *MessageHandler) MarkRead(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "invalid token payload")
		return
	}

	var req MarkReadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid request payload")
		return
	}

	updated, err := h.messagingService.MarkRead(c.Request.Context(), userID, req.IDs)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "mark messages read failed")
		return
	}
	response.OK(c, gin.H{"updated": updated})
}
