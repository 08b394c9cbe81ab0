package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"mindwell/internal/app"
	"mindwell/internal/model"
	"mindwell/internal/transport/http/response"
)

type CrisisHandler struct {
	crisisService *app.CrisisService
}

type CrisisResponseRequest struct {
	Response string `json:"response" binding:"required,oneof=contacted_help dismissed saved_resources"`
}

func NewCrisisHandler(crisisService *app.CrisisService) *CrisisHandler {
	return &CrisisHandler{crisisService: crisisService}
}

func (h *CrisisHandler) LogResponse(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "invalid token payload")
		return
	}

	var req CrisisResponseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid request payload")
		return
	}

	event, err := h.crisisService.LogResponse(c.Request.Context(), userID, req.Response)
	if err != nil {
		switch {
		case errors.Is(err, app.ErrInvalidInput):
			response.Error(c, http.StatusBadRequest, response.CodeBadRequest, err.Error())
		case errors.Is(err, app.ErrCrisisEventNotFound):
			response.Error(c, http.StatusNotFound, response.CodeCrisisNotFound, err.Error())
		default:
			response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "log crisis response failed")
		}
		return
	}
	response.OK(c, crisisEventView(event))
}

// ListAlerts serves the therapist dashboard, newest events first.
func (h *CrisisHandler) ListAlerts(c *gin.Context) {
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid limit")
			return
		}
		limit = parsed
	}

	events, err := h.crisisService.ListAlerts(c.Request.Context(), limit)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "list crisis alerts failed")
		return
	}
	alerts := make([]gin.H, 0, len(events))
	for i := range events {
		alerts = append(alerts, crisisEventView(&events[i]))
	}
	response.OK(c, gin.H{"alerts": alerts})
}

func crisisEventView(event *model.CrisisEvent) gin.H {
	return gin.H{
		"id":               event.ID,
		"user_id":          event.UserID,
		"severity_level":   event.SeverityLevel,
		"trigger_keywords": event.Keywords(),
		"user_response":    event.UserResponse,
		"detected_at":      event.DetectedAt,
	}
}
