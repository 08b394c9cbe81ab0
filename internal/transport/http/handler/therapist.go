package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"mindwell/internal/app"
	"mindwell/internal/transport/http/response"
)

type TherapistHandler struct {
	therapistService *app.TherapistService
}

type TherapistProfileRequest struct {
	Specialization  []string `json:"specialization" binding:"max=20"`
	ExperienceYears int      `json:"experience_years" binding:"gte=0,lte=80"`
	Description     string   `json:"description" binding:"max=4000"`
	RatePerHour     float64  `json:"rate_per_hour" binding:"gte=0"`
	Availability    []string `json:"availability" binding:"max=50"`
	Education       []string `json:"education" binding:"max=20"`
	Certifications  []string `json:"certifications" binding:"max=20"`
}

func NewTherapistHandler(therapistService *app.TherapistService) *TherapistHandler {
	return &TherapistHandler{therapistService: therapistService}
}

// List serves the directory; q and specialization (comma separated) narrow it.
func (h *TherapistHandler) List(c *gin.Context) {
	query := c.Query("q")
	specializations := listQuery(c.Query("specialization"))

	profiles, err := h.therapistService.Search(c.Request.Context(), query, specializations)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "failed to load therapists")
		return
	}
	response.OK(c, gin.H{"therapists": profiles})
}

func (h *TherapistHandler) Get(c *gin.Context) {
	id, ok := uintParam(c, "id")
	if !ok {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid therapist id")
		return
	}

	profile, err := h.therapistService.Get(c.Request.Context(), id)
	if err != nil {
		switch {
		case errors.Is(err, app.ErrTherapistNotFound):
			response.Error(c, http.StatusNotFound, response.CodeTherapistNotFound, err.Error())
		default:
			response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "failed to load therapist information")
		}
		return
	}
	response.OK(c, profile)
}

func (h *TherapistHandler) Status(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "invalid token payload")
		return
	}

	isTherapist, err := h.therapistService.IsTherapist(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "check therapist status failed")
		return
	}
	response.OK(c, gin.H{"is_therapist": isTherapist})
}

func (h *TherapistHandler) SaveProfile(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "invalid token payload")
		return
	}

	var req TherapistProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid request payload")
		return
	}

	profile, err := h.therapistService.SaveProfile(c.Request.Context(), userID, app.TherapistProfileInput{
		Specialization:  req.Specialization,
		ExperienceYears: req.ExperienceYears,
		Description:     req.Description,
		RatePerHour:     req.RatePerHour,
		Availability:    req.Availability,
		Education:       req.Education,
		Certifications:  req.Certifications,
	})
	if err != nil {
		switch {
		case errors.Is(err, app.ErrInvalidInput):
			response.Error(c, http.StatusBadRequest, response.CodeBadRequest, err.Error())
		case errors.Is(err, app.ErrNotTherapist):
			response.Error(c, http.StatusForbidden, response.CodeForbidden, err.Error())
		default:
			response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "save therapist profile failed")
		}
		return
	}
	response.OK(c, profile)
}
