package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"mindwell/internal/app"
	"mindwell/internal/transport/http/response"
)

type ResourceHandler struct {
	resourceService *app.ResourceService
}

type CreateResourceRequest struct {
	Title        string   `json:"title" binding:"required,max=255"`
	Content      string   `json:"content" binding:"required"`
	Category     []string `json:"category" binding:"max=10"`
	ThumbnailURL string   `json:"thumbnail_url" binding:"omitempty,url,max=512"`
	Author       string   `json:"author" binding:"max=128"`
}

func NewResourceHandler(resourceService *app.ResourceService) *ResourceHandler {
	return &ResourceHandler{resourceService: resourceService}
}

func (h *ResourceHandler) List(c *gin.Context) {
	resources, err := h.resourceService.Search(c.Request.Context(), c.Query("q"), c.Query("category"))
	if err != nil {
		response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "failed to load resources")
		return
	}
	response.OK(c, gin.H{"resources": resources})
}

func (h *ResourceHandler) Featured(c *gin.Context) {
	resources, err := h.resourceService.Featured(c.Request.Context())
	if err != nil {
		response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "failed to load featured resources")
		return
	}
	response.OK(c, gin.H{"resources": resources})
}

func (h *ResourceHandler) Categories(c *gin.Context) {
	categories, err := h.resourceService.Categories(c.Request.Context())
	if err != nil {
		response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "failed to load categories")
		return
	}
	response.OK(c, gin.H{"categories": categories})
}

func (h *ResourceHandler) Get(c *gin.Context) {
	id, ok := uintParam(c, "id")
	if !ok {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid resource id")
		return
	}

	resource, err := h.resourceService.Get(c.Request.Context(), id)
	if err != nil {
		switch {
		case errors.Is(err, app.ErrResourceNotFound):
			response.Error(c, http.StatusNotFound, response.CodeResourceNotFound, err.Error())
		default:
			response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "failed to load resource")
		}
		return
	}
	response.OK(c, resource)
}

func (h *ResourceHandler) Create(c *gin.Context) {
	var req CreateResourceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid request payload")
		return
	}

	resource, err := h.resourceService.Create(c.Request.Context(), app.ResourceInput{
		Title:        req.Title,
		Content:      req.Content,
		Category:     req.Category,
		ThumbnailURL: req.ThumbnailURL,
		Author:       req.Author,
	})
	if err != nil {
		switch {
		case errors.Is(err, app.ErrInvalidInput):
			response.Error(c, http.StatusBadRequest, response.CodeBadRequest, err.Error())
		default:
			response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "create resource failed")
		}
		return
	}
	response.OK(c, resource)
}
