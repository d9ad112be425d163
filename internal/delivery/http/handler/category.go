package handler

import (
	"net/http"

	"github.com/Pesokrava/jewelry_store/internal/delivery/http/request"
	"github.com/Pesokrava/jewelry_store/internal/delivery/http/response"
	"github.com/Pesokrava/jewelry_store/internal/domain"
	"github.com/Pesokrava/jewelry_store/internal/pkg/logger"
	"github.com/Pesokrava/jewelry_store/internal/usecase/category"
)

// CategoryHandler handles HTTP requests for categories
type CategoryHandler struct {
	service *category.Service
	logger  *logger.Logger
}

// NewCategoryHandler creates a new category handler
func NewCategoryHandler(service *category.Service, log *logger.Logger) *CategoryHandler {
	return &CategoryHandler{
		service: service,
		logger:  log,
	}
}

// CategoryRequest represents the request body for creating or updating a category
type CategoryRequest struct {
	Name        string      `json:"name" example:"Necklaces"`
	Slug        string      `json:"slug,omitempty" example:"necklaces"`
	Description string      `json:"description"`
	ParentID    *request.ID `json:"parent_id,omitempty" swaggertype:"string"`
}

func (req CategoryRequest) input() category.Input {
	in := category.Input{
		Name:        req.Name,
		Slug:        req.Slug,
		Description: req.Description,
	}
	if req.ParentID != nil && *req.ParentID != "" {
		parent := req.ParentID.String()
		in.ParentID = &parent
	}
	return in
}

// UpdateCategoryRequest represents the request body for a partial category
// update. Omitted fields keep their stored value; "parent_id": null detaches
// the category from its parent.
type UpdateCategoryRequest struct {
	Name        *string            `json:"name,omitempty" example:"Necklaces"`
	Slug        *string            `json:"slug,omitempty" example:"necklaces"`
	Description *string            `json:"description,omitempty"`
	ParentID    request.OptionalID `json:"parent_id" swaggertype:"string"`
}

func (req UpdateCategoryRequest) patch() domain.CategoryPatch {
	patch := domain.CategoryPatch{
		Name:        req.Name,
		Slug:        req.Slug,
		Description: req.Description,
	}
	if req.ParentID.Set {
		if req.ParentID.ID == "" {
			patch.ClearParent = true
		} else {
			parent := req.ParentID.ID.String()
			patch.ParentID = &parent
		}
	}
	return patch
}

// List handles GET /api/categories
// @Summary List categories
// @Tags Categories
// @Produce json
// @Success 200 {object} response.Envelope{data=[]domain.Category}
// @Failure 500 {object} response.Envelope "Internal server error"
// @Router /categories [get]
func (h *CategoryHandler) List(w http.ResponseWriter, r *http.Request) {
	categories, err := h.service.List(r.Context())
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	response.Success(w, categories)
}

// GetByID handles GET /api/categories/{id}
// @Summary Get a category by ID
// @Tags Categories
// @Produce json
// @Param id path string true "Category ID"
// @Success 200 {object} response.Envelope{data=domain.Category}
// @Failure 404 {object} response.Envelope "Category not found"
// @Router /categories/{id} [get]
func (h *CategoryHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, err := request.GetIDParam(r, "id")
	if err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid category ID")
		return
	}

	category, err := h.service.GetByID(r.Context(), id)
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	response.Success(w, category)
}

// GetBySlug handles GET /api/categories/slug/{slug}
// @Summary Get a category by slug
// @Tags Categories
// @Produce json
// @Param slug path string true "Category slug"
// @Success 200 {object} response.Envelope{data=domain.Category}
// @Failure 404 {object} response.Envelope "Category not found"
// @Router /categories/slug/{slug} [get]
func (h *CategoryHandler) GetBySlug(w http.ResponseWriter, r *http.Request) {
	slug, err := request.GetIDParam(r, "slug")
	if err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid category slug")
		return
	}

	category, err := h.service.GetBySlug(r.Context(), slug)
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	response.Success(w, category)
}

// Create handles POST /api/categories
// @Summary Create a category
// @Description Create a category. The slug is derived from the name when omitted and must be unique.
// @Tags Categories
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param category body CategoryRequest true "Category details"
// @Success 201 {object} response.Envelope{data=domain.Category}
// @Failure 400 {object} response.Envelope "Invalid input, slug taken or parent cycle"
// @Failure 404 {object} response.Envelope "Parent category not found"
// @Failure 500 {object} response.Envelope "Internal server error"
// @Router /categories [post]
func (h *CategoryHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CategoryRequest
	if err := request.DecodeJSON(r, &req); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	category, err := h.service.Create(r.Context(), req.input())
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	response.Created(w, category)
}

// Update handles PUT /api/categories/{id}
// @Summary Update a category
// @Description Apply the supplied fields. The slug changes only when sent; parent_id null detaches the category.
// @Tags Categories
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Category ID"
// @Param category body UpdateCategoryRequest true "Fields to change"
// @Success 200 {object} response.Envelope{data=domain.Category}
// @Failure 400 {object} response.Envelope "Invalid input, slug taken or parent cycle"
// @Failure 404 {object} response.Envelope "Category not found"
// @Failure 500 {object} response.Envelope "Internal server error"
// @Router /categories/{id} [put]
func (h *CategoryHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := request.GetIDParam(r, "id")
	if err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid category ID")
		return
	}

	var req UpdateCategoryRequest
	if err := request.DecodeJSON(r, &req); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	category, err := h.service.Update(r.Context(), id, req.patch())
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	response.Success(w, category)
}

// Delete handles DELETE /api/categories/{id}
// @Summary Delete a category
// @Description Delete a category that no product references
// @Tags Categories
// @Produce json
// @Security BearerAuth
// @Param id path string true "Category ID"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope "Cannot delete category with existing products"
// @Failure 404 {object} response.Envelope "Category not found"
// @Failure 500 {object} response.Envelope "Internal server error"
// @Router /categories/{id} [delete]
func (h *CategoryHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := request.GetIDParam(r, "id")
	if err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid category ID")
		return
	}

	if err := h.service.Delete(r.Context(), id); err != nil {
		h.handleError(w, r, err)
		return
	}

	response.Message(w, "Category deleted")
}

func (h *CategoryHandler) handleError(w http.ResponseWriter, r *http.Request, err error) {
	writeError(w, r, h.logger, "category", err)
}
