package handler

import (
	"net/http"

	"github.com/Pesokrava/jewelry_store/internal/delivery/http/request"
	"github.com/Pesokrava/jewelry_store/internal/delivery/http/response"
	"github.com/Pesokrava/jewelry_store/internal/domain"
	"github.com/Pesokrava/jewelry_store/internal/pkg/logger"
	"github.com/Pesokrava/jewelry_store/internal/usecase/review"
)

// ReviewHandler handles HTTP requests for reviews
type ReviewHandler struct {
	service *review.Service
	logger  *logger.Logger
}

// NewReviewHandler creates a new review handler
func NewReviewHandler(service *review.Service, log *logger.Logger) *ReviewHandler {
	return &ReviewHandler{
		service: service,
		logger:  log,
	}
}

// CreateReviewRequest represents the request body for creating a review
type CreateReviewRequest struct {
	ProductID request.ID `json:"product_id" swaggertype:"string" example:"7"`
	Rating    int        `json:"rating" example:"5"`
	Comment   string     `json:"comment" example:"Beautiful ring"`
}

// UpdateReviewRequest represents the request body for updating a review.
// Omitted fields are left unchanged.
type UpdateReviewRequest struct {
	Rating  *int    `json:"rating,omitempty" example:"4"`
	Comment *string `json:"comment,omitempty"`
}

// ReviewStatusRequest represents the request body for moderating a review
type ReviewStatusRequest struct {
	Status string `json:"status" enums:"approved,rejected" example:"approved"`
}

// Create handles POST /api/reviews
// @Summary Create a review
// @Description Review a product as the caller. One review per user and product; the product's rating is refreshed.
// @Tags Reviews
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param review body CreateReviewRequest true "Review details"
// @Success 201 {object} response.Envelope{data=domain.Review}
// @Failure 400 {object} response.Envelope "Invalid input or product already reviewed"
// @Failure 401 {object} response.Envelope "Missing or invalid token"
// @Failure 404 {object} response.Envelope "Product not found"
// @Failure 500 {object} response.Envelope "Internal server error"
// @Router /reviews [post]
func (h *ReviewHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := caller(w, r)
	if !ok {
		return
	}

	var req CreateReviewRequest
	if err := request.DecodeJSON(r, &req); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	review, err := h.service.Create(r.Context(), userID, req.ProductID.String(), req.Rating, req.Comment)
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	response.Created(w, review)
}

// GetByID handles GET /api/reviews/{id}
// @Summary Get a review
// @Tags Reviews
// @Produce json
// @Param id path string true "Review ID"
// @Success 200 {object} response.Envelope{data=domain.Review}
// @Failure 404 {object} response.Envelope "Review not found"
// @Failure 500 {object} response.Envelope "Internal server error"
// @Router /reviews/{id} [get]
func (h *ReviewHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, err := request.GetIDParam(r, "id")
	if err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid review ID")
		return
	}

	review, err := h.service.GetByID(r.Context(), id)
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	response.Success(w, review)
}

// Update handles PUT /api/reviews/{id}
// @Summary Update a review
// @Description Update the caller's own review. The product's rating is refreshed.
// @Tags Reviews
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Review ID"
// @Param review body UpdateReviewRequest true "Fields to change"
// @Success 200 {object} response.Envelope{data=domain.Review}
// @Failure 400 {object} response.Envelope "Invalid request"
// @Failure 403 {object} response.Envelope "Not the author of this review"
// @Failure 404 {object} response.Envelope "Review not found"
// @Failure 500 {object} response.Envelope "Internal server error"
// @Router /reviews/{id} [put]
func (h *ReviewHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID, ok := caller(w, r)
	if !ok {
		return
	}

	id, err := request.GetIDParam(r, "id")
	if err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid review ID")
		return
	}

	var req UpdateReviewRequest
	if err := request.DecodeJSON(r, &req); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	review, err := h.service.Update(r.Context(), id, userID, domain.ReviewPatch{
		Rating:  req.Rating,
		Comment: req.Comment,
	})
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	response.Success(w, review)
}

// Delete handles DELETE /api/reviews/{id}
// @Summary Delete a review
// @Description Delete the caller's own review. The product's rating is refreshed.
// @Tags Reviews
// @Produce json
// @Security BearerAuth
// @Param id path string true "Review ID"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope "Not the author of this review"
// @Failure 404 {object} response.Envelope "Review not found"
// @Failure 500 {object} response.Envelope "Internal server error"
// @Router /reviews/{id} [delete]
func (h *ReviewHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := caller(w, r)
	if !ok {
		return
	}

	id, err := request.GetIDParam(r, "id")
	if err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid review ID")
		return
	}

	if err := h.service.Delete(r.Context(), id, userID); err != nil {
		h.handleError(w, r, err)
		return
	}

	response.Message(w, "Review deleted")
}

// ListByProduct handles GET /api/products/{id}/reviews
// @Summary Get reviews for a product
// @Description Get a paginated list of a product's reviews, newest first. Results are cached.
// @Tags Reviews
// @Produce json
// @Param id path string true "Product ID"
// @Param limit query int false "Number of items per page (max 100)" default(20)
// @Param offset query int false "Number of items to skip" default(0)
// @Success 200 {object} response.Envelope{data=[]domain.Review}
// @Failure 500 {object} response.Envelope "Internal server error"
// @Router /products/{id}/reviews [get]
func (h *ReviewHandler) ListByProduct(w http.ResponseWriter, r *http.Request) {
	productID, err := request.GetIDParam(r, "id")
	if err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid product ID")
		return
	}

	limit, offset := request.GetPaginationParams(r)

	reviews, total, err := h.service.ListByProduct(r.Context(), productID, limit, offset)
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	response.Paginated(w, reviews, total, limit, offset)
}

// ListPending handles GET /api/reviews/admin/pending
// @Summary List reviews awaiting moderation
// @Tags Reviews
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope{data=[]domain.Review}
// @Failure 403 {object} response.Envelope "Admin access required"
// @Failure 500 {object} response.Envelope "Internal server error"
// @Router /reviews/admin/pending [get]
func (h *ReviewHandler) ListPending(w http.ResponseWriter, r *http.Request) {
	reviews, err := h.service.ListPending(r.Context())
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	response.Success(w, reviews)
}

// SetStatus handles PUT /api/reviews/admin/{id}/status
// @Summary Moderate a review
// @Description Approve or reject a review. The author is notified.
// @Tags Reviews
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Review ID"
// @Param status body ReviewStatusRequest true "New status"
// @Success 200 {object} response.Envelope{data=domain.Review}
// @Failure 400 {object} response.Envelope "Unknown status"
// @Failure 404 {object} response.Envelope "Review not found"
// @Failure 500 {object} response.Envelope "Internal server error"
// @Router /reviews/admin/{id}/status [put]
func (h *ReviewHandler) SetStatus(w http.ResponseWriter, r *http.Request) {
	id, err := request.GetIDParam(r, "id")
	if err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid review ID")
		return
	}

	var req ReviewStatusRequest
	if err := request.DecodeJSON(r, &req); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	review, err := h.service.SetStatus(r.Context(), id, req.Status)
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	response.Success(w, review)
}

func (h *ReviewHandler) handleError(w http.ResponseWriter, r *http.Request, err error) {
	writeError(w, r, h.logger, "review", err)
}
