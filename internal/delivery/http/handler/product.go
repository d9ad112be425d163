package handler

import (
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/Pesokrava/jewelry_store/internal/delivery/http/request"
	"github.com/Pesokrava/jewelry_store/internal/delivery/http/response"
	"github.com/Pesokrava/jewelry_store/internal/pkg/logger"
	"github.com/Pesokrava/jewelry_store/internal/usecase/product"
)

// ProductHandler handles HTTP requests for products
type ProductHandler struct {
	service *product.Service
	logger  *logger.Logger
}

// NewProductHandler creates a new product handler
func NewProductHandler(service *product.Service, log *logger.Logger) *ProductHandler {
	return &ProductHandler{
		service: service,
		logger:  log,
	}
}

// ProductRequest represents the request body for creating or updating a product
type ProductRequest struct {
	Name        string           `json:"name" example:"Pearl Necklace"`
	Description string           `json:"description"`
	Price       *decimal.Decimal `json:"price" swaggertype:"number" example:"349.00"`
	Image       string           `json:"image"`
	CategoryID  request.ID       `json:"category_id" swaggertype:"string" example:"3"`
	Quantity    int              `json:"quantity" example:"4"`
	InStock     *bool            `json:"in_stock,omitempty"`
	Featured    bool             `json:"featured"`
}

func (req ProductRequest) input() product.Input {
	in := product.Input{
		Name:        req.Name,
		Description: req.Description,
		Image:       req.Image,
		CategoryID:  req.CategoryID.String(),
		Quantity:    req.Quantity,
		InStock:     req.InStock,
		Featured:    req.Featured,
	}
	if req.Price != nil {
		in.Price = *req.Price
	}
	return in
}

// Create handles POST /api/products
// @Summary Create a product
// @Description Create a catalog product. The category must exist; in_stock defaults to true.
// @Tags Products
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param product body ProductRequest true "Product details"
// @Success 201 {object} response.Envelope{data=domain.Product}
// @Failure 400 {object} response.Envelope "Invalid request body"
// @Failure 401 {object} response.Envelope "Missing or invalid token"
// @Failure 403 {object} response.Envelope "Admin access required"
// @Failure 404 {object} response.Envelope "Category not found"
// @Failure 500 {object} response.Envelope "Internal server error"
// @Router /products [post]
func (h *ProductHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req ProductRequest
	if err := request.DecodeJSON(r, &req); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Price == nil {
		response.Error(w, http.StatusBadRequest, "Price is required")
		return
	}

	product, err := h.service.Create(r.Context(), req.input())
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	response.Created(w, product)
}

// GetByID handles GET /api/products/{id}
// @Summary Get a product
// @Description Get a product with its category. Results are cached.
// @Tags Products
// @Produce json
// @Param id path string true "Product ID"
// @Success 200 {object} response.Envelope{data=domain.Product}
// @Failure 404 {object} response.Envelope "Product not found"
// @Failure 500 {object} response.Envelope "Internal server error"
// @Router /products/{id} [get]
func (h *ProductHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, err := request.GetIDParam(r, "id")
	if err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid product ID")
		return
	}

	product, err := h.service.GetByID(r.Context(), id)
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	response.Success(w, product)
}

// List handles GET /api/products
// @Summary List products
// @Description Get a paginated list of products, newest first
// @Tags Products
// @Produce json
// @Param category query string false "Category slug or ID"
// @Param featured query bool false "Only featured products"
// @Param q query string false "Search in name and description"
// @Param limit query int false "Number of items per page (max 100)" default(20)
// @Param offset query int false "Number of items to skip" default(0)
// @Success 200 {object} response.Envelope{data=[]domain.Product}
// @Failure 500 {object} response.Envelope "Internal server error"
// @Router /products [get]
func (h *ProductHandler) List(w http.ResponseWriter, r *http.Request) {
	limit, offset := request.GetPaginationParams(r)
	query := product.Query{
		Category: r.URL.Query().Get("category"),
		Featured: request.GetBoolQuery(r, "featured"),
		Search:   r.URL.Query().Get("q"),
	}

	products, total, err := h.service.List(r.Context(), query, limit, offset)
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	response.Paginated(w, products, total, limit, offset)
}

// Update handles PUT /api/products/{id}
// @Summary Update a product
// @Description Replace a product's catalog fields. Rating and review count are kept.
// @Tags Products
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Product ID"
// @Param product body ProductRequest true "Updated product details"
// @Success 200 {object} response.Envelope{data=domain.Product}
// @Failure 400 {object} response.Envelope "Invalid request"
// @Failure 404 {object} response.Envelope "Product or category not found"
// @Failure 500 {object} response.Envelope "Internal server error"
// @Router /products/{id} [put]
func (h *ProductHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := request.GetIDParam(r, "id")
	if err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid product ID")
		return
	}

	var req ProductRequest
	if err := request.DecodeJSON(r, &req); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Price == nil {
		response.Error(w, http.StatusBadRequest, "Price is required")
		return
	}

	product, err := h.service.Update(r.Context(), id, req.input())
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	response.Success(w, product)
}

// Delete handles DELETE /api/products/{id}
// @Summary Delete a product
// @Description Delete a product together with its reviews
// @Tags Products
// @Produce json
// @Security BearerAuth
// @Param id path string true "Product ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope "Product not found"
// @Failure 500 {object} response.Envelope "Internal server error"
// @Router /products/{id} [delete]
func (h *ProductHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := request.GetIDParam(r, "id")
	if err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid product ID")
		return
	}

	if err := h.service.Delete(r.Context(), id); err != nil {
		h.handleError(w, r, err)
		return
	}

	response.Message(w, "Product deleted")
}

func (h *ProductHandler) handleError(w http.ResponseWriter, r *http.Request, err error) {
	writeError(w, r, h.logger, "product", err)
}
