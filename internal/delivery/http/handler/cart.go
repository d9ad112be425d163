package handler

import (
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/Pesokrava/jewelry_store/internal/delivery/http/request"
	"github.com/Pesokrava/jewelry_store/internal/delivery/http/response"
	"github.com/Pesokrava/jewelry_store/internal/domain"
	"github.com/Pesokrava/jewelry_store/internal/pkg/logger"
	"github.com/Pesokrava/jewelry_store/internal/usecase/cart"
)

// CartHandler handles HTTP requests for the caller's cart
type CartHandler struct {
	service *cart.Service
	logger  *logger.Logger
}

// NewCartHandler creates a new cart handler
func NewCartHandler(service *cart.Service, log *logger.Logger) *CartHandler {
	return &CartHandler{
		service: service,
		logger:  log,
	}
}

// CartProduct is the product snapshot a client adds to its cart
type CartProduct struct {
	ID    request.ID      `json:"id" swaggertype:"string" example:"7"`
	Name  string          `json:"name" example:"Gold Ring"`
	Price decimal.Decimal `json:"price" swaggertype:"number" example:"100.00"`
	Image string          `json:"image"`
}

// AddCartItemRequest represents the request body for adding to the cart
type AddCartItemRequest struct {
	Product  CartProduct `json:"product"`
	Quantity *int        `json:"quantity,omitempty" example:"1"`
}

// UpdateCartItemRequest represents the request body for changing a line's quantity
type UpdateCartItemRequest struct {
	Quantity int `json:"quantity" example:"2"`
}

// Get handles GET /api/cart
// @Summary Get the cart
// @Description Get the caller's cart, creating an empty one on first use
// @Tags Cart
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope{data=domain.Cart}
// @Failure 401 {object} response.Envelope "Missing or invalid token"
// @Failure 500 {object} response.Envelope "Internal server error"
// @Router /cart [get]
func (h *CartHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, ok := caller(w, r)
	if !ok {
		return
	}

	cart, err := h.service.Get(r.Context(), userID)
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	response.Success(w, cart)
}

// AddItem handles POST /api/cart
// @Summary Add a product to the cart
// @Description Add quantity (default 1) of a product. An existing line keeps its price and has its quantity increased.
// @Tags Cart
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param item body AddCartItemRequest true "Product and quantity"
// @Success 200 {object} response.Envelope{data=domain.Cart}
// @Failure 400 {object} response.Envelope "Invalid input"
// @Failure 409 {object} response.Envelope "Cart was modified concurrently"
// @Failure 500 {object} response.Envelope "Internal server error"
// @Router /cart [post]
func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	userID, ok := caller(w, r)
	if !ok {
		return
	}

	var req AddCartItemRequest
	if err := request.DecodeJSON(r, &req); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	quantity := 1
	if req.Quantity != nil {
		quantity = *req.Quantity
	}

	cart, err := h.service.AddItem(r.Context(), userID, domain.ProductSnapshot{
		ID:    req.Product.ID.String(),
		Name:  req.Product.Name,
		Price: req.Product.Price,
		Image: req.Product.Image,
	}, quantity)
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	response.Success(w, cart)
}

// UpdateItem handles PUT /api/cart/{productId}
// @Summary Change a cart line's quantity
// @Tags Cart
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param productId path string true "Product ID"
// @Param item body UpdateCartItemRequest true "New quantity"
// @Success 200 {object} response.Envelope{data=domain.Cart}
// @Failure 400 {object} response.Envelope "Quantity must be at least 1"
// @Failure 404 {object} response.Envelope "Cart or item not found"
// @Failure 409 {object} response.Envelope "Cart was modified concurrently"
// @Router /cart/{productId} [put]
func (h *CartHandler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	userID, ok := caller(w, r)
	if !ok {
		return
	}

	productID, err := request.GetIDParam(r, "productId")
	if err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid product ID")
		return
	}

	var req UpdateCartItemRequest
	if err := request.DecodeJSON(r, &req); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	cart, err := h.service.UpdateItem(r.Context(), userID, productID, req.Quantity)
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	response.Success(w, cart)
}

// RemoveItem handles DELETE /api/cart/{productId}
// @Summary Remove a product from the cart
// @Tags Cart
// @Produce json
// @Security BearerAuth
// @Param productId path string true "Product ID"
// @Success 200 {object} response.Envelope{data=domain.Cart}
// @Failure 404 {object} response.Envelope "Cart or item not found"
// @Failure 409 {object} response.Envelope "Cart was modified concurrently"
// @Router /cart/{productId} [delete]
func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	userID, ok := caller(w, r)
	if !ok {
		return
	}

	productID, err := request.GetIDParam(r, "productId")
	if err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid product ID")
		return
	}

	cart, err := h.service.RemoveItem(r.Context(), userID, productID)
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	response.Success(w, cart)
}

// Clear handles DELETE /api/cart
// @Summary Empty the cart
// @Tags Cart
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope{data=domain.Cart}
// @Failure 404 {object} response.Envelope "Cart not found"
// @Router /cart [delete]
func (h *CartHandler) Clear(w http.ResponseWriter, r *http.Request) {
	userID, ok := caller(w, r)
	if !ok {
		return
	}

	cart, err := h.service.Clear(r.Context(), userID)
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	response.Success(w, cart)
}

func (h *CartHandler) handleError(w http.ResponseWriter, r *http.Request, err error) {
	writeError(w, r, h.logger, "cart", err)
}
