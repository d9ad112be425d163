package handler

import (
	"net/http"

	"github.com/Pesokrava/jewelry_store/internal/delivery/http/request"
	"github.com/Pesokrava/jewelry_store/internal/delivery/http/response"
	"github.com/Pesokrava/jewelry_store/internal/pkg/logger"
	"github.com/Pesokrava/jewelry_store/internal/usecase/address"
)

// AddressHandler handles HTTP requests for the caller's addresses
type AddressHandler struct {
	service *address.Service
	logger  *logger.Logger
}

// NewAddressHandler creates a new address handler
func NewAddressHandler(service *address.Service, log *logger.Logger) *AddressHandler {
	return &AddressHandler{
		service: service,
		logger:  log,
	}
}

// AddressRequest represents the request body for creating or updating an address
type AddressRequest struct {
	Type       string `json:"type" enums:"shipping,billing" example:"shipping"`
	Street     string `json:"street" example:"1 Main St"`
	City       string `json:"city" example:"Springfield"`
	State      string `json:"state"`
	Country    string `json:"country" example:"US"`
	PostalCode string `json:"postal_code" example:"12345"`
	IsDefault  bool   `json:"is_default"`
}

func (req AddressRequest) input() address.Input {
	return address.Input{
		Type:       req.Type,
		Street:     req.Street,
		City:       req.City,
		State:      req.State,
		Country:    req.Country,
		PostalCode: req.PostalCode,
		IsDefault:  req.IsDefault,
	}
}

// List handles GET /api/addresses
// @Summary List addresses
// @Description List the caller's addresses, defaults first
// @Tags Addresses
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope{data=[]domain.Address}
// @Failure 401 {object} response.Envelope "Missing or invalid token"
// @Router /addresses [get]
func (h *AddressHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := caller(w, r)
	if !ok {
		return
	}

	addresses, err := h.service.List(r.Context(), userID)
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	response.Success(w, addresses)
}

// Create handles POST /api/addresses
// @Summary Create an address
// @Tags Addresses
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param address body AddressRequest true "Address details"
// @Success 201 {object} response.Envelope{data=domain.Address}
// @Failure 400 {object} response.Envelope "Invalid input"
// @Router /addresses [post]
func (h *AddressHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := caller(w, r)
	if !ok {
		return
	}

	var req AddressRequest
	if err := request.DecodeJSON(r, &req); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	address, err := h.service.Create(r.Context(), userID, req.input())
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	response.Created(w, address)
}

// Update handles PUT /api/addresses/{id}
// @Summary Update an address
// @Tags Addresses
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Address ID"
// @Param address body AddressRequest true "Updated address"
// @Success 200 {object} response.Envelope{data=domain.Address}
// @Failure 400 {object} response.Envelope "Invalid input"
// @Failure 404 {object} response.Envelope "Address not found"
// @Router /addresses/{id} [put]
func (h *AddressHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID, ok := caller(w, r)
	if !ok {
		return
	}

	id, err := request.GetIDParam(r, "id")
	if err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid address ID")
		return
	}

	var req AddressRequest
	if err := request.DecodeJSON(r, &req); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	address, err := h.service.Update(r.Context(), userID, id, req.input())
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	response.Success(w, address)
}

// Delete handles DELETE /api/addresses/{id}
// @Summary Delete an address
// @Tags Addresses
// @Produce json
// @Security BearerAuth
// @Param id path string true "Address ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope "Address not found"
// @Router /addresses/{id} [delete]
func (h *AddressHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := caller(w, r)
	if !ok {
		return
	}

	id, err := request.GetIDParam(r, "id")
	if err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid address ID")
		return
	}

	if err := h.service.Delete(r.Context(), userID, id); err != nil {
		h.handleError(w, r, err)
		return
	}

	response.Message(w, "Address deleted")
}

// SetDefault handles PUT /api/addresses/{id}/default
// @Summary Make an address the default of its type
// @Tags Addresses
// @Produce json
// @Security BearerAuth
// @Param id path string true "Address ID"
// @Success 200 {object} response.Envelope{data=domain.Address}
// @Failure 404 {object} response.Envelope "Address not found"
// @Router /addresses/{id}/default [put]
func (h *AddressHandler) SetDefault(w http.ResponseWriter, r *http.Request) {
	userID, ok := caller(w, r)
	if !ok {
		return
	}

	id, err := request.GetIDParam(r, "id")
	if err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid address ID")
		return
	}

	address, err := h.service.SetDefault(r.Context(), userID, id)
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	response.Success(w, address)
}

func (h *AddressHandler) handleError(w http.ResponseWriter, r *http.Request, err error) {
	writeError(w, r, h.logger, "address", err)
}
