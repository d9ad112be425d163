package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Pesokrava/jewelry_store/internal/domain"
	"github.com/Pesokrava/jewelry_store/internal/pkg/logger"
	"github.com/Pesokrava/jewelry_store/internal/usecase/category"
)

func TestWriteError_StatusMapping(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		status  int
		message string
	}{
		{
			name:    "not found with resource detail",
			err:     fmt.Errorf("%w: cart", domain.ErrNotFound),
			status:  http.StatusNotFound,
			message: "Cart not found",
		},
		{
			name:    "bare not found falls back to the handler resource",
			err:     domain.ErrNotFound,
			status:  http.StatusNotFound,
			message: "Widget not found",
		},
		{
			name:    "not found with sentence detail",
			err:     fmt.Errorf("%w: item not in cart", domain.ErrNotFound),
			status:  http.StatusNotFound,
			message: "Item not in cart",
		},
		{
			name:    "validation",
			err:     fmt.Errorf("%w: quantity must be at least 1", domain.ErrInvalidInput),
			status:  http.StatusBadRequest,
			message: "Quantity must be at least 1",
		},
		{
			name:    "duplicate",
			err:     fmt.Errorf("%w: product already reviewed", domain.ErrAlreadyExists),
			status:  http.StatusBadRequest,
			message: "Product already reviewed",
		},
		{
			name:    "category in use",
			err:     category.ErrHasProducts,
			status:  http.StatusBadRequest,
			message: "Cannot delete category with existing products",
		},
		{
			name:    "forbidden",
			err:     fmt.Errorf("%w: not the author of this review", domain.ErrForbidden),
			status:  http.StatusForbidden,
			message: "Not the author of this review",
		},
		{
			name:    "conflict",
			err:     fmt.Errorf("failed to save: %w", domain.ErrConflict),
			status:  http.StatusConflict,
			message: "Conflict, please retry",
		},
		{
			name:    "unexpected error hides detail",
			err:     errors.New("dial tcp 10.0.0.1:3306: connection refused"),
			status:  http.StatusInternalServerError,
			message: "Internal server error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			r := httptest.NewRequest(http.MethodGet, "/", nil)

			writeError(w, r, logger.New("test"), "widget", tt.err)

			assert.Equal(t, tt.status, w.Code)
			var body map[string]interface{}
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.Equal(t, false, body["success"])
			assert.Equal(t, tt.message, body["error"])
		})
	}
}
