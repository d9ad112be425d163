package domain

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// MaxLineQuantity caps the quantity of a single cart line
const MaxLineQuantity = 1000

// CartItem is one product line in a cart. Price is the snapshot taken when
// the product was first added.
type CartItem struct {
	ProductID string          `json:"product_id"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	Image     string          `json:"image"`
	Quantity  int             `json:"quantity"`
	Total     decimal.Decimal `json:"total"`
}

// Cart is the per-user shopping cart. TotalQuantity and TotalAmount are
// always the fold over Items.
type Cart struct {
	ID            string          `json:"id"`
	UserID        string          `json:"user_id"`
	Items         []CartItem      `json:"items"`
	TotalQuantity int             `json:"total_quantity"`
	TotalAmount   decimal.Decimal `json:"total_amount"`
	Version       int             `json:"version"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// ProductSnapshot is what a client supplies when adding a product to a cart
type ProductSnapshot struct {
	ID    string          `json:"id"`
	Name  string          `json:"name"`
	Price decimal.Decimal `json:"price"`
	Image string          `json:"image"`
}

// NewCart returns an empty cart for a user
func NewCart(userID string) *Cart {
	return &Cart{
		UserID:      userID,
		Items:       []CartItem{},
		TotalAmount: decimal.Zero,
	}
}

// AddItem merges quantity of product into the cart. An existing line keeps
// its price snapshot and has its quantity increased.
func (c *Cart) AddItem(product ProductSnapshot, quantity int) error {
	if product.ID == "" {
		return fmt.Errorf("%w: product is required", ErrInvalidInput)
	}
	if err := checkQuantity(quantity); err != nil {
		return err
	}
	if product.Price.IsNegative() {
		return fmt.Errorf("%w: price must not be negative", ErrInvalidInput)
	}

	if i := c.indexOf(product.ID); i >= 0 {
		item := &c.Items[i]
		if err := checkQuantity(item.Quantity + quantity); err != nil {
			return err
		}
		item.Quantity += quantity
		item.Total = item.Price.Mul(decimal.NewFromInt(int64(item.Quantity)))
	} else {
		c.Items = append(c.Items, CartItem{
			ProductID: product.ID,
			Name:      product.Name,
			Price:     product.Price,
			Image:     product.Image,
			Quantity:  quantity,
			Total:     product.Price.Mul(decimal.NewFromInt(int64(quantity))),
		})
	}

	c.Recalculate()
	return nil
}

// SetQuantity replaces the quantity of an existing line
func (c *Cart) SetQuantity(productID string, quantity int) error {
	if err := checkQuantity(quantity); err != nil {
		return err
	}
	i := c.indexOf(productID)
	if i < 0 {
		return fmt.Errorf("%w: item not in cart", ErrNotFound)
	}

	item := &c.Items[i]
	item.Quantity = quantity
	item.Total = item.Price.Mul(decimal.NewFromInt(int64(quantity)))

	c.Recalculate()
	return nil
}

func checkQuantity(quantity int) error {
	if quantity < 1 {
		return fmt.Errorf("%w: quantity must be at least 1", ErrInvalidInput)
	}
	if quantity > MaxLineQuantity {
		return fmt.Errorf("%w: quantity must be at most %d", ErrInvalidInput, MaxLineQuantity)
	}
	return nil
}

// RemoveItem drops a product line from the cart
func (c *Cart) RemoveItem(productID string) error {
	kept := make([]CartItem, 0, len(c.Items))
	for _, item := range c.Items {
		if item.ProductID != productID {
			kept = append(kept, item)
		}
	}
	if len(kept) == len(c.Items) {
		return fmt.Errorf("%w: item not in cart", ErrNotFound)
	}

	c.Items = kept
	c.Recalculate()
	return nil
}

// Clear empties the cart
func (c *Cart) Clear() {
	c.Items = []CartItem{}
	c.Recalculate()
}

// Recalculate derives TotalQuantity and TotalAmount from Items
func (c *Cart) Recalculate() {
	if c.Items == nil {
		c.Items = []CartItem{}
	}
	quantity := 0
	amount := decimal.Zero
	for _, item := range c.Items {
		quantity += item.Quantity
		amount = amount.Add(item.Total)
	}
	c.TotalQuantity = quantity
	c.TotalAmount = amount
}

func (c *Cart) indexOf(productID string) int {
	for i, item := range c.Items {
		if item.ProductID == productID {
			return i
		}
	}
	return -1
}

// CartRepository defines the interface for cart data access
type CartRepository interface {
	// GetByUserID retrieves the user's cart
	GetByUserID(ctx context.Context, userID string) (*Cart, error)

	// GetOrCreate returns the user's cart, creating an empty one at most once
	GetOrCreate(ctx context.Context, userID string) (*Cart, error)

	// Save persists items and totals if the stored version still matches
	// cart.Version, then bumps the version. ErrConflict otherwise.
	Save(ctx context.Context, cart *Cart) error
}
