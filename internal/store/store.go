// Package store defines the persistence collaborators the auth core
// and resource handlers depend on. The core never reaches a database
// directly; it sees only these interfaces.
package store

import (
	"context"
	"errors"
	"time"

	"barhub/internal/policy"
)

var (
	// ErrNotFound is returned when a record does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrDuplicateEmail is returned on a unique-email violation.
	ErrDuplicateEmail = errors.New("email already registered")
)

// Principal is an authenticated identity. PasswordHash stays inside
// the credential boundary: it is written by registration and password
// changes and read only for verification, never serialized in an API
// response.
type Principal struct {
	ID           string
	Email        string
	PasswordHash string
	Role         policy.Role
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Product is a purchasable item. Reads are public; writes are
// role-gated.
type Product struct {
	ID        string
	Name      string
	Price     float64
	CreatedAt time.Time
	UpdatedAt time.Time
}

// OrderItem is one product line within an order.
type OrderItem struct {
	ProductID string
	Quantity  int
}

// Order belongs to the principal that placed it; ownership drives the
// authorization rules for non-privileged roles.
type Order struct {
	ID        string
	OwnerID   string
	Items     []OrderItem
	CreatedAt time.Time
	UpdatedAt time.Time
}

// PrincipalStore persists principals.
type PrincipalStore interface {
	FindByEmail(ctx context.Context, email string) (*Principal, error)
	FindByID(ctx context.Context, id string) (*Principal, error)
	List(ctx context.Context) ([]Principal, error)
	Create(ctx context.Context, p *Principal) error
	Update(ctx context.Context, p *Principal) error
	Delete(ctx context.Context, id string) error
}

// ProductStore persists products.
type ProductStore interface {
	List(ctx context.Context) ([]Product, error)
	Get(ctx context.Context, id string) (*Product, error)
	Create(ctx context.Context, p *Product) error
	Update(ctx context.Context, p *Product) error
	Delete(ctx context.Context, id string) error
}

// OrderStore persists orders. ListByOwner supports the ownership rule
// without loading every order.
type OrderStore interface {
	ListAll(ctx context.Context) ([]Order, error)
	ListByOwner(ctx context.Context, ownerID string) ([]Order, error)
	Get(ctx context.Context, id string) (*Order, error)
	Create(ctx context.Context, o *Order) error
	Update(ctx context.Context, o *Order) error
	Delete(ctx context.Context, id string) error
}
