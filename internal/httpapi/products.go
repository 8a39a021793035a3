package httpapi

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"barhub/internal/store"
)

// ProductsHandler serves the product catalog. Reads are public so a
// menu can render without a session; writes are role-gated at the
// routing layer.
type ProductsHandler struct {
	products store.ProductStore
	log      *zap.Logger
}

// NewProductsHandler builds a ProductsHandler.
func NewProductsHandler(products store.ProductStore, log *zap.Logger) *ProductsHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &ProductsHandler{products: products, log: log}
}

type productRequest struct {
	Name  string  `json:"name" validate:"required,min=1"`
	Price float64 `json:"price" validate:"required,gt=0"`
}

type productView struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Price     float64   `json:"price"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func toProductView(p *store.Product) productView {
	return productView{
		ID:        p.ID,
		Name:      p.Name,
		Price:     p.Price,
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}
}

// List handles GET /products.
func (h *ProductsHandler) List(c echo.Context) error {
	products, err := h.products.List(c.Request().Context())
	if err != nil {
		return respondStoreError(c, err)
	}

	views := make([]productView, 0, len(products))
	for i := range products {
		views = append(views, toProductView(&products[i]))
	}
	return c.JSON(http.StatusOK, views)
}

// Get handles GET /products/:id.
func (h *ProductsHandler) Get(c echo.Context) error {
	product, err := h.products.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return respondStoreError(c, err)
	}
	return c.JSON(http.StatusOK, toProductView(product))
}

// Create handles POST /products.
func (h *ProductsHandler) Create(c echo.Context) error {
	var req productRequest
	if err := c.Bind(&req); err != nil {
		return respondError(c, http.StatusBadRequest, msgInvalidRequest)
	}
	if err := c.Validate(&req); err != nil {
		return respondError(c, http.StatusBadRequest, msgInvalidRequest)
	}

	product := &store.Product{
		ID:    uuid.NewString(),
		Name:  req.Name,
		Price: req.Price,
	}
	if err := h.products.Create(c.Request().Context(), product); err != nil {
		return respondStoreError(c, err)
	}
	return c.JSON(http.StatusCreated, toProductView(product))
}

// Update handles PUT /products/:id.
func (h *ProductsHandler) Update(c echo.Context) error {
	var req productRequest
	if err := c.Bind(&req); err != nil {
		return respondError(c, http.StatusBadRequest, msgInvalidRequest)
	}
	if err := c.Validate(&req); err != nil {
		return respondError(c, http.StatusBadRequest, msgInvalidRequest)
	}

	ctx := c.Request().Context()
	product, err := h.products.Get(ctx, c.Param("id"))
	if err != nil {
		return respondStoreError(c, err)
	}

	product.Name = req.Name
	product.Price = req.Price
	if err := h.products.Update(ctx, product); err != nil {
		return respondStoreError(c, err)
	}
	return c.JSON(http.StatusOK, toProductView(product))
}

// Delete handles DELETE /products/:id.
func (h *ProductsHandler) Delete(c echo.Context) error {
	ctx := c.Request().Context()
	if _, err := h.products.Get(ctx, c.Param("id")); err != nil {
		return respondStoreError(c, err)
	}
	if err := h.products.Delete(ctx, c.Param("id")); err != nil {
		return respondStoreError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
