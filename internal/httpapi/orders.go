package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"barhub/internal/policy"
	"barhub/internal/store"
)

// OrdersHandler serves order routes. Ownership is the organizing rule:
// students see and edit only their own orders, while order managers
// (DEV, ADMIN, BARTENDER) see everything.
type OrdersHandler struct {
	orders   store.OrderStore
	products store.ProductStore
	log      *zap.Logger
}

// NewOrdersHandler builds an OrdersHandler.
func NewOrdersHandler(orders store.OrderStore, products store.ProductStore, log *zap.Logger) *OrdersHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &OrdersHandler{orders: orders, products: products, log: log}
}

type orderItemPayload struct {
	ProductID string `json:"productId" validate:"required"`
	Quantity  int    `json:"quantity" validate:"required,min=1"`
}

type orderRequest struct {
	Items []orderItemPayload `json:"items" validate:"required,min=1,dive"`
}

type orderView struct {
	ID        string             `json:"id"`
	OwnerID   string             `json:"ownerId"`
	Items     []orderItemPayload `json:"items"`
	CreatedAt time.Time          `json:"createdAt"`
	UpdatedAt time.Time          `json:"updatedAt"`
}

func toOrderView(o *store.Order) orderView {
	items := make([]orderItemPayload, 0, len(o.Items))
	for _, it := range o.Items {
		items = append(items, orderItemPayload{ProductID: it.ProductID, Quantity: it.Quantity})
	}
	return orderView{
		ID:        o.ID,
		OwnerID:   o.OwnerID,
		Items:     items,
		CreatedAt: o.CreatedAt,
		UpdatedAt: o.UpdatedAt,
	}
}

// List handles GET /orders. Order managers get the full table;
// everyone else gets only their own orders, and an empty result is a
// 200 with an empty array, never a 403.
func (h *OrdersHandler) List(c echo.Context) error {
	actor, ok := CurrentIdentity(c)
	if !ok {
		return respondError(c, http.StatusUnauthorized, msgUnauthorized)
	}

	ctx := c.Request().Context()
	var (
		orders []store.Order
		err    error
	)
	if policy.OrderManagers.Contains(actor.Role) {
		orders, err = h.orders.ListAll(ctx)
	} else {
		orders, err = h.orders.ListByOwner(ctx, actor.Subject)
	}
	if err != nil {
		return respondStoreError(c, err)
	}

	views := make([]orderView, 0, len(orders))
	for i := range orders {
		views = append(views, toOrderView(&orders[i]))
	}
	return c.JSON(http.StatusOK, views)
}

// Get handles GET /orders/:id.
func (h *OrdersHandler) Get(c echo.Context) error {
	actor, ok := CurrentIdentity(c)
	if !ok {
		return respondError(c, http.StatusUnauthorized, msgUnauthorized)
	}

	order, err := h.orders.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return respondStoreError(c, err)
	}
	if !policy.CanAccessOwned(actor.Role, actor.Subject, order.OwnerID, policy.OrderManagers) {
		return respondError(c, http.StatusForbidden, msgForbidden)
	}

	return c.JSON(http.StatusOK, toOrderView(order))
}

// Create handles POST /orders. The owner is always the caller; a
// client cannot place an order on someone else's behalf. Every
// referenced product must exist.
func (h *OrdersHandler) Create(c echo.Context) error {
	actor, ok := CurrentIdentity(c)
	if !ok {
		return respondError(c, http.StatusUnauthorized, msgUnauthorized)
	}

	var req orderRequest
	if err := c.Bind(&req); err != nil {
		return respondError(c, http.StatusBadRequest, msgInvalidRequest)
	}
	if err := c.Validate(&req); err != nil {
		return respondError(c, http.StatusBadRequest, msgInvalidRequest)
	}

	ctx := c.Request().Context()
	items, err := h.resolveItems(ctx, req.Items)
	if err != nil {
		return respondError(c, http.StatusBadRequest, msgInvalidRequest)
	}

	order := &store.Order{
		ID:      uuid.NewString(),
		OwnerID: actor.Subject,
		Items:   items,
	}
	if err := h.orders.Create(ctx, order); err != nil {
		return respondStoreError(c, err)
	}

	return c.JSON(http.StatusCreated, toOrderView(order))
}

// Update handles PUT /orders/:id by replacing the item list. The route
// gate restricts it to order managers above student level.
func (h *OrdersHandler) Update(c echo.Context) error {
	var req orderRequest
	if err := c.Bind(&req); err != nil {
		return respondError(c, http.StatusBadRequest, msgInvalidRequest)
	}
	if err := c.Validate(&req); err != nil {
		return respondError(c, http.StatusBadRequest, msgInvalidRequest)
	}

	ctx := c.Request().Context()
	order, err := h.orders.Get(ctx, c.Param("id"))
	if err != nil {
		return respondStoreError(c, err)
	}

	items, err := h.resolveItems(ctx, req.Items)
	if err != nil {
		return respondError(c, http.StatusBadRequest, msgInvalidRequest)
	}

	order.Items = items
	if err := h.orders.Update(ctx, order); err != nil {
		return respondStoreError(c, err)
	}
	return c.JSON(http.StatusOK, toOrderView(order))
}

// Delete handles DELETE /orders/:id.
func (h *OrdersHandler) Delete(c echo.Context) error {
	ctx := c.Request().Context()
	if _, err := h.orders.Get(ctx, c.Param("id")); err != nil {
		return respondStoreError(c, err)
	}
	if err := h.orders.Delete(ctx, c.Param("id")); err != nil {
		return respondStoreError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// resolveItems checks every referenced product and converts the
// payload to store items. A dangling product reference fails the whole
// request.
func (h *OrdersHandler) resolveItems(ctx context.Context, payload []orderItemPayload) ([]store.OrderItem, error) {
	items := make([]store.OrderItem, 0, len(payload))
	for _, it := range payload {
		if _, err := h.products.Get(ctx, it.ProductID); err != nil {
			return nil, err
		}
		items = append(items, store.OrderItem{ProductID: it.ProductID, Quantity: it.Quantity})
	}
	return items, nil
}
