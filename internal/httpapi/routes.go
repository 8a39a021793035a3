package httpapi

import (
	"github.com/labstack/echo/v4"

	"barhub/internal/policy"
)

// Handlers groups everything RegisterRoutes needs to mount the API.
type Handlers struct {
	Gate     *Gate
	Auth     *AuthHandler
	Users    *UsersHandler
	Orders   *OrdersHandler
	Products *ProductsHandler
}

// RegisterRoutes mounts the full route table. Route-level role gates
// hold the coarse rules; per-record rules (ownership, rank) live in
// the handlers.
func RegisterRoutes(e *echo.Echo, h Handlers) {
	auth := e.Group("/auth")
	auth.POST("/register", h.Auth.Register,
		h.Gate.Authenticate(), h.Gate.RequireRole(policy.RoleDev, policy.RoleAdmin))
	auth.POST("/login", h.Auth.Login)
	auth.POST("/refresh", h.Auth.Refresh)
	auth.POST("/logout", h.Auth.Logout)

	users := e.Group("/users", h.Gate.Authenticate())
	users.GET("", h.Users.List, h.Gate.RequireRole(policy.RoleDev, policy.RoleAdmin))
	users.GET("/:id", h.Users.Get)
	users.PUT("/:id", h.Users.Update)
	users.DELETE("/:id", h.Users.Delete,
		h.Gate.RequireRole(policy.RoleDev, policy.RoleAdmin))

	orders := e.Group("/orders", h.Gate.Authenticate())
	orders.GET("", h.Orders.List)
	orders.GET("/:id", h.Orders.Get)
	orders.POST("", h.Orders.Create)
	orders.PUT("/:id", h.Orders.Update,
		h.Gate.RequireRole(policy.RoleDev, policy.RoleAdmin, policy.RoleBartender))
	orders.DELETE("/:id", h.Orders.Delete,
		h.Gate.RequireRole(policy.RoleDev, policy.RoleAdmin))

	products := e.Group("/products")
	products.GET("", h.Products.List)
	products.GET("/:id", h.Products.Get)
	products.POST("", h.Products.Create,
		h.Gate.Authenticate(), h.Gate.RequireRole(policy.RoleAdmin, policy.RoleBartender))
	products.PUT("/:id", h.Products.Update,
		h.Gate.Authenticate(), h.Gate.RequireRole(policy.RoleAdmin, policy.RoleBartender))
	products.DELETE("/:id", h.Products.Delete,
		h.Gate.Authenticate(), h.Gate.RequireRole(policy.RoleAdmin))
}
