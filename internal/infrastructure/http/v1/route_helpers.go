// Package v1 provides HTTP API version 1.
package v1

import (
	"github.com/gin-gonic/gin"
)

// ReadRouteHandler is implemented by every document handler.
type ReadRouteHandler interface {
	List(c *gin.Context)
	Get(c *gin.Context)
}

// RegisterReadRoutes registers the list and get routes shared by all documents.
// Visibility is enforced by the services, so no role guard is attached here.
//
// Usage:
//
//	handler := handlers.NewInvoiceHandler(base, svc.Invoices)
//	RegisterReadRoutes(api.Group("/invoices"), handler)
func RegisterReadRoutes(group *gin.RouterGroup, handler ReadRouteHandler) {
	group.GET("", handler.List)
	group.GET("/:id", handler.Get)
}
