package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"pos-recipe-engine/src/middleware"
	"pos-recipe-engine/src/models"
	"pos-recipe-engine/src/requests"
	"pos-recipe-engine/src/services"
)

type ProductionHandler struct {
	Service *services.ProductionService
}

// Produce - Run a production of a recipe
func (h *ProductionHandler) Produce(c *gin.Context) {
	recipeID, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}
	var req requests.ProduceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	ref, err := models.ParseReference(req.ReferenceType, req.ReferenceID)
	if err != nil {
		respondError(c, err)
		return
	}

	result, err := h.Service.Produce(c.Request.Context(), middleware.TenantID(c), recipeID, services.ProductionRequest{
		Quantity:  req.Quantity,
		UserID:    middleware.UserID(c),
		Reference: ref,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"message": "Production completed successfully",
		"data":    result,
	})
}

// FulfilOrder - Produce an order line with the product's active recipe
func (h *ProductionHandler) FulfilOrder(c *gin.Context) {
	orderID, ok := parseUUIDParam(c, "orderId")
	if !ok {
		return
	}
	var req requests.FulfilOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.Service.ProduceForOrder(c.Request.Context(), middleware.TenantID(c), req.ProductID, orderID, req.Quantity, middleware.UserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"message":  "Order fulfilled successfully",
		"order_id": orderID,
		"data":     result,
	})
}
