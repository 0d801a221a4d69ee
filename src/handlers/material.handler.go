package handlers

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"pos-recipe-engine/src/middleware"
	"pos-recipe-engine/src/models"
	"pos-recipe-engine/src/repositories"
	"pos-recipe-engine/src/requests"
	"pos-recipe-engine/src/services"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type MaterialHandler struct {
	Service *services.MaterialService
}

// ============ GET ENDPOINTS ============

// ListMaterials - Get paged materials
func (h *MaterialHandler) ListMaterials(c *gin.Context) {
	page, limit := pageParams(c)
	lowOnly, _ := strconv.ParseBool(c.DefaultQuery("low_stock_only", "false"))

	materials, total, err := h.Service.ListMaterials(c.Request.Context(), middleware.TenantID(c), repositories.MaterialFilter{
		Search:       c.Query("search"),
		Category:     c.Query("category"),
		LowStockOnly: lowOnly,
		Page:         page,
		Limit:        limit,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data": views(materials),
		"meta": pageMeta(page, limit, total),
	})
}

// GetLowStock - Get every material under its reorder level
func (h *MaterialHandler) GetLowStock(c *gin.Context) {
	materials, err := h.Service.LowStockMaterials(c.Request.Context(), middleware.TenantID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"data":         views(materials),
		"count":        len(materials),
		"generated_at": time.Now().Format(time.RFC3339),
	})
}

// GetMaterial - Get one material
func (h *MaterialHandler) GetMaterial(c *gin.Context) {
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}
	material, err := h.Service.GetMaterial(c.Request.Context(), middleware.TenantID(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": models.NewMaterialView(*material)})
}

// GetTransactions - Get the ledger of a material
func (h *MaterialHandler) GetTransactions(c *gin.Context) {
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}
	from, to, ok := dateRange(c)
	if !ok {
		return
	}
	page, limit := pageParams(c)

	transactions, total, err := h.Service.ListTransactions(c.Request.Context(), middleware.TenantID(c), id, repositories.TransactionFilter{
		FromDate: from,
		ToDate:   to,
		Page:     page,
		Limit:    limit,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data": transactions,
		"meta": pageMeta(page, limit, total),
	})
}

// ExportTransactions - Download the ledger of a material as xlsx
func (h *MaterialHandler) ExportTransactions(c *gin.Context) {
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}
	from, to, ok := dateRange(c)
	if !ok {
		return
	}

	var buf bytes.Buffer
	err := h.Service.ExportTransactions(c.Request.Context(), middleware.TenantID(c), id, repositories.TransactionFilter{
		FromDate: from,
		ToDate:   to,
	}, &buf)
	if err != nil {
		respondError(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=ledger-%s.xlsx", id))
	c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}

// GetByReference - Get every ledger row stamped with a reference
func (h *MaterialHandler) GetByReference(c *gin.Context) {
	var refID *uuid.UUID
	if s := c.Query("reference_id"); s != "" {
		id, err := uuid.Parse(s)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid reference_id"})
			return
		}
		refID = &id
	}
	ref, err := models.ParseReference(c.Query("reference_type"), refID)
	if err != nil {
		respondError(c, err)
		return
	}

	transactions, err := h.Service.TransactionsByReference(c.Request.Context(), middleware.TenantID(c), ref)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"reference": ref,
		"data":      transactions,
	})
}

// ============ POST/PUT/DELETE ENDPOINTS ============

// CreateMaterial - Create a material
func (h *MaterialHandler) CreateMaterial(c *gin.Context) {
	var req requests.CreateMaterialRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	material, err := h.Service.CreateMaterial(c.Request.Context(), middleware.TenantID(c), services.CreateMaterialRequest{
		Name:         req.Name,
		SKU:          req.SKU,
		Category:     req.Category,
		Unit:         req.Unit,
		InitialStock: requests.DecimalOr(req.InitialStock, decimal.Zero),
		ReorderLevel: requests.DecimalOr(req.ReorderLevel, decimal.Zero),
		UnitCost:     requests.DecimalOr(req.UnitCost, decimal.Zero),
		UserID:       middleware.UserID(c),
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Material created successfully",
		"data":    models.NewMaterialView(*material),
	})
}

// UpdateMaterial - Update descriptive fields of a material
func (h *MaterialHandler) UpdateMaterial(c *gin.Context) {
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}
	var req requests.UpdateMaterialRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	material, err := h.Service.UpdateMaterial(c.Request.Context(), middleware.TenantID(c), id, services.UpdateMaterialRequest{
		Name:         req.Name,
		SKU:          req.SKU,
		Category:     req.Category,
		Unit:         req.Unit,
		ReorderLevel: requests.DecimalOr(req.ReorderLevel, decimal.Zero),
		UnitCost:     requests.DecimalOr(req.UnitCost, decimal.Zero),
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Material updated successfully",
		"data":    models.NewMaterialView(*material),
	})
}

// DeleteMaterial - Soft delete a material
func (h *MaterialHandler) DeleteMaterial(c *gin.Context) {
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}
	if err := h.Service.DeleteMaterial(c.Request.Context(), middleware.TenantID(c), id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Material deleted successfully"})
}

// AdjustStock - Apply a restock, deduction or adjustment
func (h *MaterialHandler) AdjustStock(c *gin.Context) {
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}
	var req requests.AdjustStockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	ref, err := models.ParseReference(req.ReferenceType, req.ReferenceID)
	if err != nil {
		respondError(c, err)
		return
	}

	txn, err := h.Service.AdjustStock(c.Request.Context(), middleware.TenantID(c), id, services.AdjustStockRequest{
		Type:      models.TransactionType(req.Type),
		Quantity:  req.Quantity,
		Reason:    models.TransactionReason(req.Reason),
		Notes:     req.Notes,
		UserID:    middleware.UserID(c),
		Reference: ref,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Stock adjusted successfully",
		"data":    txn,
	})
}

func views(materials []models.Material) []models.MaterialView {
	out := make([]models.MaterialView, 0, len(materials))
	for _, m := range materials {
		out = append(out, models.NewMaterialView(m))
	}
	return out
}
