package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"pos-recipe-engine/src/middleware"
	"pos-recipe-engine/src/repositories"
	"pos-recipe-engine/src/requests"
	"pos-recipe-engine/src/services"
)

type RecipeHandler struct {
	Service *services.RecipeService
}

// ============ GET ENDPOINTS ============

// ListRecipes - Get paged recipes, optionally of one product
func (h *RecipeHandler) ListRecipes(c *gin.Context) {
	page, limit := pageParams(c)
	filter := repositories.RecipeFilter{Page: page, Limit: limit}

	if s := c.Query("product_id"); s != "" {
		productID, err := uuid.Parse(s)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid product_id"})
			return
		}
		filter.ProductID = &productID
	}
	filter.ActiveOnly, _ = strconv.ParseBool(c.DefaultQuery("active_only", "false"))

	recipes, total, err := h.Service.ListRecipes(c.Request.Context(), middleware.TenantID(c), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"data": recipes,
		"meta": pageMeta(page, limit, total),
	})
}

// GetRecipe - Get a recipe with its components
func (h *RecipeHandler) GetRecipe(c *gin.Context) {
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}
	recipe, err := h.Service.GetRecipe(c.Request.Context(), middleware.TenantID(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": recipe})
}

// GetCost - Get the cost breakdown of a recipe
func (h *RecipeHandler) GetCost(c *gin.Context) {
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}
	cost, err := h.Service.RecipeCost(c.Request.Context(), middleware.TenantID(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": cost})
}

// GetCapacity - Get the maximum producible quantity and its bottleneck
func (h *RecipeHandler) GetCapacity(c *gin.Context) {
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}
	capacity, err := h.Service.MaxProducible(c.Request.Context(), middleware.TenantID(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": capacity})
}

// GetSufficiency - Check stock for a quantity
func (h *RecipeHandler) GetSufficiency(c *gin.Context) {
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}
	quantity, err := strconv.ParseInt(c.Query("quantity"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid quantity"})
		return
	}
	result, err := h.Service.CheckSufficiency(c.Request.Context(), middleware.TenantID(c), id, quantity)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": result})
}

// ============ POST/PUT/DELETE ENDPOINTS ============

// CreateRecipe - Create a recipe with components
func (h *RecipeHandler) CreateRecipe(c *gin.Context) {
	var req requests.CreateRecipeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	components := make([]services.ComponentRequest, 0, len(req.Components))
	for _, comp := range req.Components {
		components = append(components, componentRequest(comp))
	}

	recipe, err := h.Service.CreateRecipe(c.Request.Context(), middleware.TenantID(c), services.CreateRecipeRequest{
		ProductID:     req.ProductID,
		Name:          req.Name,
		YieldQuantity: requests.DecimalOr(req.YieldQuantity, decimal.NewFromInt(1)),
		IsActive:      req.IsActive,
		Notes:         req.Notes,
		Components:    components,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Recipe created successfully",
		"data":    recipe,
	})
}

// UpdateRecipe - Update name, yield and notes
func (h *RecipeHandler) UpdateRecipe(c *gin.Context) {
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}
	var req requests.UpdateRecipeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	recipe, err := h.Service.UpdateRecipe(c.Request.Context(), middleware.TenantID(c), id, services.UpdateRecipeRequest{
		Name:          req.Name,
		YieldQuantity: requests.DecimalOr(req.YieldQuantity, decimal.NewFromInt(1)),
		Notes:         req.Notes,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message": "Recipe updated successfully",
		"data":    recipe,
	})
}

// DeleteRecipe - Delete an inactive recipe
func (h *RecipeHandler) DeleteRecipe(c *gin.Context) {
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}
	if err := h.Service.DeleteRecipe(c.Request.Context(), middleware.TenantID(c), id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Recipe deleted successfully"})
}

// ActivateRecipe - Make a recipe the active one for its product
func (h *RecipeHandler) ActivateRecipe(c *gin.Context) {
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}
	deactivated, err := h.Service.ActivateRecipe(c.Request.Context(), middleware.TenantID(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message":     "Recipe activated successfully",
		"recipe_id":   id,
		"deactivated": deactivated,
	})
}

// DeactivateRecipe - Clear the active flag of a recipe
func (h *RecipeHandler) DeactivateRecipe(c *gin.Context) {
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}
	if err := h.Service.DeactivateRecipe(c.Request.Context(), middleware.TenantID(c), id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Recipe deactivated successfully", "recipe_id": id})
}

// AddComponent - Append a component to a recipe
func (h *RecipeHandler) AddComponent(c *gin.Context) {
	recipeID, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}
	var req requests.ComponentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	component, err := h.Service.AddComponent(c.Request.Context(), middleware.TenantID(c), recipeID, componentRequest(req))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"message": "Component added successfully",
		"data":    component,
	})
}

// UpdateComponent - Edit a component in place
func (h *RecipeHandler) UpdateComponent(c *gin.Context) {
	recipeID, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}
	componentID, ok := parseUUIDParam(c, "componentId")
	if !ok {
		return
	}
	var req requests.ComponentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	component, err := h.Service.UpdateComponent(c.Request.Context(), middleware.TenantID(c), recipeID, componentID, componentRequest(req))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message": "Component updated successfully",
		"data":    component,
	})
}

// RemoveComponent - Remove a component from a recipe
func (h *RecipeHandler) RemoveComponent(c *gin.Context) {
	recipeID, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}
	componentID, ok := parseUUIDParam(c, "componentId")
	if !ok {
		return
	}
	if err := h.Service.RemoveComponent(c.Request.Context(), middleware.TenantID(c), recipeID, componentID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Component removed successfully"})
}

func componentRequest(req requests.ComponentRequest) services.ComponentRequest {
	return services.ComponentRequest{
		MaterialID:       req.MaterialID,
		QuantityRequired: req.QuantityRequired,
		WastePercentage:  requests.DecimalOr(req.WastePercentage, decimal.Zero),
		Notes:            req.Notes,
	}
}
