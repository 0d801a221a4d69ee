package routes

import (
	"pos-recipe-engine/src/handlers"

	"github.com/gin-gonic/gin"
)

type Handlers struct {
	Materials  *handlers.MaterialHandler
	Recipes    *handlers.RecipeHandler
	Production *handlers.ProductionHandler
}

func RegisterMaterialRoutes(r *gin.RouterGroup, handler *handlers.MaterialHandler) {
	// GET endpoints
	r.GET("", handler.ListMaterials)
	r.GET("/low-stock", handler.GetLowStock)
	r.GET("/:id", handler.GetMaterial)
	r.GET("/:id/transactions", handler.GetTransactions)
	r.GET("/:id/transactions/export", handler.ExportTransactions)

	// POST endpoints
	r.POST("", handler.CreateMaterial)
	r.POST("/:id/adjust", handler.AdjustStock)

	// PUT endpoint
	r.PUT("/:id", handler.UpdateMaterial)

	// DELETE endpoint
	r.DELETE("/:id", handler.DeleteMaterial)
}

func RegisterRecipeRoutes(r *gin.RouterGroup, handler *handlers.RecipeHandler, production *handlers.ProductionHandler) {
	// GET endpoints
	r.GET("", handler.ListRecipes)
	r.GET("/:id", handler.GetRecipe)
	r.GET("/:id/cost", handler.GetCost)
	r.GET("/:id/capacity", handler.GetCapacity)
	r.GET("/:id/sufficiency", handler.GetSufficiency)

	// POST endpoints
	r.POST("", handler.CreateRecipe)
	r.POST("/:id/activate", handler.ActivateRecipe)
	r.POST("/:id/deactivate", handler.DeactivateRecipe)
	r.POST("/:id/components", handler.AddComponent)
	r.POST("/:id/produce", production.Produce)

	// PUT endpoints
	r.PUT("/:id", handler.UpdateRecipe)
	r.PUT("/:id/components/:componentId", handler.UpdateComponent)

	// DELETE endpoints
	r.DELETE("/:id", handler.DeleteRecipe)
	r.DELETE("/:id/components/:componentId", handler.RemoveComponent)
}

// Register mounts every tenant-scoped route on api.
func Register(api *gin.RouterGroup, h Handlers) {
	RegisterMaterialRoutes(api.Group("/materials"), h.Materials)
	RegisterRecipeRoutes(api.Group("/recipes"), h.Recipes, h.Production)

	api.POST("/orders/:orderId/fulfil", h.Production.FulfilOrder)
	api.GET("/transactions", h.Materials.GetByReference)
}
