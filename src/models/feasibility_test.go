package models

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func cake() Recipe {
	return Recipe{
		ID:            uuid.New(),
		Name:          "Cake",
		YieldQuantity: dec("1"),
		Components: []RecipeComponent{
			component("Flour", "1050", "0.002", "100", "5"),
			component("Sugar", "500", "0.003", "50", "0"),
		},
	}
}

func TestCalculateMaxProducibleQuantity(t *testing.T) {
	t.Run("cake example is tied at ten and keeps the first component", func(t *testing.T) {
		recipe := cake()
		got := recipe.CalculateMaxProducibleQuantity()

		assert.Equal(t, int64(10), got.MaxQuantity)
		assert.True(t, got.CanProduce)
		require.NotNil(t, got.LimitingMaterial)
		assert.Equal(t, "Flour", got.LimitingMaterial.MaterialName)
		require.Len(t, got.Materials, 2)
		assertDecimal(t, "105", got.Materials[0].EffectiveQuantity)
		assertDecimal(t, "50", got.Materials[1].EffectiveQuantity)
		assert.Equal(t, int64(10), got.Materials[1].MaxProducible)
		assert.Empty(t, got.Message)
	})

	t.Run("three components with one bottleneck", func(t *testing.T) {
		recipe := Recipe{
			ID: uuid.New(),
			Components: []RecipeComponent{
				component("Milk", "100", "0", "10", "0"),
				component("Butter", "30", "0", "5", "20"),
				component("Salt", "1000", "0", "1", "0"),
			},
		}
		got := recipe.CalculateMaxProducibleQuantity()

		assert.Equal(t, int64(5), got.MaxQuantity)
		require.NotNil(t, got.LimitingMaterial)
		assert.Equal(t, recipe.Components[1].ID, got.LimitingMaterial.ComponentID)
		assert.Equal(t, "Butter", got.LimitingMaterial.MaterialName)
		assertDecimal(t, "6", got.LimitingMaterial.EffectiveQuantity)
	})

	t.Run("empty recipe answers zero with a message", func(t *testing.T) {
		got := Recipe{ID: uuid.New()}.CalculateMaxProducibleQuantity()
		assert.Equal(t, int64(0), got.MaxQuantity)
		assert.False(t, got.CanProduce)
		assert.Nil(t, got.LimitingMaterial)
		assert.Empty(t, got.Materials)
		assert.Equal(t, msgNoComponents, got.Message)
	})

	t.Run("zero effective quantity never limits", func(t *testing.T) {
		recipe := Recipe{Components: []RecipeComponent{
			component("Garnish", "0", "0", "0", "0"),
			component("Rice", "90", "0", "30", "0"),
		}}
		got := recipe.CalculateMaxProducibleQuantity()
		assert.Equal(t, int64(3), got.MaxQuantity)
		assert.Equal(t, "Rice", got.LimitingMaterial.MaterialName)
		assert.Len(t, got.Materials, 2)
	})

	t.Run("only zero effective quantities", func(t *testing.T) {
		recipe := Recipe{Components: []RecipeComponent{component("Garnish", "10", "0", "0", "0")}}
		got := recipe.CalculateMaxProducibleQuantity()
		assert.Equal(t, int64(0), got.MaxQuantity)
		assert.False(t, got.CanProduce)
		assert.Equal(t, msgNoLimitingInput, got.Message)
		assert.Len(t, got.Materials, 1)
	})

	t.Run("breakdown is returned when nothing can be made", func(t *testing.T) {
		recipe := Recipe{Components: []RecipeComponent{
			component("Flour", "50", "0", "100", "0"),
			component("Sugar", "500", "0", "50", "0"),
		}}
		got := recipe.CalculateMaxProducibleQuantity()
		assert.Equal(t, int64(0), got.MaxQuantity)
		assert.Equal(t, msgOutOfMaterials, got.Message)
		require.Len(t, got.Materials, 2)
		assert.False(t, got.Materials[0].IsSufficient)
		assert.True(t, got.Materials[1].IsSufficient)
	})
}

func TestCheckSufficiency(t *testing.T) {
	t.Run("reports every shortage", func(t *testing.T) {
		recipe := cake()
		got := recipe.CheckSufficiency(11)

		assert.False(t, got.Sufficient)
		require.Len(t, got.InsufficientMaterials, 2)
		flour := got.InsufficientMaterials[0]
		assert.Equal(t, "Flour", flour.MaterialName)
		assertDecimal(t, "1155", flour.Required)
		assertDecimal(t, "1050", flour.Available)
		assertDecimal(t, "105", flour.Shortage)
		assertDecimal(t, "50", got.InsufficientMaterials[1].Shortage)
	})

	t.Run("agrees with the capacity at the boundary", func(t *testing.T) {
		recipes := []Recipe{
			cake(),
			{Components: []RecipeComponent{
				component("Milk", "100", "0", "10", "0"),
				component("Butter", "30", "0", "5", "20"),
				component("Salt", "1000", "0", "1", "0"),
			}},
			{Components: []RecipeComponent{component("Oil", "7.5", "0", "0.7", "3.5")}},
			{Components: []RecipeComponent{component("Yeast", "1", "0", "0.1", "0.15")}},
			{Components: []RecipeComponent{component("Saffron", "0.01", "0", "0.0001", "0.4")}},
			{Components: []RecipeComponent{component("Water", "99999999999999.9999", "0", "0.0003", "0.001")}},
		}
		for _, r := range recipes {
			max := r.CalculateMaxProducibleQuantity().MaxQuantity
			if max > 0 {
				assert.True(t, r.CheckSufficiency(max).Sufficient, "max %d", max)
			}
			assert.False(t, r.CheckSufficiency(max+1).Sufficient, "max+1 %d", max+1)
		}
	})

	t.Run("empty recipe is trivially sufficient", func(t *testing.T) {
		got := Recipe{}.CheckSufficiency(3)
		assert.True(t, got.Sufficient)
		assert.Empty(t, got.InsufficientMaterials)
	})
}
