package recipe

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate_Vegan(t *testing.T) {
	conflicts := Validate("chicken, rice", DietVegan)
	require.Len(t, conflicts, 1)
	assert.Equal(t, "chicken", conflicts[0].Keyword)
	assert.Equal(t, RuleNotVegan, conflicts[0].Rule)
	assert.Equal(t, "Chicken is not vegan", conflicts[0].Message())

	assert.Empty(t, Validate("rice, tofu", DietVegan))
}

func TestValidate_GlutenFree(t *testing.T) {
	conflicts := Validate("bread, rice", DietGlutenFree)
	require.Len(t, conflicts, 1)
	assert.Equal(t, "bread", conflicts[0].Keyword)
	assert.Equal(t, "Bread contains gluten", conflicts[0].Message())

	conflicts = Validate("Whole Wheat Flour, breadcrumbs", DietGlutenFree)
	assert.Equal(t, []string{"Wheat contains gluten", "Bread contains gluten", "Flour contains gluten", "Breadcrumbs contains gluten"}, Messages(conflicts))
}

func TestValidate_CombinedLabel(t *testing.T) {
	conflicts := Validate("butter, pasta", "Vegan, Gluten Free")
	assert.Equal(t, []string{"Butter is not vegan", "Pasta contains gluten"}, Messages(conflicts))
}

func TestValidate_CaseInsensitive(t *testing.T) {
	conflicts := Validate("2 EGGS, Cheddar CHEESE", DietVegan)
	assert.Equal(t, []string{"Egg is not vegan", "Cheese is not vegan"}, Messages(conflicts))
}

// 子字串比對的已知誤判
func TestValidate_NaiveSubstringMatch(t *testing.T) {
	conflicts := Validate("eggplant, rice", DietVegan)
	require.Len(t, conflicts, 1)
	assert.Equal(t, "egg", conflicts[0].Keyword)
}

func TestValidate_UncheckedDiets(t *testing.T) {
	for _, diet := range []string{DietNormal, DietLowCarb, DietVegetarian, DietDairyFree, ""} {
		assert.Empty(t, Validate("chicken, bread, milk, cheese", diet), diet)
	}
}

func TestValidate_EmptyText(t *testing.T) {
	conflicts := Validate("", DietVegan)
	assert.NotNil(t, conflicts)
	assert.Empty(t, conflicts)
	assert.Empty(t, Messages(nil))
}

func TestIsKnownDiet(t *testing.T) {
	for _, diet := range DietOptions {
		assert.True(t, IsKnownDiet(diet))
	}
	assert.False(t, IsKnownDiet("Keto"))
	assert.False(t, IsKnownDiet("vegan"))
}

func TestRandomChefTip(t *testing.T) {
	tips := ChefTips()
	require.Len(t, tips, 10)
	for i := 0; i < 20; i++ {
		assert.Contains(t, tips, RandomChefTip())
	}

	tips[0] = "mutated"
	assert.NotEqual(t, "mutated", ChefTips()[0])
}
