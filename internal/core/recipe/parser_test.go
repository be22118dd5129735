package recipe

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParse_FullRecipe(t *testing.T) {
	raw := "title: Chicken Rice Bowl ingredients: -- 2 cups rice -- 1 chicken breast -- 1 tomato directions: -- Cook the rice. -- Grill the chicken. -- Combine and serve."

	r := Parse(raw)

	assert.Equal(t, "Chicken Rice Bowl ingredients: -- 2 cups rice -- 1 chicken breast -- 1 tomato directions: -- Cook the rice. -- Grill the chicken. -- Combine and serve.", r.Title)
	assert.Equal(t, []string{"2 cups rice", "1 chicken breast", "1 tomato"}, r.Ingredients)
	assert.Equal(t, []string{"1. Cook the rice.", "2. Grill the chicken.", "3. Combine and serve."}, r.Instructions)
}

func TestParse_MultilineSections(t *testing.T) {
	raw := "Title: Tomato Soup\nIngredients: -- 4 tomatoes\n-- 1 onion\nDirections: -- Chop everything.\n-- Simmer for 20 minutes."

	r := Parse(raw)

	assert.Equal(t, "Tomato Soup", r.Title)
	assert.Equal(t, []string{"4 tomatoes", "1 onion"}, r.Ingredients)
	assert.Equal(t, []string{"1. Chop everything.", "2. Simmer for 20 minutes."}, r.Instructions)
}

func TestParse_CaseInsensitiveMarkers(t *testing.T) {
	raw := "TITLE: Salad\nINGREDIENTS: -- lettuce -- cucumber\nDIRECTIONS: -- Toss."

	r := Parse(raw)

	assert.Equal(t, "Salad", r.Title)
	assert.Equal(t, []string{"lettuce", "cucumber"}, r.Ingredients)
	assert.Equal(t, []string{"1. Toss."}, r.Instructions)
}

func TestParse_MissingSections(t *testing.T) {
	t.Run("no markers", func(t *testing.T) {
		r := Parse("just some text without structure")
		assert.True(t, r.IsEmpty())
		assert.Empty(t, r.Title)
		assert.Empty(t, r.Ingredients)
		assert.Empty(t, r.Instructions)
	})

	t.Run("ingredients run to end without directions", func(t *testing.T) {
		r := Parse("title: Toast\ningredients: -- bread -- butter")
		assert.Equal(t, "Toast", r.Title)
		assert.Equal(t, []string{"bread", "butter"}, r.Ingredients)
		assert.Empty(t, r.Instructions)
	})

	t.Run("directions only", func(t *testing.T) {
		r := Parse("directions: -- Boil water.")
		assert.Empty(t, r.Title)
		assert.Empty(t, r.Ingredients)
		assert.Equal(t, []string{"1. Boil water."}, r.Instructions)
		assert.False(t, r.IsEmpty())
	})
}

func TestParse_DropsEmptyPieces(t *testing.T) {
	r := Parse("ingredients: ---- salt -- -- pepper --- directions: --  -- Season.")

	assert.Equal(t, []string{"salt", "pepper"}, r.Ingredients)
	assert.Equal(t, []string{"1. Season."}, r.Instructions)
}

func TestParse_EmptyInput(t *testing.T) {
	assert.True(t, Parse("").IsEmpty())
}

func TestStripOrdinal(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"1. Cook the rice.", "Cook the rice."},
		{"12.   Serve hot.", "Serve hot."},
		{"Cook the rice.", "Cook the rice."},
		{"1 cup of rice", "1 cup of rice"},
		{"3.5 kg flour", "5 kg flour"},
		{"", ""},
		{"7.", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, StripOrdinal(tt.in), tt.in)
	}
}

func TestDisplayTitle(t *testing.T) {
	assert.Equal(t, "Generated Recipe", Recipe{}.DisplayTitle())
	assert.Equal(t, "Soup", Recipe{Title: "Soup"}.DisplayTitle())
}
