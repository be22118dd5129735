package document

import (
	"bytes"
	"fmt"
	"strings"
	"testing"

	"recipe-chef/internal/core/recipe"

	"github.com/go-pdf/fpdf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleRecipe() recipe.Recipe {
	return recipe.Recipe{
		Title:        "Chicken Rice Bowl",
		Ingredients:  []string{"2 cups rice", "1 chicken breast", "1 tomato"},
		Instructions: []string{"1. Cook the rice.", "2. Grill the chicken.", "3. Combine and serve."},
	}
}

func TestRender_EmptyRecipe(t *testing.T) {
	data, err := NewRenderer().Render(recipe.Recipe{}, "Use fresh herbs for a brighter taste.")
	assert.ErrorIs(t, err, ErrNothingToRender)
	assert.Nil(t, data)
}

func TestRender_ProducesPDF(t *testing.T) {
	data, err := NewRenderer().Render(sampleRecipe(), "Use fresh herbs for a brighter taste.")
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("%PDF-")))
	assert.Contains(t, string(data[len(data)-16:]), "%%EOF")
}

func TestRender_PartialRecipes(t *testing.T) {
	renderer := NewRenderer()
	for _, rec := range []recipe.Recipe{
		{Title: "Only a title"},
		{Ingredients: []string{"salt"}},
		{Instructions: []string{"1. Boil water."}},
	} {
		data, err := renderer.Render(rec, "")
		require.NoError(t, err)
		assert.NotEmpty(t, data)
	}
}

func TestRender_UncompressedContent(t *testing.T) {
	renderer := &Renderer{compress: false}
	rec := sampleRecipe()
	rec.Title = "Crème brûlée — “classic”"

	data, err := renderer.Render(rec, "Toast spices in a dry pan to enhance their aroma.")
	require.NoError(t, err)

	content := string(data)
	assert.Contains(t, content, "Ingredients")
	assert.Contains(t, content, "Preparation")
	assert.Contains(t, content, "Chef's Tip")
	assert.Contains(t, content, "Generated by Recipe Chef")
	assert.Contains(t, content, "Grill the chicken.")
	assert.NotContains(t, content, "1. Cook the rice.")
}

func TestLayout_Paginates(t *testing.T) {
	rec := recipe.Recipe{Title: "Long Recipe"}
	for i := 0; i < 30; i++ {
		rec.Ingredients = append(rec.Ingredients, fmt.Sprintf("ingredient number %d", i+1))
	}
	for i := 0; i < 40; i++ {
		rec.Instructions = append(rec.Instructions, fmt.Sprintf("%d. %s", i+1, strings.Repeat("Stir gently and keep tasting. ", 8)))
	}

	pdf, err := NewRenderer().layout(rec, "Chop ingredients uniformly for even cooking.")
	require.NoError(t, err)
	assert.Greater(t, pdf.PageCount(), 3)
}

func TestLayout_StepTallerThanPage(t *testing.T) {
	text := strings.Repeat("Stir the sauce slowly. ", 400) + "Finish with basil."
	rec := recipe.Recipe{Title: "Slow Sauce", Instructions: []string{"1. " + text}}
	renderer := &Renderer{compress: false}

	pdf, err := renderer.layout(rec, "")
	require.NoError(t, err)
	assert.GreaterOrEqual(t, pdf.PageCount(), 3)

	data, err := renderer.Render(rec, "")
	require.NoError(t, err)
	assert.Contains(t, string(data), "basil.")
}

func TestLayout_TipTallerThanPage(t *testing.T) {
	tip := strings.Repeat("Taste as you go and adjust the seasoning. ", 300) + "Add saffron."
	renderer := &Renderer{compress: false}

	pdf, err := renderer.layout(sampleRecipe(), tip)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, pdf.PageCount(), 3)

	data, err := renderer.Render(sampleRecipe(), tip)
	require.NoError(t, err)
	content := string(data)
	assert.Equal(t, 1, strings.Count(content, "Chef's Tip"))
	assert.Contains(t, content, "saffron.")
}

func TestStepSplit(t *testing.T) {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.AddPage()
	cv := &canvas{pdf: pdf, tr: pdf.UnicodeTranslatorFromDescriptor("")}
	width := 180.0

	st := step{number: "1.", text: strings.Repeat("Whisk the eggs until pale. ", 60)}
	lines := st.lines(cv, width)
	require.Greater(t, len(lines), 5)

	head, tail, ok := st.split(cv, width, 3*stepLine+1)
	require.True(t, ok)
	h, tl := head.(step), tail.(step)
	assert.Equal(t, "1.", h.number)
	assert.Empty(t, tl.number)
	assert.Equal(t, lines, append(append([]string{}, h.wrapped...), tl.wrapped...))
	assert.Len(t, h.wrapped, 3)
	assert.InDelta(t, 3*stepLine, head.height(cv, width), 1e-9)

	// 一行都放不下或整段放得下時不拆
	_, _, ok = st.split(cv, width, stepLine-1)
	assert.False(t, ok)
	_, _, ok = step{number: "2.", text: "Serve."}.split(cv, width, 100)
	assert.False(t, ok)
}

func TestLayout_SinglePage(t *testing.T) {
	pdf, err := NewRenderer().layout(sampleRecipe(), "")
	require.NoError(t, err)
	assert.Equal(t, 1, pdf.PageCount())
}

func TestBuildBlocks(t *testing.T) {
	long := strings.Repeat("a", 120)
	blocks := buildBlocks(recipe.Recipe{
		Title:        "Soup",
		Ingredients:  []string{long},
		Instructions: []string{"1. Simmer."},
	}, "  ")

	// 標題、分隔線、食材標題、食材、分隔線、步驟標題、步驟
	require.Len(t, blocks, 7)

	item, ok := blocks[3].(listItem)
	require.True(t, ok)
	assert.Len(t, []rune(item.text), ingredientBudget)
	assert.True(t, strings.HasSuffix(item.text, "..."))

	st, ok := blocks[6].(step)
	require.True(t, ok)
	assert.Equal(t, "1.", st.number)
	assert.Equal(t, "Simmer.", st.text)
}

func TestLatin1(t *testing.T) {
	assert.Equal(t, `Creme "quoted" - it's...`, latin1("Creme “quoted” — it’s…"))
	assert.Equal(t, "café", latin1("café"))
	assert.Equal(t, "a b", latin1("a\nb"))
	assert.Equal(t, "? rice", latin1("🍚 rice"))
}

func TestFileName(t *testing.T) {
	assert.Equal(t, "Chicken_Rice_Bowl.pdf", FileName("Chicken Rice Bowl"))
	assert.Equal(t, "recipe.pdf", FileName(""))
	assert.Equal(t, "recipe.pdf", FileName("   "))
	assert.Equal(t, "Mac_n_Cheese.pdf", FileName(`Mac n "Cheese"`))
	assert.Equal(t, "a_b.pdf", FileName("a/b"))
}
