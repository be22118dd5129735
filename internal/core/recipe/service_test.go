package recipe

import (
	"context"
	"errors"
	"strings"
	"testing"

	"recipe-chef/internal/core/ai/provider"
	"recipe-chef/internal/core/nutrition"
	"recipe-chef/internal/pkg/common"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const generatedText = "title: chicken and rice\ningredients: -- 1 chicken breast -- 2 cups rice -- 1 onion directions: -- Cook the rice. -- Sear the chicken. -- Serve together."

type stubGenerator struct {
	prompt string
	out    string
	err    error
}

func (s *stubGenerator) Generate(_ context.Context, prompt string) (string, error) {
	s.prompt = prompt
	return s.out, s.err
}

type stubClassifier struct {
	labels []provider.Label
	err    error
	calls  int
}

func (s *stubClassifier) Classify(context.Context, string) ([]provider.Label, error) {
	s.calls++
	return s.labels, s.err
}

type stubLookup struct {
	got []string
}

func (s *stubLookup) Lookup(_ context.Context, ingredients []string) nutrition.Result {
	s.got = ingredients
	return nutrition.Result{Provenance: nutrition.ProvenanceFallback, Totals: nutrition.Estimate(ingredients)}
}

func fixedTip() string { return "Use fresh herbs for a brighter taste." }

func TestService_Generate(t *testing.T) {
	gen := &stubGenerator{out: generatedText}
	lookup := &stubLookup{}
	svc := NewService(gen, lookup, WithTipPicker(fixedTip))

	result, err := svc.Generate(context.Background(), Request{Ingredients: " chicken, rice , ,onion ", Diet: DietVegan})
	require.NoError(t, err)

	assert.Equal(t, "items: chicken, rice, onion", gen.prompt)
	assert.Equal(t, generatedText, result.RawText)
	assert.Equal(t, "chicken and rice", result.Recipe.Title)
	assert.Equal(t, []string{"1 chicken breast", "2 cups rice", "1 onion"}, result.Recipe.Ingredients)
	assert.Len(t, result.Recipe.Instructions, 3)
	assert.Equal(t, []string{"Chicken is not vegan"}, Messages(result.Conflicts))
	assert.Equal(t, []string{"1 chicken breast", "2 cups rice", "1 onion"}, lookup.got)
	assert.Equal(t, nutrition.ProvenanceFallback, result.Nutrition.Provenance)
	assert.Equal(t, "Use fresh herbs for a brighter taste.", result.ChefTip)
	assert.Empty(t, result.Warnings)
	assert.Equal(t, DietVegan, result.Diet)
}

func TestService_RequiresIngredients(t *testing.T) {
	gen := &stubGenerator{out: generatedText}
	svc := NewService(gen, nil)

	_, err := svc.Generate(context.Background(), Request{Ingredients: " , ,", Diet: DietNormal})
	require.Error(t, err)
	assert.True(t, common.IsValidationError(err))
	assert.Empty(t, gen.prompt)
}

func TestService_GenerationFailureIsFatal(t *testing.T) {
	svc := NewService(&stubGenerator{err: errors.New("model loading")}, &stubLookup{})

	result, err := svc.Generate(context.Background(), Request{Ingredients: "rice", Diet: DietNormal})
	assert.Nil(t, result)
	assert.ErrorIs(t, err, common.ErrGenerationFailed)
	assert.Contains(t, err.Error(), "model loading")
}

func TestService_KeepsClassifiedErrors(t *testing.T) {
	busy := common.ErrServiceUnavailable.Wrap(errors.New("queue is full"))
	svc := NewService(&stubGenerator{err: busy}, &stubLookup{})

	_, err := svc.Generate(context.Background(), Request{Ingredients: "rice", Diet: DietNormal})
	assert.ErrorIs(t, err, common.ErrServiceUnavailable)
	assert.NotErrorIs(t, err, common.ErrGenerationFailed)
}

func TestService_EmptyGeneration(t *testing.T) {
	svc := NewService(&stubGenerator{out: "  "}, &stubLookup{})

	_, err := svc.Generate(context.Background(), Request{Ingredients: "rice", Diet: DietNormal})
	assert.ErrorIs(t, err, common.ErrEmptyGeneration)
}

func TestService_LowConfidenceWarning(t *testing.T) {
	classifier := &stubClassifier{labels: []provider.Label{{Label: "LABEL_1", Score: 0.55}, {Label: "LABEL_0", Score: 0.45}}}
	svc := NewService(&stubGenerator{out: generatedText}, &stubLookup{}, WithClassifier(classifier, 0.7))

	result, err := svc.Generate(context.Background(), Request{Ingredients: "rice", Diet: DietLowCarb})
	require.NoError(t, err)
	assert.Equal(t, []string{"The restriction 'Low Carb' may not be well defined"}, result.Warnings)
	assert.Equal(t, 1, classifier.calls)
}

func TestService_ConfidentDietHasNoWarning(t *testing.T) {
	classifier := &stubClassifier{labels: []provider.Label{{Label: "LABEL_0", Score: 0.7}}}
	svc := NewService(&stubGenerator{out: generatedText}, &stubLookup{}, WithClassifier(classifier, 0.7))

	result, err := svc.Generate(context.Background(), Request{Ingredients: "rice", Diet: DietVegan})
	require.NoError(t, err)
	assert.Empty(t, result.Warnings)
}

func TestService_ClassifierFailureIsNotFatal(t *testing.T) {
	classifier := &stubClassifier{err: errors.New("timeout")}
	svc := NewService(&stubGenerator{out: generatedText}, &stubLookup{}, WithClassifier(classifier, 0.7))

	result, err := svc.Generate(context.Background(), Request{Ingredients: "rice", Diet: DietVegan})
	require.NoError(t, err)
	assert.Empty(t, result.Warnings)
	assert.NotEmpty(t, result.Recipe.Title)
}

func TestService_UnstructuredOutputFallsBackToInput(t *testing.T) {
	lookup := &stubLookup{}
	svc := NewService(&stubGenerator{out: "a bowl of bread and pasta"}, lookup, WithTipPicker(fixedTip))

	result, err := svc.Generate(context.Background(), Request{Ingredients: "bread, pasta", Diet: DietGlutenFree})
	require.NoError(t, err)
	assert.True(t, result.Recipe.IsEmpty())
	assert.Equal(t, []string{"Bread contains gluten", "Pasta contains gluten"}, Messages(result.Conflicts))
	assert.Equal(t, []string{"bread", "pasta"}, lookup.got)
}

func TestService_WithoutNutrition(t *testing.T) {
	svc := NewService(&stubGenerator{out: generatedText}, nil)

	result, err := svc.Generate(context.Background(), Request{Ingredients: "rice", Diet: DietNormal})
	require.NoError(t, err)
	assert.Equal(t, nutrition.Result{}, result.Nutrition)
	assert.Contains(t, ChefTips(), result.ChefTip)
}

// 解析結果直接交給驗證與營養估算時不會出錯
func TestParseOutputFeedsDownstream(t *testing.T) {
	for _, raw := range []string{"", "title:", "ingredients:", "directions:", "title: x ingredients: -- directions: --", generatedText} {
		r := Parse(raw)
		assert.NotPanics(t, func() {
			Validate(strings.Join(r.Ingredients, ", "), DietVegan)
			nutrition.Estimate(r.Ingredients)
			nutrition.NewChain(nil, nil).Lookup(context.Background(), r.Ingredients)
		}, raw)
	}
}
