package nutrition

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSource struct {
	results map[string]Totals
	errs    map[string]error
	calls   []string
}

func (f *fakeSource) Lookup(_ context.Context, query string) (Totals, error) {
	f.calls = append(f.calls, query)
	if err, ok := f.errs[query]; ok {
		return Totals{}, err
	}
	if t, ok := f.results[query]; ok {
		return t, nil
	}
	return Totals{}, ErrFoodNotFound
}

type fakeResolver struct {
	ip    string
	calls int
}

func (f *fakeResolver) PublicIP(context.Context) (string, error) {
	f.calls++
	return f.ip, nil
}

func TestChain_AllFailFallsBackToEstimate(t *testing.T) {
	ingredients := []string{"Pollo", "arroz blanco", "2 tomatoes", "olive oil"}
	source := &fakeSource{errs: map[string]error{"pollo": errors.New("boom")}}

	result := NewChain(source, nil).Lookup(context.Background(), ingredients)

	assert.Equal(t, ProvenanceFallback, result.Provenance)
	assert.Equal(t, Estimate(ingredients), result.Totals)
	assert.Equal(t, 0, result.Resolved)
	assert.Equal(t, []string{"pollo", "arroz blanco", "2 tomatoes", "olive oil"}, result.Unresolved)
}

func TestChain_PartialSuccessKeepsExternalTotals(t *testing.T) {
	source := &fakeSource{results: map[string]Totals{
		"chicken": {Calories: 165, Protein: 31, Fat: 3.6},
	}}

	result := NewChain(source, nil).Lookup(context.Background(), []string{"chicken", "rice", "onion"})

	assert.Equal(t, ProvenanceExternal, result.Provenance)
	assert.Equal(t, Totals{Calories: 165, Protein: 31, Fat: 3.6}, result.Totals)
	assert.Equal(t, 1, result.Resolved)
	assert.Equal(t, []string{"rice", "onion"}, result.Unresolved)
}

func TestChain_SumsResolvedIngredients(t *testing.T) {
	source := &fakeSource{results: map[string]Totals{
		"chicken": {Calories: 165, Protein: 31, Carbohydrate: 0, Fat: 3.6},
		"rice":    {Calories: 205, Protein: 4.25, Carbohydrate: 44.51, Fat: 0.44},
	}}

	result := NewChain(source, nil).Lookup(context.Background(), []string{" Chicken ", "", "   ", "RICE"})

	assert.Equal(t, ProvenanceExternal, result.Provenance)
	assert.Equal(t, 2, result.Resolved)
	assert.Empty(t, result.Unresolved)
	assert.InDelta(t, 370, result.Totals.Calories, 1e-9)
	assert.InDelta(t, 35.25, result.Totals.Protein, 1e-9)
	assert.InDelta(t, 44.51, result.Totals.Carbohydrate, 1e-9)
	assert.InDelta(t, 4.04, result.Totals.Fat, 1e-9)
	assert.Equal(t, []string{"chicken", "rice"}, source.calls)
}

func TestChain_OriginRejectedDiagnostic(t *testing.T) {
	rejected := &OriginRejectedError{Message: "Invalid IP address detected"}
	source := &fakeSource{errs: map[string]error{"pollo": rejected, "arroz": rejected}}
	resolver := &fakeResolver{ip: "203.0.113.7"}

	result := NewChain(source, resolver).Lookup(context.Background(), []string{"pollo", "arroz"})

	assert.Equal(t, ProvenanceFallback, result.Provenance)
	assert.Equal(t, Estimate([]string{"pollo", "arroz"}), result.Totals)
	require.Len(t, result.Diagnostics, 2)
	assert.Equal(t, 1, resolver.calls)
	for _, d := range result.Diagnostics {
		assert.Equal(t, 21, d.Code)
		assert.Equal(t, "203.0.113.7", d.PublicIP)
		assert.NotEmpty(t, d.Hint)
	}
	assert.Equal(t, "pollo", result.Diagnostics[0].Ingredient)
}

func TestChain_NilSourceUsesEstimate(t *testing.T) {
	result := NewChain(nil, nil).Lookup(context.Background(), []string{"chicken breast", "rice"})

	assert.Equal(t, ProvenanceFallback, result.Provenance)
	assert.InDelta(t, 295, result.Totals.Calories, 1e-9)
	assert.InDelta(t, 33.7, result.Totals.Protein, 1e-9)
	assert.InDelta(t, 28, result.Totals.Carbohydrate, 1e-9)
	assert.InDelta(t, 3.9, result.Totals.Fat, 1e-9)
	assert.Equal(t, []string{"chicken breast", "rice"}, result.Unresolved)
}

func TestChain_CancelledContextStopsLookups(t *testing.T) {
	source := &fakeSource{results: map[string]Totals{"chicken": {Calories: 1}}}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result := NewChain(source, nil).Lookup(ctx, []string{"chicken", "rice"})

	assert.Empty(t, source.calls)
	assert.Equal(t, ProvenanceFallback, result.Provenance)
	assert.Equal(t, []string{"chicken", "rice"}, result.Unresolved)
}

func TestChain_EmptyIngredients(t *testing.T) {
	result := NewChain(&fakeSource{}, nil).Lookup(context.Background(), nil)

	assert.Equal(t, ProvenanceFallback, result.Provenance)
	assert.Equal(t, Totals{}, result.Totals)
	assert.NotNil(t, result.Unresolved)
}

func TestEstimate(t *testing.T) {
	assert.Equal(t, Totals{}, Estimate(nil))
	assert.Equal(t, Totals{Calories: 165, Protein: 31, Fat: 3.6}, Estimate([]string{"Pechuga de POLLO"}))

	// 每個關鍵字對同一食材只計一次，不同食材各自累加
	assert.Equal(t, Totals{Calories: 240, Protein: 0, Carbohydrate: 0, Fat: 28}, Estimate([]string{"aceite, aceite", "oil"}))

	// 英文同義詞只比對完整單字
	assert.Equal(t, Totals{}, Estimate([]string{"1 c. boiling water", "aluminium foil", "licorice", "price"}))
	assert.Equal(t, Estimate([]string{"tomato", "onion"}), Estimate([]string{"4 tomatoes", "2 onions"}))
	mixed := Estimate([]string{"2 cups rice", "olive oil"})
	assert.InDelta(t, 250, mixed.Calories, 1e-9)
	assert.InDelta(t, 14.3, mixed.Fat, 1e-9)

	got := Estimate([]string{"tomate", "cebolla", "unknown"})
	assert.InDelta(t, 58, got.Calories, 1e-9)
	assert.InDelta(t, 2.0, got.Protein, 1e-9)
	assert.InDelta(t, 13.2, got.Carbohydrate, 1e-9)
	assert.InDelta(t, 0.3, got.Fat, 1e-9)
}

func TestResultFormatted(t *testing.T) {
	totals := Totals{Calories: 370.26, Protein: 35.26, Carbohydrate: 44.51, Fat: 4.04}

	external := Result{Provenance: ProvenanceExternal, Totals: totals}.Formatted()
	assert.Equal(t, FormattedTotals{Calories: "370.3 kcal", Protein: "35.3g", Carbohydrate: "44.5g", Fat: "4.0g"}, external)

	fallback := Result{Provenance: ProvenanceFallback, Totals: Totals{Calories: 295, Protein: 33.7, Carbohydrate: 28, Fat: 3.9}}.Formatted()
	assert.Equal(t, FormattedTotals{Calories: "295 kcal", Protein: "34g", Carbohydrate: "28g", Fat: "4g"}, fallback)
}

func TestTokenState(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	var missing *AuthToken

	assert.Equal(t, NoToken, missing.State(now, DefaultExpiryMargin))
	assert.Equal(t, NoToken, (&AuthToken{}).State(now, DefaultExpiryMargin))
	assert.Equal(t, Valid, (&AuthToken{AccessToken: "t", ExpiresAt: now.Add(time.Hour)}).State(now, DefaultExpiryMargin))
	assert.Equal(t, Valid, (&AuthToken{AccessToken: "t", ExpiresAt: now.Add(5 * time.Minute)}).State(now, DefaultExpiryMargin))
	assert.Equal(t, ExpiringSoon, (&AuthToken{AccessToken: "t", ExpiresAt: now.Add(4*time.Minute + 59*time.Second)}).State(now, DefaultExpiryMargin))
	assert.Equal(t, Expired, (&AuthToken{AccessToken: "t", ExpiresAt: now}).State(now, DefaultExpiryMargin))
	assert.Equal(t, Expired, (&AuthToken{AccessToken: "t", ExpiresAt: now.Add(-time.Second)}).State(now, DefaultExpiryMargin))
	assert.Equal(t, "expiring_soon", ExpiringSoon.String())
}

func TestCachedSource_DegradesWhenRedisUnavailable(t *testing.T) {
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 100 * time.Millisecond,
		MaxRetries:  -1,
	})
	t.Cleanup(func() { _ = client.Close() })

	source := &fakeSource{results: map[string]Totals{"rice": {Calories: 130}}}
	cached := NewCachedSource(source, client, time.Hour)

	totals, err := cached.Lookup(context.Background(), "rice")
	require.NoError(t, err)
	assert.Equal(t, Totals{Calories: 130}, totals)

	_, err = cached.Lookup(context.Background(), "tofu")
	assert.ErrorIs(t, err, ErrFoodNotFound)
	assert.Equal(t, []string{"rice", "tofu"}, source.calls)
}

func TestCacheKey(t *testing.T) {
	assert.Equal(t, "nutrition:food:olive oil", cacheKey("  Olive   OIL "))
}
