package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"inquiry/internal"
)

func TestBuildVocabulary(t *testing.T) {
	v := BuildVocabulary([]string{"Widget", "Glass", "Gadget"})

	var keys []string
	v.Each(func(alias, canonical string) { keys = append(keys, alias+"="+canonical) })
	assert.Equal(t, []string{
		"widget=Widget", "widgets=Widget",
		"glass=Glass",
		"gadget=Gadget", "gadgets=Gadget",
	}, keys)

	canonical, ok := v.Lookup("WIDGETS")
	require.True(t, ok)
	assert.Equal(t, "Widget", canonical)
	assert.False(t, v.Contains("gizmo"))
}

func TestBuildVocabularyFirstRegistrationWins(t *testing.T) {
	v := BuildVocabulary([]string{"Glas", "Glass"})

	canonical, ok := v.Lookup("glass")
	require.True(t, ok)
	assert.Equal(t, "Glas", canonical)
	assert.Equal(t, 2, v.Len())
}

func TestCatalogKeepsDeclarationOrder(t *testing.T) {
	c := New([]internal.Product{
		{Name: "Widget", UnitPrice: 1},
		{Name: "Gadget", UnitPrice: 2},
		{Name: "Widget", UnitPrice: 3},
	})

	products := c.Products()
	require.Len(t, products, 2)
	assert.Equal(t, "Widget", products[0].Name)
	assert.Equal(t, 3.0, products[0].UnitPrice)
	assert.True(t, c.Has("Gadget"))
	assert.False(t, c.Has("gadget"))
}
