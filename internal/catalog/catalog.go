package catalog

import "inquiry/internal"

// Catalog is the product price list in declaration order.
type Catalog struct {
	products []internal.Product
	byName   map[string]internal.Product
	vocab    *Vocabulary
}

// New builds a catalog; later duplicates of a name replace the earlier
// metadata but keep its original position.
func New(products []internal.Product) *Catalog {
	c := &Catalog{byName: map[string]internal.Product{}}
	for _, p := range products {
		if _, exists := c.byName[p.Name]; !exists {
			c.products = append(c.products, p)
		} else {
			for i := range c.products {
				if c.products[i].Name == p.Name {
					c.products[i] = p
				}
			}
		}
		c.byName[p.Name] = p
	}

	names := make([]string, 0, len(c.products))
	for _, p := range c.products {
		names = append(names, p.Name)
	}
	c.vocab = BuildVocabulary(names)
	return c
}

// Get looks a product up by its exact canonical name.
func (c *Catalog) Get(name string) (internal.Product, bool) {
	p, ok := c.byName[name]
	return p, ok
}

func (c *Catalog) Has(name string) bool {
	_, ok := c.byName[name]
	return ok
}

func (c *Catalog) Products() []internal.Product {
	out := make([]internal.Product, len(c.products))
	copy(out, c.products)
	return out
}

func (c *Catalog) Vocabulary() *Vocabulary {
	return c.vocab
}

func (c *Catalog) Len() int {
	return len(c.products)
}
