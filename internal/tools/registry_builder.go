package tools

import (
	"github.com/crystaldolphin/orchestrator/internal/errs"
	"github.com/crystaldolphin/orchestrator/internal/schema"
)

// RegistryBuilder accumulates tools during the construction phase.
// Call Build() to produce an immutable Registry ready for use.
type RegistryBuilder struct {
	order      []schema.Category
	categories map[schema.Category][]*Tool
	dynamic    schema.Category
	provider   ProjectToolProvider
}

// NewRegistryBuilder returns a fresh RegistryBuilder.
func NewRegistryBuilder() *RegistryBuilder {
	return &RegistryBuilder{categories: make(map[schema.Category][]*Tool)}
}

// WithCategory declares category so that it is known even while empty.
func (b *RegistryBuilder) WithCategory(category schema.Category) *RegistryBuilder {
	if _, ok := b.categories[category]; !ok {
		b.order = append(b.order, category)
		b.categories[category] = nil
	}
	return b
}

// WithTool enriches src into category with default metadata.
// A nil src is ignored.
func (b *RegistryBuilder) WithTool(category schema.Category, src Source) *RegistryBuilder {
	return b.WithSource(category, src, Metadata{})
}

// WithSource enriches src into category with meta. A nil src is ignored.
func (b *RegistryBuilder) WithSource(category schema.Category, src Source, meta Metadata) *RegistryBuilder {
	b.WithCategory(category)
	if t := Enrich(src, category, meta); t != nil {
		b.categories[category] = append(b.categories[category], t)
	}
	return b
}

// WithProvider designates category as dynamically sourced: when a call
// context carries an active project its tools come from provider, with the
// static tools of the category as fallback.
func (b *RegistryBuilder) WithProvider(category schema.Category, provider ProjectToolProvider) *RegistryBuilder {
	b.WithCategory(category)
	b.dynamic = category
	b.provider = provider
	return b
}

// Build produces an immutable Registry from the accumulated tools.
// Two tools with the same name are rejected rather than silently overwritten,
// as is a canonical tool whose own category differs from the one it was
// registered under.
func (b *RegistryBuilder) Build() (*Registry, error) {
	r := &Registry{
		order:      append([]schema.Category(nil), b.order...),
		categories: make(map[schema.Category][]*Tool, len(b.categories)),
		byName:     make(map[string]*Tool),
		dynamic:    b.dynamic,
		provider:   b.provider,
	}
	for _, c := range b.order {
		list := append([]*Tool(nil), b.categories[c]...)
		for _, t := range list {
			if t.Category != c {
				return nil, errs.Newf(errs.CodeValidation,
					"tool %q declares category %s but is registered under %s", t.Name(), t.Category, c)
			}
			if prev, dup := r.byName[t.Name()]; dup {
				return nil, errs.Newf(errs.CodeDuplicateTool,
					"tool %q registered twice (categories %s and %s)", t.Name(), prev.Category, c)
			}
			r.byName[t.Name()] = t
		}
		r.categories[c] = list
	}
	return r, nil
}
