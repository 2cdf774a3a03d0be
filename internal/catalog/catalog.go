// Package catalog holds the read-only document metadata the wizard is built on:
// document types, parameter definitions, the type-to-parameter mapping and the
// reference lists used by enumerated parameters.
package catalog

import (
	"sort"

	"document-workflow/internal/models"
)

// Catalog is immutable after construction and safe for concurrent reads.
type Catalog struct {
	types       map[string]models.DocumentType
	typeOrder   []string
	definitions map[int]models.ParameterDefinition
	mappings    []models.DocumentTypeParameter
	lists       map[string]models.ReferenceList
	listNames   []string
}

// New builds a catalog. Mapping order is preserved; it breaks sort-order ties.
func New(
	types []models.DocumentType,
	definitions []models.ParameterDefinition,
	mappings []models.DocumentTypeParameter,
	lists []models.ReferenceList,
) *Catalog {
	c := &Catalog{
		types:       make(map[string]models.DocumentType, len(types)),
		definitions: make(map[int]models.ParameterDefinition, len(definitions)),
		mappings:    append([]models.DocumentTypeParameter(nil), mappings...),
		lists:       make(map[string]models.ReferenceList, len(lists)),
	}
	for _, t := range types {
		if _, dup := c.types[t.Code]; !dup {
			c.typeOrder = append(c.typeOrder, t.Code)
		}
		c.types[t.Code] = t
	}
	for _, d := range definitions {
		c.definitions[d.ID] = d
	}
	for _, l := range lists {
		if _, dup := c.lists[l.Name]; !dup {
			c.listNames = append(c.listNames, l.Name)
		}
		c.lists[l.Name] = l
	}
	sort.Strings(c.listNames)
	return c
}

// Empty returns a catalog with no metadata.
func Empty() *Catalog {
	return New(nil, nil, nil, nil)
}

func (c *Catalog) DocumentType(code string) (models.DocumentType, bool) {
	t, ok := c.types[code]
	return t, ok
}

// DocumentTypes lists the types offered for internal or external requests.
func (c *Catalog) DocumentTypes(internal bool) []models.DocumentType {
	var out []models.DocumentType
	for _, code := range c.typeOrder {
		if t := c.types[code]; t.Internal == internal {
			out = append(out, t)
		}
	}
	return out
}

func (c *Catalog) Definition(id int) (models.ParameterDefinition, bool) {
	d, ok := c.definitions[id]
	return d, ok
}

// Mappings returns a copy of the global type-to-parameter mapping.
func (c *Catalog) Mappings() []models.DocumentTypeParameter {
	return append([]models.DocumentTypeParameter(nil), c.mappings...)
}

func (c *Catalog) ReferenceList(name string) (models.ReferenceList, bool) {
	l, ok := c.lists[name]
	return l, ok
}

// ReferenceListNames returns the list names in sorted order.
func (c *Catalog) ReferenceListNames() []string {
	return append([]string(nil), c.listNames...)
}
