package loadparameters

import (
	"sort"
	"strings"

	"document-workflow/internal/catalog"
	"document-workflow/internal/models"

	"github.com/spf13/cast"
)

// NormalizeBoolean maps bool, numeric 0/1 and "true"/"1" style strings to "1"
// or "0". Anything unparseable is "0".
func NormalizeBoolean(v interface{}) string {
	if v == nil {
		return "0"
	}
	if s, ok := v.(string); ok {
		v = strings.TrimSpace(s)
	}
	b, err := cast.ToBoolE(v)
	if err != nil || !b {
		return "0"
	}
	return "1"
}

// NormalizeValue converts a raw value for a parameter of kind. Numeric values
// default to empty, never zero.
func NormalizeValue(kind models.ParameterKind, v interface{}) string {
	if kind == models.KindBoolean {
		return NormalizeBoolean(v)
	}
	if v == nil {
		return ""
	}
	return cast.ToString(v)
}

// ResolveReference attaches the option list for a reference parameter. The
// list is looked up by exact name, then by case-insensitive substring over the
// catalog's list names in sorted order. When neither matches the parameter is
// marked ListUnavailable and collected as free text.
func ResolveReference(c *catalog.Catalog, def models.ParameterDefinition) models.ResolvedParameter {
	rp := models.ResolvedParameter{ParameterDefinition: def}
	if def.Kind != models.KindReference {
		return rp
	}

	list, ok := c.ReferenceList(def.ReferenceList)
	if !ok {
		list, ok = fuzzyList(c, def.ReferenceList)
	}
	if !ok {
		rp.ListUnavailable = true
		return rp
	}

	rp.ResolvedList = list.Name
	rp.Options = toOptions(list, def.OptionKeyField, def.OptionLabelField)
	return rp
}

func fuzzyList(c *catalog.Catalog, name string) (models.ReferenceList, bool) {
	needle := strings.ToLower(strings.TrimSpace(name))
	if needle == "" {
		return models.ReferenceList{}, false
	}
	for _, candidate := range c.ReferenceListNames() {
		hay := strings.ToLower(candidate)
		if strings.Contains(hay, needle) {
			return c.ReferenceList(candidate)
		}
	}
	return models.ReferenceList{}, false
}

func toOptions(list models.ReferenceList, keyField, labelField string) []models.ReferenceOption {
	options := make([]models.ReferenceOption, 0, len(list.Items))
	for _, item := range list.Items {
		raw, ok := item[keyField]
		if !ok || raw == nil {
			continue
		}
		opt := models.ReferenceOption{Key: cast.ToString(raw)}
		if label, ok := item[labelField]; ok && label != nil {
			opt.Label = cast.ToString(label)
		} else {
			opt.Label = opt.Key
		}
		options = append(options, opt)
	}
	return options
}

// selectDefinitions returns the creation-time definitions of a document type,
// stably sorted by sort order.
func selectDefinitions(c *catalog.Catalog, documentTypeCode string) []models.ParameterDefinition {
	var defs []models.ParameterDefinition
	for _, m := range c.Mappings() {
		if m.DocumentTypeCode != documentTypeCode || !m.AppliesOnCreation {
			continue
		}
		if def, ok := c.Definition(m.ParameterID); ok {
			defs = append(defs, def)
		}
	}
	sort.SliceStable(defs, func(i, j int) bool {
		return defs[i].SortOrder < defs[j].SortOrder
	})
	return defs
}
