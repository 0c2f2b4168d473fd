package sections

import (
	"math"
	"sort"
	"strconv"

	"github.com/goliatone/go-docfill/pkg/model"
)

// UnorderedSentinel is the sort position of fields without an order.
const UnorderedSentinel = math.MaxInt32

// GroupOption configures GroupFields.
type GroupOption func(*groupConfig)

type groupConfig struct {
	locale     string
	translator Translator
}

// WithLocale selects the locale used for entity section names.
func WithLocale(locale string) GroupOption {
	return func(cfg *groupConfig) {
		if locale != "" {
			cfg.locale = locale
		}
	}
}

// WithTranslator overrides the built-in label catalog.
func WithTranslator(t Translator) GroupOption {
	return func(cfg *groupConfig) {
		if t != nil {
			cfg.translator = t
		}
	}
}

type entry struct {
	key   string
	order int
	def   model.FieldDefinition
}

// GroupFields partitions the visible definitions into ordered sections. Saved
// groups win; the entity taxonomy is only used when no field carries one.
func GroupFields(defs model.Definitions, options ...GroupOption) []model.Section {
	cfg := groupConfig{locale: DefaultLocale, translator: DefaultTranslator}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(&cfg)
	}

	entries := sortedEntries(defs)
	for _, e := range entries {
		if e.def.Group.Visible() {
			return groupBySaved(entries, cfg)
		}
	}
	return groupByEntity(entries, cfg)
}

// sortedEntries drops hidden fields and sorts the rest by order. Keys are
// visited in ascending order first so ties resolve deterministically.
func sortedEntries(defs model.Definitions) []entry {
	out := make([]entry, 0, len(defs))
	for _, key := range defs.Keys() {
		def := defs[key]
		if def.Hidden() {
			continue
		}
		out = append(out, entry{key: key, order: def.OrderOr(UnorderedSentinel), def: def})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].order < out[j].order
	})
	return out
}

type savedGroup struct {
	name     string
	fields   []string
	minOrder int
	color    int
	seen     int
}

func groupBySaved(entries []entry, cfg groupConfig) []model.Section {
	fallbackName := EntityLabel(cfg.translator, cfg.locale, model.EntityGeneral)

	groups := make(map[string]*savedGroup)
	var ordered []*savedGroup
	for _, e := range entries {
		name := fallbackName
		color := 0
		if e.def.Group.Visible() {
			name = e.def.Group.SectionName
			color = e.def.Group.ColorIndex
		}

		group, ok := groups[name]
		if !ok {
			group = &savedGroup{name: name, minOrder: e.order, color: color, seen: len(ordered)}
			groups[name] = group
			ordered = append(ordered, group)
		}
		group.fields = append(group.fields, e.key)
		if e.order < group.minOrder {
			group.minOrder = e.order
		}
	}

	sort.SliceStable(ordered, func(i, j int) bool {
		if ordered[i].minOrder != ordered[j].minOrder {
			return ordered[i].minOrder < ordered[j].minOrder
		}
		return ordered[i].seen < ordered[j].seen
	})

	out := make([]model.Section, 0, len(ordered))
	for i, group := range ordered {
		out = append(out, model.Section{
			ID:         "group-" + strconv.Itoa(i+1),
			Name:       group.name,
			Fields:     group.fields,
			ColorIndex: group.color,
		})
	}
	return out
}

func groupByEntity(entries []entry, cfg groupConfig) []model.Section {
	buckets := make(map[model.Entity][]string, len(model.Entities))
	for _, e := range entries {
		entity := model.NormalizeEntity(e.def.Entity)
		buckets[entity] = append(buckets[entity], e.key)
	}

	out := make([]model.Section, 0, len(buckets))
	for _, entity := range model.Entities {
		fields := buckets[entity]
		if len(fields) == 0 {
			continue
		}
		out = append(out, model.Section{
			ID:         "entity-" + string(entity),
			Name:       EntityLabel(cfg.translator, cfg.locale, entity),
			Fields:     fields,
			ColorIndex: len(out),
		})
	}
	return out
}
