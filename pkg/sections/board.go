package sections

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/goliatone/go-docfill/pkg/model"
)

// Direction selects the neighbour used by MoveSection.
type Direction string

const (
	Left  Direction = "left"
	Right Direction = "right"
)

// Listener is notified with a snapshot after every successful mutation.
type Listener func([]model.Section)

// BoardOption configures a Board.
type BoardOption func(*Board)

// WithIDFunc overrides the id generator used by AddSection.
func WithIDFunc(fn func() string) BoardOption {
	return func(b *Board) {
		if fn != nil {
			b.newID = fn
		}
	}
}

// WithBoardLogger routes rejected drag payloads to logger.
func WithBoardLogger(logger *zap.Logger) BoardOption {
	return func(b *Board) {
		if logger != nil {
			b.logger = logger
		}
	}
}

// WithBoardLocale selects the locale used for default section names.
func WithBoardLocale(locale string, t Translator) BoardOption {
	return func(b *Board) {
		if locale != "" {
			b.locale = locale
		}
		if t != nil {
			b.translator = t
		}
	}
}

// Board owns the section list of one editing session. Every mutation goes
// through its methods so a field key is never held by two sections.
type Board struct {
	mu         sync.Mutex
	sections   []model.Section
	listeners  map[int]Listener
	nextSub    int
	newID      func() string
	logger     *zap.Logger
	locale     string
	translator Translator
}

// NewBoard wraps a copy of sections. Duplicate keys are dropped so only the
// first section keeps a field.
func NewBoard(sections []model.Section, options ...BoardOption) *Board {
	b := &Board{
		listeners:  make(map[int]Listener),
		newID:      uuid.NewString,
		logger:     zap.NewNop(),
		locale:     DefaultLocale,
		translator: DefaultTranslator,
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(b)
	}

	seen := make(map[string]struct{})
	for _, section := range model.CloneSections(sections) {
		fields := section.Fields[:0]
		for _, key := range section.Fields {
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			fields = append(fields, key)
		}
		section.Fields = fields
		b.sections = append(b.sections, section)
	}
	return b
}

// Sections returns a snapshot of the current section list.
func (b *Board) Sections() []model.Section {
	b.mu.Lock()
	defer b.mu.Unlock()
	return model.CloneSections(b.sections)
}

// Subscribe registers fn and returns a function that removes it.
func (b *Board) Subscribe(fn Listener) func() {
	if fn == nil {
		return func() {}
	}
	b.mu.Lock()
	id := b.nextSub
	b.nextSub++
	b.listeners[id] = fn
	b.mu.Unlock()

	return func() {
		b.mu.Lock()
		delete(b.listeners, id)
		b.mu.Unlock()
	}
}

// mutate applies fn under the lock and notifies listeners when it reports a
// change.
func (b *Board) mutate(fn func() bool) bool {
	b.mu.Lock()
	changed := fn()
	var (
		snapshot  []model.Section
		listeners []Listener
	)
	if changed {
		snapshot = model.CloneSections(b.sections)
		ids := make([]int, 0, len(b.listeners))
		for id := range b.listeners {
			ids = append(ids, id)
		}
		sort.Ints(ids)
		for _, id := range ids {
			listeners = append(listeners, b.listeners[id])
		}
	}
	b.mu.Unlock()

	for _, listener := range listeners {
		listener(model.CloneSections(snapshot))
	}
	return changed
}

func (b *Board) indexOf(sectionID string) int {
	for i, section := range b.sections {
		if section.ID == sectionID {
			return i
		}
	}
	return -1
}

func (b *Board) detach(fieldKey string) {
	for i := range b.sections {
		b.sections[i].Fields = without(b.sections[i].Fields, fieldKey)
	}
}

// AddFieldToSection removes fieldKey from every section, then appends it to
// the target. Unknown targets leave the board unchanged.
func (b *Board) AddFieldToSection(sectionID, fieldKey string) bool {
	return b.mutate(func() bool {
		idx := b.indexOf(sectionID)
		if idx < 0 || fieldKey == "" {
			return false
		}
		b.detach(fieldKey)
		b.sections[idx].Fields = append(b.sections[idx].Fields, fieldKey)
		return true
	})
}

// RemoveFieldFromSection filters fieldKey out of exactly one section.
func (b *Board) RemoveFieldFromSection(sectionID, fieldKey string) bool {
	return b.mutate(func() bool {
		idx := b.indexOf(sectionID)
		if idx < 0 || !contains(b.sections[idx].Fields, fieldKey) {
			return false
		}
		b.sections[idx].Fields = without(b.sections[idx].Fields, fieldKey)
		return true
	})
}

// ReorderField moves the field at fromIndex so it ends up at toIndex of the
// section's list. Out of range targets are clamped.
func (b *Board) ReorderField(sectionID string, fromIndex, toIndex int) bool {
	return b.mutate(func() bool {
		idx := b.indexOf(sectionID)
		if idx < 0 {
			return false
		}
		fields := b.sections[idx].Fields
		if fromIndex < 0 || fromIndex >= len(fields) {
			return false
		}
		b.sections[idx].Fields = move(fields, fromIndex, toIndex)
		return true
	})
}

// DropField handles a drop onto the gap before position slot (0..len) of the
// same section. Forward drops are shifted left by one to account for the
// removal of the dragged field.
func (b *Board) DropField(sectionID string, fromIndex, slot int) bool {
	if slot > fromIndex {
		slot--
	}
	return b.ReorderField(sectionID, fromIndex, slot)
}

// MoveFieldToSection removes fieldKey from the source section and inserts it
// into the target at toIndex.
func (b *Board) MoveFieldToSection(fromSectionID, toSectionID, fieldKey string, toIndex int) bool {
	return b.mutate(func() bool {
		from := b.indexOf(fromSectionID)
		to := b.indexOf(toSectionID)
		if from < 0 || to < 0 || fieldKey == "" {
			return false
		}
		if !contains(b.sections[from].Fields, fieldKey) {
			return false
		}
		b.detach(fieldKey)
		b.sections[to].Fields = insert(b.sections[to].Fields, toIndex, fieldKey)
		return true
	})
}

// MoveSection swaps the section with its neighbour. It is a no-op at the
// boundaries.
func (b *Board) MoveSection(sectionID string, dir Direction) bool {
	return b.mutate(func() bool {
		idx := b.indexOf(sectionID)
		if idx < 0 {
			return false
		}
		var target int
		switch dir {
		case Left:
			target = idx - 1
		case Right:
			target = idx + 1
		default:
			return false
		}
		if target < 0 || target >= len(b.sections) {
			return false
		}
		b.sections[idx], b.sections[target] = b.sections[target], b.sections[idx]
		return true
	})
}

// ChangeSectionColor sets the palette index of a section.
func (b *Board) ChangeSectionColor(sectionID string, colorIndex int) bool {
	if colorIndex < 0 {
		return false
	}
	return b.mutate(func() bool {
		idx := b.indexOf(sectionID)
		if idx < 0 {
			return false
		}
		b.sections[idx].ColorIndex = colorIndex % PaletteSize
		return true
	})
}

// RenameSection changes the display name. Blank names are rejected.
func (b *Board) RenameSection(sectionID, name string) bool {
	name = strings.TrimSpace(name)
	if name == "" || strings.Contains(name, "|") {
		return false
	}
	return b.mutate(func() bool {
		idx := b.indexOf(sectionID)
		if idx < 0 {
			return false
		}
		b.sections[idx].Name = name
		return true
	})
}

// DeleteSection removes a section; its fields become unassigned.
func (b *Board) DeleteSection(sectionID string) bool {
	return b.mutate(func() bool {
		idx := b.indexOf(sectionID)
		if idx < 0 {
			return false
		}
		b.sections = append(b.sections[:idx], b.sections[idx+1:]...)
		return true
	})
}

// AddSection appends an empty section with a generated id and the next
// sequential color. A blank name is replaced with a numbered default.
func (b *Board) AddSection(name string) model.Section {
	var added model.Section
	b.mutate(func() bool {
		name = strings.ReplaceAll(strings.TrimSpace(name), "|", " ")
		if name == "" {
			name = translate(b.translator, b.locale, "section.new", "", len(b.sections)+1)
		}
		added = model.Section{
			ID:         b.newID(),
			Name:       name,
			Fields:     []string{},
			ColorIndex: len(b.sections) % PaletteSize,
		}
		b.sections = append(b.sections, added)
		return true
	})
	return added.Clone()
}

// Unassigned lists visible definitions that belong to no section, sorted by
// order then key.
func (b *Board) Unassigned(defs model.Definitions) []string {
	b.mu.Lock()
	assigned := make(map[string]struct{})
	for _, section := range b.sections {
		for _, key := range section.Fields {
			assigned[key] = struct{}{}
		}
	}
	b.mu.Unlock()

	var out []string
	for _, e := range sortedEntries(defs) {
		if _, ok := assigned[e.key]; ok {
			continue
		}
		out = append(out, e.key)
	}
	return out
}

// Assign recomputes Order and Group for every definition from the current
// board state and returns the complete map. Visible fields are numbered in
// section order, unassigned fields follow without a group, and hidden fields
// keep their group and come last.
func (b *Board) Assign(defs model.Definitions) model.Definitions {
	sections := b.Sections()
	out := defs.Clone()
	if out == nil {
		out = model.Definitions{}
	}

	order := 0
	placed := make(map[string]struct{}, len(out))
	for _, section := range sections {
		for _, key := range section.Fields {
			def, ok := out[key]
			if !ok || def.Hidden() {
				continue
			}
			def.Order = model.IntPtr(order)
			def.Group = model.VisibleGroup(section.Name, section.ColorIndex)
			out[key] = def
			placed[key] = struct{}{}
			order++
		}
	}

	var hidden []entry
	for _, e := range sortedAll(out) {
		if _, ok := placed[e.key]; ok {
			continue
		}
		if e.def.Hidden() {
			hidden = append(hidden, e)
			continue
		}
		def := e.def
		def.Order = model.IntPtr(order)
		def.Group = model.Group{}
		out[e.key] = def
		order++
	}
	for _, e := range hidden {
		def := e.def
		def.Order = model.IntPtr(order)
		out[e.key] = def
		order++
	}
	return out
}

func sortedAll(defs model.Definitions) []entry {
	out := make([]entry, 0, len(defs))
	for _, key := range defs.Keys() {
		def := defs[key]
		out = append(out, entry{key: key, order: def.OrderOr(UnorderedSentinel), def: def})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].order < out[j].order
	})
	return out
}

// DropPayload is the JSON body emitted by the canvas on drop.
type DropPayload struct {
	Action        string    `json:"action"`
	SectionID     string    `json:"sectionId,omitempty"`
	FromSectionID string    `json:"fromSectionId,omitempty"`
	ToSectionID   string    `json:"toSectionId,omitempty"`
	FieldKey      string    `json:"fieldKey,omitempty"`
	FromIndex     int       `json:"fromIndex,omitempty"`
	ToIndex       int       `json:"toIndex,omitempty"`
	Direction     Direction `json:"direction,omitempty"`
}

// ApplyDrop decodes a drag payload and dispatches it. Malformed or unknown
// payloads are logged and ignored; the return value reports whether the
// board changed.
func (b *Board) ApplyDrop(raw []byte) bool {
	var payload DropPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		b.logger.Debug("sections: ignore malformed drop payload", zap.Error(err))
		return false
	}

	switch strings.ToLower(strings.TrimSpace(payload.Action)) {
	case "add":
		return b.AddFieldToSection(payload.SectionID, payload.FieldKey)
	case "remove":
		return b.RemoveFieldFromSection(payload.SectionID, payload.FieldKey)
	case "reorder":
		return b.ReorderField(payload.SectionID, payload.FromIndex, payload.ToIndex)
	case "drop":
		return b.DropField(payload.SectionID, payload.FromIndex, payload.ToIndex)
	case "move":
		return b.MoveFieldToSection(payload.FromSectionID, payload.ToSectionID, payload.FieldKey, payload.ToIndex)
	case "move_section":
		return b.MoveSection(payload.SectionID, payload.Direction)
	default:
		b.logger.Debug("sections: ignore unknown drop action", zap.String("action", payload.Action))
		return false
	}
}

// String implements fmt.Stringer for debugging.
func (b *Board) String() string {
	sections := b.Sections()
	parts := make([]string, 0, len(sections))
	for _, section := range sections {
		parts = append(parts, fmt.Sprintf("%s%v", section.ID, section.Fields))
	}
	return strings.Join(parts, " ")
}

func contains(list []string, key string) bool {
	for _, item := range list {
		if item == key {
			return true
		}
	}
	return false
}

func without(list []string, key string) []string {
	out := make([]string, 0, len(list))
	for _, item := range list {
		if item != key {
			out = append(out, item)
		}
	}
	return out
}

func insert(list []string, idx int, key string) []string {
	if idx < 0 {
		idx = 0
	}
	if idx > len(list) {
		idx = len(list)
	}
	out := make([]string, 0, len(list)+1)
	out = append(out, list[:idx]...)
	out = append(out, key)
	return append(out, list[idx:]...)
}

func move(list []string, from, to int) []string {
	item := list[from]
	rest := make([]string, 0, len(list)-1)
	rest = append(rest, list[:from]...)
	rest = append(rest, list[from+1:]...)
	return insert(rest, to, item)
}
