package model

import (
	"encoding/json"
	"strconv"
	"strings"
)

// GroupKind tags the section assignment carried by a field definition.
type GroupKind int

const (
	GroupNone GroupKind = iota
	GroupVisible
	GroupHiddenMerged
	GroupHiddenRadio
	GroupHiddenRadioChild
)

// Legacy prefixes persisted by the backend for composite sub-fields.
const (
	PrefixMergedHidden = "merged_hidden_"
	PrefixRadioHidden  = "radio_hidden_"
	PrefixRadioChild   = "radio_child_"
)

// Group is the structured form of the legacy "<section>|<colorIndex>" string.
// Hidden kinds keep the remainder of the legacy string in Ref so they round
// trip unchanged.
type Group struct {
	Kind        GroupKind
	SectionName string
	ColorIndex  int
	Ref         string
}

// VisibleGroup builds a section assignment.
func VisibleGroup(name string, colorIndex int) Group {
	return Group{Kind: GroupVisible, SectionName: name, ColorIndex: colorIndex}
}

// ParseGroup decodes the legacy string format. Missing or invalid color
// indexes decode as 0.
func ParseGroup(raw string) Group {
	trimmed := strings.TrimSpace(raw)
	switch {
	case trimmed == "":
		return Group{}
	case strings.HasPrefix(trimmed, PrefixMergedHidden):
		return Group{Kind: GroupHiddenMerged, Ref: strings.TrimPrefix(trimmed, PrefixMergedHidden)}
	case strings.HasPrefix(trimmed, PrefixRadioHidden):
		return Group{Kind: GroupHiddenRadio, Ref: strings.TrimPrefix(trimmed, PrefixRadioHidden)}
	case strings.HasPrefix(trimmed, PrefixRadioChild):
		return Group{Kind: GroupHiddenRadioChild, Ref: strings.TrimPrefix(trimmed, PrefixRadioChild)}
	}

	name, colorRaw, found := strings.Cut(trimmed, "|")
	group := Group{Kind: GroupVisible, SectionName: name}
	if found {
		if idx, err := strconv.Atoi(strings.TrimSpace(colorRaw)); err == nil {
			group.ColorIndex = idx
		}
	}
	if strings.TrimSpace(group.SectionName) == "" {
		return Group{}
	}
	return group
}

// String encodes the group in the legacy format.
func (g Group) String() string {
	switch g.Kind {
	case GroupVisible:
		return g.SectionName + "|" + strconv.Itoa(g.ColorIndex)
	case GroupHiddenMerged:
		return PrefixMergedHidden + g.Ref
	case GroupHiddenRadio:
		return PrefixRadioHidden + g.Ref
	case GroupHiddenRadioChild:
		return PrefixRadioChild + g.Ref
	default:
		return ""
	}
}

// Hidden reports whether the group marks a composite sub-field.
func (g Group) Hidden() bool {
	switch g.Kind {
	case GroupHiddenMerged, GroupHiddenRadio, GroupHiddenRadioChild:
		return true
	default:
		return false
	}
}

// Visible reports whether the group names a section.
func (g Group) Visible() bool {
	return g.Kind == GroupVisible
}

// MarshalJSON writes the legacy string.
func (g Group) MarshalJSON() ([]byte, error) {
	return json.Marshal(g.String())
}

// UnmarshalJSON reads the legacy string; null decodes as GroupNone.
func (g *Group) UnmarshalJSON(data []byte) error {
	if strings.TrimSpace(string(data)) == "null" {
		*g = Group{}
		return nil
	}
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*g = ParseGroup(raw)
	return nil
}
