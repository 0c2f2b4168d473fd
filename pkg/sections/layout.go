package sections

import "github.com/goliatone/go-docfill/pkg/model"

// NodeKind distinguishes canvas nodes.
type NodeKind string

const (
	NodeSection NodeKind = "section"
	NodeField   NodeKind = "field"
)

// Node is a positioned canvas element.
type Node struct {
	ID       string   `json:"id"`
	Kind     NodeKind `json:"kind"`
	ParentID string   `json:"parentId,omitempty"`
	Label    string   `json:"label"`
	X        int      `json:"x"`
	Y        int      `json:"y"`
	Width    int      `json:"width"`
	Height   int      `json:"height"`
	Color    Color    `json:"color"`
}

// Edge links consecutive sections in document order.
type Edge struct {
	ID     string `json:"id"`
	Source string `json:"source"`
	Target string `json:"target"`
}

// LayoutMetrics controls node geometry.
type LayoutMetrics struct {
	SectionWidth int
	ColumnGap    int
	HeaderHeight int
	RowHeight    int
	Padding      int
}

// DefaultLayoutMetrics matches the canvas defaults.
var DefaultLayoutMetrics = LayoutMetrics{
	SectionWidth: 280,
	ColumnGap:    40,
	HeaderHeight: 48,
	RowHeight:    36,
	Padding:      12,
}

// Layout computes canvas nodes and edges purely from section order. Nothing
// here is persisted; callers recompute it after every mutation.
func Layout(sections []model.Section, labels map[string]string, palette Palette, metrics LayoutMetrics) ([]Node, []Edge) {
	if palette == nil {
		palette = DefaultPalette
	}
	if metrics.SectionWidth <= 0 {
		metrics = DefaultLayoutMetrics
	}

	nodes := make([]Node, 0, len(sections))
	edges := make([]Edge, 0, len(sections))
	for i, section := range sections {
		color := palette.At(section.ColorIndex)
		x := i * (metrics.SectionWidth + metrics.ColumnGap)
		height := metrics.HeaderHeight + len(section.Fields)*metrics.RowHeight + metrics.Padding

		nodes = append(nodes, Node{
			ID:     section.ID,
			Kind:   NodeSection,
			Label:  section.Name,
			X:      x,
			Y:      0,
			Width:  metrics.SectionWidth,
			Height: height,
			Color:  color,
		})
		for j, key := range section.Fields {
			label := labels[key]
			if label == "" {
				label = key
			}
			nodes = append(nodes, Node{
				ID:       section.ID + "/" + key,
				Kind:     NodeField,
				ParentID: section.ID,
				Label:    label,
				X:        metrics.Padding,
				Y:        metrics.HeaderHeight + j*metrics.RowHeight,
				Width:    metrics.SectionWidth - 2*metrics.Padding,
				Height:   metrics.RowHeight - 4,
				Color:    color,
			})
		}
		if i > 0 {
			prev := sections[i-1].ID
			edges = append(edges, Edge{
				ID:     prev + "->" + section.ID,
				Source: prev,
				Target: section.ID,
			})
		}
	}
	return nodes, edges
}
