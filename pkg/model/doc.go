// Package model defines the records exchanged with the document backend and
// the in-memory types shared by the grouping, preview, and session packages.
// FieldDefinition mirrors the stored per-placeholder configuration; its Group
// is a tagged structure that serializes to the legacy "<section>|<colorIndex>"
// string (or a hidden prefix such as "merged_hidden_") only at the JSON
// boundary. Section is the editable bucket of field keys, and
// ConfigurableDataType is the catalog entry overlaid by the enhancer.
package model
