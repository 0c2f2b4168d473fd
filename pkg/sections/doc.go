// Package sections groups field definitions into ordered, colored sections and
// owns the drag-and-drop mutations applied to them during an editing session.
//
// GroupFields restores sections from saved group metadata, falling back to the
// fixed entity taxonomy (child, mother, father, informant, registrar, general)
// when no field has been grouped yet. Board serializes every mutation, keeps
// each field key in at most one section, and recomputes the order and group of
// all definitions when the session is saved.
package sections
