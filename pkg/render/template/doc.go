// Package template defines the engine seam used to render docfill page
// shells. The gotemplate subpackage provides the pongo2 backed engine.
package template
