// Package preview substitutes form values into HTML document templates.
//
// Templates are compiled once into literal and token segments. Render walks the
// segments a single time, formatting dates, expanding merged and radio fields
// into their sub-placeholders and highlighting the active field with its
// section color. Tokens with no matching value are removed from the output and
// reported in Result.Unmatched.
package preview
