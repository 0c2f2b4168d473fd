package preview

import (
	"fmt"
	"html"
	"sort"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"go.uber.org/zap"

	"github.com/goliatone/go-docfill/pkg/model"
	"github.com/goliatone/go-docfill/pkg/placeholder"
	"github.com/goliatone/go-docfill/pkg/sections"
)

// CheckMark is substituted into the child placeholder of a selected radio
// option.
const CheckMark = "✓"

// Input bundles everything a render depends on.
type Input struct {
	Values      model.FormValues
	Definitions model.Definitions
	Sections    []model.Section
	// Active is the key of the field currently focused in the form.
	Active string
}

// Result is the rendered HTML plus tokens that matched no value.
type Result struct {
	HTML      string
	Unmatched []string
}

// Option configures a Renderer.
type Option func(*Renderer)

// WithPalette overrides the section palette used for highlighting.
func WithPalette(p sections.Palette) Option {
	return func(r *Renderer) {
		if len(p) > 0 {
			r.palette = p
		}
	}
}

// WithPolicy replaces the sanitizer applied to substituted values.
func WithPolicy(policy *bluemonday.Policy) Option {
	return func(r *Renderer) {
		if policy != nil {
			r.policy = policy
		}
	}
}

// WithLogger sets the logger used for render diagnostics.
func WithLogger(logger *zap.Logger) Option {
	return func(r *Renderer) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// Renderer substitutes form values into compiled templates.
type Renderer struct {
	palette sections.Palette
	policy  *bluemonday.Policy
	logger  *zap.Logger
}

// NewRenderer builds a renderer with the default palette and a strict value
// sanitizer.
func NewRenderer(options ...Option) *Renderer {
	r := &Renderer{
		palette: sections.DefaultPalette,
		policy:  bluemonday.StrictPolicy(),
		logger:  zap.NewNop(),
	}
	for _, opt := range options {
		if opt != nil {
			opt(r)
		}
	}
	return r
}

type substitution struct {
	value string
	owner string
}

// Render produces the preview HTML. It does not mutate its inputs and the
// output depends only on the template and input.
func (r *Renderer) Render(tpl *Template, in Input) Result {
	if tpl == nil {
		return Result{}
	}

	subs := r.substitutions(in)
	folded := make(map[string]string, len(subs))
	for _, key := range sortedKeys(subs) {
		lower := strings.ToLower(key)
		if _, ok := folded[lower]; !ok {
			folded[lower] = key
		}
	}
	colors := sections.ColorMap(in.Sections, r.palette)

	var out strings.Builder
	out.Grow(len(tpl.source))
	var unmatched []string
	seenUnmatched := make(map[string]struct{})

	for _, seg := range tpl.segments {
		if seg.kind == segmentLiteral {
			out.WriteString(seg.text)
			continue
		}
		sub, ok := subs[seg.text]
		if !ok {
			if key, found := folded[strings.ToLower(seg.text)]; found {
				sub, ok = subs[key], true
			}
		}
		if !ok {
			if _, dup := seenUnmatched[seg.text]; !dup {
				seenUnmatched[seg.text] = struct{}{}
				unmatched = append(unmatched, seg.text)
			}
			continue
		}
		out.WriteString(r.replacement(sub, in.Active, colors))
	}

	if len(unmatched) > 0 {
		r.logger.Debug("preview tokens without values", zap.Strings("tokens", unmatched))
	}
	return Result{HTML: out.String(), Unmatched: unmatched}
}

// RenderString compiles and renders in one step.
func (r *Renderer) RenderString(source string, in Input) Result {
	return r.Render(Compile(source), in)
}

// substitutions resolves every key that may appear in the template. Plain
// values go first so composite expansions win over empty sub-field values.
func (r *Renderer) substitutions(in Input) map[string]substitution {
	subs := make(map[string]substitution, len(in.Values))
	keys := make([]string, 0, len(in.Values))
	for key := range in.Values {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		raw := in.Values[key]
		def := in.Definitions[key]
		value := raw
		if def.InputType == model.InputTypeDate && !def.IsMerged {
			value = FormatDate(raw, def.DateFormat)
		}
		if _, exists := subs[key]; !exists {
			subs[key] = substitution{value: value, owner: key}
		}
	}

	for _, key := range keys {
		raw := in.Values[key]
		def, ok := in.Definitions[key]
		if !ok {
			continue
		}
		switch {
		case def.IsMerged && len(def.MergedFields) > 0:
			for sub, part := range MergedValues(raw, def) {
				if existing, ok := subs[sub]; ok && raw == "" && existing.value != "" {
					continue
				}
				subs[sub] = substitution{value: part, owner: key}
			}
		case def.IsRadioGroup:
			for _, opt := range def.RadioOptions {
				if opt.Placeholder == "" {
					continue
				}
				mark := ""
				if raw != "" && opt.Value == raw {
					mark = CheckMark
				}
				subs[placeholder.Unbrace(opt.Placeholder)] = substitution{value: mark, owner: key}
			}
		}
	}
	return subs
}

func (r *Renderer) replacement(sub substitution, active string, colors map[string]sections.Color) string {
	isActive := active != "" && sub.owner == active
	if sub.value == "" {
		if !isActive {
			return ""
		}
		color := sections.ColorFor(colors, sub.owner)
		return fmt.Sprintf(
			`<span class="docfill-blank docfill-active" data-field="%s" style="border-bottom:2px solid %s;background-color:%s">&nbsp;&nbsp;&nbsp;&nbsp;&nbsp;&nbsp;</span>`,
			html.EscapeString(sub.owner), color.Text, color.BG,
		)
	}

	value := r.sanitize(sub.value)
	if !isActive {
		return value
	}
	color := sections.ColorFor(colors, sub.owner)
	return fmt.Sprintf(
		`<mark class="docfill-active" data-field="%s" style="background-color:%s;color:%s">%s</mark>`,
		html.EscapeString(sub.owner), color.BG, color.Text, value,
	)
}

func (r *Renderer) sanitize(value string) string {
	clean := r.policy.Sanitize(value)
	if strings.Contains(clean, "\n") {
		clean = strings.ReplaceAll(clean, "\r\n", "\n")
		clean = strings.ReplaceAll(clean, "\n", "<br>")
	}
	return clean
}

func sortedKeys(m map[string]substitution) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
