package binding

import (
	"fmt"
	"regexp"
	"strings"
)

var placeholderPattern = regexp.MustCompile(`\{\{((?:.|\n)+?)\}\}`)

// HasPlaceholder reports whether text contains at least one `{{ ... }}`.
func HasPlaceholder(text string) bool {
	return placeholderPattern.MatchString(text)
}

// Placeholder is one `{{ path | transform:arg }}` reference.
type Placeholder struct {
	Path      string
	Transform string
	Arg       string
}

type part struct {
	literal     string
	placeholder *Placeholder
}

// Expression is a parsed attribute or text value mixing literal text with
// placeholders.
type Expression struct {
	Raw   string
	parts []part
}

// ParseExpression splits raw into literal and placeholder parts.
func ParseExpression(raw string) (Expression, error) {
	expr := Expression{Raw: raw}
	last := 0
	for _, loc := range placeholderPattern.FindAllStringSubmatchIndex(raw, -1) {
		if loc[0] > last {
			expr.parts = append(expr.parts, part{literal: raw[last:loc[0]]})
		}
		ph, err := parsePlaceholder(raw[loc[2]:loc[3]])
		if err != nil {
			return Expression{}, fmt.Errorf("binding: expression %q: %w", raw, err)
		}
		expr.parts = append(expr.parts, part{placeholder: &ph})
		last = loc[1]
	}
	if last < len(raw) {
		expr.parts = append(expr.parts, part{literal: raw[last:]})
	}
	return expr, nil
}

// Placeholders lists the placeholders in order of appearance.
func (e Expression) Placeholders() []Placeholder {
	var out []Placeholder
	for _, p := range e.parts {
		if p.placeholder != nil {
			out = append(out, *p.placeholder)
		}
	}
	return out
}

// Single returns the placeholder when the expression is exactly one
// placeholder, ignoring surrounding whitespace. Such expressions keep the raw
// model value instead of being stringified.
func (e Expression) Single() (Placeholder, bool) {
	var found *Placeholder
	for _, p := range e.parts {
		if p.placeholder != nil {
			if found != nil {
				return Placeholder{}, false
			}
			found = p.placeholder
			continue
		}
		if strings.TrimSpace(p.literal) != "" {
			return Placeholder{}, false
		}
	}
	if found == nil {
		return Placeholder{}, false
	}
	return *found, true
}

func parsePlaceholder(inner string) (Placeholder, error) {
	path, filter, hasFilter := strings.Cut(inner, "|")
	ph := Placeholder{Path: strings.TrimSpace(path)}
	if ph.Path == "" {
		return Placeholder{}, fmt.Errorf("empty placeholder path")
	}
	if hasFilter {
		name, arg, _ := strings.Cut(filter, ":")
		ph.Transform = strings.TrimSpace(name)
		ph.Arg = strings.Trim(strings.TrimSpace(arg), `"'`)
		if ph.Transform == "" {
			return Placeholder{}, fmt.Errorf("empty transform after '|' in %q", inner)
		}
	}
	return ph, nil
}
