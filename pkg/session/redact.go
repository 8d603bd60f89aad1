package session

import "github.com/termtrace/termtrace/pkg/config"

// Redactor rewrites completed lines before they reach the clean log,
// replacing anything matched by an enabled pattern with a named placeholder.
// The raw log is never redacted; it stays the lossless ground truth.
type Redactor struct {
	patterns []config.Pattern
}

// NewRedactor creates a redactor from the configured patterns. Disabled
// patterns and patterns without a compiled regex are filtered out.
func NewRedactor(patterns []config.Pattern) *Redactor {
	active := make([]config.Pattern, 0, len(patterns))
	for _, p := range patterns {
		if p.Enabled && p.CompiledRegex() != nil {
			active = append(active, p)
		}
	}
	return &Redactor{patterns: active}
}

// Apply returns line with every pattern match replaced by
// "[REDACTED:<name>]". Patterns are applied in configuration order.
func (r *Redactor) Apply(line string) string {
	for _, p := range r.patterns {
		line = p.CompiledRegex().ReplaceAllString(line, "[REDACTED:"+p.Name+"]")
	}
	return line
}

// Patterns returns the active patterns.
func (r *Redactor) Patterns() []config.Pattern {
	return r.patterns
}
