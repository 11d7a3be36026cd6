package processor

import (
	"strings"
	"time"

	"FIT-CONTRACTS/internal/models"
)

// Value is what the matcher resolved for one field. Only the member that
// corresponds to Kind is meaningful.
type Value struct {
	Kind    models.FieldKind
	Text    string
	Checked bool
	// Signature is the data-URL image; decoding is left to the form filler.
	Signature string
	Rule      string
}

// String renders the value the way it reads back from a form.
func (v Value) String() string {
	switch v.Kind {
	case models.FieldCheckbox:
		if v.Checked {
			return "true"
		}
		return "false"
	case models.FieldSignature:
		return v.Signature
	}
	return v.Text
}

// Matcher resolves template field names to submission values through an
// ordered FieldMapping table. It holds no per-request state.
type Matcher struct {
	rules []FieldMapping
	now   func() time.Time
}

func NewMatcher(rules []FieldMapping, now func() time.Time) *Matcher {
	if now == nil {
		now = time.Now
	}
	return &Matcher{rules: rules, now: now}
}

// DefaultMatcher uses DefaultMappings and the wall clock.
func DefaultMatcher() *Matcher {
	return NewMatcher(DefaultMappings(), time.Now)
}

// Match returns the value for field, or false when the field stays blank.
func (m *Matcher) Match(field models.TemplateField, sub models.ClientSubmission) (Value, bool) {
	return m.MatchPaths(field, sub.Paths())
}

// MatchPaths is Match over a pre-flattened submission, so a filler can
// flatten once per document.
func (m *Matcher) MatchPaths(field models.TemplateField, paths map[string]string) (Value, bool) {
	kind := field.Kind
	if kind == "" {
		kind = models.FieldText
	}

	if v, ok := m.matchDirect(field.Name, kind, paths); ok {
		return v, true
	}

	tokens := TokenizeFieldName(field.Name)
	for _, r := range m.rules {
		if r.Kind != kind || !r.Pattern.MatchString(tokens) {
			continue
		}
		if r.Exclude != nil && r.Exclude.MatchString(tokens) {
			continue
		}
		src := m.source(r.Path, paths)
		if src == "" {
			continue
		}
		if v, ok := m.build(r, kind, tokens, src); ok {
			return v, true
		}
	}
	return Value{}, false
}

// matchDirect handles fields named after a submission path, such as
// "selectedPlan.title" or "Emergency_Contact_Phone".
func (m *Matcher) matchDirect(name string, kind models.FieldKind, paths map[string]string) (Value, bool) {
	key := normalizeKey(name)
	if key == "" {
		return Value{}, false
	}
	for path, src := range paths {
		if normalizeKey(path) != key || src == "" {
			continue
		}
		direct := FieldMapping{Name: "direct:" + path, Kind: kind, Path: path}
		for _, r := range m.rules {
			if r.Kind == kind && r.Path == path {
				direct.Transform = r.Transform
				direct.Equals = r.Equals
				break
			}
		}
		switch kind {
		case models.FieldCheckbox:
			if src != "true" && src != "false" {
				return Value{}, false
			}
		case models.FieldSignature:
			if !strings.HasPrefix(path, "signatures.") {
				return Value{}, false
			}
		default:
			if strings.HasPrefix(path, "signatures.") {
				return Value{}, false
			}
		}
		return m.build(direct, kind, TokenizeFieldName(name), src)
	}
	return Value{}, false
}

func (m *Matcher) source(path string, paths map[string]string) string {
	if path == PathToday {
		return m.now().Format("01/02/2006")
	}
	return paths[path]
}

func (m *Matcher) build(r FieldMapping, kind models.FieldKind, tokens, src string) (Value, bool) {
	v := Value{Kind: kind, Rule: r.Name}
	switch kind {
	case models.FieldCheckbox:
		want := r.Equals
		if want == "" {
			want = "true"
		}
		v.Checked = strings.EqualFold(strings.TrimSpace(src), want)
		if negated(tokens) {
			v.Checked = !v.Checked
		}
	case models.FieldSignature:
		v.Signature = src
	default:
		if r.Transform != nil {
			src = r.Transform(src)
		}
		if src == "" {
			return Value{}, false
		}
		v.Text = src
	}
	return v, true
}

// negated reports checkbox names ending in a "no" token, e.g. "Heart_Condition_No".
func negated(tokens string) bool {
	return tokens == "no" || strings.HasSuffix(tokens, " no")
}
