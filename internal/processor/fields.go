package processor

import (
	"regexp"
	"strings"
	"time"

	"FIT-CONTRACTS/internal/models"
)

// PathToday is a pseudo source path resolved from the matcher's clock.
const PathToday = "@today"

// Transform rewrites a resolved source value before it is written.
type Transform func(string) string

// FieldMapping associates a field name pattern with a source path in
// ClientSubmission.Paths(). Patterns run against the tokenised field name
// ("Emergency_Contact_Phone" becomes "emergency contact phone").
type FieldMapping struct {
	Name    string
	Kind    models.FieldKind
	Pattern *regexp.Regexp
	// Exclude stops a generic rule from claiming a field that a more
	// specific rule matched but had no value for.
	Exclude *regexp.Regexp
	Path    string
	// Equals makes a checkbox checked when the source equals it
	// (case-insensitive). Empty means the source must be "true".
	Equals    string
	Transform Transform
}

func rule(name string, kind models.FieldKind, pattern, path string) FieldMapping {
	return FieldMapping{
		Name:    name,
		Kind:    kind,
		Pattern: regexp.MustCompile(`(?i)` + pattern),
		Path:    path,
	}
}

func (r FieldMapping) with(t Transform) FieldMapping {
	r.Transform = t
	return r
}

func (r FieldMapping) except(pattern string) FieldMapping {
	r.Exclude = regexp.MustCompile(`(?i)` + pattern)
	return r
}

func (r FieldMapping) equals(v string) FieldMapping {
	r.Equals = v
	return r
}

// DefaultMappings is the rule table shared by all three contract templates.
// Order matters: the first rule that matches and has a non-empty source wins.
func DefaultMappings() []FieldMapping {
	text, check, sig := models.FieldText, models.FieldCheckbox, models.FieldSignature
	return []FieldMapping{
		rule("emergency-phone", text, `\bemergency\b.*\b(phone|telephone|tel|mobile|cell)\b`, "emergencyContact.phone"),
		rule("emergency-relationship", text, `\bemergency\b.*\brelation(ship)?\b`, "emergencyContact.relationship"),
		rule("emergency-name", text, `\bemergency\b`, "emergencyContact.name"),
		rule("first-name", text, `\bfirst\b.*\bname\b|\bfname\b|\bgiven name\b`, "firstName"),
		rule("last-name", text, `\blast\b.*\bname\b|\blname\b|\bsurname\b|\bfamily name\b`, "lastName"),
		rule("email", text, `\be ?mail\b`, "email"),
		rule("phone", text, `\b(phone|telephone|tel|mobile|cell)\b`, "phone").except(`\b(emergency|guardian|parent)\b`),
		rule("birth-date", text, `\b(birth|birthday|dob)\b`, "dateOfBirth").with(TransformDate),
		rule("start-date", text, `\bstart\b`, "startDate").with(TransformDate),
		rule("initiation-fee", text, `\b(initiation|enrollment|enrolment|signup)\b.*\bfee\b|\bfee\b`, "selectedPlan.initiationFee").with(TransformMoney),
		rule("plan-total", text, `\btotal\b`, "selectedPlan.total"),
		rule("plan-sessions", text, `\bsessions?\b`, "selectedPlan.sessions"),
		rule("plan-duration", text, `\b(duration|term|length)\b`, "selectedPlan.duration"),
		rule("plan-price", text, `\b(price|cost|rate|amount)\b`, "selectedPlan.price").with(TransformMoney),
		rule("plan-title", text, `\b(plan|package|membership|program)\b`, "selectedPlan.title").
			except(`\b(duration|term|length|sessions?|price|cost|rate|amount|fee|total|start)\b`),
		rule("street", text, `\bstreet\b|\baddress (line )?1\b|\baddress line\b`, "address.street"),
		rule("city", text, `\b(city|town)\b`, "address.city"),
		rule("state", text, `\b(state|province)\b`, "address.state").with(TransformUpper),
		rule("zip", text, `\b(zip|postal|postcode)\b`, "address.zip"),
		rule("address", text, `\baddress\b`, "address.full"),
		rule("goals", text, `\bgoals?\b|\bobjectives?\b`, "goals"),
		rule("medical-notes", text, `\b(medical|health|condition)\b.*\b(notes?|details?|explain|explanation|other)\b|\bnotes?\b`, "medical.notes"),
		rule("gender", text, `\b(gender|sex)\b`, "gender"),
		rule("full-name", text, `\bname\b`, "fullName").except(`\b(emergency|guardian|parent|plan|package|program)\b`),
		rule("today", text, `\b(date|today|dated|signed on)\b`, PathToday),

		rule("heart", check, `\bheart\b|\bcardiac\b`, "medical.heartCondition"),
		rule("chest-pain", check, `\bchest\b`, "medical.chestPain"),
		rule("dizziness", check, `\b(dizz\w*|faint\w*|balance)\b`, "medical.dizziness"),
		rule("bone-joint", check, `\b(bone|joint|arthritis)\b`, "medical.boneJoint"),
		rule("blood-pressure", check, `\bblood pressure\b|\bhypertension\b|\bbp\b`, "medical.bloodPressure"),
		rule("diabetes", check, `\bdiabet\w*`, "medical.diabetes"),
		rule("asthma", check, `\basthma\w*`, "medical.asthma"),
		rule("pregnancy", check, `\bpregnan\w*`, "medical.pregnancy"),
		rule("medications", check, `\bmedications?\b|\bmedicine\b`, "medical.medications"),
		rule("female", check, `\bfemale\b|\bwoman\b`, "gender").equals("female"),
		rule("male", check, `\bmale\b|\bman\b`, "gender").equals("male"),

		rule("initials", sig, `\binitials?\b`, "signatures.initials"),
		rule("guardian", sig, `\b(guardian|parent)\b`, "signatures.guardian"),
		rule("client-signature", sig, `.`, "signatures.client").except(`\b(guardian|parent|initials?)\b`),
	}
}

var (
	camelBoundary = regexp.MustCompile(`([a-z0-9])([A-Z])`)
	letterDigit   = regexp.MustCompile(`([a-zA-Z])([0-9])`)
	nonAlnum      = regexp.MustCompile(`[^a-zA-Z0-9]+`)
)

// TokenizeFieldName splits a declared field name into lower-case words
// separated by single spaces, so that "Emergency_Contact_Phone",
// "emergencyContactPhone" and "emergency-contact phone" all read the same.
func TokenizeFieldName(name string) string {
	s := camelBoundary.ReplaceAllString(name, "$1 $2")
	s = letterDigit.ReplaceAllString(s, "$1 $2")
	s = nonAlnum.ReplaceAllString(s, " ")
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}

// normalizeKey strips everything but letters and digits, used to compare
// field names with submission paths directly.
func normalizeKey(s string) string {
	return strings.ToLower(nonAlnum.ReplaceAllString(s, ""))
}

// TransformDate renders ISO dates as MM/DD/YYYY and leaves anything else alone.
func TransformDate(v string) string {
	for _, layout := range []string{"2006-01-02", time.RFC3339, "2006-01-02T15:04:05.000Z"} {
		if t, err := time.Parse(layout, v); err == nil {
			return t.Format("01/02/2006")
		}
	}
	return v
}

func TransformUpper(v string) string {
	return strings.ToUpper(v)
}

// TransformMoney adds a missing "$" to an amount and otherwise keeps the
// source text, so "$1,200" and "$240/month" are written as entered.
func TransformMoney(v string) string {
	s := strings.TrimSpace(v)
	if s == "" || strings.HasPrefix(s, "$") {
		return s
	}
	if _, err := models.ParseCents(s); err != nil {
		return v
	}
	return "$" + s
}
