package models

import (
	"fmt"
	"strings"
	"time"
)

// DocumentKind identifies one of the three contract templates.
type DocumentKind string

const (
	KindRegistration DocumentKind = "registration"
	KindAgreement    DocumentKind = "agreement"
	KindWaiver       DocumentKind = "waiver"
)

// DocumentKinds is the fixed set of contracts produced per submission, in
// the order they are reported.
var DocumentKinds = []DocumentKind{KindRegistration, KindAgreement, KindWaiver}

func ParseDocumentKind(s string) (DocumentKind, error) {
	k := DocumentKind(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range DocumentKinds {
		if k == known {
			return k, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownKind, s)
}

// Title is the human readable document name used in emails.
func (k DocumentKind) Title() string {
	switch k {
	case KindRegistration:
		return "Registration Form"
	case KindAgreement:
		return "Training Agreement"
	case KindWaiver:
		return "Liability Waiver"
	}
	return string(k)
}

// FieldKind partitions template fields by the setter they need.
type FieldKind string

const (
	FieldText      FieldKind = "text"
	FieldCheckbox  FieldKind = "checkbox"
	FieldSignature FieldKind = "signature"
)

// TemplateField is one fillable field a template declares.
type TemplateField struct {
	Name string    `yaml:"name" json:"name"`
	Kind FieldKind `yaml:"kind" json:"kind"`
	// Placement is only used by signature fields, which are stamped as
	// images rather than written through the form.
	Placement *Placement `yaml:"placement,omitempty" json:"placement,omitempty"`
}

// Placement positions a stamped image on a page, in PDF points.
type Placement struct {
	Page     int     `yaml:"page" json:"page"`
	Position string  `yaml:"position" json:"position"` // bl, bc, br, l, c, r, tl, tc, tr
	OffsetX  float64 `yaml:"offset_x" json:"offset_x"`
	OffsetY  float64 `yaml:"offset_y" json:"offset_y"`
	Scale    float64 `yaml:"scale" json:"scale"`
}

// TemplateDescriptor is static configuration for one contract template.
type TemplateDescriptor struct {
	Kind        DocumentKind    `yaml:"kind" json:"kind"`
	Name        string          `yaml:"name" json:"name"`
	BundledPath string          `yaml:"bundled_path" json:"bundled_path"`
	Fields      []TemplateField `yaml:"fields" json:"fields"`
}

// StorageKey is the object key the template is read from.
func (d TemplateDescriptor) StorageKey() string {
	return fmt.Sprintf("templates/%s.pdf", d.Name)
}

// Declares reports whether the template declares a field with this name.
func (d TemplateDescriptor) Declares(name string) (TemplateField, bool) {
	for _, f := range d.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return TemplateField{}, false
}

// FilledDocument is a flattened contract ready for delivery.
type FilledDocument struct {
	Kind       DocumentKind
	ClientName string
	Data       []byte
	CreatedAt  time.Time
}

func (d FilledDocument) Filename() string {
	return fmt.Sprintf("%s.pdf", d.Kind)
}
