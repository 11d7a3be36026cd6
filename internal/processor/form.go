package processor

import (
	"FIT-CONTRACTS/internal/models"
)

// FormField is a fillable field as enumerated from a template document.
type FormField struct {
	Name string
	Kind models.FieldKind
}

// Form is an opened template whose fields can be written. Writes are
// buffered until Bytes is called.
type Form interface {
	Fields() []FormField
	SetText(name, value string) error
	SetChecked(name string, checked bool) error
	// Value reads a field back; checkboxes read as "true"/"false".
	Value(name string) (string, bool)
	StampImage(p models.Placement, image []byte) error
	// Flatten makes the output non-editable once serialised.
	Flatten() error
	Bytes() ([]byte, error)
}

// FormEngine opens template bytes.
type FormEngine interface {
	Open(data []byte) (Form, error)
}
