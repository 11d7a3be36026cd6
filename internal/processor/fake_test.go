package processor

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"errors"
	"image"
	"image/color"
	"image/png"
	"testing"

	"FIT-CONTRACTS/internal/models"

	"github.com/stretchr/testify/require"
)

type fakeForm struct {
	fields    []FormField
	values    map[string]string
	failOn    map[string]bool
	stamps    []models.Placement
	flattened bool
	atFlatten map[string]string
}

func newFakeForm(fields ...FormField) *fakeForm {
	return &fakeForm{fields: fields, values: map[string]string{}, failOn: map[string]bool{}}
}

func (f *fakeForm) Fields() []FormField { return f.fields }

func (f *fakeForm) SetText(name, value string) error {
	if f.failOn[name] {
		return errors.New("widget is read-only")
	}
	f.values[name] = value
	return nil
}

func (f *fakeForm) SetChecked(name string, checked bool) error {
	if f.failOn[name] {
		return errors.New("widget is read-only")
	}
	if checked {
		f.values[name] = "true"
	} else {
		f.values[name] = "false"
	}
	return nil
}

func (f *fakeForm) Value(name string) (string, bool) {
	for _, ff := range f.fields {
		if ff.Name == name {
			return f.values[name], true
		}
	}
	return "", false
}

func (f *fakeForm) StampImage(p models.Placement, img []byte) error {
	f.stamps = append(f.stamps, p)
	return nil
}

func (f *fakeForm) Flatten() error {
	f.flattened = true
	f.atFlatten = make(map[string]string, len(f.values))
	for k, v := range f.values {
		f.atFlatten[k] = v
	}
	return nil
}

func (f *fakeForm) Bytes() ([]byte, error) {
	return json.Marshal(f.values)
}

type fakeEngine struct {
	form *fakeForm
	err  error
}

func (e *fakeEngine) Open(data []byte) (Form, error) {
	if e.err != nil {
		return nil, e.err
	}
	return e.form, nil
}

func signatureDataURL(t *testing.T) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 4, 2))
	img.Set(1, 1, color.Black)
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes())
}

func janeSmith() models.ClientSubmission {
	return models.ClientSubmission{
		FirstName: "Jane",
		LastName:  "Smith",
		Email:     "jane@x.com",
		SelectedPlan: models.Plan{
			Title:         "Steady Climb",
			Price:         "$240",
			InitiationFee: "$100",
			Sessions:      "4 sessions",
		},
	}
}
