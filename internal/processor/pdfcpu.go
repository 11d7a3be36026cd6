package processor

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"

	"FIT-CONTRACTS/internal/models"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
)

// Keys of the pdfcpu form export; listbox is multi-valued and not filled.
var pdfcpuFieldGroups = map[string]models.FieldKind{
	"textfield":        models.FieldText,
	"datefield":        models.FieldText,
	"combobox":         models.FieldText,
	"radiobuttongroup": models.FieldText,
	"checkbox":         models.FieldCheckbox,
}

// PDFCPUEngine fills AcroForm templates with pdfcpu. Field values travel
// through pdfcpu's JSON form export/fill format, so unknown attributes in
// the export are preserved untouched. The engine holds no state, so one
// instance can serve concurrent fills.
type PDFCPUEngine struct{}

func NewPDFCPUEngine() *PDFCPUEngine {
	return &PDFCPUEngine{}
}

// newConf returns a configuration for a single api call. pdfcpu records the
// running command on the configuration, so it is never shared.
func newConf() *model.Configuration {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	return conf
}

type pdfcpuFormGroup struct {
	Header json.RawMessage              `json:"header,omitempty"`
	Forms  []map[string]json.RawMessage `json:"forms"`
}

type pdfcpuStamp struct {
	placement models.Placement
	image     []byte
}

type pdfcpuForm struct {
	src     []byte
	group   pdfcpuFormGroup
	parsed  []map[string][]map[string]any
	fields  []FormField
	entries map[string]map[string]any
	kinds   map[string]models.FieldKind
	stamps  []pdfcpuStamp
	flatten bool
	written bool
}

func (e *PDFCPUEngine) Open(data []byte) (Form, error) {
	var export bytes.Buffer
	if err := api.ExportFormJSON(bytes.NewReader(data), &export, "template.pdf", newConf()); err != nil {
		return nil, fmt.Errorf("export form: %w", err)
	}

	f := &pdfcpuForm{
		src:     data,
		entries: make(map[string]map[string]any),
		kinds:   make(map[string]models.FieldKind),
	}
	if err := json.Unmarshal(export.Bytes(), &f.group); err != nil {
		return nil, fmt.Errorf("decode form export: %w", err)
	}

	f.parsed = make([]map[string][]map[string]any, len(f.group.Forms))
	for i, form := range f.group.Forms {
		f.parsed[i] = make(map[string][]map[string]any)
		for group, raw := range form {
			kind, ok := pdfcpuFieldGroups[group]
			if !ok {
				continue
			}
			var entries []map[string]any
			if err := json.Unmarshal(raw, &entries); err != nil {
				return nil, fmt.Errorf("decode %s fields: %w", group, err)
			}
			f.parsed[i][group] = entries
			for _, entry := range entries {
				name := entryName(entry)
				if name == "" {
					continue
				}
				if _, dup := f.entries[name]; dup {
					continue
				}
				f.entries[name] = entry
				f.kinds[name] = kind
				f.fields = append(f.fields, FormField{Name: name, Kind: kind})
			}
		}
	}
	sort.Slice(f.fields, func(i, j int) bool { return f.fields[i].Name < f.fields[j].Name })
	return f, nil
}

func entryName(entry map[string]any) string {
	if n, ok := entry["name"].(string); ok && n != "" {
		return n
	}
	if id, ok := entry["id"].(string); ok {
		return id
	}
	return ""
}

func (f *pdfcpuForm) Fields() []FormField {
	return append([]FormField(nil), f.fields...)
}

func (f *pdfcpuForm) SetText(name, value string) error {
	entry, ok := f.entries[name]
	if !ok {
		return fmt.Errorf("no field named %q", name)
	}
	if f.kinds[name] == models.FieldCheckbox {
		return fmt.Errorf("field %q is a checkbox", name)
	}
	entry["value"] = value
	f.written = true
	return nil
}

func (f *pdfcpuForm) SetChecked(name string, checked bool) error {
	entry, ok := f.entries[name]
	if !ok {
		return fmt.Errorf("no field named %q", name)
	}
	if f.kinds[name] != models.FieldCheckbox {
		return fmt.Errorf("field %q is not a checkbox", name)
	}
	entry["value"] = checked
	f.written = true
	return nil
}

func (f *pdfcpuForm) Value(name string) (string, bool) {
	entry, ok := f.entries[name]
	if !ok {
		return "", false
	}
	switch v := entry["value"].(type) {
	case bool:
		return strconv.FormatBool(v), true
	case string:
		return v, true
	case nil:
		if f.kinds[name] == models.FieldCheckbox {
			return "false", true
		}
		return "", true
	default:
		return fmt.Sprint(v), true
	}
}

func (f *pdfcpuForm) StampImage(p models.Placement, image []byte) error {
	if len(image) == 0 {
		return fmt.Errorf("empty image")
	}
	f.stamps = append(f.stamps, pdfcpuStamp{placement: p, image: image})
	return nil
}

func (f *pdfcpuForm) Flatten() error {
	f.flatten = true
	return nil
}

func (f *pdfcpuForm) Bytes() ([]byte, error) {
	cur, err := f.filled()
	if err != nil {
		return nil, err
	}

	for _, s := range f.stamps {
		wm, err := api.ImageWatermarkForReader(bytes.NewReader(s.image), stampDescription(s.placement), true, false, types.POINTS)
		if err != nil {
			return nil, fmt.Errorf("prepare signature stamp: %w", err)
		}
		page := s.placement.Page
		if page < 1 {
			page = 1
		}
		var stamped bytes.Buffer
		if err := api.AddWatermarks(bytes.NewReader(cur), &stamped, []string{strconv.Itoa(page)}, wm, newConf()); err != nil {
			return nil, fmt.Errorf("stamp signature on page %d: %w", page, err)
		}
		cur = stamped.Bytes()
	}

	if f.flatten && len(f.fields) > 0 {
		names := make([]string, 0, len(f.fields))
		for _, ff := range f.fields {
			names = append(names, ff.Name)
		}
		var locked bytes.Buffer
		err := api.LockFormFields(bytes.NewReader(cur), &locked, names, newConf())
		switch {
		case errors.Is(err, api.ErrNoFormFieldsAffected):
			// already locked
		case err != nil:
			return nil, fmt.Errorf("lock form fields: %w", err)
		default:
			cur = locked.Bytes()
		}
	}
	return cur, nil
}

// filled applies buffered field values to the source document. Writing
// values that already match the template leaves it unchanged.
func (f *pdfcpuForm) filled() ([]byte, error) {
	if !f.written {
		return f.src, nil
	}
	for i, groups := range f.parsed {
		for group, entries := range groups {
			raw, err := json.Marshal(entries)
			if err != nil {
				return nil, fmt.Errorf("encode %s fields: %w", group, err)
			}
			f.group.Forms[i][group] = raw
		}
	}
	fill, err := json.Marshal(f.group)
	if err != nil {
		return nil, fmt.Errorf("encode form values: %w", err)
	}

	var out bytes.Buffer
	err = api.FillForm(bytes.NewReader(f.src), bytes.NewReader(fill), &out, newConf())
	switch {
	case errors.Is(err, api.ErrNoFormFieldsAffected):
		return f.src, nil
	case err != nil:
		return nil, fmt.Errorf("fill form: %w", err)
	}
	return out.Bytes(), nil
}

func stampDescription(p models.Placement) string {
	pos := p.Position
	if pos == "" {
		pos = "bl"
	}
	scale := p.Scale
	if scale <= 0 {
		scale = 0.25
	}
	return fmt.Sprintf("position:%s, offset:%g %g, scalefactor:%g abs, rotation:0", pos, p.OffsetX, p.OffsetY, scale)
}
