package processor

import (
	"context"
	"fmt"
	"log"
	"sort"
	"strings"
	"time"

	"FIT-CONTRACTS/internal/models"
)

// FillReport lists what happened to each field of one document.
type FillReport struct {
	Kind       models.DocumentKind `json:"kind"`
	Written    []string            `json:"written"`
	Blank      []string            `json:"blank"`
	Failed     map[string]string   `json:"failed,omitempty"`
	Undeclared []string            `json:"undeclared,omitempty"`
}

func (r *FillReport) fail(field string, err error) {
	if r.Failed == nil {
		r.Failed = make(map[string]string)
	}
	r.Failed[field] = err.Error()
}

// Filler writes one submission into one template.
type Filler struct {
	engine  FormEngine
	matcher *Matcher
	now     func() time.Time
}

func NewFiller(engine FormEngine, matcher *Matcher) *Filler {
	if matcher == nil {
		matcher = DefaultMatcher()
	}
	return &Filler{engine: engine, matcher: matcher, now: time.Now}
}

// Fill opens template, writes every field that the document carries and
// the descriptor declares, stamps declared signatures, flattens and
// serialises. A field that cannot be resolved or written is logged and left
// blank; failing to open, flatten or serialise the template is returned
// as an error for this document only.
func (f *Filler) Fill(ctx context.Context, desc models.TemplateDescriptor, template []byte, sub models.ClientSubmission) (*models.FilledDocument, *FillReport, error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}

	form, err := f.engine.Open(template)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %s: %v", models.ErrTemplateLoad, desc.Name, err)
	}

	report := &FillReport{Kind: desc.Kind}
	paths := sub.Paths()

	present := make(map[string]FormField)
	for _, ff := range form.Fields() {
		present[ff.Name] = ff
		if _, ok := desc.Declares(ff.Name); !ok {
			report.Undeclared = append(report.Undeclared, ff.Name)
		}
	}
	sort.Strings(report.Undeclared)

	for _, declared := range desc.Fields {
		kind := classifyField(declared, present)
		if kind == models.FieldSignature {
			f.stampSignature(form, declared, paths, report)
			continue
		}

		ff, ok := present[declared.Name]
		if !ok {
			log.Printf("Warning: %s: declared field %q not found in template", desc.Name, declared.Name)
			report.fail(declared.Name, fmt.Errorf("%w: field not present in template", models.ErrFieldWrite))
			continue
		}

		v, ok := f.matcher.MatchPaths(models.TemplateField{Name: ff.Name, Kind: kind}, paths)
		if !ok {
			report.Blank = append(report.Blank, ff.Name)
			continue
		}

		var werr error
		switch kind {
		case models.FieldCheckbox:
			werr = form.SetChecked(ff.Name, v.Checked)
		default:
			werr = form.SetText(ff.Name, v.Text)
		}
		if werr != nil {
			log.Printf("Warning: %s: failed to write field %q: %v", desc.Name, ff.Name, werr)
			report.fail(ff.Name, fmt.Errorf("%w: %v", models.ErrFieldWrite, werr))
			continue
		}
		report.Written = append(report.Written, ff.Name)
	}

	if err := form.Flatten(); err != nil {
		return nil, report, fmt.Errorf("flatten %s: %w", desc.Name, err)
	}
	data, err := form.Bytes()
	if err != nil {
		return nil, report, fmt.Errorf("render %s: %w", desc.Name, err)
	}

	log.Printf("Filled %s for %s: %d written, %d blank, %d failed",
		desc.Name, sub.FullName(), len(report.Written), len(report.Blank), len(report.Failed))

	return &models.FilledDocument{
		Kind:       desc.Kind,
		ClientName: sub.FullName(),
		Data:       data,
		CreatedAt:  f.now(),
	}, report, nil
}

func (f *Filler) stampSignature(form Form, declared models.TemplateField, paths map[string]string, report *FillReport) {
	v, ok := f.matcher.MatchPaths(models.TemplateField{Name: declared.Name, Kind: models.FieldSignature}, paths)
	if !ok {
		report.Blank = append(report.Blank, declared.Name)
		return
	}
	if declared.Placement == nil {
		report.fail(declared.Name, fmt.Errorf("%w: signature field has no placement", models.ErrFieldWrite))
		return
	}
	img, err := models.DecodeDataURL(v.Signature)
	if err != nil {
		log.Printf("Warning: signature %q not stamped: %v", declared.Name, err)
		report.fail(declared.Name, fmt.Errorf("%w: %v", models.ErrFieldWrite, err))
		return
	}
	if err := form.StampImage(*declared.Placement, img); err != nil {
		log.Printf("Warning: signature %q not stamped: %v", declared.Name, err)
		report.fail(declared.Name, fmt.Errorf("%w: %v", models.ErrFieldWrite, err))
		return
	}
	report.Written = append(report.Written, declared.Name)
}

// classifyField picks the setter for a declared field. Signature-bearing
// fields are recognised before anything else, by declaration or by a name
// ending in "signature"/"initials"; otherwise the document's own field kind
// wins over the declared one.
func classifyField(declared models.TemplateField, present map[string]FormField) models.FieldKind {
	if declared.Kind == models.FieldSignature {
		return models.FieldSignature
	}
	tokens := TokenizeFieldName(declared.Name)
	if strings.HasSuffix(tokens, "signature") || strings.HasSuffix(tokens, "initials") {
		return models.FieldSignature
	}
	if ff, ok := present[declared.Name]; ok && ff.Kind != "" {
		return ff.Kind
	}
	if declared.Kind != "" {
		return declared.Kind
	}
	return models.FieldText
}
