package services

import (
	"context"
	"fmt"
	"log"

	"FIT-CONTRACTS/internal/models"
	"FIT-CONTRACTS/internal/processor"

	"golang.org/x/sync/errgroup"
)

// ContractSlot is the outcome for one document kind: either Document is
// set or Err is.
type ContractSlot struct {
	Kind     models.DocumentKind
	Document *models.FilledDocument
	Report   *processor.FillReport
	Err      error
}

// AssemblyResult always holds one slot per kind in models.DocumentKinds.
type AssemblyResult struct {
	Slots []ContractSlot
}

func (r AssemblyResult) Documents() []models.FilledDocument {
	var docs []models.FilledDocument
	for _, s := range r.Slots {
		if s.Document != nil {
			docs = append(docs, *s.Document)
		}
	}
	return docs
}

func (r AssemblyResult) Produced() int {
	return len(r.Documents())
}

type ContractAssembler struct {
	templates *TemplateService
	filler    *processor.Filler
}

func NewContractAssembler(templates *TemplateService, filler *processor.Filler) *ContractAssembler {
	return &ContractAssembler{templates: templates, filler: filler}
}

// Assemble fills all three contracts concurrently. A failure in one slot
// never affects the others.
func (a *ContractAssembler) Assemble(ctx context.Context, sub models.ClientSubmission) AssemblyResult {
	result := AssemblyResult{Slots: make([]ContractSlot, len(models.DocumentKinds))}

	var g errgroup.Group
	for i, kind := range models.DocumentKinds {
		g.Go(func() error {
			result.Slots[i] = a.fillOne(ctx, kind, sub)
			return nil
		})
	}
	g.Wait()

	return result
}

func (a *ContractAssembler) fillOne(ctx context.Context, kind models.DocumentKind, sub models.ClientSubmission) (slot ContractSlot) {
	slot.Kind = kind
	defer func() {
		if r := recover(); r != nil {
			slot.Document, slot.Report = nil, nil
			slot.Err = fmt.Errorf("filling %s panicked: %v", kind, r)
		}
		if slot.Err != nil {
			log.Printf("Warning: %s contract not produced: %v", kind, slot.Err)
		}
	}()

	desc, err := a.templates.Descriptor(kind)
	if err != nil {
		slot.Err = err
		return slot
	}

	tmpl, err := a.templates.Load(ctx, desc)
	if err != nil {
		slot.Err = err
		return slot
	}

	doc, report, err := a.filler.Fill(ctx, desc, tmpl, sub)
	if err != nil {
		slot.Err = err
		return slot
	}
	slot.Document = doc
	slot.Report = report
	return slot
}
