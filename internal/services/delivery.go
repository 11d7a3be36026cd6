package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"FIT-CONTRACTS/internal/events"
	"FIT-CONTRACTS/internal/models"
	"FIT-CONTRACTS/internal/storage"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"golang.org/x/sync/errgroup"
)

type DeliveryRequest struct {
	Submission models.ClientSubmission
	SessionID  string
}

// DocumentOutcome is what the caller is told about one contract.
type DocumentOutcome struct {
	Type     models.DocumentKind `json:"type"`
	URL      string              `json:"url,omitempty"`
	Delivery storage.Tier        `json:"delivery"`
	Error    string              `json:"error,omitempty"`
}

type DeliveryResult struct {
	RegistrationID string
	Payment        *PaymentStatus
	Assembly       AssemblyResult
	Uploads        []storage.UploadResult
	Documents      []DocumentOutcome
	Emails         NotifyResult
	Success        bool
	Message        string
}

// Delivered counts contracts stored by either tier.
func (r *DeliveryResult) Delivered() int {
	return lo.CountBy(r.Documents, func(d DocumentOutcome) bool {
		return d.Delivery == storage.TierRemote || d.Delivery == storage.TierLocal
	})
}

// RegistrationStatus is completed when every contract was delivered,
// partial when some were and failed when none were.
func (r *DeliveryResult) RegistrationStatus() string {
	switch n := r.Delivered(); {
	case n == len(models.DocumentKinds):
		return models.RegistrationCompleted
	case n > 0:
		return models.RegistrationPartial
	default:
		return models.RegistrationFailed
	}
}

type DeliveryDeps struct {
	Payments       *PaymentService
	RequirePayment bool
	Assembler      *ContractAssembler
	Uploader       *storage.Uploader
	Notifier       *Notifier
	Summaries      *SummaryService
	Registrations  *RegistrationService
	Publisher      events.Publisher
}

type DeliveryService struct {
	deps DeliveryDeps
	now  func() time.Time
	// checkout sessions with a registration in progress
	inflight sync.Map
}

func NewDeliveryService(deps DeliveryDeps) *DeliveryService {
	if deps.Publisher == nil {
		deps.Publisher = events.NoopPublisher{}
	}
	return &DeliveryService{deps: deps, now: time.Now}
}

// Deliver runs one registration. Invalid input and payment problems are
// returned as errors; everything after payment degrades into flags on
// the result.
func (s *DeliveryService) Deliver(ctx context.Context, req DeliveryRequest) (*DeliveryResult, error) {
	if err := req.Submission.Validate(); err != nil {
		return nil, err
	}

	if req.SessionID != "" {
		if _, busy := s.inflight.LoadOrStore(req.SessionID, struct{}{}); busy {
			return nil, fmt.Errorf("%w: checkout session %s is being processed", models.ErrSessionAlreadyUsed, req.SessionID)
		}
		defer s.inflight.Delete(req.SessionID)
	}

	result := &DeliveryResult{RegistrationID: uuid.New().String()}

	payment, err := s.verifyPayment(ctx, req.SessionID)
	if err != nil {
		return nil, err
	}
	result.Payment = payment

	result.Assembly = s.deps.Assembler.Assemble(ctx, req.Submission)
	docs := result.Assembly.Documents()

	var summary []byte
	result.Uploads = make([]storage.UploadResult, len(docs))
	var g errgroup.Group
	for i, doc := range docs {
		g.Go(func() error {
			result.Uploads[i] = s.deps.Uploader.Upload(ctx, doc)
			return nil
		})
	}
	if s.deps.Summaries != nil {
		g.Go(func() error {
			pdf, err := s.deps.Summaries.Render(ctx, req.Submission)
			if err != nil {
				log.Printf("Warning: registration summary not rendered: %v", err)
				return nil
			}
			summary = pdf
			return nil
		})
	}
	g.Wait()

	result.Documents = documentOutcomes(result.Assembly, result.Uploads)

	if s.deps.Notifier != nil {
		result.Emails = s.deps.Notifier.Notify(ctx, NotifyInput{
			Submission: req.Submission,
			Uploads:    result.Uploads,
			Documents:  docs,
			Summary:    summary,
		})
	}

	result.Success = result.Delivered() > 0
	result.Message = deliveryMessage(result)

	s.record(ctx, req, result)
	s.publish(ctx, req, result)

	return result, nil
}

func (s *DeliveryService) verifyPayment(ctx context.Context, sessionID string) (*PaymentStatus, error) {
	if sessionID == "" {
		if s.deps.RequirePayment {
			return nil, fmt.Errorf("%w: no checkout session", models.ErrPaymentRequired)
		}
		return nil, nil
	}
	used, err := s.deps.Registrations.SessionUsed(ctx, sessionID)
	if err != nil {
		log.Printf("Warning: could not check reuse of checkout session %s: %v", sessionID, err)
	}
	if used {
		return nil, fmt.Errorf("%w: checkout session %s", models.ErrSessionAlreadyUsed, sessionID)
	}
	if s.deps.Payments == nil {
		if s.deps.RequirePayment {
			return nil, fmt.Errorf("%w: payments are not configured", models.ErrPaymentUnavailable)
		}
		log.Printf("Warning: checkout session %s not verified, payments are not configured", sessionID)
		return nil, nil
	}

	status, err := s.deps.Payments.Verify(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if !status.Paid {
		return status, fmt.Errorf("%w: checkout session %s is %s", models.ErrPaymentRequired, sessionID, status.PaymentStatus)
	}
	return status, nil
}

func documentOutcomes(assembly AssemblyResult, uploads []storage.UploadResult) []DocumentOutcome {
	byKind := lo.KeyBy(uploads, func(u storage.UploadResult) models.DocumentKind { return u.Kind })

	out := make([]DocumentOutcome, 0, len(assembly.Slots))
	for _, slot := range assembly.Slots {
		o := DocumentOutcome{Type: slot.Kind, Delivery: storage.TierFailed}
		if slot.Err != nil {
			o.Error = slot.Err.Error()
			out = append(out, o)
			continue
		}
		if u, ok := byKind[slot.Kind]; ok {
			o.URL = u.URL
			o.Delivery = u.Tier
			if u.Err != nil {
				o.Error = u.Err.Error()
			}
		}
		out = append(out, o)
	}
	return out
}

func deliveryMessage(r *DeliveryResult) string {
	total := len(models.DocumentKinds)
	delivered := r.Delivered()

	var msg string
	switch {
	case delivered == 0:
		return "Registration received, but none of the contracts could be produced or stored. Our staff will follow up."
	case delivered == total:
		msg = "Registration complete. All contracts were generated and saved."
	default:
		failed := lo.FilterMap(r.Documents, func(d DocumentOutcome, _ int) (string, bool) {
			return d.Type.Title(), d.Delivery == storage.TierFailed
		})
		msg = fmt.Sprintf("Registration complete. %d of %d contracts were saved; %s will be followed up by our staff.", delivered, total, joinTitles(failed))
	}

	if !r.Emails.ClientSent {
		msg += " We could not email your confirmation."
	}
	return msg
}

func joinTitles(titles []string) string {
	switch len(titles) {
	case 0:
		return ""
	case 1:
		return titles[0]
	}
	out := titles[0]
	for _, t := range titles[1 : len(titles)-1] {
		out += ", " + t
	}
	return out + " and " + titles[len(titles)-1]
}

func (s *DeliveryService) record(ctx context.Context, req DeliveryRequest, r *DeliveryResult) {
	if !s.deps.Registrations.Enabled() {
		return
	}

	data, err := SubmissionJSON(req.Submission)
	if err != nil {
		log.Printf("Warning: %v", err)
	}

	reg := &models.Registration{
		ID:                r.RegistrationID,
		ClientName:        req.Submission.FullName(),
		Email:             req.Submission.Email,
		PlanTitle:         req.Submission.SelectedPlan.Title,
		CheckoutSessionID: req.SessionID,
		Status:            r.RegistrationStatus(),
		ClientNotified:    r.Emails.ClientSent,
		OwnerNotified:     r.Emails.OwnerSent,
		Data:              data,
	}
	if r.Payment != nil {
		reg.PaymentStatus = r.Payment.PaymentStatus
	}

	byKind := lo.KeyBy(r.Uploads, func(u storage.UploadResult) models.DocumentKind { return u.Kind })
	for _, d := range r.Documents {
		doc := models.ContractDocument{
			ID:             uuid.New().String(),
			RegistrationID: r.RegistrationID,
			Kind:           string(d.Type),
			Tier:           string(d.Delivery),
			URL:            d.URL,
			Error:          d.Error,
		}
		if u, ok := byKind[d.Type]; ok {
			doc.ObjectKey = u.Key
			doc.LocalPath = u.LocalPath
			doc.FileSize = u.Size
		}
		reg.Documents = append(reg.Documents, doc)
	}

	if err := s.deps.Registrations.Record(ctx, reg); err != nil {
		log.Printf("Warning: registration %s not recorded: %v", r.RegistrationID, err)
	}
}

func (s *DeliveryService) publish(ctx context.Context, req DeliveryRequest, r *DeliveryResult) {
	ev := events.RegistrationEvent{
		Type:           events.TypeRegistrationCompleted,
		RegistrationID: r.RegistrationID,
		ClientName:     req.Submission.FullName(),
		Email:          req.Submission.Email,
		Plan:           req.Submission.SelectedPlan.Title,
		Status:         r.RegistrationStatus(),
		ClientNotified: r.Emails.ClientSent,
		OwnerNotified:  r.Emails.OwnerSent,
		OccurredAt:     s.now().UTC(),
	}
	byKind := lo.KeyBy(r.Uploads, func(u storage.UploadResult) models.DocumentKind { return u.Kind })
	for _, d := range r.Documents {
		ev.Documents = append(ev.Documents, events.DocumentEvent{
			Kind: string(d.Type),
			Tier: string(d.Delivery),
			Key:  byKind[d.Type].Key,
			URL:  d.URL,
		})
	}

	if err := s.deps.Publisher.Publish(ctx, ev); err != nil && !errors.Is(err, context.Canceled) {
		log.Printf("Warning: registration event %s not published: %v", r.RegistrationID, err)
	}
}
