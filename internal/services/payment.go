package services

import (
	"context"
	"fmt"
	"strings"

	"FIT-CONTRACTS/internal/models"

	"github.com/stripe/stripe-go/v79"
	"github.com/stripe/stripe-go/v79/client"
)

// checkoutSessions is the part of the Stripe client the service calls.
type checkoutSessions interface {
	New(params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error)
	Get(id string, params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error)
}

type PaymentConfig struct {
	SecretKey  string
	Currency   string
	SuccessURL string
	CancelURL  string
}

type CheckoutRequest struct {
	Plan       models.Plan `json:"plan" binding:"required"`
	Email      string      `json:"email"`
	ClientName string      `json:"clientName"`
}

type CheckoutSession struct {
	ID  string `json:"sessionId"`
	URL string `json:"url"`
}

type PaymentStatus struct {
	SessionID     string `json:"sessionId"`
	Paid          bool   `json:"paid"`
	Status        string `json:"status"`
	PaymentStatus string `json:"paymentStatus"`
	AmountTotal   int64  `json:"amountTotal"`
	Currency      string `json:"currency"`
	CustomerEmail string `json:"customerEmail,omitempty"`
}

type PaymentService struct {
	sessions checkoutSessions
	cfg      PaymentConfig
}

func NewPaymentService(cfg PaymentConfig) *PaymentService {
	sc := client.New(cfg.SecretKey, nil)
	return newPaymentService(sc.CheckoutSessions, cfg)
}

func newPaymentService(sessions checkoutSessions, cfg PaymentConfig) *PaymentService {
	if cfg.Currency == "" {
		cfg.Currency = string(stripe.CurrencyUSD)
	}
	return &PaymentService{sessions: sessions, cfg: cfg}
}

// CreateCheckout opens a hosted checkout for the plan price plus the
// initiation fee. The success URL carries {CHECKOUT_SESSION_ID}.
func (s *PaymentService) CreateCheckout(ctx context.Context, req CheckoutRequest) (*CheckoutSession, error) {
	price, err := models.ParseCents(req.Plan.Price)
	if err != nil {
		return nil, fmt.Errorf("%w: plan price: %v", models.ErrInvalidSubmission, err)
	}
	title := strings.TrimSpace(req.Plan.Title)
	if title == "" {
		title = "Membership"
	}

	items := []*stripe.CheckoutSessionLineItemParams{
		s.lineItem(title, req.Plan.Sessions, price),
	}
	if fee, err := models.ParseCents(req.Plan.InitiationFee); err == nil && fee > 0 {
		items = append(items, s.lineItem("Initiation fee", "", fee))
	}

	params := &stripe.CheckoutSessionParams{
		Mode:       stripe.String(string(stripe.CheckoutSessionModePayment)),
		LineItems:  items,
		SuccessURL: stripe.String(s.successURL()),
		CancelURL:  stripe.String(s.cfg.CancelURL),
	}
	if req.Email != "" {
		params.CustomerEmail = stripe.String(req.Email)
	}
	params.AddMetadata("plan", title)
	if req.ClientName != "" {
		params.AddMetadata("client", req.ClientName)
	}
	params.Context = ctx

	sess, err := s.sessions.New(params)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrPaymentUnavailable, err)
	}
	return &CheckoutSession{ID: sess.ID, URL: sess.URL}, nil
}

func (s *PaymentService) lineItem(name, description string, cents int64) *stripe.CheckoutSessionLineItemParams {
	product := &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
		Name: stripe.String(name),
	}
	if description != "" {
		product.Description = stripe.String(description)
	}
	return &stripe.CheckoutSessionLineItemParams{
		PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
			Currency:    stripe.String(s.cfg.Currency),
			ProductData: product,
			UnitAmount:  stripe.Int64(cents),
		},
		Quantity: stripe.Int64(1),
	}
}

func (s *PaymentService) successURL() string {
	u := s.cfg.SuccessURL
	if strings.Contains(u, "{CHECKOUT_SESSION_ID}") {
		return u
	}
	sep := "?"
	if strings.Contains(u, "?") {
		sep = "&"
	}
	return u + sep + "session_id={CHECKOUT_SESSION_ID}"
}

// Verify looks a session up. A gateway failure is ErrPaymentUnavailable;
// an unpaid session is returned with Paid false and no error.
func (s *PaymentService) Verify(ctx context.Context, sessionID string) (*PaymentStatus, error) {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return nil, fmt.Errorf("%w: empty checkout session id", models.ErrInvalidSubmission)
	}

	params := &stripe.CheckoutSessionParams{}
	params.Context = ctx

	sess, err := s.sessions.Get(sessionID, params)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrPaymentUnavailable, err)
	}

	status := &PaymentStatus{
		SessionID:     sess.ID,
		Status:        string(sess.Status),
		PaymentStatus: string(sess.PaymentStatus),
		AmountTotal:   sess.AmountTotal,
		Currency:      string(sess.Currency),
		CustomerEmail: sess.CustomerEmail,
	}
	status.Paid = sess.PaymentStatus == stripe.CheckoutSessionPaymentStatusPaid ||
		sess.PaymentStatus == stripe.CheckoutSessionPaymentStatusNoPaymentRequired
	return status, nil
}
