package services

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"
	"log"
	netmail "net/mail"
	"strings"

	"FIT-CONTRACTS/internal/mail"
	"FIT-CONTRACTS/internal/models"
	"FIT-CONTRACTS/internal/storage"

	"golang.org/x/sync/errgroup"
)

//go:embed emails/*.html
var emailTemplates embed.FS

type NotifierConfig struct {
	From            string
	OwnerEmail      string
	BusinessName    string
	AttachDocuments bool
}

type NotifyInput struct {
	Submission models.ClientSubmission
	// OwnerEmail overrides the configured owner address when set.
	OwnerEmail string
	Uploads    []storage.UploadResult
	Documents  []models.FilledDocument
	// Summary is an optional PDF attached to the owner message.
	Summary []byte
}

type NotifyResult struct {
	ClientSent  bool   `json:"clientSent"`
	OwnerSent   bool   `json:"ownerSent"`
	ClientError string `json:"clientError,omitempty"`
	OwnerError  string `json:"ownerError,omitempty"`
}

type Notifier struct {
	mailer mail.Mailer
	cfg    NotifierConfig
	client *template.Template
	owner  *template.Template
}

func NewNotifier(mailer mail.Mailer, cfg NotifierConfig) (*Notifier, error) {
	funcs := template.FuncMap{"join": strings.Join}
	client, err := template.New("client.html").Funcs(funcs).ParseFS(emailTemplates, "emails/client.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse client email template: %w", err)
	}
	owner, err := template.New("owner.html").Funcs(funcs).ParseFS(emailTemplates, "emails/owner.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse owner email template: %w", err)
	}
	if cfg.BusinessName == "" {
		cfg.BusinessName = "our studio"
	}
	return &Notifier{mailer: mailer, cfg: cfg, client: client, owner: owner}, nil
}

type documentLine struct {
	Title     string
	Tier      storage.Tier
	URL       string
	LocalPath string
	Error     string
	Delivered bool
}

func documentLines(uploads []storage.UploadResult) []documentLine {
	lines := make([]documentLine, 0, len(uploads))
	for _, u := range uploads {
		line := documentLine{
			Title:     u.Kind.Title(),
			Tier:      u.Tier,
			URL:       u.URL,
			LocalPath: u.LocalPath,
			Delivered: u.Delivered(),
		}
		if u.Err != nil {
			line.Error = u.Err.Error()
		}
		lines = append(lines, line)
	}
	return lines
}

// Notify sends the client confirmation and the owner notification
// independently. It never returns an error; each side reports its own
// outcome and nothing is retried.
func (n *Notifier) Notify(ctx context.Context, in NotifyInput) NotifyResult {
	var result NotifyResult
	owner := in.OwnerEmail
	if owner == "" {
		owner = n.cfg.OwnerEmail
	}

	var g errgroup.Group
	g.Go(func() error {
		if err := n.sendClient(ctx, in); err != nil {
			log.Printf("Warning: client email to %q not sent: %v", in.Submission.Email, err)
			result.ClientError = err.Error()
			return nil
		}
		result.ClientSent = true
		return nil
	})
	g.Go(func() error {
		if err := n.sendOwner(ctx, owner, in); err != nil {
			log.Printf("Warning: owner email to %q not sent: %v", owner, err)
			result.OwnerError = err.Error()
			return nil
		}
		result.OwnerSent = true
		return nil
	})
	g.Wait()

	return result
}

func (n *Notifier) sendClient(ctx context.Context, in NotifyInput) error {
	to, err := validAddress(in.Submission.Email)
	if err != nil {
		return err
	}

	attach := n.cfg.AttachDocuments && len(in.Documents) > 0
	var body bytes.Buffer
	err = n.client.Execute(&body, map[string]any{
		"Business":  n.cfg.BusinessName,
		"FirstName": in.Submission.FirstName,
		"Plan":      in.Submission.SelectedPlan.Title,
		"StartDate": in.Submission.StartDate,
		"Documents": documentLines(in.Uploads),
		"Attached":  attach,
	})
	if err != nil {
		return fmt.Errorf("failed to render client email: %w", err)
	}

	msg := mail.Message{
		From:    n.cfg.From,
		To:      to,
		Subject: fmt.Sprintf("Your %s membership contracts", n.cfg.BusinessName),
		HTML:    body.String(),
	}
	if attach {
		msg.Attachments = documentAttachments(in.Documents)
	}
	return n.send(ctx, msg)
}

func (n *Notifier) sendOwner(ctx context.Context, owner string, in NotifyInput) error {
	to, err := validAddress(owner)
	if err != nil {
		return err
	}

	lines := documentLines(in.Uploads)
	followUp := len(in.Uploads) < len(models.DocumentKinds)
	for _, l := range lines {
		if l.Tier != storage.TierRemote {
			followUp = true
		}
	}

	var body bytes.Buffer
	err = n.owner.Execute(&body, map[string]any{
		"Client":        in.Submission,
		"Conditions":    in.Submission.Medical.Reported(),
		"Documents":     lines,
		"NeedsFollowUp": followUp,
	})
	if err != nil {
		return fmt.Errorf("failed to render owner email: %w", err)
	}

	subject := "New registration: " + in.Submission.FullName()
	if plan := in.Submission.SelectedPlan.Title; plan != "" {
		subject += " (" + plan + ")"
	}

	msg := mail.Message{
		From:    n.cfg.From,
		To:      to,
		Subject: subject,
		HTML:    body.String(),
	}
	if n.cfg.AttachDocuments {
		msg.Attachments = documentAttachments(in.Documents)
	}
	if len(in.Summary) > 0 {
		msg.Attachments = append(msg.Attachments, mail.Attachment{
			Filename:    "registration-summary.pdf",
			ContentType: "application/pdf",
			Content:     in.Summary,
		})
	}
	return n.send(ctx, msg)
}

func (n *Notifier) send(ctx context.Context, msg mail.Message) error {
	if n.mailer == nil {
		return fmt.Errorf("no email provider configured")
	}
	_, err := n.mailer.Send(ctx, msg)
	return err
}

func documentAttachments(docs []models.FilledDocument) []mail.Attachment {
	out := make([]mail.Attachment, 0, len(docs))
	for _, d := range docs {
		out = append(out, mail.Attachment{
			Filename:    d.Filename(),
			ContentType: "application/pdf",
			Content:     d.Data,
		})
	}
	return out
}

func validAddress(addr string) (string, error) {
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return "", mail.ErrNoRecipient
	}
	parsed, err := netmail.ParseAddress(addr)
	if err != nil {
		return "", fmt.Errorf("invalid email address %q: %w", addr, err)
	}
	return parsed.Address, nil
}
