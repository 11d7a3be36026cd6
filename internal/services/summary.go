package services

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"FIT-CONTRACTS/internal/models"

	"github.com/starwalkn/gotenberg-go-client/v8"
	"github.com/starwalkn/gotenberg-go-client/v8/document"
)

// SummaryService renders a one-page registration summary for the owner
// through Gotenberg's Chromium HTML route.
type SummaryService struct {
	client   *gotenberg.Client
	timeout  time.Duration
	business string
	tmpl     *template.Template
	now      func() time.Time
}

func NewSummaryService(gotenbergURL string, timeoutStr string, business string) (*SummaryService, error) {
	timeout, err := time.ParseDuration(timeoutStr)
	if err != nil {
		timeout = 30 * time.Second
		log.Printf("Warning: failed to parse timeout '%s', using default 30s: %v", timeoutStr, err)
	}

	httpClient := &http.Client{
		Timeout: timeout,
	}

	client, err := gotenberg.NewClient(gotenbergURL, httpClient)
	if err != nil {
		return nil, fmt.Errorf("failed to create Gotenberg client: %w", err)
	}

	tmpl, err := template.New("summary.html").
		Funcs(template.FuncMap{"join": strings.Join}).
		ParseFS(emailTemplates, "emails/summary.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse summary template: %w", err)
	}

	return &SummaryService{
		client:   client,
		timeout:  timeout,
		business: business,
		tmpl:     tmpl,
		now:      time.Now,
	}, nil
}

// RenderHTML is the HTML document sent to Gotenberg.
func (s *SummaryService) RenderHTML(sub models.ClientSubmission) ([]byte, error) {
	var buf bytes.Buffer
	err := s.tmpl.Execute(&buf, map[string]any{
		"Business":   s.business,
		"Generated":  s.now().Format("01/02/2006 15:04"),
		"Client":     sub,
		"Conditions": sub.Medical.Reported(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to render summary: %w", err)
	}
	return buf.Bytes(), nil
}

func (s *SummaryService) Render(ctx context.Context, sub models.ClientSubmission) ([]byte, error) {
	html, err := s.RenderHTML(sub)
	if err != nil {
		return nil, err
	}
	return s.convertWithRetry(ctx, html, 2)
}

func (s *SummaryService) convertWithRetry(ctx context.Context, html []byte, maxRetries int) ([]byte, error) {
	var lastErr error

	for attempt := 1; attempt <= maxRetries; attempt++ {
		pdf, err := s.convert(ctx, html)
		if err == nil {
			return pdf, nil
		}

		lastErr = err
		log.Printf("Summary conversion attempt %d/%d failed: %v", attempt, maxRetries, err)

		if attempt < maxRetries {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(time.Duration(attempt) * time.Second):
			}
		}
	}

	return nil, fmt.Errorf("failed to convert summary after %d attempts: %w", maxRetries, lastErr)
}

func (s *SummaryService) convert(ctx context.Context, html []byte) ([]byte, error) {
	convertCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	index, err := document.FromReader("index.html", bytes.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("failed to create document from reader: %w", err)
	}

	req := gotenberg.NewHTMLRequest(index)

	resp, err := s.client.Send(convertCtx, req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("gotenberg returned %s", resp.Status)
	}
	return io.ReadAll(resp.Body)
}
