package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"FIT-CONTRACTS/internal/events"
	"FIT-CONTRACTS/internal/mail"
	"FIT-CONTRACTS/internal/models"
	"FIT-CONTRACTS/internal/processor"
	"FIT-CONTRACTS/internal/storage"
	"FIT-CONTRACTS/internal/templates"

	"github.com/stretchr/testify/require"
)

// jsonEngine treats a template as a JSON list of form fields and renders
// the filled form as a JSON object of values.
type jsonEngine struct{}

type jsonForm struct {
	fields []processor.FormField
	values map[string]string
}

func (jsonEngine) Open(data []byte) (processor.Form, error) {
	var fields []processor.FormField
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, fmt.Errorf("not a form: %w", err)
	}
	return &jsonForm{fields: fields, values: map[string]string{}}, nil
}

func (f *jsonForm) Fields() []processor.FormField { return f.fields }

func (f *jsonForm) SetText(name, value string) error {
	f.values[name] = value
	return nil
}

func (f *jsonForm) SetChecked(name string, checked bool) error {
	f.values[name] = fmt.Sprint(checked)
	return nil
}

func (f *jsonForm) Value(name string) (string, bool) {
	v, ok := f.values[name]
	return v, ok
}

func (f *jsonForm) StampImage(models.Placement, []byte) error { return nil }
func (f *jsonForm) Flatten() error { return nil }
func (f *jsonForm) Bytes() ([]byte, error) { return json.Marshal(f.values) }

// formTemplate builds the jsonEngine template for a descriptor.
func formTemplate(t *testing.T, desc models.TemplateDescriptor) []byte {
	t.Helper()
	var fields []processor.FormField
	for _, f := range desc.Fields {
		if f.Kind == models.FieldSignature {
			continue
		}
		fields = append(fields, processor.FormField{Name: f.Name, Kind: f.Kind})
	}
	data, err := json.Marshal(fields)
	require.NoError(t, err)
	return data
}

// bundleTemplates writes every catalog template under a fresh base dir,
// skipping the kinds listed.
func bundleTemplates(t *testing.T, catalog *templates.Catalog, skip ...models.DocumentKind) string {
	t.Helper()
	dir := t.TempDir()
	for _, desc := range catalog.All() {
		if contains(skip, desc.Kind) {
			continue
		}
		path := filepath.Join(dir, desc.BundledPath)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
		require.NoError(t, os.WriteFile(path, formTemplate(t, desc), 0644))
	}
	return dir
}

func contains(kinds []models.DocumentKind, k models.DocumentKind) bool {
	for _, x := range kinds {
		if x == k {
			return true
		}
	}
	return false
}

type memStore struct {
	mu      sync.Mutex
	objects map[string][]byte
	putErr  error
	getErr  error
}

func newMemStore() *memStore {
	return &memStore{objects: make(map[string][]byte)}
}

func (m *memStore) Put(_ context.Context, key, _ string, data []byte) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.putErr != nil {
		return "", m.putErr
	}
	m.objects[key] = data
	return "https://bucket.example/" + key, nil
}

func (m *memStore) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return nil, m.getErr
	}
	data, ok := m.objects[key]
	if !ok {
		return nil, storage.ErrObjectNotFound
	}
	return data, nil
}

func (m *memStore) SignedURL(_ context.Context, key string, _ time.Duration) (string, error) {
	return "https://bucket.example/signed/" + key, nil
}

func (m *memStore) Close() error { return nil }

type fakeMailer struct {
	mu     sync.Mutex
	sent   []mail.Message
	failTo map[string]error
}

func (m *fakeMailer) Send(_ context.Context, msg mail.Message) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.failTo[msg.To]; err != nil {
		return "", err
	}
	m.sent = append(m.sent, msg)
	return fmt.Sprintf("msg-%d", len(m.sent)), nil
}

func (m *fakeMailer) to(addr string) *mail.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.sent {
		if m.sent[i].To == addr {
			return &m.sent[i]
		}
	}
	return nil
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.RegistrationEvent
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, ev events.RegistrationEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return p.err
}

func (p *recordingPublisher) Close() error { return nil }

var errGatewayDown = errors.New("gateway down")

func janeSmith() models.ClientSubmission {
	return models.ClientSubmission{
		FirstName: "Jane",
		LastName:  "Smith",
		Email:     "jane@x.com",
		Phone:     "555-0100",
		EmergencyContact: models.EmergencyContact{
			Name:  "John Smith",
			Phone: "555-0199",
		},
		SelectedPlan: models.Plan{
			Title:         "Steady Climb",
			Price:         "$240",
			InitiationFee: "$100",
			Sessions:      "4 sessions",
		},
	}
}
