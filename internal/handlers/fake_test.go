package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"FIT-CONTRACTS/internal/mail"
	"FIT-CONTRACTS/internal/models"
	"FIT-CONTRACTS/internal/processor"
	"FIT-CONTRACTS/internal/services"
	"FIT-CONTRACTS/internal/storage"
	"FIT-CONTRACTS/internal/templates"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// jsonEngine reads a template as a JSON list of form fields.
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

type memStore struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func (m *memStore) Put(_ context.Context, key, _ string, data []byte) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[key] = data
	return "https://bucket.example/" + key, nil
}

func (m *memStore) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
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

func (m *memStore) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.objects)
}

type fakeMailer struct {
	mu   sync.Mutex
	sent []mail.Message
}

func (m *fakeMailer) Send(_ context.Context, msg mail.Message) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, msg)
	return "msg", nil
}

type testServer struct {
	router        *gin.Engine
	store         *memStore
	mailer        *fakeMailer
	registrations *services.RegistrationService
}

type serverOptions struct {
	requirePayment bool
	noTemplates    bool
	adminSecret    string
	maxUploadMB    int64
	// withDB records registrations in an in-memory sqlite database.
	withDB bool
}

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", name)), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.Registration{}, &models.ContractDocument{}))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db
}

// bundleTemplates writes a jsonEngine template for each catalog entry.
func bundleTemplates(t *testing.T, catalog *templates.Catalog) string {
	t.Helper()
	dir := t.TempDir()
	for _, desc := range catalog.All() {
		var fields []processor.FormField
		for _, f := range desc.Fields {
			if f.Kind != models.FieldSignature {
				fields = append(fields, processor.FormField{Name: f.Name, Kind: f.Kind})
			}
		}
		data, err := json.Marshal(fields)
		require.NoError(t, err)
		path := filepath.Join(dir, desc.BundledPath)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
		require.NoError(t, os.WriteFile(path, data, 0644))
	}
	return dir
}

func newTestServer(t *testing.T, opts serverOptions) *testServer {
	t.Helper()
	catalog, err := templates.Default()
	require.NoError(t, err)

	baseDir := t.TempDir()
	if !opts.noTemplates {
		baseDir = bundleTemplates(t, catalog)
	}

	ts := &testServer{
		store:         &memStore{objects: make(map[string][]byte)},
		mailer:        &fakeMailer{},
		registrations: services.NewRegistrationService(nil),
	}
	if opts.withDB {
		ts.registrations = services.NewRegistrationService(openTestDB(t))
	}

	var tmplStore storage.ObjectStore
	if !opts.noTemplates {
		tmplStore = ts.store
	}
	tmpl := services.NewTemplateService(tmplStore, catalog, baseDir)
	notifier, err := services.NewNotifier(ts.mailer, services.NotifierConfig{
		From:         "Studio <hello@studio.test>",
		OwnerEmail:   "owner@studio.test",
		BusinessName: "Summit Fitness",
	})
	require.NoError(t, err)

	delivery := services.NewDeliveryService(services.DeliveryDeps{
		RequirePayment: opts.requirePayment,
		Assembler:      services.NewContractAssembler(tmpl, processor.NewFiller(jsonEngine{}, nil)),
		Uploader:       storage.NewUploader(ts.store, t.TempDir()),
		Notifier:       notifier,
		Registrations:  ts.registrations,
	})

	ts.router = NewRouter(RouterConfig{AdminSecret: opts.adminSecret, MaxUploadMB: opts.maxUploadMB}, RouterDeps{
		Delivery:      delivery,
		Templates:     tmpl,
		Engine:        jsonEngine{},
		Registrations: ts.registrations,
		ActivityLogs:  services.NewActivityLogService(nil),
		Store:         ts.store,
	})
	return ts
}

func janeSmith() map[string]any {
	return map[string]any{
		"firstName": "Jane",
		"lastName":  "Smith",
		"email":     "jane@x.com",
		"phone":     "555-0100",
		"selectedPlan": map[string]any{
			"title":         "Steady Climb",
			"price":         "$240",
			"initiationFee": "$100",
		},
	}
}

func signaturePNG(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 8, 4))
	img.Set(1, 1, color.Black)
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}
