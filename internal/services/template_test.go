package services

import (
	"context"
	"testing"

	"FIT-CONTRACTS/internal/models"
	"FIT-CONTRACTS/internal/templates"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTemplateLoadPrefersStorage(t *testing.T) {
	catalog, err := templates.Default()
	require.NoError(t, err)
	desc, _ := catalog.Get(models.KindRegistration)

	store := newMemStore()
	store.objects[desc.StorageKey()] = []byte("from-bucket")
	svc := NewTemplateService(store, catalog, bundleTemplates(t, catalog))

	data, err := svc.Load(context.Background(), desc)
	require.NoError(t, err)
	assert.Equal(t, []byte("from-bucket"), data)
}

func TestTemplateLoadFallsBackToBundled(t *testing.T) {
	catalog, err := templates.Default()
	require.NoError(t, err)
	desc, _ := catalog.Get(models.KindWaiver)

	store := newMemStore()
	store.getErr = errGatewayDown
	svc := NewTemplateService(store, catalog, bundleTemplates(t, catalog))

	data, err := svc.Load(context.Background(), desc)
	require.NoError(t, err)
	assert.Equal(t, formTemplate(t, desc), data)
}

func TestTemplateLoadBothMissing(t *testing.T) {
	catalog, err := templates.Default()
	require.NoError(t, err)
	desc, _ := catalog.Get(models.KindAgreement)

	svc := NewTemplateService(newMemStore(), catalog, t.TempDir())

	_, err = svc.Load(context.Background(), desc)
	assert.ErrorIs(t, err, models.ErrTemplateLoad)
	assert.Contains(t, err.Error(), "training-agreement")
}

func TestTemplateSync(t *testing.T) {
	catalog, err := templates.Default()
	require.NoError(t, err)
	store := newMemStore()
	svc := NewTemplateService(store, catalog, bundleTemplates(t, catalog))

	keys, err := svc.Sync(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{
		"templates/registration-form.pdf",
		"templates/training-agreement.pdf",
		"templates/liability-waiver.pdf",
	}, keys)
	assert.Len(t, store.objects, 3)
}

func TestTemplateDescriptorUnknownKind(t *testing.T) {
	catalog, err := templates.Default()
	require.NoError(t, err)
	svc := NewTemplateService(nil, catalog, "")

	_, err = svc.Descriptor("invoice")
	assert.ErrorIs(t, err, models.ErrUnknownKind)
}
