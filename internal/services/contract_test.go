package services

import (
	"context"
	"encoding/json"
	"testing"

	"FIT-CONTRACTS/internal/models"
	"FIT-CONTRACTS/internal/processor"
	"FIT-CONTRACTS/internal/storage"
	"FIT-CONTRACTS/internal/templates"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAssembler(t *testing.T, store storage.ObjectStore, skip ...models.DocumentKind) *ContractAssembler {
	t.Helper()
	catalog, err := templates.Default()
	require.NoError(t, err)
	dir := bundleTemplates(t, catalog, skip...)
	tmpl := NewTemplateService(store, catalog, dir)
	return NewContractAssembler(tmpl, processor.NewFiller(jsonEngine{}, nil))
}

func documentValues(t *testing.T, doc *models.FilledDocument) map[string]string {
	t.Helper()
	require.NotNil(t, doc)
	var values map[string]string
	require.NoError(t, json.Unmarshal(doc.Data, &values))
	return values
}

func TestAssembleProducesAllThree(t *testing.T) {
	a := newAssembler(t, nil)

	result := a.Assemble(context.Background(), janeSmith())

	require.Len(t, result.Slots, 3)
	assert.Equal(t, 3, result.Produced())
	for i, kind := range models.DocumentKinds {
		assert.Equal(t, kind, result.Slots[i].Kind)
		assert.NoError(t, result.Slots[i].Err)
		assert.Equal(t, "Jane Smith", result.Slots[i].Document.ClientName)
	}

	reg := documentValues(t, result.Slots[0].Document)
	assert.Equal(t, "Jane", reg["firstName"])
	assert.Equal(t, "Steady Climb", reg["selectedPlan.title"])
	assert.Equal(t, "555-0199", reg["Emergency_Contact_Phone_Number"])

	agreement := documentValues(t, result.Slots[1].Document)
	assert.Equal(t, "Jane Smith", agreement["Client_Name"])
	assert.Equal(t, "$340", agreement["Total_Due"])
}

func TestAssembleIsolatesTemplateFailure(t *testing.T) {
	a := newAssembler(t, nil, models.KindWaiver)

	result := a.Assemble(context.Background(), janeSmith())

	require.Len(t, result.Slots, 3)
	assert.Equal(t, 2, result.Produced())
	assert.NotNil(t, result.Slots[0].Document)
	assert.NotNil(t, result.Slots[1].Document)

	waiver := result.Slots[2]
	assert.Equal(t, models.KindWaiver, waiver.Kind)
	assert.Nil(t, waiver.Document)
	assert.ErrorIs(t, waiver.Err, models.ErrTemplateLoad)
}

func TestAssembleCorruptTemplateFromStorage(t *testing.T) {
	store := newMemStore()
	catalog, err := templates.Default()
	require.NoError(t, err)
	desc, _ := catalog.Get(models.KindAgreement)
	store.objects[desc.StorageKey()] = []byte("%PDF-not-a-form")

	a := newAssembler(t, store)
	result := a.Assemble(context.Background(), janeSmith())

	assert.Equal(t, 2, result.Produced())
	assert.ErrorIs(t, result.Slots[1].Err, models.ErrTemplateLoad)
}
