package processor

import (
	"testing"
	"time"

	"FIT-CONTRACTS/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedClock() time.Time {
	return time.Date(2026, time.March, 14, 9, 30, 0, 0, time.UTC)
}

func textField(name string) models.TemplateField {
	return models.TemplateField{Name: name, Kind: models.FieldText}
}

func TestTokenizeFieldName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Emergency_Contact_Phone_Number", "emergency contact phone number"},
		{"emergencyContactPhone", "emergency contact phone"},
		{"selectedPlan.title", "selected plan title"},
		{"DOB", "dob"},
		{"address1", "address 1"},
		{"  Client--Name ", "client name"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, TokenizeFieldName(tt.in))
		})
	}
}

func TestMatcher_DirectPathFields(t *testing.T) {
	m := NewMatcher(DefaultMappings(), fixedClock)
	sub := janeSmith()

	want := map[string]string{
		"firstName":          "Jane",
		"lastName":           "Smith",
		"email":              "jane@x.com",
		"selectedPlan.title": "Steady Climb",
		"selectedPlan.price": "$240",
	}
	for name, expected := range want {
		v, ok := m.Match(textField(name), sub)
		require.True(t, ok, name)
		assert.Equal(t, expected, v.Text, name)
	}
}

func TestMatcher_EmergencyPhoneIgnoresCasingAndUnderscores(t *testing.T) {
	m := NewMatcher(DefaultMappings(), fixedClock)
	sub := janeSmith()
	sub.Phone = "555-0100"
	sub.EmergencyContact = models.EmergencyContact{Name: "John Smith", Phone: "555-0199", Relationship: "Spouse"}

	for _, name := range []string{"Emergency_Contact_Phone_Number", "EMERGENCY_PHONE", "emergencyPhone", "Emergency Contact Phone"} {
		v, ok := m.Match(textField(name), sub)
		require.True(t, ok, name)
		assert.Equal(t, "555-0199", v.Text, name)
	}

	v, ok := m.Match(textField("Phone_Number"), sub)
	require.True(t, ok)
	assert.Equal(t, "555-0100", v.Text)

	v, ok = m.Match(textField("Emergency_Contact"), sub)
	require.True(t, ok)
	assert.Equal(t, "John Smith", v.Text)

	v, ok = m.Match(textField("Emergency_Relationship"), sub)
	require.True(t, ok)
	assert.Equal(t, "Spouse", v.Text)
}

func TestMatcher_FirstRuleWithValueWins(t *testing.T) {
	m := NewMatcher(DefaultMappings(), fixedClock)
	sub := janeSmith()

	// The emergency rule matches but has no value; the generic name rule
	// must not fill the client's own name in.
	v, ok := m.Match(textField("Emergency_Contact_Name"), sub)
	assert.False(t, ok, "got %+v", v)

	_, ok = m.Match(textField("Emergency_Phone"), sub)
	assert.False(t, ok)

	v, ok = m.Match(textField("Client_Name"), sub)
	require.True(t, ok)
	assert.Equal(t, "Jane Smith", v.Text)
	assert.Equal(t, "full-name", v.Rule)
}

func TestMatcher_PlanFields(t *testing.T) {
	m := NewMatcher(DefaultMappings(), fixedClock)
	sub := janeSmith()

	cases := map[string]string{
		"Plan_Name":          "Steady Climb",
		"Plan_Price":         "$240",
		"Initiation_Fee":     "$100",
		"Number_Of_Sessions": "4 sessions",
		"Total_Due":          "$340",
	}
	for name, want := range cases {
		v, ok := m.Match(textField(name), sub)
		require.True(t, ok, name)
		assert.Equal(t, want, v.Text, name)
	}

	_, ok := m.Match(textField("Plan_Duration"), sub)
	assert.False(t, ok, "duration is empty in the submission")
}

func TestMatcher_CurrentDateUsesClock(t *testing.T) {
	m := NewMatcher(DefaultMappings(), fixedClock)
	v, ok := m.Match(textField("Agreement_Date"), janeSmith())
	require.True(t, ok)
	assert.Equal(t, "03/14/2026", v.Text)

	sub := janeSmith()
	sub.DateOfBirth = "1990-07-04"
	v, ok = m.Match(textField("Date_Of_Birth"), sub)
	require.True(t, ok)
	assert.Equal(t, "07/04/1990", v.Text)
}

func TestMatcher_Deterministic(t *testing.T) {
	m := NewMatcher(DefaultMappings(), fixedClock)
	sub := janeSmith()
	sub.Address = models.Address{Street: "1 Main St", City: "Springfield", State: "il", Zip: "62701"}

	names := []string{"firstName", "Participant_Address", "State", "Plan_Price", "Waiver_Date", "Unknown_Field"}
	for _, name := range names {
		first, firstOK := m.Match(textField(name), sub)
		for i := 0; i < 20; i++ {
			again, ok := m.Match(textField(name), sub)
			assert.Equal(t, firstOK, ok, name)
			assert.Equal(t, first, again, name)
		}
	}

	v, ok := m.Match(textField("State"), sub)
	require.True(t, ok)
	assert.Equal(t, "IL", v.Text)
	v, ok = m.Match(textField("Participant_Address"), sub)
	require.True(t, ok)
	assert.Equal(t, "1 Main St, Springfield, il 62701", v.Text)
}

func TestMatcher_SignatureFieldsUseSignatureRules(t *testing.T) {
	m := NewMatcher(DefaultMappings(), fixedClock)
	sub := janeSmith()
	sub.Signatures = models.Signatures{Client: "data:image/png;base64,AAAA", Initials: "data:image/png;base64,BBBB"}

	v, ok := m.Match(models.TemplateField{Name: "clientSignature", Kind: models.FieldSignature}, sub)
	require.True(t, ok)
	assert.Equal(t, models.FieldSignature, v.Kind)
	assert.Equal(t, "data:image/png;base64,AAAA", v.Signature)
	assert.Empty(t, v.Text)

	v, ok = m.Match(models.TemplateField{Name: "clientInitials", Kind: models.FieldSignature}, sub)
	require.True(t, ok)
	assert.Equal(t, "data:image/png;base64,BBBB", v.Signature)

	// As a text field the same name must never pick up a text value.
	_, ok = m.Match(textField("clientSignature"), sub)
	assert.False(t, ok)

	_, ok = m.Match(models.TemplateField{Name: "Guardian_Signature", Kind: models.FieldSignature}, sub)
	assert.False(t, ok, "no guardian signature captured")
}

func TestMatcher_Checkboxes(t *testing.T) {
	m := NewMatcher(DefaultMappings(), fixedClock)
	sub := janeSmith()
	sub.Gender = "Female"
	sub.Medical.HeartCondition = true

	check := func(name string) (bool, bool) {
		v, ok := m.Match(models.TemplateField{Name: name, Kind: models.FieldCheckbox}, sub)
		return v.Checked, ok
	}

	checked, ok := check("Heart_Condition")
	require.True(t, ok)
	assert.True(t, checked)

	checked, ok = check("Heart_Condition_No")
	require.True(t, ok)
	assert.False(t, checked)

	checked, ok = check("Asthma")
	require.True(t, ok)
	assert.False(t, checked)

	checked, ok = check("Female")
	require.True(t, ok)
	assert.True(t, checked)

	checked, ok = check("Male")
	require.True(t, ok)
	assert.False(t, checked)

	_, ok = check("Smoker")
	assert.False(t, ok)
}

func TestTransforms(t *testing.T) {
	assert.Equal(t, "$240", TransformMoney("240"))
	assert.Equal(t, "$1,200.50", TransformMoney("$1,200.50"))
	assert.Equal(t, "$1,200", TransformMoney(" 1,200 "))
	assert.Equal(t, "$240/month", TransformMoney("$240/month"))
	assert.Equal(t, "$240/month", TransformMoney("240/month"))
	assert.Equal(t, "n/a", TransformMoney("n/a"))
	assert.Equal(t, "NaN", TransformMoney("NaN"))
	assert.Equal(t, "1e30", TransformMoney("1e30"))
	assert.Equal(t, "12/31/2025", TransformDate("2025-12-31"))
	assert.Equal(t, "next week", TransformDate("next week"))
	assert.Equal(t, "CA", TransformUpper("ca"))
}
