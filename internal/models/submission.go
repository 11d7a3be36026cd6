package models

import (
	"strings"
)

// ClientSubmission is the normalized record collected by the registration
// form. It is decoded once per registration attempt and never mutated.
type ClientSubmission struct {
	FirstName        string            `json:"firstName"`
	LastName         string            `json:"lastName"`
	Email            string            `json:"email"`
	Phone            string            `json:"phone"`
	DateOfBirth      string            `json:"dateOfBirth"`
	Gender           string            `json:"gender"`
	Address          Address           `json:"address"`
	EmergencyContact EmergencyContact  `json:"emergencyContact"`
	Medical          MedicalConditions `json:"medical"`
	SelectedPlan     Plan              `json:"selectedPlan"`
	Signatures       Signatures        `json:"signatures"`
	StartDate        string            `json:"startDate"`
	Goals            string            `json:"goals"`
}

type Address struct {
	Street string `json:"street"`
	City   string `json:"city"`
	State  string `json:"state"`
	Zip    string `json:"zip"`
}

type EmergencyContact struct {
	Name         string `json:"name"`
	Relationship string `json:"relationship"`
	Phone        string `json:"phone"`
}

type MedicalConditions struct {
	HeartCondition bool   `json:"heartCondition"`
	ChestPain      bool   `json:"chestPain"`
	Dizziness      bool   `json:"dizziness"`
	BoneJoint      bool   `json:"boneJoint"`
	BloodPressure  bool   `json:"bloodPressure"`
	Diabetes       bool   `json:"diabetes"`
	Asthma         bool   `json:"asthma"`
	Pregnancy      bool   `json:"pregnancy"`
	Medications    bool   `json:"medications"`
	Notes          string `json:"notes"`
}

type Plan struct {
	Title         string `json:"title"`
	Price         string `json:"price"`
	Sessions      string `json:"sessions"`
	Duration      string `json:"duration"`
	InitiationFee string `json:"initiationFee"`
}

// Signatures holds data-URL encoded raster images captured by the signature pad.
type Signatures struct {
	Client   string `json:"client"`
	Initials string `json:"initials"`
	Guardian string `json:"guardian"`
}

// FullName joins first and last name, skipping empty parts.
func (s ClientSubmission) FullName() string {
	return strings.TrimSpace(strings.Join(strings.Fields(s.FirstName+" "+s.LastName), " "))
}

// FullAddress renders the multi-part address on one line.
func (a Address) FullAddress() string {
	var parts []string
	if v := strings.TrimSpace(a.Street); v != "" {
		parts = append(parts, v)
	}
	if v := strings.TrimSpace(a.City); v != "" {
		parts = append(parts, v)
	}
	stateZip := strings.TrimSpace(strings.TrimSpace(a.State) + " " + strings.TrimSpace(a.Zip))
	if stateZip != "" {
		parts = append(parts, stateZip)
	}
	return strings.Join(parts, ", ")
}

// Validate checks the fields every contract needs.
func (s ClientSubmission) Validate() error {
	var missing []string
	if strings.TrimSpace(s.FirstName) == "" {
		missing = append(missing, "firstName")
	}
	if strings.TrimSpace(s.LastName) == "" {
		missing = append(missing, "lastName")
	}
	if strings.TrimSpace(s.Email) == "" {
		missing = append(missing, "email")
	}
	if len(missing) > 0 {
		return &ValidationError{Fields: missing}
	}
	return nil
}

// Paths flattens the submission into dotted JSON paths mapped to their
// string values. Boolean flags render as "true"/"false"; derived paths
// (fullName, address.full, selectedPlan.total) are included.
func (s ClientSubmission) Paths() map[string]string {
	m := map[string]string{
		"firstName":                     s.FirstName,
		"lastName":                      s.LastName,
		"fullName":                      s.FullName(),
		"email":                         s.Email,
		"phone":                         s.Phone,
		"dateOfBirth":                   s.DateOfBirth,
		"gender":                        s.Gender,
		"address.street":                s.Address.Street,
		"address.city":                  s.Address.City,
		"address.state":                 s.Address.State,
		"address.zip":                   s.Address.Zip,
		"address.full":                  s.Address.FullAddress(),
		"emergencyContact.name":         s.EmergencyContact.Name,
		"emergencyContact.relationship": s.EmergencyContact.Relationship,
		"emergencyContact.phone":        s.EmergencyContact.Phone,
		"medical.heartCondition":        boolString(s.Medical.HeartCondition),
		"medical.chestPain":             boolString(s.Medical.ChestPain),
		"medical.dizziness":             boolString(s.Medical.Dizziness),
		"medical.boneJoint":             boolString(s.Medical.BoneJoint),
		"medical.bloodPressure":         boolString(s.Medical.BloodPressure),
		"medical.diabetes":              boolString(s.Medical.Diabetes),
		"medical.asthma":                boolString(s.Medical.Asthma),
		"medical.pregnancy":             boolString(s.Medical.Pregnancy),
		"medical.medications":           boolString(s.Medical.Medications),
		"medical.notes":                 s.Medical.Notes,
		"selectedPlan.title":            s.SelectedPlan.Title,
		"selectedPlan.price":            s.SelectedPlan.Price,
		"selectedPlan.sessions":         s.SelectedPlan.Sessions,
		"selectedPlan.duration":         s.SelectedPlan.Duration,
		"selectedPlan.initiationFee":    s.SelectedPlan.InitiationFee,
		"selectedPlan.total":            s.SelectedPlan.Total(),
		"signatures.client":             s.Signatures.Client,
		"signatures.initials":           s.Signatures.Initials,
		"signatures.guardian":           s.Signatures.Guardian,
		"startDate":                     s.StartDate,
		"goals":                         s.Goals,
	}
	for k, v := range m {
		m[k] = strings.TrimSpace(v)
	}
	return m
}

func boolString(b bool) string {
	if b {
		return "true"
	}
	return "false"
}

// Reported lists the conditions the client ticked, in form order.
func (m MedicalConditions) Reported() []string {
	var out []string
	for _, c := range []struct {
		on    bool
		label string
	}{
		{m.HeartCondition, "heart condition"},
		{m.ChestPain, "chest pain"},
		{m.Dizziness, "dizziness"},
		{m.BoneJoint, "bone or joint problem"},
		{m.BloodPressure, "blood pressure"},
		{m.Diabetes, "diabetes"},
		{m.Asthma, "asthma"},
		{m.Pregnancy, "pregnancy"},
		{m.Medications, "prescription medications"},
	} {
		if c.on {
			out = append(out, c.label)
		}
	}
	return out
}
