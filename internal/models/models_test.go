package models

import (
	"bytes"
	"encoding/base64"
	"errors"
	"image"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPathsDerivedValues(t *testing.T) {
	sub := ClientSubmission{
		FirstName: " Jane ",
		LastName:  "Smith",
		Address:   Address{Street: "1 Main St", City: "Springfield", State: "IL", Zip: "62701"},
		Medical:   MedicalConditions{Asthma: true},
		SelectedPlan: Plan{
			Price:         "$240",
			InitiationFee: "$100",
		},
	}

	p := sub.Paths()
	assert.Equal(t, "Jane", p["firstName"])
	assert.Equal(t, "Jane Smith", p["fullName"])
	assert.Equal(t, "1 Main St, Springfield, IL 62701", p["address.full"])
	assert.Equal(t, "$340", p["selectedPlan.total"])
	assert.Equal(t, "true", p["medical.asthma"])
	assert.Equal(t, "false", p["medical.diabetes"])
}

func TestFullAddressSkipsEmptyParts(t *testing.T) {
	assert.Equal(t, "Springfield, 62701", Address{City: "Springfield", Zip: "62701"}.FullAddress())
	assert.Equal(t, "", Address{}.FullAddress())
}

func TestValidate(t *testing.T) {
	err := ClientSubmission{FirstName: "Jane"}.Validate()
	require.Error(t, err)

	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, []string{"lastName", "email"}, verr.Fields)
	assert.ErrorIs(t, err, ErrInvalidSubmission)

	assert.NoError(t, ClientSubmission{FirstName: "Jane", LastName: "Smith", Email: "jane@x.com"}.Validate())
}

func TestParseCents(t *testing.T) {
	cases := map[string]int64{
		"$240":       24000,
		"240.50":     24050,
		"$1,200":     120000,
		"$99/month":  9900,
		" $0.99 ":    99,
		"$1,000,000": 100000000,
		"12.5":       1250,
	}
	for in, want := range cases {
		got, err := ParseCents(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	for _, bad := range []string{"", "free", "-5", "NaN", "Inf", "+Inf", "1e30", "99999999999999999999", "$1,000,000.01", "240.505"} {
		_, err := ParseCents(bad)
		assert.Error(t, err, bad)
	}
}

func TestPlanTotal(t *testing.T) {
	assert.Equal(t, "$240.50", Plan{Price: "240.50"}.Total())
	assert.Equal(t, "$1340", Plan{Price: "$1,240", InitiationFee: "$100"}.Total())
	assert.Equal(t, "", Plan{Price: "call us", InitiationFee: "$100"}.Total())
	assert.Equal(t, "", Plan{Price: "$240/month", InitiationFee: "$100"}.Total())
	assert.Equal(t, "", Plan{Price: "NaN"}.Total())
	assert.Equal(t, "", Plan{Price: "$240", InitiationFee: "waived"}.Total())
}

func TestIsPlainAmount(t *testing.T) {
	assert.True(t, IsPlainAmount("$1,200.50"))
	assert.True(t, IsPlainAmount("240"))
	assert.False(t, IsPlainAmount("$240/month"))
	assert.False(t, IsPlainAmount("NaN"))
	assert.False(t, IsPlainAmount(""))
}

func TestSignatureDataURL(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewGray(image.Rect(0, 0, 4, 4))))

	url, err := EncodeDataURL(buf.Bytes())
	require.NoError(t, err)
	assert.Contains(t, url, "data:image/png;base64,")

	raw, err := DecodeDataURL(url)
	require.NoError(t, err)
	assert.Equal(t, buf.Bytes(), raw)

	_, err = DecodeDataURL("")
	assert.ErrorIs(t, err, ErrEmptySignature)

	text := "data:image/png;base64," + base64.StdEncoding.EncodeToString([]byte("not an image at all"))
	_, err = DecodeDataURL(text)
	assert.ErrorIs(t, err, ErrInvalidSignature)

	_, err = DecodeDataURL("data:image/png,plain")
	assert.ErrorIs(t, err, ErrInvalidSignature)
}

func TestParseDocumentKind(t *testing.T) {
	k, err := ParseDocumentKind(" Waiver ")
	require.NoError(t, err)
	assert.Equal(t, KindWaiver, k)

	_, err = ParseDocumentKind("invoice")
	assert.ErrorIs(t, err, ErrUnknownKind)
}
