package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2026, 3, 15, 10, 0, 0, 0, time.UTC)

func sigAt(id, name string, at time.Time) *Signature {
	return &Signature{SignerID: id, SignerName: name, SignedAt: at}
}

func TestSignatureState(t *testing.T) {
	supplier := sigAt("u1", "Supplier PM", testNow)
	customer := sigAt("u2", "Customer PM", testNow)

	cases := []struct {
		name     string
		supplier *Signature
		customer *Signature
		want     SignatureState
	}{
		{"unsigned", nil, nil, StateUnsigned},
		{"supplier only", supplier, nil, StateSupplierOnly},
		{"customer only", nil, customer, StateCustomerOnly},
		{"both", supplier, customer, StateLocked},
	}
	for _, tc := range cases {
		m := &Milestone{SupplierSignature: tc.supplier, CustomerSignature: tc.customer}
		assert.Equal(t, tc.want, m.SignatureState(), tc.name)
	}
}

func TestSetSignature_OverwritesSameRole(t *testing.T) {
	m := &Milestone{}
	require.True(t, m.SetSignature(RoleSupplier, Signature{SignerID: "u1", SignedAt: testNow}))

	later := testNow.Add(time.Hour)
	require.True(t, m.SetSignature(RoleSupplier, Signature{SignerID: "u9", SignedAt: later}))

	require.NotNil(t, m.SupplierSignature)
	assert.Equal(t, "u9", m.SupplierSignature.SignerID)
	assert.Equal(t, later, m.SupplierSignature.SignedAt)
	assert.Equal(t, StateSupplierOnly, m.SignatureState(), "re-signing one role must not complete the pair")
}

func TestSetSignature_UnknownRole(t *testing.T) {
	m := &Milestone{}
	assert.False(t, m.SetSignature(SignerRole("auditor"), Signature{SignerID: "u1"}))
	assert.Nil(t, m.SupplierSignature)
	assert.Nil(t, m.CustomerSignature)
}

func TestClearSignatures(t *testing.T) {
	m := &Milestone{
		SupplierSignature: sigAt("u1", "Supplier PM", testNow),
		CustomerSignature: sigAt("u2", "Customer PM", testNow),
		Locked:            true,
	}
	m.ClearSignatures()
	assert.Nil(t, m.SupplierSignature)
	assert.Nil(t, m.CustomerSignature)
	assert.False(t, m.Locked)
	assert.Equal(t, StateUnsigned, m.SignatureState())
}

func TestEffectiveEnd_Precedence(t *testing.T) {
	end := time.Date(2026, 3, 31, 0, 0, 0, 0, time.UTC)
	baselineEnd := end.AddDate(0, 0, -7)
	forecastEnd := end.AddDate(0, 0, 14)

	m := &Milestone{EndDate: &end, BaselineEnd: &baselineEnd, ForecastEnd: &forecastEnd}
	require.NotNil(t, m.EffectiveEnd())
	assert.Equal(t, forecastEnd, *m.EffectiveEnd(), "forecast end wins when present")

	m.ForecastEnd = nil
	assert.Equal(t, baselineEnd, *m.EffectiveEnd(), "baseline end wins over plain end")

	m.BaselineEnd = nil
	assert.Equal(t, end, *m.EffectiveEnd())

	m.EndDate = nil
	assert.Nil(t, m.EffectiveEnd(), "no usable end date")
}

func TestMarkDeleted_Idempotent(t *testing.T) {
	m := &Milestone{}
	m.MarkDeleted("actor-1", testNow)
	require.True(t, m.IsDeleted)
	require.NotNil(t, m.DeletedAt)

	later := testNow.Add(time.Hour)
	m.MarkDeleted("actor-2", later)
	assert.Equal(t, "actor-1", m.DeletedBy, "repeat delete must not restamp")
	assert.Equal(t, testNow, *m.DeletedAt)
}
