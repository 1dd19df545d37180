package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEntityLink_IsLinked(t *testing.T) {
	assert.False(t, NoLink.IsLinked())
	assert.False(t, EntityLink{}.IsLinked(), "zero value is unpublished")
	assert.True(t, MilestoneLink("m1").IsLinked())
	assert.True(t, DeliverableLink("d1").IsLinked())
}

func TestSnapshotOriginal(t *testing.T) {
	billable := 12500.0
	end := testNow.AddDate(0, 1, 0)
	m := &Milestone{
		ID:                "m1",
		BaselineEnd:       &end,
		BaselineBillable:  &billable,
		SupplierSignature: sigAt("u1", "Supplier PM", testNow),
		CustomerSignature: sigAt("u2", "Customer PM", testNow),
	}

	v := SnapshotOriginal("bv1", m, testNow)
	assert.Equal(t, OriginalBaselineVersion, v.Version)
	assert.Equal(t, "m1", v.MilestoneID)
	assert.Equal(t, "u1", v.SupplierSignature.SignerID)
	assert.Equal(t, "u2", v.CustomerSignature.SignerID)
	assert.Equal(t, billable, *v.BaselineBillable)
	assert.Nil(t, v.VariationID)
}
