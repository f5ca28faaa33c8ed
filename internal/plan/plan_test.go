package plan

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestByID(t *testing.T) {
	tests := []struct {
		id           string
		wantErr      bool
		userLimit    int
		invoiceLimit int
	}{
		{id: Starter, userLimit: 1, invoiceLimit: 5},
		{id: Pro, userLimit: 5, invoiceLimit: Unlimited},
		{id: Business, userLimit: 10, invoiceLimit: Unlimited},
		{id: Enterprise, userLimit: 25, invoiceLimit: Unlimited},
		{id: "gold", wantErr: true},
		{id: "", wantErr: true},
		{id: "Starter", wantErr: true}, // ids are case sensitive
	}

	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			p, err := ByID(tt.id)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.id, p.ID)
			assert.Equal(t, tt.userLimit, p.UserLimit)
			assert.Equal(t, tt.invoiceLimit, p.InvoiceLimit)
		})
	}
}

func TestIsPaid(t *testing.T) {
	assert.False(t, IsPaid(Starter))
	assert.True(t, IsPaid(Pro))
	assert.True(t, IsPaid(Business))
	assert.True(t, IsPaid(Enterprise))
	assert.False(t, IsPaid("gold"))
}

func TestHasFeature(t *testing.T) {
	starter, _ := ByID(Starter)
	pro, _ := ByID(Pro)
	business, _ := ByID(Business)
	enterprise, _ := ByID(Enterprise)

	assert.False(t, starter.HasFeature(FeatureAnalytics))
	assert.True(t, pro.HasFeature(FeatureAnalytics))
	assert.True(t, pro.HasFeature(FeaturePrioritySupport))
	assert.False(t, pro.HasFeature(FeatureCustomBranding))
	assert.True(t, business.HasFeature(FeatureCustomBranding))
	assert.True(t, business.HasFeature(FeatureAutomation))
	assert.False(t, business.HasFeature(FeatureAPIAccess))
	assert.True(t, enterprise.HasFeature(FeatureAPIAccess))

	// Unknown feature names never pass the gate.
	assert.False(t, enterprise.HasFeature(Feature("timeTravel")))
}

func TestHasInvoiceLimit(t *testing.T) {
	starter, _ := ByID(Starter)
	pro, _ := ByID(Pro)

	assert.True(t, starter.HasInvoiceLimit())
	assert.False(t, pro.HasInvoiceLimit())
}
