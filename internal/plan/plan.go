package plan

import "fmt"

// Plan identifiers.
const (
	Starter    = "starter"
	Pro        = "pro"
	Business   = "business"
	Enterprise = "enterprise"
)

// Unlimited marks a resource with no monthly cap.
const Unlimited = -1

// Feature is a typed plan capability flag.
type Feature string

const (
	FeatureAnalytics       Feature = "analytics"
	FeaturePrioritySupport Feature = "prioritySupport"
	FeatureCustomBranding  Feature = "customBranding"
	FeatureAutomation      Feature = "automation"
	FeatureAPIAccess       Feature = "apiAccess"
)

// Plan describes a subscription tier and its resource/feature constraints.
// The catalog is authoritative at evaluation time; the user_limit cached on
// the account row is a display convenience only.
type Plan struct {
	ID   string
	Name string

	UserLimit    int
	InvoiceLimit int // invoices per calendar month, Unlimited for no cap

	Analytics       bool
	PrioritySupport bool
	CustomBranding  bool
	Automation      bool
	APIAccess       bool
}

var catalog = map[string]Plan{
	Starter: {
		ID:           Starter,
		Name:         "Starter",
		UserLimit:    1,
		InvoiceLimit: 5,
	},
	Pro: {
		ID:              Pro,
		Name:            "Pro",
		UserLimit:       5,
		InvoiceLimit:    Unlimited,
		Analytics:       true,
		PrioritySupport: true,
	},
	Business: {
		ID:              Business,
		Name:            "Business",
		UserLimit:       10,
		InvoiceLimit:    Unlimited,
		Analytics:       true,
		PrioritySupport: true,
		CustomBranding:  true,
		Automation:      true,
	},
	Enterprise: {
		ID:              Enterprise,
		Name:            "Enterprise",
		UserLimit:       25,
		InvoiceLimit:    Unlimited,
		Analytics:       true,
		PrioritySupport: true,
		CustomBranding:  true,
		Automation:      true,
		APIAccess:       true,
	},
}

// ByID resolves a stored plan identifier to its catalog entry.
func ByID(id string) (Plan, error) {
	p, ok := catalog[id]
	if !ok {
		return Plan{}, fmt.Errorf("unknown plan %q", id)
	}
	return p, nil
}

// IsValid reports whether id names a catalog plan.
func IsValid(id string) bool {
	_, ok := catalog[id]
	return ok
}

// IsPaid reports whether id names a paid tier.
func IsPaid(id string) bool {
	return IsValid(id) && id != Starter
}

// HasFeature reports whether the plan includes the given feature.
func (p Plan) HasFeature(f Feature) bool {
	switch f {
	case FeatureAnalytics:
		return p.Analytics
	case FeaturePrioritySupport:
		return p.PrioritySupport
	case FeatureCustomBranding:
		return p.CustomBranding
	case FeatureAutomation:
		return p.Automation
	case FeatureAPIAccess:
		return p.APIAccess
	}
	return false
}

// HasInvoiceLimit reports whether the plan caps monthly invoice volume.
func (p Plan) HasInvoiceLimit() bool {
	return p.InvoiceLimit != Unlimited
}
