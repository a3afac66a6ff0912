package domain

import "strings"

// Capability names the core understands. Callers pass the set they hold;
// the core never fetches permissions on its own.
const (
	CapLedgerRead   = "ledger:read"
	CapLedgerWrite  = "ledger:write"
	CapInvoiceWrite = "invoice:write"
	CapImportWrite  = "import:write"
	CapBackup       = "backup"
)

// CapabilitySet is the set of capabilities granted to a caller.
type CapabilitySet map[string]struct{}

// NewCapabilitySet builds a set from capability names.
func NewCapabilitySet(caps ...string) CapabilitySet {
	set := make(CapabilitySet, len(caps))
	for _, c := range caps {
		c = strings.TrimSpace(c)
		if c != "" {
			set[c] = struct{}{}
		}
	}

	return set
}

// Has reports whether the set contains the capability.
func (s CapabilitySet) Has(cap string) bool {
	_, ok := s[cap]
	return ok
}

// Scope identifies the caller on every core operation: the owning user,
// an optional organization, and the capabilities the caller holds.
type Scope struct {
	Caps    CapabilitySet
	OwnerID string
	OrgID   string
}

// Validate checks the scope carries an owner.
func (s Scope) Validate() error {
	if strings.TrimSpace(s.OwnerID) == "" {
		return &ValidationError{Field: "owner_id", Message: "owner is required"}
	}

	return nil
}

// Require returns an error unless the scope holds the capability.
// An empty capability set means the caller is trusted with everything.
func (s Scope) Require(cap string) error {
	if len(s.Caps) == 0 || s.Caps.Has(cap) {
		return nil
	}

	return &ValidationError{Field: "capabilities", Message: "missing capability " + cap}
}
