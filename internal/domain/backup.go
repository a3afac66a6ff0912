package domain

import "fmt"

// BackupVersion is the current export bundle version.
const BackupVersion = 1

// Backup is a versioned export of one owner's books. Optional arrays may be
// absent on import and default to empty.
type Backup struct {
	Version      int                `json:"version"`
	ExportedAt   string             `json:"exported_at"`
	Accounts     []*Account         `json:"accounts"`
	Categories   []*Category        `json:"categories,omitempty"`
	Transactions []*Transaction     `json:"transactions,omitempty"`
	Transfers    []*Transfer        `json:"transfers,omitempty"`
	Snapshots    []*BalanceSnapshot `json:"snapshots,omitempty"`
	Counts       map[string]int     `json:"counts"`
}

// Validate checks the bundle version and array shapes before applying.
func (b *Backup) Validate() error {
	if b.Version != BackupVersion {
		return &ValidationError{
			Field:   "version",
			Message: fmt.Sprintf("unsupported backup version %d, want %d", b.Version, BackupVersion),
		}
	}

	if b.Accounts == nil {
		return &ValidationError{Field: "accounts", Message: "accounts array is required"}
	}

	for i, a := range b.Accounts {
		if a == nil || a.ID == "" {
			return &ValidationError{Field: "accounts", Message: fmt.Sprintf("malformed account at index %d", i)}
		}
	}

	for i, t := range b.Transactions {
		if t == nil || t.ID == "" || t.AccountID == "" {
			return &ValidationError{Field: "transactions", Message: fmt.Sprintf("malformed transaction at index %d", i)}
		}
	}

	for i, t := range b.Transfers {
		if t == nil || t.ID == "" {
			return &ValidationError{Field: "transfers", Message: fmt.Sprintf("malformed transfer at index %d", i)}
		}
	}

	for i, s := range b.Snapshots {
		if s == nil || s.AccountID == "" || !ValidGranularity(s.Granularity) {
			return &ValidationError{Field: "snapshots", Message: fmt.Sprintf("malformed snapshot at index %d", i)}
		}
	}

	return nil
}

// FillCounts recomputes the bundle's count map from its arrays.
func (b *Backup) FillCounts() {
	b.Counts = map[string]int{
		"accounts":     len(b.Accounts),
		"categories":   len(b.Categories),
		"transactions": len(b.Transactions),
		"transfers":    len(b.Transfers),
		"snapshots":    len(b.Snapshots),
	}
}
