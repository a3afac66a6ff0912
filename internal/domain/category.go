package domain

import "time"

// CategoryKind groups transaction categories by direction.
type CategoryKind string

const (
	CategoryIncome  CategoryKind = "income"
	CategoryExpense CategoryKind = "expense"
)

// Category labels transactions and import items.
type Category struct {
	ID        string
	OwnerID   string
	OrgID     string
	Name      string
	Kind      CategoryKind
	CreatedAt time.Time
}

// Validate checks category fields.
func (c *Category) Validate() error {
	if err := ValidateName(c.Name); err != nil {
		return err
	}

	if c.Kind != CategoryIncome && c.Kind != CategoryExpense {
		return &ValidationError{Field: "kind", Message: "must be income or expense"}
	}

	return nil
}
