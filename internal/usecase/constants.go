package usecase

const (
	// DefaultPageSize is used when a caller does not specify a limit.
	DefaultPageSize = 20
	// MaxPageSize caps a caller-specified limit.
	MaxPageSize = 100
	// backupPageSize is the chunk size used when exporting full tables.
	backupPageSize = 1000
)

func clampLimit(limit int) int {
	if limit <= 0 {
		return DefaultPageSize
	}

	if limit > MaxPageSize {
		return MaxPageSize
	}

	return limit
}
