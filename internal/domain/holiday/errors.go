package holiday

import "errors"

var (
	ErrInvalidDateRange = errors.New("invalid holiday date range")
)
