package holiday

import "context"

type HolidayService interface {
	// List returns holidays between start and end (YYYY-MM-DD, both inclusive)
	List(ctx context.Context, start, end string) ([]HolidayResponse, error)
}
