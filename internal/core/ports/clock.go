package ports

import "time"

// Clock is the time source of the application layer.
type Clock interface {
	Now() time.Time
}
