package commands

import (
	"context"
	"time"
)

// requestContext bounds the store calls of one request-driven command. A zero timeout
// returns ctx as is.
func requestContext(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, timeout)
}
