package nscache

import (
	"context"
	"errors"
)

// Healthcheck returns a closure that validates store connectivity through
// the cache. Compatible with health endpoints that expect
// func(context.Context) error.
func Healthcheck(c Cache) func(context.Context) error {
	return func(ctx context.Context) error {
		if c == nil {
			return ErrHealthcheckFailed
		}
		if err := c.Ping(ctx); err != nil {
			return errors.Join(ErrHealthcheckFailed, err)
		}
		return nil
	}
}
