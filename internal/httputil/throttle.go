// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package httputil

import (
	"context"

	"golang.org/x/time/rate"
)

// Throttle spaces requests to one upstream. A nil *Throttle never waits.
type Throttle struct {
	limiter *rate.Limiter
}

// NewThrottle allows perSecond requests per second with a burst of one.
// A non-positive rate disables throttling.
func NewThrottle(perSecond float64) *Throttle {
	if perSecond <= 0 {
		return nil
	}
	return &Throttle{limiter: rate.NewLimiter(rate.Limit(perSecond), 1)}
}

// Wait blocks until the next request may be sent or ctx is done.
func (t *Throttle) Wait(ctx context.Context) error {
	if t == nil {
		return nil
	}
	return t.limiter.Wait(ctx)
}
