// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package dispatch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"reflect"
	"sync"
	"time"

	"github.com/pdiddy/deep-research/internal/metrics"
	"github.com/pdiddy/deep-research/pkg/logger"
	"github.com/pdiddy/deep-research/pkg/types"
)

// DefaultTimeout bounds one connector call when Dispatcher.Timeout is zero.
const DefaultTimeout = 30 * time.Second

var errEmptyPayload = errors.New("connector returned no data")

// Invoker executes a resolved call. Connectors implements it.
type Invoker interface {
	Invoke(ctx context.Context, call Call) (any, error)
}

// Dispatcher fans an Intent out to its sources.
type Dispatcher struct {
	Invoker Invoker

	// Timeout bounds each connector call. A timeout is reported as that
	// source's error, like any other connector failure.
	Timeout time.Duration

	Logger *slog.Logger
}

// NewDispatcher returns a Dispatcher over inv with a per-call timeout.
func NewDispatcher(inv Invoker, timeout time.Duration) *Dispatcher {
	return &Dispatcher{Invoker: inv, Timeout: timeout, Logger: logger.Named("dispatch")}
}

// Dispatch resolves and invokes one call per source in intent.Databases,
// all concurrently, and waits for every call to finish. Each failure
// becomes that source's error entry and never affects the others. Results
// follow intent.Databases order. Sources with no rule table are skipped.
func (d *Dispatcher) Dispatch(ctx context.Context, intent types.Intent, limit int) []types.SourceResult {
	log := d.Logger
	if log == nil {
		log = logger.Named("dispatch")
	}

	calls := make([]Call, 0, len(intent.Databases))
	for _, source := range intent.Databases {
		call, ok := Resolve(source, intent, limit)
		if !ok {
			log.Warn("no dispatch rule for source, skipping", "source", source)
			continue
		}
		calls = append(calls, call)
	}

	results := make([]types.SourceResult, len(calls))
	var wg sync.WaitGroup
	for i, call := range calls {
		wg.Add(1)
		go func(i int, call Call) {
			defer wg.Done()
			results[i] = d.run(ctx, call, log)
		}(i, call)
	}
	wg.Wait()

	return results
}

// run executes one call under its own timeout and converts every outcome,
// including a panic, into a SourceResult.
func (d *Dispatcher) run(ctx context.Context, call Call, log *slog.Logger) (result types.SourceResult) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			err := fmt.Errorf("connector panic: %v", r)
			metrics.ObserveSource(string(call.Source), string(call.Operation), start, err)
			log.Error("connector panicked", "source", call.Source, "operation", call.Operation, "panic", r)
			result = types.Failed(call.Source, err)
		}
	}()

	if d.Invoker == nil {
		return types.Failed(call.Source, errNoConnector(call.Source))
	}

	timeout := d.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	callCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	data, err := d.Invoker.Invoke(callCtx, call)
	if err == nil {
		data, err = normalizePayload(data)
	}
	if err != nil && errors.Is(callCtx.Err(), context.DeadlineExceeded) && !errors.Is(err, context.DeadlineExceeded) {
		err = fmt.Errorf("%w (timed out after %s)", err, timeout)
	}
	metrics.ObserveSource(string(call.Source), string(call.Operation), start, err)

	if err != nil {
		log.Warn("source call failed", "source", call.Source, "operation", call.Operation,
			"error", err, "elapsed", time.Since(start))
		return types.Failed(call.Source, err)
	}
	log.Debug("source call succeeded", "source", call.Source, "operation", call.Operation, "elapsed", time.Since(start))
	return types.Succeeded(call.Source, data)
}

// normalizePayload rejects nil and nil-pointer payloads and turns a nil
// slice into an empty one, so a successful entry always carries data.
func normalizePayload(data any) (any, error) {
	if data == nil {
		return nil, errEmptyPayload
	}
	v := reflect.ValueOf(data)
	switch v.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Interface:
		if v.IsNil() {
			return nil, errEmptyPayload
		}
	case reflect.Slice:
		if v.IsNil() {
			return reflect.MakeSlice(v.Type(), 0, 0).Interface(), nil
		}
	}
	return data, nil
}
