package metrics

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/labstack/echo/v4"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Labels attached to a counter sample.
type Labels map[string]string

type series struct {
	value atomic.Int64
	attrs metric.MeasurementOption
}

// Registry keeps process-local counters for the /metrics endpoints and
// mirrors every increment to an OpenTelemetry Int64Counter.
// A nil *Registry is valid and records nothing.
type Registry struct {
	mu     sync.RWMutex
	series map[string]*series // key = seriesKey(name, labels)
	meter  metric.Meter
	insts  map[string]metric.Int64Counter
}

func NewRegistry() *Registry {
	return &Registry{
		series: make(map[string]*series),
		meter:  otel.GetMeterProvider().Meter("vision_collage"),
		insts:  make(map[string]metric.Int64Counter),
	}
}

// seriesKey renders name{k=v,...} with sorted label keys.
func seriesKey(name string, labels Labels) string {
	if len(labels) == 0 {
		return name
	}
	keys := make([]string, 0, len(labels))
	for k := range labels {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+"="+labels[k])
	}
	return name + "{" + strings.Join(parts, ",") + "}"
}

// Inc adds n to the counter identified by name and labels.
func (r *Registry) Inc(ctx context.Context, name string, labels Labels, n int64) {
	if r == nil {
		return
	}
	s := r.lookup(name, labels)
	s.value.Add(n)
	if inst := r.instrument(name); inst != nil {
		inst.Add(ctx, n, s.attrs)
	}
}

// Value returns the current value of a counter, 0 if it was never touched.
func (r *Registry) Value(name string, labels Labels) int64 {
	if r == nil {
		return 0
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	if s, ok := r.series[seriesKey(name, labels)]; ok {
		return s.value.Load()
	}
	return 0
}

func (r *Registry) lookup(name string, labels Labels) *series {
	key := seriesKey(name, labels)

	r.mu.RLock()
	s := r.series[key]
	r.mu.RUnlock()
	if s != nil {
		return s
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if s = r.series[key]; s == nil {
		attrs := make([]attribute.KeyValue, 0, len(labels))
		for k, v := range labels {
			attrs = append(attrs, attribute.String(k, v))
		}
		s = &series{attrs: metric.WithAttributes(attrs...)}
		r.series[key] = s
	}
	return s
}

func (r *Registry) instrument(name string) metric.Int64Counter {
	r.mu.RLock()
	inst := r.insts[name]
	r.mu.RUnlock()
	if inst != nil {
		return inst
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if inst = r.insts[name]; inst == nil {
		ctr, err := r.meter.Int64Counter(name)
		if err != nil {
			return nil
		}
		r.insts[name] = ctr
		inst = ctr
	}
	return inst
}

// Snapshot returns every counter keyed by its rendered series name.
func (r *Registry) Snapshot() map[string]int64 {
	out := make(map[string]int64)
	if r == nil {
		return out
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	for k, s := range r.series {
		out[k] = s.value.Load()
	}
	return out
}

// EchoHandlerText writes counters as sorted "series value" lines.
func (r *Registry) EchoHandlerText(c echo.Context) error {
	snap := r.Snapshot()
	keys := make([]string, 0, len(snap))
	for k := range snap {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	c.Response().Header().Set(echo.HeaderContentType, echo.MIMETextPlainCharsetUTF8)
	for _, k := range keys {
		if _, err := fmt.Fprintf(c.Response(), "%s %d\n", k, snap[k]); err != nil {
			return err
		}
	}
	return nil
}

// EchoHandlerJSON writes counters as a JSON object.
func (r *Registry) EchoHandlerJSON(c echo.Context) error {
	c.Response().Header().Set(echo.HeaderContentType, echo.MIMEApplicationJSONCharsetUTF8)
	return json.NewEncoder(c.Response()).Encode(r.Snapshot())
}
