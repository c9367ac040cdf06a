// Package vitals aggregates client-reported web vitals.
package vitals

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/JakeFAU/marketing-site/internal/metrics"
)

// RingSize bounds the recent values kept per metric for percentiles.
const RingSize = 256

// minP75Samples is the smallest buffer for which P75 is reported.
const minP75Samples = 4

// Names lists the accepted metric names.
var Names = []string{"CLS", "FCP", "FID", "INP", "LCP", "TTFB"}

var (
	known   = map[string]struct{}{"CLS": {}, "FCP": {}, "FID": {}, "INP": {}, "LCP": {}, "TTFB": {}}
	ratings = map[string]struct{}{"": {}, "good": {}, "needs-improvement": {}, "poor": {}}
)

// ErrInvalidSample is wrapped by Record for rejected samples.
var ErrInvalidSample = errors.New("invalid web vital sample")

// Sample is one measurement reported by a browser.
type Sample struct {
	Name   string  `json:"name"`
	Value  float64 `json:"value"`
	ID     string  `json:"id,omitempty"`
	Rating string  `json:"rating,omitempty"`
	Page   string  `json:"page,omitempty"`
}

// Validate checks the name, value and rating.
func (s Sample) Validate() error {
	if _, ok := known[s.Name]; !ok {
		return fmt.Errorf("%w: unknown metric %q", ErrInvalidSample, s.Name)
	}
	if s.Value < 0 || math.IsNaN(s.Value) || math.IsInf(s.Value, 0) {
		return fmt.Errorf("%w: value must be a non-negative number", ErrInvalidSample)
	}
	if _, ok := ratings[s.Rating]; !ok {
		return fmt.Errorf("%w: unknown rating %q", ErrInvalidSample, s.Rating)
	}
	return nil
}

// Stat summarizes one metric.
type Stat struct {
	Count     int64     `json:"count"`
	Mean      float64   `json:"mean"`
	P75       *float64  `json:"p75,omitempty"`
	Last      float64   `json:"last"`
	UpdatedAt time.Time `json:"updated_at"`
}

type series struct {
	count   int64
	sum     float64
	last    float64
	updated time.Time
	ring    [RingSize]float64
	next    int
	filled  int
}

// Aggregator keeps running totals and a ring of recent values per metric.
type Aggregator struct {
	mu     sync.Mutex
	series map[string]*series
	now    func() time.Time
}

// NewAggregator constructs an empty Aggregator.
func NewAggregator() *Aggregator {
	return &Aggregator{
		series: make(map[string]*series),
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Record validates and stores s.
func (a *Aggregator) Record(s Sample) error {
	if err := s.Validate(); err != nil {
		return err
	}
	metrics.ObserveWebVital(s.Name, s.Rating, s.Value)

	a.mu.Lock()
	defer a.mu.Unlock()
	ser, ok := a.series[s.Name]
	if !ok {
		ser = &series{}
		a.series[s.Name] = ser
	}
	ser.count++
	ser.sum += s.Value
	ser.last = s.Value
	ser.updated = a.now()
	ser.ring[ser.next] = s.Value
	ser.next = (ser.next + 1) % RingSize
	if ser.filled < RingSize {
		ser.filled++
	}
	return nil
}

// Summary returns a snapshot keyed by metric name.
func (a *Aggregator) Summary() map[string]Stat {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make(map[string]Stat, len(a.series))
	for name, ser := range a.series {
		st := Stat{
			Count:     ser.count,
			Mean:      ser.sum / float64(ser.count),
			Last:      ser.last,
			UpdatedAt: ser.updated,
		}
		if ser.filled >= minP75Samples {
			p := percentile(ser.ring[:ser.filled], 0.75)
			st.P75 = &p
		}
		out[name] = st
	}
	return out
}

// percentile uses the nearest-rank method on a sorted copy.
func percentile(values []float64, q float64) float64 {
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	rank := int(math.Ceil(q*float64(len(sorted)))) - 1
	if rank < 0 {
		rank = 0
	}
	return sorted[rank]
}
