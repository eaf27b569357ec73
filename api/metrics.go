package api

import (
	"context"
	"sort"
	"sync"
	"time"
)

// RouteMetrics aggregates the requests served by one route template
type RouteMetrics struct {
	Method     string  `json:"method"`
	Route      string  `json:"route"`
	Count      int64   `json:"count"`
	ErrorCount int64   `json:"errorCount"`
	AvgMillis  float64 `json:"avgMillis"`
	MaxMillis  float64 `json:"maxMillis"`

	total time.Duration
}

// MetricsSummary is the snapshot served by the metrics endpoint
type MetricsSummary struct {
	Since         time.Time      `json:"since"`
	TotalRequests int64          `json:"totalRequests"`
	TotalErrors   int64          `json:"totalErrors"`
	Routes        []RouteMetrics `json:"routes"`
}

// MetricsCollector counts requests per route in memory
type MetricsCollector struct {
	mu      sync.Mutex
	routes  map[string]*RouteMetrics
	started time.Time
}

// NewMetricsCollector returns an empty collector
func NewMetricsCollector() *MetricsCollector {
	return &MetricsCollector{
		routes:  make(map[string]*RouteMetrics),
		started: time.Now().UTC(),
	}
}

// Record adds one served request
func (mc *MetricsCollector) Record(method, route string, status int, d time.Duration) {
	key := method + " " + route

	mc.mu.Lock()
	defer mc.mu.Unlock()

	rm, ok := mc.routes[key]
	if !ok {
		rm = &RouteMetrics{Method: method, Route: route}
		mc.routes[key] = rm
	}
	rm.Count++
	if status >= 400 {
		rm.ErrorCount++
	}
	rm.total += d
	rm.AvgMillis = float64(rm.total.Microseconds()) / 1000 / float64(rm.Count)
	if ms := float64(d.Microseconds()) / 1000; ms > rm.MaxMillis {
		rm.MaxMillis = ms
	}
}

// Summary returns the routes ordered by request count, busiest first
func (mc *MetricsCollector) Summary() MetricsSummary {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	s := MetricsSummary{Since: mc.started, Routes: make([]RouteMetrics, 0, len(mc.routes))}
	for _, rm := range mc.routes {
		s.TotalRequests += rm.Count
		s.TotalErrors += rm.ErrorCount
		s.Routes = append(s.Routes, *rm)
	}
	sort.Slice(s.Routes, func(i, j int) bool {
		if s.Routes[i].Count != s.Routes[j].Count {
			return s.Routes[i].Count > s.Routes[j].Count
		}
		return s.Routes[i].Method+s.Routes[i].Route < s.Routes[j].Method+s.Routes[j].Route
	})
	return s
}

type requestIDContextKey struct{}

// WithRequestID stores the request id on ctx
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDContextKey{}, id)
}

// RequestIDFromContext returns the id set by the metrics middleware, if any
func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(requestIDContextKey{}).(string)
	return id
}
