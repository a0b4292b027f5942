package metrics

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gin-gonic/gin"
)

var (
	admissionAllowedTotal atomic.Uint64
	admissionDeniedTotal  atomic.Uint64
	guardrailBlockedTotal atomic.Uint64
	relayCompletedTotal   atomic.Uint64
	relayFailedTotal      atomic.Uint64

	relayDuration = newHistogram([]float64{100, 250, 500, 1000, 2000, 5000, 10000, 30000, 60000})
)

// IncAdmissionAllowed increments the allowed-admissions counter.
func IncAdmissionAllowed() {
	admissionAllowedTotal.Add(1)
}

// IncAdmissionDenied increments the denied-admissions counter.
func IncAdmissionDenied() {
	admissionDeniedTotal.Add(1)
}

// IncGuardrailBlocked increments the guardrail-block counter.
func IncGuardrailBlocked() {
	guardrailBlockedTotal.Add(1)
}

// IncRelayCompleted increments the completed-relay counter.
func IncRelayCompleted() {
	relayCompletedTotal.Add(1)
}

// IncRelayFailed increments the failed-relay counter.
func IncRelayFailed() {
	relayFailedTotal.Add(1)
}

// ObserveRelayDurationMs records an upstream relay duration in milliseconds.
func ObserveRelayDurationMs(value float64) {
	if value < 0 {
		value = 0
	}
	relayDuration.Observe(value)
}

// Handler exposes metrics in Prometheus text format.
func Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Content-Type", "text/plain; version=0.0.4")
		c.String(http.StatusOK, Render())
	}
}

// Render renders metrics in Prometheus text format.
func Render() string {
	var buf bytes.Buffer
	writeCounter(&buf, "admission_allowed_total", "Total admitted rate-limit checks", admissionAllowedTotal.Load())
	writeCounter(&buf, "admission_denied_total", "Total denied rate-limit checks", admissionDeniedTotal.Load())
	writeCounter(&buf, "guardrail_blocked_total", "Total requests blocked by the guardrail", guardrailBlockedTotal.Load())
	writeCounter(&buf, "relay_completed_total", "Total upstream relays completed", relayCompletedTotal.Load())
	writeCounter(&buf, "relay_failed_total", "Total upstream relays failed", relayFailedTotal.Load())
	writeHistogram(&buf, "relay_duration_ms", "Upstream relay duration in milliseconds", relayDuration.Snapshot())
	return buf.String()
}

type histogram struct {
	mu      sync.Mutex
	buckets []float64
	counts  []uint64
	sum     float64
	count   uint64
}

type histogramSnapshot struct {
	buckets []float64
	counts  []uint64
	sum     float64
	count   uint64
}

func newHistogram(buckets []float64) *histogram {
	return &histogram{
		buckets: buckets,
		counts:  make([]uint64, len(buckets)),
	}
}

func (h *histogram) Observe(value float64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.count++
	h.sum += value
	for i, bound := range h.buckets {
		if value <= bound {
			h.counts[i]++
		}
	}
}

func (h *histogram) Snapshot() histogramSnapshot {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := histogramSnapshot{
		buckets: append([]float64(nil), h.buckets...),
		counts:  append([]uint64(nil), h.counts...),
		sum:     h.sum,
		count:   h.count,
	}
	return out
}

func writeCounter(buf *bytes.Buffer, name, help string, value uint64) {
	fmt.Fprintf(buf, "# HELP %s %s\n", name, help)
	fmt.Fprintf(buf, "# TYPE %s counter\n", name)
	fmt.Fprintf(buf, "%s %d\n", name, value)
}

func writeHistogram(buf *bytes.Buffer, name, help string, snap histogramSnapshot) {
	fmt.Fprintf(buf, "# HELP %s %s\n", name, help)
	fmt.Fprintf(buf, "# TYPE %s histogram\n", name)
	var cumulative uint64
	for i, bound := range snap.buckets {
		cumulative += snap.counts[i]
		fmt.Fprintf(buf, "%s_bucket{le=\"%s\"} %d\n", name, formatFloat(bound), cumulative)
	}
	fmt.Fprintf(buf, "%s_bucket{le=\"+Inf\"} %d\n", name, snap.count)
	fmt.Fprintf(buf, "%s_sum %s\n", name, formatFloat(snap.sum))
	fmt.Fprintf(buf, "%s_count %d\n", name, snap.count)
}

func formatFloat(value float64) string {
	if value == float64(int64(value)) {
		return strconv.FormatInt(int64(value), 10)
	}
	return strconv.FormatFloat(value, 'f', -1, 64)
}

// NowMillis returns current time in milliseconds, useful for callers without time utilities.
func NowMillis() float64 {
	return float64(time.Now().UnixNano()) / float64(time.Millisecond)
}
