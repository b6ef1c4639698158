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
	jobsStartedTotal   atomic.Uint64
	jobsSucceededTotal atomic.Uint64
	jobsFailedTotal    atomic.Uint64
	uploadsTotal       atomic.Uint64
	uploadBytesTotal   atomic.Uint64

	jobDuration = newHistogram([]float64{5, 10, 25, 50, 100, 250, 500, 1000, 5000})
)

// IncJobStarted counts a job entering RUNNING.
func IncJobStarted() {
	jobsStartedTotal.Add(1)
}

// IncJobSucceeded counts a job reaching SUCCESS.
func IncJobSucceeded() {
	jobsSucceededTotal.Add(1)
}

// IncJobFailed counts a job reaching FAILED.
func IncJobFailed() {
	jobsFailedTotal.Add(1)
}

// AddUpload counts a stored upload of the given size.
func AddUpload(sizeBytes int64) {
	uploadsTotal.Add(1)
	if sizeBytes > 0 {
		uploadBytesTotal.Add(uint64(sizeBytes))
	}
}

// ObserveJobDurationMs records a job run duration in milliseconds.
func ObserveJobDurationMs(value float64) {
	if value < 0 {
		value = 0
	}
	jobDuration.Observe(value)
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
	writeCounter(&buf, "jobs_started_total", "Total processing jobs started", jobsStartedTotal.Load())
	writeCounter(&buf, "jobs_succeeded_total", "Total processing jobs succeeded", jobsSucceededTotal.Load())
	writeCounter(&buf, "jobs_failed_total", "Total processing jobs failed", jobsFailedTotal.Load())
	writeCounter(&buf, "uploads_total", "Total document versions stored", uploadsTotal.Load())
	writeCounter(&buf, "upload_bytes_total", "Total bytes stored for document versions", uploadBytesTotal.Load())
	writeHistogram(&buf, "job_duration_ms", "Processing job duration in milliseconds", jobDuration.Snapshot())
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
	// counts are per bucket; writeHistogram accumulates them.
	for i, bound := range h.buckets {
		if value <= bound {
			h.counts[i]++
			return
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

// SinceMillis returns the elapsed time since start in milliseconds.
func SinceMillis(start time.Time) float64 {
	return float64(time.Since(start)) / float64(time.Millisecond)
}
