package stats

import (
	"bufio"
	"context"
	"os"
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	log "github.com/sirupsen/logrus"
)

const (
	BYTE = 1 << (10 * iota)
	KILOBYTE
	MEGABYTE
)

// Watch starts a go routine that periodically logs the memory usage of the
// process and, once ctx is done, dumps the gathered metrics to path.
// The returned channel is closed after the dump.
func Watch(
	ctx context.Context, interval time.Duration, gatherer prometheus.Gatherer,
	path string,
) <-chan struct{} {
	done := make(chan struct{})
	ticker := time.NewTicker(interval)

	go func() {
		defer close(done)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				LogMemoryStatistics()
			case <-ctx.Done():
				if err := Dump(gatherer, path); err != nil {
					log.WithError(err).Warn("failed to dump metrics")
				}
				return
			}
		}
	}()
	return done
}

func toMegabytes(bytes uint64) float64 {
	return float64(bytes) / MEGABYTE
}

// LogMemoryStatistics logs memory usage and number of go routines.
func LogMemoryStatistics() {
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	log.WithFields(log.Fields{
		"total_alloc_mb": toMegabytes(memStats.TotalAlloc),
		"heap_alloc_mb":  toMegabytes(memStats.HeapAlloc),
		"mallocs":        memStats.Mallocs,
		"frees":          memStats.Frees,
		"goroutines":     runtime.NumGoroutine(),
	}).Info("memory stats")
}

// Dump appends the metric families collected by gatherer to the given file,
// one per line.
func Dump(gatherer prometheus.Gatherer, path string) error {
	metricFamilies, err := gatherer.Gather()
	if err != nil {
		return err
	}

	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	defer file.Close()

	writer := bufio.NewWriter(file)
	for _, mf := range metricFamilies {
		if _, err := writer.WriteString(mf.String() + "\n"); err != nil {
			return err
		}
	}
	return writer.Flush()
}
