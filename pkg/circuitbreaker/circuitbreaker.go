package circuitbreaker

import (
	log "github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"
)

var (
	// MaxNumOfFailingRequests is the number of requests that must have been
	// made before the breaker is allowed to trip.
	MaxNumOfFailingRequests = 10
	// FailingRatio is the ratio of failing requests that trips the breaker.
	FailingRatio = 0.6
)

// NewCircuitBreaker is a factory function returning a *gobreaker.CircuitBreaker
// with a default state-changing function that activates if the overall number
// of requests have reached a tweakable MaxNumOfFailingRequests cap and
// the failing ratio has met the FailingRatio.
func NewCircuitBreaker(name string) *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		ReadyToTrip: readyToTrip,
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Debugf("circuit breaker %s changed state from %s to %s", name, from, to)
		},
	})
}

func readyToTrip(counts gobreaker.Counts) bool {
	if counts.Requests == 0 {
		return false
	}
	ratio := float64(counts.TotalFailures) / float64(counts.Requests)
	return int(counts.Requests) > MaxNumOfFailingRequests && ratio >= FailingRatio
}
