package application

import (
	"time"

	"docketvoice/internal/domain"
)

// Observer receives pipeline measurements.
type Observer interface {
	ObserveUtterance(kind string, latency time.Duration)
	ObserveCommand(cmd domain.Command, outcome string)
}

type NoopObserver struct{}

func (NoopObserver) ObserveUtterance(string, time.Duration) {}
func (NoopObserver) ObserveCommand(domain.Command, string)  {}
