package feedback

import (
	"time"

	"github.com/tommyengstrom/haskell-agent-tooling/internal/domain"
)

// SystemClock implements domain.Clock with real time.
type SystemClock struct{}

// NewSystemClock creates a clock backed by the OS.
func NewSystemClock() domain.Clock {
	return SystemClock{}
}

func (SystemClock) Now() time.Time        { return time.Now() }
func (SystemClock) Sleep(d time.Duration) { time.Sleep(d) }

// Ensure SystemClock implements domain.Clock.
var _ domain.Clock = SystemClock{}
