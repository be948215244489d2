package order

import (
	"fmt"
	"math/rand/v2"
	"time"
)

// NewOrderNumber returns "FZK" followed by the last six digits of the unix
// millisecond timestamp and four random digits.
func NewOrderNumber(now time.Time) string {
	ms := now.UnixMilli() % 1_000_000
	return fmt.Sprintf("FZK%06d%d", ms, 1000+rand.IntN(9000))
}

// NewTrackingID returns "TRK" followed by nine random digits.
func NewTrackingID() string {
	return fmt.Sprintf("TRK%d", 100_000_000+rand.IntN(900_000_000))
}
