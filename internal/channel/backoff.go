package channel

import "time"

// Backoff produces the reconnect delay sequence: Base doubling up to Max.
type Backoff struct {
	Base    time.Duration
	Max     time.Duration
	attempt int
}

func NewBackoff(base, max time.Duration) *Backoff {
	return &Backoff{Base: base, Max: max}
}

func (b *Backoff) Next() time.Duration {
	d := b.Base << b.attempt
	// Once the doubling reaches Max (or overflows the shift), hold there.
	if d <= 0 || d >= b.Max {
		return b.Max
	}
	b.attempt++
	return d
}

// Reset restarts the sequence after a healthy connection.
func (b *Backoff) Reset() {
	b.attempt = 0
}
