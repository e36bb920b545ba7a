package playback

import "time"

// Ticker is the periodic source that drives a playing session.
type Ticker interface {
	C() <-chan time.Time
	Stop()
}

// TickerFactory creates a ticker firing every period.
type TickerFactory func(period time.Duration) Ticker

type realTicker struct {
	t *time.Ticker
}

func (r realTicker) C() <-chan time.Time { return r.t.C }

func (r realTicker) Stop() { r.t.Stop() }

// NewRealTicker wraps time.NewTicker.
func NewRealTicker(period time.Duration) Ticker {
	return realTicker{t: time.NewTicker(period)}
}
