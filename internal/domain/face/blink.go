package face

import "time"

// Blink detection parameters. The debounce filters noise: an EAR dip that
// fires within the window of the previous blink is not re-counted.
const (
	blinkDebounce      = 100 * time.Millisecond
	blinkHistoryWindow = 60 * time.Second
)

// blinkTracker detects blink events from EAR and keeps a rolling history
// of blink timestamps for rate queries. Single-writer, like the rest of
// the extractor state.
type blinkTracker struct {
	lastBlink time.Time
	history   []time.Time
}

func newBlinkTracker() *blinkTracker {
	return &blinkTracker{}
}

// observe reports whether this frame counts as a blink event.
func (t *blinkTracker) observe(ear float64, ts time.Time) bool {
	t.prune(ts)

	if ear >= blinkEARThreshold {
		return false
	}
	if !t.lastBlink.IsZero() && ts.Sub(t.lastBlink) < blinkDebounce {
		return false
	}

	t.lastBlink = ts
	t.history = append(t.history, ts)
	return true
}

// rate returns blinks per minute over the retained history window.
func (t *blinkTracker) rate() float64 {
	return float64(len(t.history)) * float64(time.Minute) / float64(blinkHistoryWindow)
}

func (t *blinkTracker) prune(now time.Time) {
	cutoff := now.Add(-blinkHistoryWindow)
	i := 0
	for i < len(t.history) && t.history[i].Before(cutoff) {
		i++
	}
	if i > 0 {
		t.history = append(t.history[:0], t.history[i:]...)
	}
}
