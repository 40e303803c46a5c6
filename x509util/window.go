package x509util

import (
	"fmt"
	"time"
)

// Validity period of a certificate. Both ends are inclusive.
type Window struct {
	NotBefore time.Time
	NotAfter  time.Time
}

// Window covering [now-before, now+after], truncated to whole seconds in UTC. When parent is non-nil the window is clamped to the parent's validity, so a child never outlives its issuer.
func NewValidityWindow(before, after time.Duration, parent *Certificate) (Window, error) {
	now := time.Now().UTC().Truncate(time.Second)
	w := Window{
		NotBefore: now.Add(-before),
		NotAfter:  now.Add(after),
	}
	if parent != nil {
		if parent.NotBefore.After(w.NotBefore) {
			w.NotBefore = parent.NotBefore
		}
		if parent.NotAfter.Before(w.NotAfter) {
			w.NotAfter = parent.NotAfter
		}
	}
	if err := w.check(); err != nil {
		return Window{}, err
	}
	return w, nil
}

func (w Window) check() error {
	if w.NotBefore.IsZero() || w.NotAfter.IsZero() {
		return fmt.Errorf("validity window is unset")
	}
	if !w.NotAfter.After(w.NotBefore) {
		return fmt.Errorf("validity window is empty: %s is not after %s", w.NotAfter.Format(time.RFC3339), w.NotBefore.Format(time.RFC3339))
	}
	return nil
}

func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.NotBefore) && !t.After(w.NotAfter)
}
