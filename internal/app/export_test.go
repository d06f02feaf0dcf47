package app

import "time"

// WithDebounce overrides the watch debounce window.
func (a *App) WithDebounce(d time.Duration) *App {
	a.debounce = d
	return a
}
