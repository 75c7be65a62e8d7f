// Package pipeline holds the error plumbing shared by the channel pipelines
// that load templates and fetch tiles.
package pipeline

import "sync"

// Wait drains every error channel and returns the first non-nil error. All
// channels are drained even after an error so no sender is left blocked.
func Wait(errs ...<-chan error) error {
	var first error
	for err := range Merge(errs...) {
		if err != nil && first == nil {
			first = err
		}
	}
	return first
}

// Merge fans in the error channels into one, closed once every input is.
func Merge(cs ...<-chan error) <-chan error {
	var wg sync.WaitGroup
	out := make(chan error, len(cs))
	wg.Add(len(cs))
	for _, c := range cs {
		go func(c <-chan error) {
			for n := range c {
				out <- n
			}
			wg.Done()
		}(c)
	}
	go func() {
		wg.Wait()
		close(out)
	}()
	return out
}
