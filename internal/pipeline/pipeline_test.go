package pipeline

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func errc(errs ...error) <-chan error {
	c := make(chan error, len(errs))
	for _, err := range errs {
		c <- err
	}
	close(c)
	return c
}

func TestWait(t *testing.T) {
	assert.NoError(t, Wait())
	assert.NoError(t, Wait(errc(), errc(nil, nil)))

	boom := errors.New("boom")
	assert.Equal(t, boom, Wait(errc(nil), errc(boom), errc()))
}

func TestMerge(t *testing.T) {
	var n int
	for range Merge(errc(nil, nil), errc(nil), errc()) {
		n++
	}
	assert.Equal(t, 3, n)
}
