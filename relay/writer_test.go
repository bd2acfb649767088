package relay

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriter_RunsInOrder(t *testing.T) {
	w := newWriter(4)
	defer w.close()

	var order []int
	for i := 0; i < 5; i++ {
		i := i
		require.NoError(t, w.submit(context.Background(), func() { order = append(order, i) }))
	}
	assert.Equal(t, []int{0, 1, 2, 3, 4}, order)
}

func TestWriter_CancelledSubmitStillRuns(t *testing.T) {
	w := newWriter(1)

	started := make(chan struct{})
	release := make(chan struct{})
	ran := make(chan struct{})
	go func() {
		_ = w.submit(context.Background(), func() {
			close(started)
			<-release
		})
	}()
	<-started

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err := w.submit(ctx, func() { close(ran) })
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	close(release)
	w.close()
	select {
	case <-ran:
	default:
		t.Fatal("queued job did not run before close returned")
	}
}

func TestWriter_SubmitAfterClose(t *testing.T) {
	w := newWriter(1)
	w.close()

	err := w.submit(context.Background(), func() {})
	assert.ErrorIs(t, err, ErrClosed)
}
