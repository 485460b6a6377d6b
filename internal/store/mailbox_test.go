package store

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestMailboxKeepsNewestPending(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	var got []int
	done := make(chan struct{})
	m := newMailbox(func(v int) {
		got = append(got, v)
		if v == 1 {
			close(started)
			<-release
		}
		if v == 3 {
			close(done)
		}
	})
	defer m.stop()

	m.offer(1)
	<-started
	m.offer(2)
	m.offer(3)
	close(release)

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("newest value never delivered")
	}
	require.Equal(t, []int{1, 3}, got)
}

// A value still pending when stop returns must never reach fn, whichever
// way the delivery loop wakes up.
func TestMailboxStopDropsPendingValue(t *testing.T) {
	for i := 0; i < 200; i++ {
		var calls atomic.Int32
		started := make(chan struct{})
		release := make(chan struct{})
		m := newMailbox(func(v int) {
			if calls.Add(1) == 1 {
				close(started)
				<-release
			}
		})

		m.offer(1)
		<-started
		m.offer(2)
		m.stop()
		close(release)

		time.Sleep(time.Millisecond)
		require.Equal(t, int32(1), calls.Load(), "run %d", i)
	}
}
