package assistant

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGuardStreamForwardsFragmentsInOrder(t *testing.T) {
	in := make(chan Fragment, 3)
	in <- Fragment{Text: "one"}
	in <- Fragment{Text: "two"}
	in <- Fragment{Text: "three"}
	close(in)

	out := GuardStream(context.Background(), in, time.Second)

	var got []string
	for frag := range out {
		require.NoError(t, frag.Err)
		got = append(got, frag.Text)
	}
	assert.Equal(t, []string{"one", "two", "three"}, got)
}

func TestGuardStreamEmitsTimeoutOnStall(t *testing.T) {
	in := make(chan Fragment) // never produces
	out := GuardStream(context.Background(), in, 20*time.Millisecond)

	select {
	case frag := <-out:
		require.Error(t, frag.Err)
		assert.True(t, IsTimeout(frag.Err))
	case <-time.After(time.Second):
		t.Fatal("expected timeout fragment")
	}

	_, open := <-out
	assert.False(t, open, "channel must close after the terminal fragment")
}

func TestGuardStreamResetsBudgetPerFragment(t *testing.T) {
	in := make(chan Fragment)
	out := GuardStream(context.Background(), in, 50*time.Millisecond)

	go func() {
		defer close(in)
		for i := 0; i < 4; i++ {
			time.Sleep(20 * time.Millisecond) // under budget each time
			in <- Fragment{Text: "tick"}
		}
	}()

	count := 0
	for frag := range out {
		require.NoError(t, frag.Err)
		count++
	}
	assert.Equal(t, 4, count)
}

func TestGuardStreamStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	in := make(chan Fragment)
	out := GuardStream(ctx, in, time.Second)

	cancel()

	select {
	case _, open := <-out:
		assert.False(t, open)
	case <-time.After(time.Second):
		t.Fatal("guarded stream did not close after cancel")
	}
}

func TestIsTimeout(t *testing.T) {
	assert.True(t, IsTimeout(ErrTimeout))
	assert.True(t, IsTimeout(context.DeadlineExceeded))
	assert.False(t, IsTimeout(context.Canceled))
	assert.False(t, IsTimeout(errors.New("other failure")))
}
