package actor

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAskReply(t *testing.T) {
	mb := NewMailbox(4, func(msg any) any {
		n := msg.(int)
		return n * 2
	})
	defer mb.Close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	reply, err := mb.Ask(ctx, "double", 21)
	require.NoError(t, err)
	assert.Equal(t, 42, reply.(int))
}

func TestAskTimesOut(t *testing.T) {
	release := make(chan struct{})
	mb := NewMailbox(1, func(msg any) any {
		<-release
		return nil
	})
	defer func() {
		close(release)
		mb.Close()
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	mb.Tell("occupy the single worker goroutine")
	_, err := mb.Ask(ctx, "slow-op", "hello")
	require.Error(t, err)
	_, ok := err.(*TimedOutError)
	assert.True(t, ok, "expected *TimedOutError, got %T", err)
}

func TestFIFOOrdering(t *testing.T) {
	var order []int
	done := make(chan struct{})
	mb := NewMailbox(8, func(msg any) any {
		n := msg.(int)
		order = append(order, n)
		if n == 4 {
			close(done)
		}
		return nil
	})
	defer mb.Close()

	for i := 0; i < 5; i++ {
		mb.Tell(i)
	}
	<-done
	for i, v := range order {
		assert.Equal(t, i, v, "expected FIFO order, got %v", order)
	}
}
