package network

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestMemoryPairDeliversOneWay(t *testing.T) {
	a, b := NewMemoryPair[string]()

	a.Send("hello")
	_, ok := a.Recv()
	require.False(t, ok, "sender must not receive its own message")

	msg, ok := b.Recv()
	require.True(t, ok)
	require.Equal(t, "hello", msg)
}

func TestMemoryMeshBroadcastsToAllButSelf(t *testing.T) {
	ends := NewMemoryMesh[int](4)

	ends[0].Send(42)

	for i, end := range ends {
		msg, ok := end.Recv()
		if i == 0 {
			require.False(t, ok)
			continue
		}
		require.True(t, ok)
		require.Equal(t, 42, msg)
	}
}

func TestAwaitEventsReturnsOnTimeout(t *testing.T) {
	a, _ := NewMemoryPair[string]()
	timeout := 10 * time.Millisecond

	start := time.Now()
	a.AwaitEvents(&timeout)
	require.GreaterOrEqual(t, time.Since(start), timeout)
}

func TestAwaitEventsReturnsImmediatelyWhenPending(t *testing.T) {
	a, b := NewMemoryPair[string]()
	a.Send("queued")

	timeout := time.Second
	start := time.Now()
	b.AwaitEvents(&timeout)
	require.Less(t, time.Since(start), timeout)

	msg, ok := b.Recv()
	require.True(t, ok)
	require.Equal(t, "queued", msg)
}

func TestAwaitEventsWakesOnSend(t *testing.T) {
	a, b := NewMemoryPair[string]()

	done := make(chan struct{})
	go func() {
		b.AwaitEvents(nil)
		close(done)
	}()

	time.Sleep(10 * time.Millisecond)
	a.Send("wake up")

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("AwaitEvents did not wake on send")
	}
}
