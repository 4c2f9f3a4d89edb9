package transport

import (
	"net"
	"testing"
	"time"

	"github.com/blockchat-network/blockchat/blog"
	"github.com/stretchr/testify/require"
)

type chatMsg struct {
	From int    `json:"from"`
	Text string `json:"text"`
}

func listen(t *testing.T) net.Listener {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	return l
}

func TestThreeNodeMeshBroadcasts(t *testing.T) {
	logger := blog.New(blog.DiscardHandler())

	listeners := make([]net.Listener, 3)
	addrs := make([]string, 3)
	for i := range listeners {
		listeners[i] = listen(t)
		addrs[i] = listeners[i].Addr().String()
	}

	meshes := make([]*Mesh[chatMsg], 3)
	for i := range meshes {
		meshes[i] = Connect[chatMsg](listeners[i], addrs, i, logger)
	}

	require.Eventually(t, func() bool {
		for _, m := range meshes {
			if m.PeerCount() != 2 {
				return false
			}
		}
		return true
	}, 2*time.Second, 10*time.Millisecond)

	meshes[0].Send(chatMsg{From: 0, Text: "hi"})

	timeout := time.Second
	for i := 1; i < 3; i++ {
		meshes[i].AwaitEvents(&timeout)
		msg, ok := meshes[i].Recv()
		require.True(t, ok, "peer %d should have received the broadcast", i)
		require.Equal(t, chatMsg{From: 0, Text: "hi"}, msg)
	}

	_, ok := meshes[0].Recv()
	require.False(t, ok, "sender must not receive its own broadcast")

	for _, l := range listeners {
		l.Close()
	}
}
