package bootstrap

import (
	"sync"
	"testing"

	"github.com/blockchat-network/blockchat/blog"
	"github.com/blockchat-network/blockchat/crypto"
	"github.com/stretchr/testify/require"
)

func TestFiveNodeRendezvousAssignsDistinctIndices(t *testing.T) {
	logger := blog.New(blog.DiscardHandler())
	const n = 5

	_, leaderPub, err := crypto.GenerateKeypair()
	require.NoError(t, err)
	leaderInfo := PeerInfo{ListenAddr: "127.0.0.1:9000", PublicKey: leaderPub}

	followerInfos := make([]PeerInfo, n-1)
	for i := range followerInfos {
		_, pub, err := crypto.GenerateKeypair()
		require.NoError(t, err)
		followerInfos[i] = PeerInfo{ListenAddr: "127.0.0.1:" + itoa(9001+i), PublicKey: pub}
	}

	bootstrapAddr := "127.0.0.1:19998"

	var wg sync.WaitGroup
	leaderResult := make(chan Result, 1)
	leaderErr := make(chan error, 1)
	wg.Add(1)
	go func() {
		defer wg.Done()
		res, err := Leader(bootstrapAddr, n, leaderInfo, leaderPub, logger)
		leaderResult <- res
		leaderErr <- err
	}()

	followerResults := make([]chan Result, n-1)
	for i := range followerResults {
		followerResults[i] = make(chan Result, 1)
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := Follower(bootstrapAddr, followerInfos[i], logger)
			require.NoError(t, err)
			followerResults[i] <- res
		}()
	}

	wg.Wait()
	require.NoError(t, <-leaderErr)
	lr := <-leaderResult

	require.Equal(t, 0, lr.Index)
	require.Len(t, lr.Peers, n)
	require.Equal(t, leaderInfo, lr.Peers[0])

	seen := map[int]bool{0: true}
	for _, ch := range followerResults {
		fr := <-ch
		require.False(t, seen[fr.Index], "index %d assigned twice", fr.Index)
		seen[fr.Index] = true
		require.Equal(t, lr.Peers, fr.Peers)
		require.Equal(t, lr.Validator, fr.Validator)
	}
	require.Len(t, seen, n)
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	var digits []byte
	for n > 0 {
		digits = append([]byte{byte('0' + n%10)}, digits...)
		n /= 10
	}
	return string(digits)
}
