package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/blockchat-network/blockchat/blog"
	"github.com/blockchat-network/blockchat/crypto"
	"github.com/blockchat-network/blockchat/network"
	"github.com/blockchat-network/blockchat/node"
	"github.com/stretchr/testify/require"
)

func newTestNode(t *testing.T) *node.Node {
	t.Helper()
	priv, pub, err := crypto.GenerateKeypair()
	require.NoError(t, err)
	addr := crypto.AddressFromPublicKey(pub)
	end, _ := network.NewMemoryPair[node.Message]()
	return node.New(addr, priv, addr, 1_000_000, 10, time.Hour, end, blog.New(blog.DiscardHandler()))
}

func TestGetBalanceAndBlock(t *testing.T) {
	n := newTestNode(t)
	srv := httptest.NewServer(New(n, blog.New(blog.DiscardHandler())))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/balance")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp2, err := http.Get(srv.URL + "/block")
	require.NoError(t, err)
	defer resp2.Body.Close()
	require.Equal(t, http.StatusOK, resp2.StatusCode)
}

func TestPostTransactionAndStake(t *testing.T) {
	n := newTestNode(t)
	srv := httptest.NewServer(New(n, blog.New(blog.DiscardHandler())))
	defer srv.Close()

	_, recipientPub, err := crypto.GenerateKeypair()
	require.NoError(t, err)
	recipient := crypto.AddressFromPublicKey(recipientPub)

	body, _ := json.Marshal(map[string]interface{}{"recipient": recipient.String(), "amount": 100})
	resp, err := http.Post(srv.URL+"/transaction", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	stakeBody, _ := json.Marshal(map[string]interface{}{"amount": 50})
	resp2, err := http.Post(srv.URL+"/stake", "application/json", bytes.NewReader(stakeBody))
	require.NoError(t, err)
	defer resp2.Body.Close()
	require.Equal(t, http.StatusCreated, resp2.StatusCode)
}

func TestPostTransactionRejectsBadAddress(t *testing.T) {
	n := newTestNode(t)
	srv := httptest.NewServer(New(n, blog.New(blog.DiscardHandler())))
	defer srv.Close()

	body, _ := json.Marshal(map[string]interface{}{"recipient": "not-a-valid-address!!", "amount": 1})
	resp, err := http.Post(srv.URL+"/transaction", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}
