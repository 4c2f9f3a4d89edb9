package node

import (
	"testing"
	"time"

	"github.com/blockchat-network/blockchat/blog"
	"github.com/blockchat-network/blockchat/crypto"
	"github.com/blockchat-network/blockchat/network"
	"github.com/blockchat-network/blockchat/wallet"
	"github.com/stretchr/testify/require"
)

func newAddr(t *testing.T) (crypto.PrivateKey, crypto.Address) {
	t.Helper()
	priv, pub, err := crypto.GenerateKeypair()
	require.NoError(t, err)
	return priv, crypto.AddressFromPublicKey(pub)
}

func discardLogger() blog.Logger { return blog.New(blog.DiscardHandler()) }

func TestGenesisSeeding(t *testing.T) {
	_, addrA := newAddr(t)
	endA, _ := network.NewMemoryPair[Message]()

	n := New(addrA, mustPriv(t), addrA, 1_000_000, 5, 2*time.Second, endA, discardLogger())

	require.Equal(t, 1, n.ChainLength())
	require.Equal(t, addrA, n.NextValidator())
	require.Equal(t, uint64(1_000_000), n.LocalWallet().Balance)
	require.Equal(t, uint64(1), n.LocalWallet().Stake)
}

func mustPriv(t *testing.T) crypto.PrivateKey {
	t.Helper()
	priv, _, err := crypto.GenerateKeypair()
	require.NoError(t, err)
	return priv
}

func TestSubmitMintAndPropagateToPeer(t *testing.T) {
	privA, addrA := newAddr(t)
	privB, addrB := newAddr(t)
	endA, endB := network.NewMemoryPair[Message]()

	nodeA := New(addrA, privA, addrA, 1_000_000, 5, 2*time.Second, endA, discardLogger())
	nodeB := New(addrB, privB, addrA, 1_000_000, 5, 2*time.Second, endB, discardLogger())

	_, err := nodeA.SubmitCoin(addrB, 1000)
	require.NoError(t, err)
	require.Equal(t, uint64(1_000_000-1000-30), nodeA.LocalWallet().Balance)

	now := time.Now()
	nodeA.Step(now)
	require.Equal(t, 2, nodeA.ChainLength())

	// B must drain both the raw transaction broadcast (redundant once the
	// block arrives) and the block itself.
	nodeB.Step(now)
	nodeB.Step(now)

	require.Equal(t, 2, nodeB.ChainLength())
	require.Equal(t, uint64(1000), nodeB.LocalWallet().Balance)
}

func TestMintRespectsCapacityAndNonceOrder(t *testing.T) {
	privA, addrA := newAddr(t)
	endA, _ := network.NewMemoryPair[Message]()
	n := New(addrA, privA, addrA, 1_000_000, 5, time.Hour, endA, discardLogger())

	_, recipient := newAddr(t)
	for i := 0; i < 7; i++ {
		_, err := n.SubmitCoin(recipient, 1)
		require.NoError(t, err)
	}

	signed := n.mintBlock(time.Now())
	require.Len(t, signed.Data.Transactions, 5)
	for i, tx := range signed.Data.Transactions {
		require.Equal(t, uint64(i), tx.Data.Nonce)
	}
	require.Len(t, n.mempool, 2)
}

func TestRejectWrongValidator(t *testing.T) {
	privA, addrA := newAddr(t)
	_, addrB := newAddr(t)
	endA, _ := network.NewMemoryPair[Message]()
	n := New(addrA, privA, addrA, 1_000_000, 5, time.Hour, endA, discardLogger())

	tip := n.Tip()
	bogus := Block{
		Timestamp:    time.Now(),
		Transactions: nil,
		Validator:    addrB,
		ParentHash:   tip.Hash,
	}
	signed, err := crypto.Sign(privA, bogus)
	require.NoError(t, err)

	err = n.HandleBlock(signed)
	require.ErrorIs(t, err, ErrInvalidBlockValidator)
	require.Equal(t, 1, n.ChainLength())
}

func TestHandleBlockTwiceFailsSecondTime(t *testing.T) {
	privA, addrA := newAddr(t)
	_, recipient := newAddr(t)
	endA, _ := network.NewMemoryPair[Message]()
	n := New(addrA, privA, addrA, 1_000_000, 5, time.Hour, endA, discardLogger())

	_, err := n.SubmitCoin(recipient, 100)
	require.NoError(t, err)

	signed := n.mintBlock(time.Now())
	require.NoError(t, n.HandleBlock(signed))
	require.Equal(t, 2, n.ChainLength())

	// The block no longer extends the tip and its nonces are already used, so
	// a second application must fail and leave every wallet and the chain
	// untouched.
	walletsBefore := n.LocalWallet()
	err = n.HandleBlock(signed)
	require.Error(t, err)
	require.Equal(t, 2, n.ChainLength())
	require.Equal(t, walletsBefore, n.LocalWallet())
}

func TestHandleTransactionRejectsForgedSender(t *testing.T) {
	privA, addrA := newAddr(t)
	privB, addrB := newAddr(t)
	endA, _ := network.NewMemoryPair[Message]()
	n := New(addrA, privA, addrA, 1_000_000, 5, time.Hour, endA, discardLogger())

	// Signed with B's key but claiming A as the sender.
	forged := wallet.Transaction{Sender: addrA, Kind: wallet.KindCoin, Nonce: 0, Amount: 5, Recipient: addrB}
	signed, err := crypto.Sign(privB, forged)
	require.NoError(t, err)

	err = n.HandleTransaction(signed)
	require.ErrorIs(t, err, crypto.ErrInvalidSignature)
}

func TestHandleTransactionRejectsBadSignature(t *testing.T) {
	privA, addrA := newAddr(t)
	_, addrB := newAddr(t)
	endA, _ := network.NewMemoryPair[Message]()
	n := New(addrA, privA, addrA, 1_000_000, 5, time.Hour, endA, discardLogger())

	tx := wallet.Transaction{Sender: addrA, Kind: wallet.KindCoin, Nonce: 0, Amount: 5, Recipient: addrB}
	signed := crypto.NewInvalidSigned(tx)

	err := n.HandleTransaction(signed)
	require.ErrorIs(t, err, crypto.ErrInvalidSignature)
}
