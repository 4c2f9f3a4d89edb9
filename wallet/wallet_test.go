package wallet

import (
	"testing"

	"github.com/blockchat-network/blockchat/crypto"
	"github.com/stretchr/testify/require"
)

func seedWallet(t *testing.T, initial uint64) (Wallet, crypto.PrivateKey) {
	t.Helper()
	priv, pub, err := crypto.GenerateKeypair()
	require.NoError(t, err)
	w := New(crypto.AddressFromPublicKey(pub))
	w.AddFunds(initial)
	return w, priv
}

func sign(t *testing.T, priv crypto.PrivateKey, tx Transaction) crypto.Signed[Transaction] {
	t.Helper()
	signed, err := crypto.Sign(priv, tx)
	require.NoError(t, err)
	return signed
}

func TestBasicCoinAccounting(t *testing.T) {
	sender, senderKey := seedWallet(t, 1_000_000)
	recipient, _ := seedWallet(t, 1_000_000)

	tx := sender.CreateCoinTx(recipient.Address, 100)
	require.Equal(t, uint64(3), tx.Fees())
	signed := sign(t, senderKey, tx)

	require.NoError(t, sender.ApplyTx(signed))
	require.Equal(t, uint64(999_897), sender.Balance)
	require.Equal(t, uint64(1), sender.Nonce)

	require.NoError(t, recipient.ApplyTx(signed))
	require.Equal(t, uint64(1_000_100), recipient.Balance)
	require.Equal(t, uint64(0), recipient.Nonce)
}

func TestMessageFees(t *testing.T) {
	sender, senderKey := seedWallet(t, 1_000_000)
	recipient, _ := seedWallet(t, 1_000_000)

	tx := sender.CreateMessageTx(recipient.Address, "Hello World!")
	require.Equal(t, uint64(12), tx.Fees())
	signed := sign(t, senderKey, tx)

	require.NoError(t, sender.ApplyTx(signed))
	require.Equal(t, uint64(999_988), sender.Balance)

	require.NoError(t, recipient.ApplyTx(signed))
	require.Equal(t, uint64(1_000_000), recipient.Balance)
}

func TestInsufficientFundsOnCoin(t *testing.T) {
	sender, senderKey := seedWallet(t, 1_000_000)
	recipient, _ := seedWallet(t, 1_000_000)

	// 970_874 + floor(970_874*3/100) = 970_874 + 29_126 = 1_000_000, exactly
	// the seeded balance.
	ok := sender.CreateCoinTx(recipient.Address, 970_874)
	require.Equal(t, uint64(29_126), ok.Fees())
	require.NoError(t, sender.ApplyTx(sign(t, senderKey, ok)))

	tooMuch := sender.CreateCoinTx(recipient.Address, 970_876)
	err := sender.ApplyTx(sign(t, senderKey, tooMuch))
	require.ErrorIs(t, err, ErrInsufficientFunds)
	require.Equal(t, uint64(1), sender.Nonce)
}

func TestStakeCap(t *testing.T) {
	sender, senderKey := seedWallet(t, 1_000_000)
	recipient, _ := seedWallet(t, 1_000_000)

	tooMuch := sender.CreateStakeTx(1_000_001)
	require.ErrorIs(t, sender.ApplyTx(sign(t, senderKey, tooMuch)), ErrInsufficientFunds)

	ok := sender.CreateStakeTx(1_000_000)
	require.NoError(t, sender.ApplyTx(sign(t, senderKey, ok)))
	require.Equal(t, uint64(1_000_000), sender.Stake)

	blocked := sender.CreateCoinTx(recipient.Address, 1)
	require.ErrorIs(t, sender.ApplyTx(sign(t, senderKey, blocked)), ErrInsufficientFunds)
}

func TestNonceReusedRejected(t *testing.T) {
	sender, senderKey := seedWallet(t, 1_000_000)
	recipient, _ := seedWallet(t, 1_000_000)

	tx := sender.CreateCoinTx(recipient.Address, 10)
	signed := sign(t, senderKey, tx)
	require.NoError(t, sender.ApplyTx(signed))

	err := sender.ApplyTx(signed)
	require.True(t, IsNonceReused(err), "expected NonceReusedError, got %v", err)
}

func TestValidateTxRejectsForgedSender(t *testing.T) {
	sender, _ := seedWallet(t, 1_000_000)
	other, otherKey := seedWallet(t, 1_000_000)

	// A transaction claiming sender's address but signed by another key.
	forged := Transaction{Sender: sender.Address, Kind: KindCoin, Nonce: 0, Amount: 10, Recipient: other.Address}
	signed := sign(t, otherKey, forged)

	_, err := sender.ValidateTx(signed)
	require.ErrorIs(t, err, crypto.ErrInvalidSignature)
}

func TestValidateTxDoesNotMutate(t *testing.T) {
	sender, senderKey := seedWallet(t, 1_000_000)
	recipient, _ := seedWallet(t, 1_000_000)

	tx := sender.CreateCoinTx(recipient.Address, 100)
	signed := sign(t, senderKey, tx)

	before := sender
	_, err := sender.ValidateTx(signed)
	require.NoError(t, err)
	require.Equal(t, before, sender)
}

func TestSelfTransferAppliesOnce(t *testing.T) {
	sender, senderKey := seedWallet(t, 1_000_000)

	tx := sender.CreateCoinTx(sender.Address, 100)
	signed := sign(t, senderKey, tx)
	require.NoError(t, sender.ApplyTx(signed))
	// Net effect of sending coin to oneself: lose only the fee.
	require.Equal(t, uint64(1_000_000-3), sender.Balance)
}
