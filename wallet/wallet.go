package wallet

import (
	"fmt"

	"github.com/blockchat-network/blockchat/crypto"
)

// Wallet is the per-address account state tracked by a Node: balance,
// staked amount and the sender-side nonce counter. A Node owns one Wallet
// per address it has ever seen as a sender or recipient, plus one
// denormalized copy of its own wallet.
type Wallet struct {
	Address crypto.Address `json:"address"`
	Balance uint64         `json:"balance"`
	Stake   uint64         `json:"stake"`
	Nonce   uint64         `json:"nonce"`
}

// New returns a freshly materialized, zero-balance wallet for addr. Entries
// are created this way on first mention as sender or recipient and never
// destroyed.
func New(addr crypto.Address) Wallet {
	return Wallet{Address: addr}
}

// AvailableFunds is the portion of Balance not locked as Stake.
func (w Wallet) AvailableFunds() uint64 {
	return w.Balance - w.Stake
}

// createTx builds an unsigned transaction carrying the wallet's current
// nonce. Builders never mutate the wallet; the nonce only advances when the
// resulting signed transaction is later applied.
func (w Wallet) createTx(kind Kind, amount uint64, recipient crypto.Address, text string) Transaction {
	return Transaction{
		Sender:    w.Address,
		Kind:      kind,
		Nonce:     w.Nonce,
		Amount:    amount,
		Recipient: recipient,
		Text:      text,
	}
}

// CreateCoinTx builds an unsigned Coin(amount, recipient) transaction.
func (w Wallet) CreateCoinTx(recipient crypto.Address, amount uint64) Transaction {
	return w.createTx(KindCoin, amount, recipient, "")
}

// CreateMessageTx builds an unsigned Message(text, recipient) transaction.
func (w Wallet) CreateMessageTx(recipient crypto.Address, text string) Transaction {
	return w.createTx(KindMessage, 0, recipient, text)
}

// CreateStakeTx builds an unsigned Stake(amount) transaction.
func (w Wallet) CreateStakeTx(amount uint64) Transaction {
	return w.createTx(KindStake, amount, crypto.Address{}, "")
}

// ValidateTx checks a signed transaction against this wallet's state:
//  1. the envelope must verify and the declared sender must be the address
//     of the key that signed it;
//  2. if this wallet is the sender, the nonce must not be stale and the
//     kind-specific funds check must pass.
//
// It never mutates the wallet. On success it returns the verified
// transaction payload.
func (w Wallet) ValidateTx(signed crypto.Signed[Transaction]) (Transaction, error) {
	if err := signed.Verify(); err != nil {
		return Transaction{}, err
	}
	tx := signed.Data
	if crypto.AddressFromPublicKey(signed.PublicKey) != tx.Sender {
		return Transaction{}, crypto.ErrInvalidSignature
	}

	if tx.Sender != w.Address {
		return tx, nil
	}

	if tx.Nonce < w.Nonce {
		return Transaction{}, NonceReused(tx.Nonce, w.Nonce)
	}

	fees := tx.Fees()
	switch tx.Kind {
	case KindCoin:
		if tx.Amount+fees > w.AvailableFunds() {
			return Transaction{}, ErrInsufficientFunds
		}
	case KindMessage:
		if fees > w.AvailableFunds() {
			return Transaction{}, ErrInsufficientFunds
		}
	case KindStake:
		if tx.Amount > w.Balance {
			return Transaction{}, ErrInsufficientFunds
		}
	}
	return tx, nil
}

// ApplyTx validates then applies a signed transaction to this wallet. It is
// not idempotent: callers must never apply the same transaction to the same
// wallet twice.
func (w *Wallet) ApplyTx(signed crypto.Signed[Transaction]) error {
	tx, err := w.ValidateTx(signed)
	if err != nil {
		return err
	}

	if tx.Sender == w.Address {
		w.Nonce = tx.Nonce + 1
		w.Balance -= tx.Fees()
		switch tx.Kind {
		case KindCoin:
			w.Balance -= tx.Amount
		case KindStake:
			w.Stake = tx.Amount
		case KindMessage:
			// Message fees already subtracted above; no balance moves to
			// the recipient.
		}
	}

	if tx.Kind == KindCoin && tx.Recipient == w.Address {
		w.Balance += tx.Amount
	}
	return nil
}

// AddFunds credits amount to the wallet's balance. Used during genesis
// seeding and by the validator's fee credit at block commit.
func (w *Wallet) AddFunds(amount uint64) {
	w.Balance += amount
}

// SetStake sets the wallet's staked amount directly, bypassing ApplyTx. It
// panics if amount exceeds the current balance: stake can never exceed
// balance, and this privileged mutator is only ever called with values
// already known to satisfy that (genesis seeding).
func (w *Wallet) SetStake(amount uint64) {
	if amount > w.Balance {
		panic(fmt.Sprintf("wallet: SetStake(%d) exceeds balance %d", amount, w.Balance))
	}
	w.Stake = amount
}
