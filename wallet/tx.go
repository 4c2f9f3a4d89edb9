package wallet

import (
	"github.com/blockchat-network/blockchat/crypto"
)

// Kind discriminates the three transaction payloads a wallet can sign.
type Kind uint8

const (
	KindCoin Kind = iota
	KindMessage
	KindStake
)

func (k Kind) String() string {
	switch k {
	case KindCoin:
		return "coin"
	case KindMessage:
		return "message"
	case KindStake:
		return "stake"
	default:
		return "unknown"
	}
}

// FeePercent is the coin-transfer fee, expressed as a percentage of amount:
// fee = (amount * FeePercent) / 100, floored.
const FeePercent = 3

// Transaction is the unsigned payload a wallet builds and a private key
// signs into a crypto.Signed[Transaction].
//
// Only the fields relevant to Kind are meaningful; Go lacks sum types, so
// Coin/Message/Stake share one flat struct with a discriminant.
type Transaction struct {
	Sender    crypto.Address `json:"sender_address"`
	Kind      Kind           `json:"kind"`
	Nonce     uint64         `json:"nonce"`
	Amount    uint64         `json:"amount,omitempty"`
	Recipient crypto.Address `json:"recipient,omitempty"`
	Text      string         `json:"text,omitempty"`
}

// Fees computes the consumer-paid fee that flows to the block's validator.
func (tx Transaction) Fees() uint64 {
	switch tx.Kind {
	case KindCoin:
		return (tx.Amount * FeePercent) / 100
	case KindMessage:
		return uint64(len(tx.Text))
	case KindStake:
		return 0
	default:
		return 0
	}
}

// Cost is the total value this transaction removes from the sender's
// balance: fees, plus the transferred amount for Coin transactions.
func (tx Transaction) Cost() uint64 {
	cost := tx.Fees()
	if tx.Kind == KindCoin {
		cost += tx.Amount
	}
	return cost
}

// HasRecipient reports whether this kind of transaction names a recipient
// wallet distinct from the sender's bookkeeping (Coin and Message do, Stake
// does not).
func (tx Transaction) HasRecipient() bool {
	return tx.Kind == KindCoin || tx.Kind == KindMessage
}
