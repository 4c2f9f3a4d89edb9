package node

import (
	"time"

	"github.com/blockchat-network/blockchat/crypto"
	"github.com/blockchat-network/blockchat/wallet"
)

// Block is the unsigned payload of one chain entry: a timestamp, the
// included signed transactions in the order they were applied, the
// elected validator that minted it, and the hash of its parent.
type Block struct {
	Timestamp    time.Time                           `json:"timestamp"`
	Transactions []crypto.Signed[wallet.Transaction] `json:"transactions"`
	Validator    crypto.Address                      `json:"validator"`
	ParentHash   crypto.Hash                         `json:"parent_hash"`
}

// MessageKind discriminates the two payloads a peer message can carry.
type MessageKind uint8

const (
	MsgTransaction MessageKind = iota
	MsgBlock
)

// Message is the tagged union carried over the wire: exactly one of
// Transaction or Block is meaningful, selected by Kind. Go has no sum
// types, so this follows the same flat-struct-with-discriminant shape as
// wallet.Transaction.
type Message struct {
	Kind        MessageKind                       `json:"kind"`
	Transaction crypto.Signed[wallet.Transaction] `json:"transaction,omitempty"`
	Block       crypto.Signed[Block]              `json:"block,omitempty"`
}

// TransactionMessage wraps a signed transaction for broadcast.
func TransactionMessage(tx crypto.Signed[wallet.Transaction]) Message {
	return Message{Kind: MsgTransaction, Transaction: tx}
}

// BlockMessage wraps a signed block for broadcast.
func BlockMessage(block crypto.Signed[Block]) Message {
	return Message{Kind: MsgBlock, Block: block}
}
