// Package node implements the replicated state machine: genesis
// construction, stake-weighted validator election, transaction and block
// handling, block minting, and the per-tick driver loop that ties them
// together with a Network transport.
package node

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/blockchat-network/blockchat/blog"
	"github.com/blockchat-network/blockchat/crypto"
	"github.com/blockchat-network/blockchat/network"
	"github.com/blockchat-network/blockchat/wallet"
)

type mempoolKey struct {
	Sender crypto.Address
	Nonce  uint64
}

// Node owns the chain, the authoritative wallet map, the mempool, and the
// local keypair. External façades talk to it only through its exported
// methods, all of which take the node's single exclusive lock.
type Node struct {
	mu sync.Mutex

	self         crypto.Address
	priv         crypto.PrivateKey
	capacity     int
	mintInterval time.Duration

	wallets map[crypto.Address]*wallet.Wallet
	local   *wallet.Wallet

	mempool map[mempoolKey]crypto.Signed[wallet.Transaction]

	chain []crypto.Signed[Block]

	outbox []Message

	net    network.Network[Message]
	logger blog.Logger
}

// New constructs a node with the deterministic genesis block: a single
// invalid-signature Coin transaction crediting genesisFunds to
// genesisValidator, whose wallet is seeded with stake=1 so total stake is
// positive from the very first election.
func New(
	self crypto.Address,
	priv crypto.PrivateKey,
	genesisValidator crypto.Address,
	genesisFunds uint64,
	capacity int,
	mintInterval time.Duration,
	net network.Network[Message],
	logger blog.Logger,
) *Node {
	genesisTx := wallet.Transaction{
		Sender:    crypto.InvalidAddress,
		Kind:      wallet.KindCoin,
		Nonce:     0,
		Amount:    genesisFunds,
		Recipient: genesisValidator,
	}
	genesisBlock := Block{
		Timestamp:    time.Time{},
		Transactions: []crypto.Signed[wallet.Transaction]{crypto.NewInvalidSigned(genesisTx)},
		Validator:    crypto.InvalidAddress,
		ParentHash:   crypto.Hash{},
	}

	validatorWallet := wallet.New(genesisValidator)
	validatorWallet.AddFunds(genesisFunds)
	validatorWallet.SetStake(1)

	wallets := map[crypto.Address]*wallet.Wallet{genesisValidator: &validatorWallet}

	local := wallet.New(self)
	if self == genesisValidator {
		local.AddFunds(genesisFunds)
		local.SetStake(1)
	}

	return &Node{
		self:         self,
		priv:         priv,
		capacity:     capacity,
		mintInterval: mintInterval,
		wallets:      wallets,
		local:        &local,
		mempool:      make(map[mempoolKey]crypto.Signed[wallet.Transaction]),
		chain:        []crypto.Signed[Block]{crypto.NewInvalidSigned(genesisBlock)},
		net:          net,
		logger:       logger.New("self", self.String()),
	}
}

// Self returns the node's own address.
func (n *Node) Self() crypto.Address { return n.self }

// Tip returns the most recently committed block.
func (n *Node) Tip() crypto.Signed[Block] {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.chain[len(n.chain)-1]
}

// ChainLength returns the number of blocks committed, genesis included.
func (n *Node) ChainLength() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.chain)
}

// Chain returns a snapshot of every committed block, genesis first.
func (n *Node) Chain() []crypto.Signed[Block] {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]crypto.Signed[Block], len(n.chain))
	copy(out, n.chain)
	return out
}

// LocalWallet returns a snapshot of the node's own denormalized wallet.
func (n *Node) LocalWallet() wallet.Wallet {
	n.mu.Lock()
	defer n.mu.Unlock()
	return *n.local
}

// NextValidator returns the elected validator for the block following the
// current tip.
func (n *Node) NextValidator() crypto.Address {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.nextValidatorLocked()
}

func (n *Node) nextValidatorLocked() crypto.Address {
	tip := n.chain[len(n.chain)-1]
	return ElectValidator(tip.Hash, n.wallets)
}

// HandleTransaction verifies the envelope, then stages the
// transaction in the mempool keyed by (sender, nonce). The authoritative
// funds check happens later, at block construction/validation time.
func (n *Node) HandleTransaction(signed crypto.Signed[wallet.Transaction]) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.handleTransactionLocked(signed)
}

func (n *Node) handleTransactionLocked(signed crypto.Signed[wallet.Transaction]) error {
	if err := signed.Verify(); err != nil {
		n.logger.Debug("dropping unverifiable transaction", "err", err)
		return err
	}
	if crypto.AddressFromPublicKey(signed.PublicKey) != signed.Data.Sender {
		n.logger.Debug("dropping transaction whose sender is not the signing key")
		return crypto.ErrInvalidSignature
	}
	key := mempoolKey{Sender: signed.Data.Sender, Nonce: signed.Data.Nonce}
	n.mempool[key] = signed
	return nil
}

// HandleBlock verifies the block envelope, checks that the block extends the
// current tip and names the elected validator, applies every transaction to
// a scratch copy of the wallet map, and commits atomically on success.
// Failure leaves all state untouched.
func (n *Node) HandleBlock(signed crypto.Signed[Block]) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.handleBlockLocked(signed)
}

func (n *Node) handleBlockLocked(signed crypto.Signed[Block]) error {
	if err := signed.Verify(); err != nil {
		return crypto.ErrInvalidSignature
	}
	if tip := n.chain[len(n.chain)-1]; signed.Data.ParentHash != tip.Hash {
		return fmt.Errorf("node: block parent %s is not the current tip %s", signed.Data.ParentHash, tip.Hash)
	}
	if signed.Data.Validator != n.nextValidatorLocked() {
		return ErrInvalidBlockValidator
	}

	scratch := make(map[crypto.Address]*wallet.Wallet, len(n.wallets))
	for addr, w := range n.wallets {
		cp := *w
		scratch[addr] = &cp
	}
	scratchGet := func(addr crypto.Address) *wallet.Wallet {
		if w, ok := scratch[addr]; ok {
			return w
		}
		w := wallet.New(addr)
		scratch[addr] = &w
		return &w
	}

	var totalFees uint64
	for _, tx := range signed.Data.Transactions {
		sender := scratchGet(tx.Data.Sender)
		if err := sender.ApplyTx(tx); err != nil {
			return err
		}
		if tx.Data.HasRecipient() && tx.Data.Recipient != tx.Data.Sender {
			recipient := scratchGet(tx.Data.Recipient)
			if err := recipient.ApplyTx(tx); err != nil {
				return err
			}
		}
		totalFees += tx.Data.Fees()
	}
	scratchGet(signed.Data.Validator).AddFunds(totalFees)

	n.wallets = scratch
	for _, tx := range signed.Data.Transactions {
		delete(n.mempool, mempoolKey{Sender: tx.Data.Sender, Nonce: tx.Data.Nonce})
	}
	n.chain = append(n.chain, signed)

	n.mirrorCommitToLocal(signed.Data, totalFees)
	return nil
}

// mirrorCommitToLocal keeps the denormalized local wallet consistent with a
// just-committed block: the local wallet is only ever updated here for
// roles the authoring path does not already cover — recipient credits and
// validator fee credits — never for the sender role, which the authoring
// façade already applied at authoring time.
func (n *Node) mirrorCommitToLocal(block Block, totalFees uint64) {
	for _, tx := range block.Transactions {
		if tx.Data.Kind == wallet.KindCoin && tx.Data.Recipient == n.self && tx.Data.Sender != n.self {
			n.local.AddFunds(tx.Data.Amount)
		}
	}
	if block.Validator == n.self {
		n.local.AddFunds(totalFees)
	}
}

// mintBlock builds and signs a block of at most capacity mempool
// transactions. Only called when the node has determined it is the elected
// validator for the next slot.
func (n *Node) mintBlock(now time.Time) crypto.Signed[Block] {
	type entry struct {
		key mempoolKey
		tx  crypto.Signed[wallet.Transaction]
	}
	working := make([]entry, 0, len(n.mempool))
	for k, tx := range n.mempool {
		working = append(working, entry{key: k, tx: tx})
	}
	n.mempool = make(map[mempoolKey]crypto.Signed[wallet.Transaction])
	sort.Slice(working, func(i, j int) bool {
		if working[i].key.Sender != working[j].key.Sender {
			return working[i].key.Sender.Less(working[j].key.Sender)
		}
		return working[i].key.Nonce < working[j].key.Nonce
	})

	scratch := make(map[crypto.Address]*wallet.Wallet, len(n.wallets))
	for addr, w := range n.wallets {
		cp := *w
		scratch[addr] = &cp
	}
	scratchGet := func(addr crypto.Address) *wallet.Wallet {
		if w, ok := scratch[addr]; ok {
			return w
		}
		w := wallet.New(addr)
		scratch[addr] = &w
		return &w
	}

	included := make([]crypto.Signed[wallet.Transaction], 0, n.capacity)
	for _, e := range working {
		if len(included) >= n.capacity {
			n.mempool[e.key] = e.tx
			continue
		}
		sender := scratchGet(e.key.Sender)
		err := sender.ApplyTx(e.tx)
		if wallet.IsNonceReused(err) {
			continue // stale, drop permanently
		}
		if err != nil {
			n.mempool[e.key] = e.tx // transient (e.g. insufficient funds): retry later
			continue
		}
		if e.tx.Data.HasRecipient() && e.tx.Data.Recipient != e.tx.Data.Sender {
			recipient := scratchGet(e.tx.Data.Recipient)
			if err := recipient.ApplyTx(e.tx); err != nil {
				n.mempool[e.key] = e.tx
				continue
			}
		}
		included = append(included, e.tx)
	}

	tip := n.chain[len(n.chain)-1]
	block := Block{
		Timestamp:    now,
		Transactions: included,
		Validator:    n.self,
		ParentHash:   tip.Hash,
	}
	signed, err := crypto.Sign(n.priv, block)
	if err != nil {
		n.logger.Crit("failed to sign minted block", "err", err)
	}
	return signed
}

// SubmitCoin builds, signs, locally applies and queues for broadcast a Coin
// transaction from this node.
func (n *Node) SubmitCoin(recipient crypto.Address, amount uint64) (crypto.Signed[wallet.Transaction], error) {
	return n.submit(func() wallet.Transaction { return n.local.CreateCoinTx(recipient, amount) })
}

// SubmitMessage builds, signs, locally applies and queues for broadcast a
// Message transaction from this node.
func (n *Node) SubmitMessage(recipient crypto.Address, text string) (crypto.Signed[wallet.Transaction], error) {
	return n.submit(func() wallet.Transaction { return n.local.CreateMessageTx(recipient, text) })
}

// SubmitStake builds, signs, locally applies and queues for broadcast a
// Stake transaction from this node.
func (n *Node) SubmitStake(amount uint64) (crypto.Signed[wallet.Transaction], error) {
	return n.submit(func() wallet.Transaction { return n.local.CreateStakeTx(amount) })
}

func (n *Node) submit(build func() wallet.Transaction) (crypto.Signed[wallet.Transaction], error) {
	n.mu.Lock()
	defer n.mu.Unlock()

	tx := build()
	signed, err := crypto.Sign(n.priv, tx)
	if err != nil {
		return crypto.Signed[wallet.Transaction]{}, err
	}
	if err := n.local.ApplyTx(signed); err != nil {
		return crypto.Signed[wallet.Transaction]{}, err
	}
	key := mempoolKey{Sender: tx.Sender, Nonce: tx.Nonce}
	n.mempool[key] = signed
	n.outbox = append(n.outbox, TransactionMessage(signed))
	return signed, nil
}

// Step runs one driver tick: drain the outbox to the network,
// drain the inbox into the state machine, then mint and broadcast a block
// if this node is the elected validator and either the mempool is full or
// the mint interval has elapsed. It returns a suggested wait before the
// next call.
func (n *Node) Step(now time.Time) *time.Duration {
	n.mu.Lock()
	defer n.mu.Unlock()

	for _, msg := range n.outbox {
		n.net.Send(msg)
	}
	n.outbox = nil

	for {
		msg, ok := n.net.Recv()
		if !ok {
			break
		}
		switch msg.Kind {
		case MsgTransaction:
			if err := n.handleTransactionLocked(msg.Transaction); err != nil {
				n.logger.Debug("rejected incoming transaction", "err", err)
			}
		case MsgBlock:
			if err := n.handleBlockLocked(msg.Block); err != nil {
				n.logger.Warn("rejected incoming block", "err", err)
			}
		}
	}

	if n.nextValidatorLocked() != n.self {
		return nil
	}

	tip := n.chain[len(n.chain)-1]
	mintDue := tip.Data.Timestamp.Add(n.mintInterval)
	if len(n.mempool) < n.capacity && now.Before(mintDue) {
		wait := mintDue.Sub(now)
		return &wait
	}

	signed := n.mintBlock(now)
	if err := n.handleBlockLocked(signed); err != nil {
		n.logger.Error("failed to apply locally minted block", "err", err)
	} else {
		n.net.Send(BlockMessage(signed))
	}
	wait := n.mintInterval
	return &wait
}
