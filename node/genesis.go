package node

import (
	"github.com/blockchat-network/blockchat/crypto"
	"github.com/blockchat-network/blockchat/wallet"
)

// GenesisStash computes how much the genesis validator must be credited at
// construction time (the amount passed to New) so it can afterwards
// distribute perNodeAmount to every one of the other peers-1 peers via
// SeedGenesis without tripping ErrInsufficientFunds. Every send costs the
// recipient amount plus the Coin fee, and the validator's stake of 1 must
// remain available on top of that.
//
// Every peer in the network must call this with the same perNodeAmount and
// peers so every process builds an identical genesis block; the validator's
// own local balance is otherwise seeded, unseeded, by New alone.
func GenesisStash(perNodeAmount uint64, peers int) uint64 {
	if peers <= 1 {
		return perNodeAmount
	}
	costPerSend := perNodeAmount + (perNodeAmount*wallet.FeePercent)/100
	return uint64(peers-1)*costPerSend + 1
}

// SeedGenesis implements the leader's half of genesis seeding: one
// signed Coin transaction of amount from the validator to every other
// address in recipients, applied locally and queued for broadcast. n must
// have been constructed with a stash from GenesisStash(amount, len(recipients)+1)
// or these sends will fail partway through with ErrInsufficientFunds.
func (n *Node) SeedGenesis(recipients []crypto.Address, amount uint64) error {
	for _, addr := range recipients {
		if addr == n.self {
			continue
		}
		if _, err := n.SubmitCoin(addr, amount); err != nil {
			return err
		}
	}
	return nil
}
