package node

import (
	"encoding/binary"
	"math/rand"
	"sort"

	"github.com/blockchat-network/blockchat/crypto"
	"github.com/blockchat-network/blockchat/wallet"
)

// ElectValidator picks the validator for the block following the one whose
// content hash is tipHash: an RNG seeded from the tip hash picks a
// point in [0, totalStake), then wallets are walked in ascending address
// order accumulating stake until the point falls inside one wallet's share.
//
// Every peer computes this from the same (tipHash, wallets) pair and must
// agree, so the RNG source and the iteration order are both fixed here: two
// independent calls with identical inputs always return the same address.
func ElectValidator(tipHash crypto.Hash, wallets map[crypto.Address]*wallet.Wallet) crypto.Address {
	addrs := make([]crypto.Address, 0, len(wallets))
	var total uint64
	for addr, w := range wallets {
		if w.Stake > 0 {
			addrs = append(addrs, addr)
			total += w.Stake
		}
	}
	sort.Slice(addrs, func(i, j int) bool { return addrs[i].Less(addrs[j]) })

	if total == 0 || len(addrs) == 0 {
		return crypto.InvalidAddress
	}

	seed := int64(binary.BigEndian.Uint64(tipHash[:8]))
	rng := rand.New(rand.NewSource(seed))
	r := uint64(rng.Int63()) % total

	for _, addr := range addrs {
		stake := wallets[addr].Stake
		if stake > r {
			return addr
		}
		r -= stake
	}
	// Unreachable: r < total and the loop subtracts exactly the stakes that
	// sum to total, so some wallet always matches. Falls back to the last
	// candidate.
	return addrs[len(addrs)-1]
}
