// Command blockchatbench replays a scripted trace of coin transactions
// across an in-memory BlockChat network and reports how many ticks and how
// much wall-clock time it takes to settle: until every peer's chain has grown
// by as many blocks as the submitted transactions fill at full block
// capacity. It does not check that each individual transaction was included.
// The per-peer summary table uses github.com/olekukonko/tablewriter.
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/blockchat-network/blockchat/blog"
	"github.com/blockchat-network/blockchat/crypto"
	"github.com/blockchat-network/blockchat/network"
	"github.com/blockchat-network/blockchat/node"
	"github.com/olekukonko/tablewriter"
)

type peer struct {
	addr crypto.Address
	priv crypto.PrivateKey
	n    *node.Node
}

func main() {
	numPeers := flag.Int("peers", 5, "number of simulated peers")
	numTx := flag.Int("transactions", 200, "number of coin transactions to replay per sender")
	capacity := flag.Int("block-capacity", 20, "transactions per minted block")
	genesisFunds := flag.Uint64("genesis-funds-per-node", 1_000_000, "coin seeded per non-leader peer")
	mintInterval := flag.Duration("mint-interval", 200*time.Millisecond, "upper bound between minted blocks")
	maxTicks := flag.Int("max-ticks", 10_000, "give up after this many driver ticks")
	flag.Parse()

	if *numPeers < 2 {
		fmt.Fprintln(os.Stderr, "blockchatbench: --peers must be at least 2")
		os.Exit(1)
	}

	logger := blog.New(blog.HandlerFor(blog.LvlWarn, false))

	meshes := network.NewMemoryMesh[node.Message](*numPeers)
	peers := make([]peer, *numPeers)

	keys := make([]crypto.PrivateKey, *numPeers)
	for i := range keys {
		priv, _, err := crypto.GenerateKeypair()
		if err != nil {
			panic(err)
		}
		keys[i] = priv
	}
	genesisValidator := crypto.AddressFromPublicKey(keys[0].PublicKey())
	stash := node.GenesisStash(*genesisFunds, *numPeers)

	for i := range peers {
		addr := crypto.AddressFromPublicKey(keys[i].PublicKey())
		peers[i] = peer{
			addr: addr,
			priv: keys[i],
			n: node.New(addr, keys[i], genesisValidator, stash, *capacity, *mintInterval,
				meshes[i], logger.New("peer", i)),
		}
	}

	// Distribute genesis funds from the leader (peers[0]) to every other
	// peer and drive ticks until it settles, before any of the timed
	// submit/settle measurement below.
	recipients := make([]crypto.Address, 0, *numPeers-1)
	for i := 1; i < *numPeers; i++ {
		recipients = append(recipients, peers[i].addr)
	}
	if err := peers[0].n.SeedGenesis(recipients, *genesisFunds); err != nil {
		fmt.Fprintln(os.Stderr, "blockchatbench: genesis seeding failed:", err)
		os.Exit(1)
	}
	seedTicks := 0
	for seedTicks < *maxTicks {
		now := time.Now()
		allFunded := true
		for i := range peers {
			peers[i].n.Step(now)
			if i > 0 && peers[i].n.LocalWallet().Balance == 0 {
				allFunded = false
			}
		}
		seedTicks++
		if allFunded {
			break
		}
	}

	baseHeight := 0
	for i := range peers {
		if h := peers[i].n.ChainLength(); h > baseHeight {
			baseHeight = h
		}
	}

	start := time.Now()
	submitted := 0
	for i := 1; i < *numPeers; i++ {
		recipient := peers[(i+1)%(*numPeers)].addr
		for j := 0; j < *numTx; j++ {
			if _, err := peers[i].n.SubmitCoin(recipient, 1); err != nil {
				fmt.Fprintln(os.Stderr, "blockchatbench: submit failed:", err)
				continue
			}
			submitted++
		}
	}
	submitDone := time.Now()

	targetHeight := baseHeight + (submitted+*capacity-1)/(*capacity)
	ticks := 0
	for ticks < *maxTicks {
		now := time.Now()
		allSettled := true
		for i := range peers {
			peers[i].n.Step(now)
			if peers[i].n.ChainLength() < targetHeight {
				allSettled = false
			}
		}
		ticks++
		if allSettled {
			break
		}
	}
	settleDone := time.Now()

	report(peers, submitted, ticks, submitDone.Sub(start), settleDone.Sub(submitDone))
}

func report(peers []peer, submitted, ticks int, submitDur, settleDur time.Duration) {
	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"peer", "height", "balance", "nonce"})
	for i, p := range peers {
		w := p.n.LocalWallet()
		table.Append([]string{
			fmt.Sprintf("%d", i),
			fmt.Sprintf("%d", p.n.ChainLength()-1),
			fmt.Sprintf("%d", w.Balance),
			fmt.Sprintf("%d", w.Nonce),
		})
	}
	table.Render()

	fmt.Printf("\nsubmitted %d transactions across %d peers\n", submitted, len(peers))
	fmt.Printf("submit wall-clock: %s\n", submitDur)
	fmt.Printf("settle wall-clock: %s (%d driver ticks)\n", settleDur, ticks)
	if submitted > 0 {
		fmt.Printf("throughput: %.1f tx/s\n", float64(submitted)/settleDur.Seconds())
	}
}
