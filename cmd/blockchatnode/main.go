// Command blockchatnode runs one BlockChat peer: it bootstraps into the
// fixed peer set, constructs the full-mesh transport and the replicated
// state machine, then drives the per-tick scheduler while serving the HTTP
// façade and, unless --no-cli is set, the interactive CLI.
//
// Flag handling is an github.com/urfave/cli/v2 App with a TOML config file
// underlay (github.com/naoina/toml) that CLI flags always override.
package main

import (
	"fmt"
	"net"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/blockchat-network/blockchat/api"
	"github.com/blockchat-network/blockchat/blog"
	"github.com/blockchat-network/blockchat/bootstrap"
	"github.com/blockchat-network/blockchat/clirepl"
	"github.com/blockchat-network/blockchat/config"
	"github.com/blockchat-network/blockchat/crypto"
	"github.com/blockchat-network/blockchat/keystore"
	"github.com/blockchat-network/blockchat/node"
	"github.com/blockchat-network/blockchat/transport"
	"github.com/urfave/cli/v2"
)

var (
	flagConfig = &cli.StringFlag{Name: "config", Usage: "TOML config file overlaying the built-in defaults"}

	flagBootstrapLeader = &cli.BoolFlag{Name: "bootstrap-leader", Usage: "act as the bootstrap rendezvous leader and genesis validator"}
	flagPeers           = &cli.IntFlag{Name: "peers", Usage: "total number of peers in the network, including this one"}
	flagBootstrapAddr   = &cli.StringFlag{Name: "bootstrap-addr", Usage: "ip:port of the bootstrap leader"}
	flagListenIP        = &cli.StringFlag{Name: "listen-ip", Usage: "local IP the transport and HTTP façade bind to"}
	flagAPIBasePort     = &cli.IntFlag{Name: "api-base-port", Usage: "HTTP façade listens on api-base-port + assigned index"}
	flagBlockCapacity   = &cli.IntFlag{Name: "block-capacity", Usage: "maximum transactions per minted block"}
	flagGenesisFunds    = &cli.Uint64Flag{Name: "genesis-funds-per-node", Usage: "coin seeded to every non-leader peer at bootstrap"}
	flagMintInterval    = &cli.DurationFlag{Name: "mint-interval", Usage: "upper bound on time between consecutive blocks"}

	flagKeyfile     = &cli.StringFlag{Name: "keyfile", Usage: "path to this peer's encrypted RSA keyfile"}
	flagKeyfilePass = &cli.StringFlag{Name: "keyfile-pass", Usage: "passphrase for --keyfile (created if it does not exist)"}

	flagLogLevel = &cli.StringFlag{Name: "log-level", Usage: "trace|debug|info|warn|error|crit"}
	flagLogJSON  = &cli.BoolFlag{Name: "log-json", Usage: "emit structured JSON log records instead of terminal format"}

	flagNoCLI = &cli.BoolFlag{Name: "no-cli", Usage: "disable the interactive console (useful under a process supervisor)"}
)

func main() {
	app := &cli.App{
		Name:  "blockchatnode",
		Usage: "run a BlockChat peer",
		Flags: []cli.Flag{
			flagConfig,
			flagBootstrapLeader, flagPeers, flagBootstrapAddr, flagListenIP,
			flagAPIBasePort, flagBlockCapacity, flagGenesisFunds, flagMintInterval,
			flagKeyfile, flagKeyfilePass,
			flagLogLevel, flagLogJSON, flagNoCLI,
		},
		Action: run,
	}
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "blockchatnode:", err)
		os.Exit(1)
	}
}

func run(ctx *cli.Context) error {
	cfg := config.Default()
	if path := ctx.String(flagConfig.Name); path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			return err
		}
		cfg = loaded
	}
	overlayFlags(ctx, &cfg)

	lvl, err := blog.LvlFromString(cfg.LogLevel)
	if err != nil {
		return err
	}
	blog.SetRootHandler(blog.HandlerFor(lvl, cfg.LogJSON))
	logger := blog.Root()

	passphrase := ctx.String(flagKeyfilePass.Name)
	key, err := loadOrCreateKey(cfg.KeyfilePath, passphrase)
	if err != nil {
		return fmt.Errorf("keyfile: %w", err)
	}
	self := crypto.AddressFromPublicKey(key.PrivateKey.PublicKey())

	listener, err := net.Listen("tcp", cfg.ListenIP+":0")
	if err != nil {
		return fmt.Errorf("transport: failed to bind: %w", err)
	}
	listenAddr := listener.Addr().String()

	selfInfo := bootstrap.PeerInfo{ListenAddr: listenAddr, PublicKey: key.PrivateKey.PublicKey()}

	var result bootstrap.Result
	if cfg.BootstrapLeader {
		result, err = bootstrap.Leader(cfg.BootstrapAddr, cfg.Peers, selfInfo, key.PrivateKey.PublicKey(), logger)
	} else {
		result, err = bootstrap.Follower(cfg.BootstrapAddr, selfInfo, logger)
	}
	if err != nil {
		return fmt.Errorf("bootstrap: %w", err)
	}

	peerAddrs := make([]string, len(result.Peers))
	for i, p := range result.Peers {
		peerAddrs[i] = p.ListenAddr
	}
	mesh := transport.Connect[node.Message](listener, peerAddrs, result.Index, logger)

	genesisValidator := crypto.AddressFromPublicKey(result.Validator)
	stash := node.GenesisStash(cfg.GenesisFunds, cfg.Peers)
	n := node.New(self, key.PrivateKey, genesisValidator, stash, cfg.BlockCapacity, cfg.MintInterval, mesh, logger)

	if cfg.BootstrapLeader {
		if err := seedGenesisFunds(n, result.Peers, cfg.GenesisFunds); err != nil {
			return fmt.Errorf("genesis seeding: %w", err)
		}
	}

	httpAddr := cfg.ListenIP + ":" + strconv.Itoa(int(cfg.APIBasePort)+result.Index)
	srv := &http.Server{Addr: httpAddr, Handler: api.New(n, logger)}
	go func() {
		logger.Info("api: listening", "addr", httpAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("api: server stopped", "err", err)
		}
	}()

	go driverLoop(n, mesh, logger)

	if ctx.Bool(flagNoCLI.Name) {
		select {}
	}
	repl := clirepl.New(n, logger)
	repl.Run()
	return nil
}

func overlayFlags(ctx *cli.Context, cfg *config.Node) {
	if ctx.IsSet(flagBootstrapLeader.Name) {
		cfg.BootstrapLeader = ctx.Bool(flagBootstrapLeader.Name)
	}
	if ctx.IsSet(flagPeers.Name) {
		cfg.Peers = ctx.Int(flagPeers.Name)
	}
	if ctx.IsSet(flagBootstrapAddr.Name) {
		cfg.BootstrapAddr = ctx.String(flagBootstrapAddr.Name)
	}
	if ctx.IsSet(flagListenIP.Name) {
		cfg.ListenIP = ctx.String(flagListenIP.Name)
	}
	if ctx.IsSet(flagAPIBasePort.Name) {
		cfg.APIBasePort = uint16(ctx.Int(flagAPIBasePort.Name))
	}
	if ctx.IsSet(flagBlockCapacity.Name) {
		cfg.BlockCapacity = ctx.Int(flagBlockCapacity.Name)
	}
	if ctx.IsSet(flagGenesisFunds.Name) {
		cfg.GenesisFunds = ctx.Uint64(flagGenesisFunds.Name)
	}
	if ctx.IsSet(flagMintInterval.Name) {
		cfg.MintInterval = ctx.Duration(flagMintInterval.Name)
	}
	if ctx.IsSet(flagKeyfile.Name) {
		cfg.KeyfilePath = ctx.String(flagKeyfile.Name)
	}
	if ctx.IsSet(flagLogLevel.Name) {
		cfg.LogLevel = ctx.String(flagLogLevel.Name)
	}
	if ctx.IsSet(flagLogJSON.Name) {
		cfg.LogJSON = ctx.Bool(flagLogJSON.Name)
	}
}

// loadOrCreateKey loads the keyfile at path, generating and persisting a
// fresh RSA keypair under it on first run.
func loadOrCreateKey(path, passphrase string) (*keystore.Key, error) {
	if _, err := os.Stat(path); err == nil {
		return keystore.LoadKey(path, passphrase)
	}
	priv, _, err := crypto.GenerateKeypair()
	if err != nil {
		return nil, err
	}
	key := keystore.NewKey(priv)
	if err := keystore.StoreKey(path, key, passphrase, keystore.LightScryptN, keystore.LightScryptP); err != nil {
		return nil, err
	}
	return key, nil
}

// seedGenesisFunds distributes amount to every peer besides self, via
// node.SeedGenesis. n must have been constructed with node.GenesisStash's
// output so the leader's own stash covers every send. The leader mints
// these into the first real block on its next tick.
func seedGenesisFunds(n *node.Node, peers []bootstrap.PeerInfo, amount uint64) error {
	recipients := make([]crypto.Address, 0, len(peers))
	for _, p := range peers {
		recipients = append(recipients, crypto.AddressFromPublicKey(p.PublicKey))
	}
	return n.SeedGenesis(recipients, amount)
}

// driverLoop is the per-node driver thread: it ticks the state
// machine and parks on the transport's AwaitEvents between ticks, bounded
// by whatever wait Step suggests.
func driverLoop(n *node.Node, mesh interface {
	AwaitEvents(timeout *time.Duration)
}, logger blog.Logger) {
	for {
		wait := n.Step(time.Now())
		mesh.AwaitEvents(wait)
	}
}
