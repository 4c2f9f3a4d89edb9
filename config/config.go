// Package config loads a node's TOML configuration file and overlays it
// with CLI flags: a flat struct decoded wholesale by github.com/naoina/toml,
// with command-line values taking precedence over anything the file sets.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/naoina/toml"
)

// Node holds everything a blockchatnode binary needs to bootstrap, mint and
// serve. Load starts from Default() and decodes the file over it; the CLI
// flag overlay in cmd/blockchatnode then applies flag overrides.
type Node struct {
	BootstrapLeader bool   `toml:"bootstrap_leader"`
	Peers           int    `toml:"peers"`
	BootstrapAddr   string `toml:"bootstrap_addr"`
	ListenIP        string `toml:"listen_ip"`
	APIBasePort     uint16 `toml:"api_base_port"`
	BlockCapacity   int    `toml:"block_capacity"`

	// GenesisFunds is the amount the bootstrap leader distributes to every
	// other peer at genesis, not the leader's own stash — node.GenesisStash
	// derives the stash every peer must credit the genesis validator with
	// from this value and Peers, so the leader always has enough to cover
	// every distribution.
	GenesisFunds uint64        `toml:"genesis_funds_per_node"`
	MintInterval time.Duration `toml:"mint_interval"`

	KeyfilePath string `toml:"keyfile"`
	LogLevel    string `toml:"log_level"`
	LogJSON     bool   `toml:"log_json"`
}

// Default returns the configuration every flag overlay starts from.
func Default() Node {
	return Node{
		Peers:         1,
		ListenIP:      "127.0.0.1",
		APIBasePort:   8500,
		BlockCapacity: 100,
		GenesisFunds:  1_000_000,
		MintInterval:  5 * time.Second,
		KeyfilePath:   "keyfile.json",
		LogLevel:      "info",
	}
}

// Load reads and decodes a TOML config file on top of Default(): the file
// overlays defaults, and flags overlay the file.
func Load(path string) (Node, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("config: %w", err)
	}
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("config: invalid TOML in %s: %w", path, err)
	}
	return cfg, nil
}

// Save writes cfg as TOML to path, in the format Load reads back.
func Save(path string, cfg Node) error {
	data, err := toml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
