package config

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadOverlaysDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "node.toml")
	require.NoError(t, Save(path, Node{
		Peers:         4,
		BootstrapAddr: "127.0.0.1:9000",
		MintInterval:  3 * time.Second,
	}))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, 4, cfg.Peers)
	require.Equal(t, "127.0.0.1:9000", cfg.BootstrapAddr)
	require.Equal(t, 3*time.Second, cfg.MintInterval)
}

func TestLoadMissingFileErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
	require.Error(t, err)
}

func TestDefaultHasSaneCapacityAndFunds(t *testing.T) {
	cfg := Default()
	require.Greater(t, cfg.BlockCapacity, 0)
	require.Greater(t, cfg.GenesisFunds, uint64(0))
	require.Greater(t, cfg.MintInterval, time.Duration(0))
}
