// Package bootstrap implements the rendezvous protocol that assigns every
// peer a stable index and distributes the peer list and genesis validator
// key before the full-mesh transport is constructed.
package bootstrap

import (
	"bufio"
	"encoding/json"
	"fmt"
	"net"
	"time"

	"github.com/blockchat-network/blockchat/blog"
	"github.com/blockchat-network/blockchat/crypto"
)

// PeerInfo is the record every peer contributes during rendezvous: where it
// can be reached for the broadcast mesh, and the public key identifying its
// wallet.
type PeerInfo struct {
	ListenAddr string           `json:"listen_addr"`
	PublicKey  crypto.PublicKey `json:"public_key"`
}

// Result is what a node learns once rendezvous completes: its assigned
// index, every peer's record in index order, and the bootstrap data (the
// genesis validator's public key).
type Result struct {
	Index     int
	Peers     []PeerInfo
	Validator crypto.PublicKey
}

const dialRetryInterval = 200 * time.Millisecond

// Leader binds bootstrapAddr and accepts exactly peerCount-1 inbound
// connections (one per follower), assigning indices in arrival order. The
// leader occupies index 0 unconditionally, so its own record never travels
// over a socket.
func Leader(bootstrapAddr string, peerCount int, self PeerInfo, validator crypto.PublicKey, logger blog.Logger) (Result, error) {
	if peerCount < 1 {
		return Result{}, fmt.Errorf("bootstrap: peerCount must be at least 1, got %d", peerCount)
	}

	peers := make([]PeerInfo, peerCount)
	peers[0] = self

	if peerCount == 1 {
		return Result{Index: 0, Peers: peers, Validator: validator}, nil
	}

	listener, err := net.Listen("tcp", bootstrapAddr)
	if err != nil {
		return Result{}, fmt.Errorf("bootstrap: failed to bind %s: %w", bootstrapAddr, err)
	}
	defer listener.Close()

	conns := make([]net.Conn, peerCount-1)
	for i := 0; i < peerCount-1; i++ {
		conn, err := listener.Accept()
		if err != nil {
			return Result{}, fmt.Errorf("bootstrap: accept failed: %w", err)
		}
		var info PeerInfo
		if err := readJSONLine(bufio.NewReader(conn), &info); err != nil {
			return Result{}, fmt.Errorf("bootstrap: failed to read peer record: %w", err)
		}
		peers[i+1] = info
		conns[i] = conn
		logger.Debug("bootstrap: follower joined", "index", i+1, "listen_addr", info.ListenAddr)
	}

	for i, conn := range conns {
		index := i + 1
		if err := writeJSONLine(conn, index); err != nil {
			return Result{}, fmt.Errorf("bootstrap: failed to send index to peer %d: %w", index, err)
		}
		if err := writeJSONLine(conn, peers); err != nil {
			return Result{}, fmt.Errorf("bootstrap: failed to send peer list to peer %d: %w", index, err)
		}
		if err := writeJSONLine(conn, validator); err != nil {
			return Result{}, fmt.Errorf("bootstrap: failed to send bootstrap data to peer %d: %w", index, err)
		}
		conn.Close()
	}

	logger.Info("bootstrap: rendezvous complete", "peers", peerCount)
	return Result{Index: 0, Peers: peers, Validator: validator}, nil
}

// Follower dials bootstrapAddr (retrying with a fixed backoff until the
// leader is reachable), sends its own record, and waits for the leader's
// three-line reply.
func Follower(bootstrapAddr string, self PeerInfo, logger blog.Logger) (Result, error) {
	var conn net.Conn
	var err error
	for {
		conn, err = net.Dial("tcp", bootstrapAddr)
		if err == nil {
			break
		}
		logger.Debug("bootstrap: leader not reachable yet, retrying", "addr", bootstrapAddr, "err", err)
		time.Sleep(dialRetryInterval)
	}
	defer conn.Close()

	if err := writeJSONLine(conn, self); err != nil {
		return Result{}, fmt.Errorf("bootstrap: failed to send peer record: %w", err)
	}

	r := bufio.NewReader(conn)
	var index int
	if err := readJSONLine(r, &index); err != nil {
		return Result{}, fmt.Errorf("bootstrap: failed to read assigned index: %w", err)
	}
	var peers []PeerInfo
	if err := readJSONLine(r, &peers); err != nil {
		return Result{}, fmt.Errorf("bootstrap: failed to read peer list: %w", err)
	}
	var validator crypto.PublicKey
	if err := readJSONLine(r, &validator); err != nil {
		return Result{}, fmt.Errorf("bootstrap: failed to read bootstrap data: %w", err)
	}

	logger.Info("bootstrap: joined network", "index", index, "peers", len(peers))
	return Result{Index: index, Peers: peers, Validator: validator}, nil
}

func writeJSONLine(conn net.Conn, v interface{}) error {
	encoded, err := json.Marshal(v)
	if err != nil {
		return err
	}
	_, err = conn.Write(append(encoded, '\n'))
	return err
}

func readJSONLine(r *bufio.Reader, v interface{}) error {
	line, err := r.ReadString('\n')
	if err != nil && len(line) == 0 {
		return err
	}
	return json.Unmarshal([]byte(line), v)
}
