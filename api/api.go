// Package api exposes the HTTP façade over a running Node: read endpoints
// for the chain tip and the local wallet, and write endpoints that build,
// sign and broadcast a transaction on the caller's behalf. Routing uses
// github.com/julienschmidt/httprouter for low-overhead method+path dispatch.
package api

import (
	"encoding/json"
	"net/http"

	"github.com/blockchat-network/blockchat/blog"
	"github.com/blockchat-network/blockchat/crypto"
	"github.com/blockchat-network/blockchat/node"
	"github.com/blockchat-network/blockchat/wallet"
	"github.com/julienschmidt/httprouter"
)

// Server wraps a Node with its four HTTP endpoints. Node's own methods
// already take its single exclusive lock around every read and mutation, so
// the façade needs no lock of its own: every handler here does exactly one
// Node call.
type Server struct {
	n      *node.Node
	router *httprouter.Router
	logger blog.Logger
}

// New builds a Server routing the four endpoints over n.
func New(n *node.Node, logger blog.Logger) *Server {
	s := &Server{n: n, logger: logger, router: httprouter.New()}
	s.router.GET("/block", s.handleBlock)
	s.router.GET("/balance", s.handleBalance)
	s.router.POST("/transaction", s.handleTransaction)
	s.router.POST("/stake", s.handleStake)
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

// GET /block → the last signed block on the chain.
func (s *Server) handleBlock(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	writeJSON(w, http.StatusOK, s.n.Tip())
}

// GET /balance → the node's own denormalized wallet.
func (s *Server) handleBalance(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	writeJSON(w, http.StatusOK, s.n.LocalWallet())
}

type transactionRequest struct {
	Recipient string `json:"recipient"`
	Amount    uint64 `json:"amount"`
	Message   string `json:"message"`
}

// POST /transaction with {recipient, amount} builds a Coin transaction;
// with {recipient, message} it builds a Message transaction instead.
func (s *Server) handleTransaction(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req transactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	recipient, err := crypto.ParseAddress(req.Recipient)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	var signed crypto.Signed[wallet.Transaction]
	if req.Message != "" {
		signed, err = s.n.SubmitMessage(recipient, req.Message)
	} else {
		signed, err = s.n.SubmitCoin(recipient, req.Amount)
	}
	if err != nil {
		s.logger.Debug("api: rejected transaction request", "err", err)
		writeError(w, http.StatusBadRequest, err)
		return
	}
	writeJSON(w, http.StatusCreated, signed)
}

type stakeRequest struct {
	Amount uint64 `json:"amount"`
}

// POST /stake with {amount} builds and submits a Stake transaction.
func (s *Server) handleStake(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req stakeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	signed, err := s.n.SubmitStake(req.Amount)
	if err != nil {
		s.logger.Debug("api: rejected stake request", "err", err)
		writeError(w, http.StatusBadRequest, err)
		return
	}
	writeJSON(w, http.StatusCreated, signed)
}
