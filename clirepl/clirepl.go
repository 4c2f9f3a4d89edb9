// Package clirepl implements the interactive line-editing CLI: the
// t/m/stake/view/balance/help command surface backed by
// github.com/peterh/liner for history and line editing, and
// github.com/olekukonko/tablewriter for the tabular balance/view output.
package clirepl

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/blockchat-network/blockchat/blog"
	"github.com/blockchat-network/blockchat/crypto"
	"github.com/blockchat-network/blockchat/node"
	"github.com/olekukonko/tablewriter"
	"github.com/peterh/liner"
)

const helpText = `Available commands:
  t <address> <amount>   send coin to address
  m <address> <text>     send a chat message to address
  stake <amount>         set your stake
  view                   print the last committed block
  balance                print your wallet
  help                   show this message
  exit                   quit
`

// REPL drives one interactive session against n. Every command goes through
// Node's exported methods, each of which takes the node's exclusive lock.
type REPL struct {
	n      *node.Node
	logger blog.Logger
	line   *liner.State
}

// New builds a REPL over n, reading from stdin/writing to stdout via liner.
func New(n *node.Node, logger blog.Logger) *REPL {
	line := liner.NewLiner()
	line.SetCtrlCAborts(true)
	return &REPL{n: n, logger: logger, line: line}
}

// Close releases the underlying terminal state.
func (r *REPL) Close() error {
	return r.line.Close()
}

// Run reads commands until EOF, Ctrl-D or an "exit" command.
func (r *REPL) Run() {
	defer r.Close()
	fmt.Print(helpText)
	for {
		input, err := r.line.Prompt(fmt.Sprintf("%s> ", r.n.Self().String()[:8]))
		if err != nil {
			if err != io.EOF && err != liner.ErrPromptAborted {
				fmt.Println("clirepl:", err)
			}
			return
		}
		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}
		r.line.AppendHistory(input)
		if input == "exit" || input == "quit" {
			return
		}
		r.dispatch(input)
	}
}

func (r *REPL) dispatch(input string) {
	fields := strings.Fields(input)
	cmd := fields[0]
	args := fields[1:]

	var err error
	switch cmd {
	case "t":
		err = r.cmdCoin(args)
	case "m":
		err = r.cmdMessage(args)
	case "stake":
		err = r.cmdStake(args)
	case "view":
		r.cmdView()
	case "balance":
		r.cmdBalance()
	case "help":
		fmt.Print(helpText)
	default:
		fmt.Printf("unknown command %q; type 'help' for usage\n", cmd)
	}
	if err != nil {
		fmt.Println("error:", err)
	}
}

func (r *REPL) cmdCoin(args []string) error {
	if len(args) != 2 {
		return fmt.Errorf("usage: t <address> <amount>")
	}
	addr, err := crypto.ParseAddress(args[0])
	if err != nil {
		return err
	}
	amount, err := strconv.ParseUint(args[1], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid amount: %w", err)
	}
	_, err = r.n.SubmitCoin(addr, amount)
	return err
}

func (r *REPL) cmdMessage(args []string) error {
	if len(args) < 2 {
		return fmt.Errorf("usage: m <address> <text>")
	}
	addr, err := crypto.ParseAddress(args[0])
	if err != nil {
		return err
	}
	text := strings.Join(args[1:], " ")
	_, err = r.n.SubmitMessage(addr, text)
	return err
}

func (r *REPL) cmdStake(args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: stake <amount>")
	}
	amount, err := strconv.ParseUint(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid amount: %w", err)
	}
	_, err = r.n.SubmitStake(amount)
	return err
}

func (r *REPL) cmdView() {
	tip := r.n.Tip()
	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"field", "value"})
	table.Append([]string{"height", strconv.Itoa(r.n.ChainLength() - 1)})
	table.Append([]string{"timestamp", tip.Data.Timestamp.String()})
	table.Append([]string{"validator", tip.Data.Validator.String()})
	table.Append([]string{"parent_hash", tip.Data.ParentHash.String()})
	table.Append([]string{"hash", tip.Hash.String()})
	table.Append([]string{"transactions", strconv.Itoa(len(tip.Data.Transactions))})
	table.Render()
}

func (r *REPL) cmdBalance() {
	w := r.n.LocalWallet()
	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"field", "value"})
	table.Append([]string{"address", w.Address.String()})
	table.Append([]string{"balance", strconv.FormatUint(w.Balance, 10)})
	table.Append([]string{"stake", strconv.FormatUint(w.Stake, 10)})
	table.Append([]string{"available", strconv.FormatUint(w.AvailableFunds(), 10)})
	table.Append([]string{"nonce", strconv.FormatUint(w.Nonce, 10)})
	table.Render()
}
