package ui

import (
	"errors"
	"strconv"
	"strings"

	"github.com/stader-labs/kyv-cli/internal/chain"
	"github.com/stader-labs/kyv-cli/internal/kyv"
)

// ErrorMessage represents a structured, actionable error to present to users.
type ErrorMessage struct {
	Problem string   // one-line problem statement
	Causes  []string // possible causes
	Actions []string // actionable steps to resolve
	Hints   []string // optional hints (e.g., commands to try)
}

// Format renders the error using the color theme. It does not include ANSI
// codes when colors are disabled (NO_COLOR or dumb terminal).
func (e ErrorMessage) Format(c *ColorConfig) string {
	var b strings.Builder
	if c.EmojiEnabled {
		b.WriteString(c.Error("✗ "))
	} else {
		b.WriteString(c.Error("[ERR] "))
	}
	b.WriteString(c.Header("Error"))
	b.WriteString("\n")
	if e.Problem != "" {
		b.WriteString("  ")
		b.WriteString(c.Label("Problem"))
		b.WriteString(": ")
		b.WriteString(e.Problem)
		b.WriteString("\n")
	}
	writeList(&b, c, "Possible causes", "   • ", e.Causes, false)
	writeList(&b, c, "Try", "   → ", e.Actions, false)
	writeList(&b, c, "Hints", "   · ", e.Hints, true)
	return b.String()
}

func writeList(b *strings.Builder, c *ColorConfig, title, bullet string, items []string, dim bool) {
	if len(items) == 0 {
		return
	}
	b.WriteString("  ")
	b.WriteString(c.Label(title))
	b.WriteString(":\n")
	for _, it := range items {
		b.WriteString(bullet)
		if dim {
			it = c.Description(it)
		}
		b.WriteString(it)
		b.WriteString("\n")
	}
}

// ErrorFor explains a chain or engine error to an operator.
func ErrorFor(err error) ErrorMessage {
	msg := ErrorMessage{Problem: err.Error()}
	var te *chain.TransportError
	var ie *kyv.IntervalError

	if txErr, ok := chain.AsTxError(err); ok {
		msg.Causes = []string{"The contract rejected the transaction (code " + strconv.FormatUint(uint64(txErr.Code), 10) + ", codespace " + txErr.Codespace + ")"}
		if txErr.Codespace == "wasm" {
			msg.Causes = append(msg.Causes, "The signing key is not the contract manager, or the message is invalid for the contract state")
		}
		msg.Actions = []string{"Check the contract state: kyv state", "Verify --key refers to the manager account"}
		if txErr.TxHash != "" {
			msg.Hints = []string{"txhash: " + txErr.TxHash}
		}
		return msg
	}
	if errors.As(err, &ie) {
		msg.Hints = append(msg.Hints, "The interval chain was aborted at element "+strconv.Itoa(ie.Index))
	}
	switch {
	case errors.Is(err, kyv.ErrNoSnapshot):
		msg.Causes = []string{"No metrics were recorded at or near the requested timestamp"}
		msg.Actions = []string{"List recorded timestamps: kyv timestamps"}
	case errors.Is(err, kyv.ErrInvalidAmount):
		msg.Causes = []string{"The contract returned a metric with a missing or non-decimal amount"}
		msg.Actions = []string{"Inspect the raw snapshot: kyv history <timestamp> -o json"}
	case errors.As(err, &te):
		msg.Causes = []string{"The transaction could not be " + stageVerb(te.Stage)}
		msg.Actions = []string{"Check --rpc points to a reachable node", "Check the key exists: terrad keys list"}
	case chain.IsTransport(err):
		msg.Causes = []string{"The node or LCD endpoint is unreachable", "The query is not understood by the contract"}
		msg.Actions = []string{"Check --rpc / --lcd and --contract"}
	case errors.Is(err, chain.ErrReadOnly):
		msg.Causes = []string{"Transactions need the chain binary client with a signing key"}
		msg.Actions = []string{"Drop --lcd and pass --key"}
	}
	return msg
}

func stageVerb(stage string) string {
	switch stage {
	case "build":
		return "built"
	case "sign":
		return "signed"
	case "confirm":
		return "confirmed as included"
	}
	return "broadcast"
}

// ErrorPayload is the structured (json/yaml) rendering of a failure.
func ErrorPayload(err error) map[string]any {
	out := map[string]any{"ok": false, "error": err.Error()}
	if txErr, ok := chain.AsTxError(err); ok {
		out["code"] = txErr.Code
		out["codespace"] = txErr.Codespace
		if txErr.TxHash != "" {
			out["txhash"] = txErr.TxHash
		}
	}
	return out
}
