package main

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stader-labs/kyv-cli/internal/chain"
	"github.com/stader-labs/kyv-cli/internal/exitcodes"
)

var acceptedTx = chain.TxResult{TxHash: "ABCDEF", Height: 42, GasWanted: 200000, GasUsed: 150000}

func TestHandleAddValidators_Confirmed(t *testing.T) {
	addr := bech32Addr(t, "terravaloper")
	eng := &mockEngine{tx: acceptedTx}
	d, out := testDeps(t, "text", eng)
	p := &mockPrompter{interactive: true, responses: []string{"y"}}
	d.Prompter = p

	if err := handleAddValidators(context.Background(), d, []string{addr}); err != nil {
		t.Fatal(err)
	}
	if len(eng.calls) != 1 || eng.calls[0] != "add_validator "+addr {
		t.Errorf("calls = %v", eng.calls)
	}
	containsAll(t, p.prompts[0], addr, "10000000uluna")
	containsAll(t, out.String(), "Validator added", "ABCDEF", "https://finder.terra.money/localterra/tx/ABCDEF")
}

func TestHandleAddValidators_Declined(t *testing.T) {
	eng := &mockEngine{tx: acceptedTx}
	d, out := testDeps(t, "text", eng)
	d.Prompter = &mockPrompter{interactive: true, responses: []string{"n"}}

	if err := handleAddValidators(context.Background(), d, []string{bech32Addr(t, "terravaloper")}); err != nil {
		t.Fatal(err)
	}
	if len(eng.calls) != 0 {
		t.Errorf("engine called after decline: %v", eng.calls)
	}
	containsAll(t, out.String(), "cancelled")
}

func TestHandleAddValidators_NonInteractive(t *testing.T) {
	eng := &mockEngine{}
	d, _ := testDeps(t, "text", eng)
	d.Prompter = &mockPrompter{interactive: false}

	err := handleAddValidators(context.Background(), d, []string{bech32Addr(t, "terravaloper")})
	if exitcodes.CodeForError(err) != exitcodes.PreconditionFailed {
		t.Errorf("err = %v, want precondition failure", err)
	}
	if len(eng.calls) != 0 {
		t.Errorf("engine called: %v", eng.calls)
	}
}

func TestHandleAddValidators_InvalidAddressBeforePrompt(t *testing.T) {
	eng := &mockEngine{}
	d, _ := testDeps(t, "text", eng)
	p := &mockPrompter{interactive: true, responses: []string{"y"}}
	d.Prompter = p

	err := handleAddValidators(context.Background(), d, []string{bech32Addr(t, "terravaloper"), bech32Addr(t, "terra")})
	if exitcodes.CodeForError(err) != exitcodes.InvalidArgs {
		t.Errorf("err = %v, want invalid args", err)
	}
	if len(p.prompts) != 0 || len(eng.calls) != 0 {
		t.Errorf("prompted %v, called %v", p.prompts, eng.calls)
	}
}

func TestHandleAddValidators_Rejected(t *testing.T) {
	rejection := &chain.TxError{Code: 5, Codespace: "wasm", TxHash: "REJECTED"}
	eng := &mockEngine{txErr: rejection}
	d, _ := testDeps(t, "text", eng)
	flagYes = true

	a, b := bech32Addr(t, "terravaloper"), bech32Addr(t, "terravaloper")
	err := handleAddValidators(context.Background(), d, []string{a, b})
	if exitcodes.CodeForError(err) != exitcodes.ContractRejected {
		t.Errorf("exit code = %d", exitcodes.CodeForError(err))
	}
	var txErr *chain.TxError
	if !errors.As(err, &txErr) || txErr != rejection {
		t.Errorf("TxError not reachable: %v", err)
	}
	if len(eng.calls) != 1 {
		t.Errorf("want stop after first failure, calls = %v", eng.calls)
	}
}

func TestHandleRecordMetrics_JSON(t *testing.T) {
	eng := &mockEngine{tx: acceptedTx}
	d, out := testDeps(t, "json", eng)

	if err := handleRecordMetrics(context.Background(), d); err != nil {
		t.Fatal(err)
	}
	var got map[string]any
	if err := json.Unmarshal(out.Bytes(), &got); err != nil {
		t.Fatal(err)
	}
	if got["ok"] != true || got["txhash"] != "ABCDEF" || got["height"] != float64(42) {
		t.Errorf("payload = %v", got)
	}
	if got["explorer"] != "https://finder.terra.money/localterra/tx/ABCDEF" {
		t.Errorf("explorer = %v", got["explorer"])
	}
}

func TestHandleRecordMetrics_TransportError(t *testing.T) {
	terr := &chain.TransportError{Stage: "broadcast", Err: errMock}
	d, _ := testDeps(t, "text", &mockEngine{txErr: terr})

	err := handleRecordMetrics(context.Background(), d)
	if err != terr {
		t.Errorf("transport errors pass through unchanged, got %v", err)
	}
	if exitcodes.CodeForError(err) != exitcodes.NetworkError {
		t.Errorf("exit code = %d", exitcodes.CodeForError(err))
	}
}

func TestHandleRemoveValidator(t *testing.T) {
	addr := bech32Addr(t, "terravaloper")
	eng := &mockEngine{tx: acceptedTx}
	d, out := testDeps(t, "text", eng)
	flagYes = true

	if err := handleRemoveValidator(context.Background(), d, addr); err != nil {
		t.Fatal(err)
	}
	if eng.calls[0] != "remove_validator "+addr {
		t.Errorf("calls = %v", eng.calls)
	}
	containsAll(t, out.String(), "Validator removed")
}

func TestHandleSetRecordsPerRun(t *testing.T) {
	eng := &mockEngine{tx: acceptedTx}
	d, out := testDeps(t, "json", eng)

	if err := handleSetRecordsPerRun(context.Background(), d, 25); err != nil {
		t.Fatal(err)
	}
	if eng.calls[0] != "records_per_run 25" {
		t.Errorf("calls = %v", eng.calls)
	}
	containsAll(t, out.String(), `"records_per_run": 25`)
}

func TestHandleUpdateConfig(t *testing.T) {
	eng := &mockEngine{tx: acceptedTx}
	d, out := testDeps(t, "text", eng)

	if err := handleUpdateConfig(context.Background(), d, 10); err != nil {
		t.Fatal(err)
	}
	if eng.calls[0] != "update_config 10" {
		t.Errorf("calls = %v", eng.calls)
	}
	containsAll(t, out.String(), "Contract config updated", "150000 / 200000")
}
