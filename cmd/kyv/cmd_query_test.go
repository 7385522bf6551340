package main

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stader-labs/kyv-cli/internal/exitcodes"
	"github.com/stader-labs/kyv-cli/internal/kyv"
)

func TestHandleState_JSONPassesThrough(t *testing.T) {
	eng := &mockEngine{state: json.RawMessage(`{"manager":"terra1abc","total_validators":2}`)}
	d, out := testDeps(t, "json", eng)

	if err := handleState(context.Background(), d, false); err != nil {
		t.Fatal(err)
	}
	var got map[string]any
	if err := json.Unmarshal(out.Bytes(), &got); err != nil {
		t.Fatalf("not JSON: %v\n%s", err, out.String())
	}
	if got["manager"] != "terra1abc" {
		t.Errorf("manager = %v", got["manager"])
	}
	if len(eng.calls) != 1 || eng.calls[0] != "state" {
		t.Errorf("calls = %v", eng.calls)
	}
}

func TestHandleState_Legacy(t *testing.T) {
	eng := &mockEngine{current: json.RawMessage(`{"current_cw20_index":4}`)}
	d, out := testDeps(t, "text", eng)

	if err := handleState(context.Background(), d, true); err != nil {
		t.Fatal(err)
	}
	if eng.calls[0] != "current_state" {
		t.Errorf("calls = %v", eng.calls)
	}
	containsAll(t, out.String(), "Contract state (legacy)", `"current_cw20_index": 4`)
}

func TestHandleState_YAML(t *testing.T) {
	eng := &mockEngine{state: json.RawMessage(`{"manager":"terra1abc"}`)}
	d, out := testDeps(t, "yaml", eng)

	if err := handleState(context.Background(), d, false); err != nil {
		t.Fatal(err)
	}
	if strings.TrimSpace(out.String()) != "manager: terra1abc" {
		t.Errorf("yaml = %q", out.String())
	}
}

func TestHandleState_Error(t *testing.T) {
	d, out := testDeps(t, "text", &mockEngine{err: errMock})
	if err := handleState(context.Background(), d, false); err != errMock {
		t.Errorf("err = %v, want errMock", err)
	}
	if out.Len() != 0 {
		t.Errorf("nothing should be printed on error, got %q", out.String())
	}
}

func TestHandleContractConfig(t *testing.T) {
	eng := &mockEngine{contract: json.RawMessage(`{"batch_size":10}`)}
	d, out := testDeps(t, "text", eng)

	if err := handleContractConfig(context.Background(), d); err != nil {
		t.Fatal(err)
	}
	containsAll(t, out.String(), "Contract config", `"batch_size": 10`)
}

func TestHandleTimestamps(t *testing.T) {
	eng := &mockEngine{timestamps: []uint64{1640995200, 1641081600}}
	d, out := testDeps(t, "text", eng)

	if err := handleTimestamps(context.Background(), d); err != nil {
		t.Fatal(err)
	}
	containsAll(t, out.String(), "TIMESTAMP", "1640995200", "2022-01-01T00:00:00Z", "2022-01-02T00:00:00Z")
}

func TestHandleTimestamps_EmptyJSON(t *testing.T) {
	d, out := testDeps(t, "json", &mockEngine{})

	if err := handleTimestamps(context.Background(), d); err != nil {
		t.Fatal(err)
	}
	var got struct {
		Timestamps []uint64 `json:"timestamps"`
		Count      int      `json:"count"`
	}
	if err := json.Unmarshal(out.Bytes(), &got); err != nil {
		t.Fatal(err)
	}
	if got.Timestamps == nil || got.Count != 0 {
		t.Errorf("want empty list, got %+v (%s)", got, out.String())
	}
}

func TestHandleHistory_Table(t *testing.T) {
	eng := &mockEngine{history: []kyv.ValidatorMetric{
		{Address: "terravaloper1a", RewardsAccrued: "1500000", DelegatedAmount: "250000000", Timestamp: 1640995200},
		{Address: "terravaloper1b", RewardsAccrued: "0", DelegatedAmount: "1000", Timestamp: 1640995200},
	}}
	d, out := testDeps(t, "text", eng)

	if err := handleHistory(context.Background(), d, 1640995200, nil); err != nil {
		t.Fatal(err)
	}
	if eng.calls[0] != "history 1640995200" {
		t.Errorf("calls = %v", eng.calls)
	}
	s := out.String()
	containsAll(t, s, "VALIDATOR", "terravaloper1a", "250,000,000", "1,500,000", "terravaloper1b", "1,000")
	if strings.Index(s, "terravaloper1a") > strings.Index(s, "terravaloper1b") {
		t.Error("contract order not preserved")
	}
}

func TestHandleHistory_NoSnapshot(t *testing.T) {
	d, out := testDeps(t, "text", &mockEngine{})
	if err := handleHistory(context.Background(), d, 5, nil); err != nil {
		t.Fatal(err)
	}
	containsAll(t, out.String(), "no snapshot at 5")
}

func TestHandleHistory_JSON(t *testing.T) {
	eng := &mockEngine{history: []kyv.ValidatorMetric{{Address: "terravaloper1a", RewardsAccrued: "10", DelegatedAmount: "20", Timestamp: 7}}}
	d, out := testDeps(t, "json", eng)
	if err := handleHistory(context.Background(), d, 7, nil); err != nil {
		t.Fatal(err)
	}
	containsAll(t, out.String(), `"addr": "terravaloper1a"`, `"rewards": "10"`, `"delegated_amount": "20"`, `"timestamp": 7`)
}

func TestHandleHistory_Paged(t *testing.T) {
	eng := &mockEngine{metrics: []kyv.ValidatorMetric{
		{Address: "terravaloper1c", RewardsAccrued: "5", DelegatedAmount: "50", Timestamp: 9},
	}}
	d, out := testDeps(t, "text", eng)

	page := &kyv.Page{From: 2, To: 2}
	if err := handleHistory(context.Background(), d, 9, page); err != nil {
		t.Fatal(err)
	}
	if eng.calls[0] != "validators_metrics_at 9" || eng.lastPage != page {
		t.Errorf("calls = %v, page = %+v", eng.calls, eng.lastPage)
	}
	containsAll(t, out.String(), "terravaloper1c", "50")
}

func TestHandleValidatorHistory(t *testing.T) {
	eng := &mockEngine{metrics: []kyv.ValidatorMetric{
		{Address: "terravaloper1a", RewardsAccrued: "1", DelegatedAmount: "1000", Timestamp: 100},
		{Address: "terravaloper1a", RewardsAccrued: "2", DelegatedAmount: "1000", Timestamp: 200},
	}}
	d, out := testDeps(t, "text", eng)

	if err := handleValidatorHistory(context.Background(), d, "terravaloper1a", nil); err != nil {
		t.Fatal(err)
	}
	if err := handleValidatorHistory(context.Background(), d, "terravaloper1a", []uint64{100, 200}); err != nil {
		t.Fatal(err)
	}
	want := []string{"validator_metrics terravaloper1a", "validator_metrics terravaloper1a 100 200"}
	if strings.Join(eng.calls, "|") != strings.Join(want, "|") {
		t.Errorf("calls = %v, want %v", eng.calls, want)
	}
	containsAll(t, out.String(), "RECORDED", "1,000", formatUnix(200))
}

func TestHandleValidatorHistory_EmptyJSON(t *testing.T) {
	d, out := testDeps(t, "json", &mockEngine{})
	if err := handleValidatorHistory(context.Background(), d, "terravaloper1a", nil); err != nil {
		t.Fatal(err)
	}
	var got struct {
		Validator string            `json:"validator"`
		Metrics   []json.RawMessage `json:"metrics"`
	}
	if err := json.Unmarshal(out.Bytes(), &got); err != nil {
		t.Fatal(err)
	}
	if got.Validator != "terravaloper1a" || got.Metrics == nil || len(got.Metrics) != 0 {
		t.Errorf("got %+v (%s)", got, out.String())
	}
}

func TestValidatorHistoryCmd_Args(t *testing.T) {
	cmd := newValidatorHistoryCmd()
	for _, args := range [][]string{{}, {"a", "1"}, {"a", "1", "2", "3"}} {
		if err := cmd.Args(cmd, args); exitcodes.CodeForError(err) != exitcodes.InvalidArgs {
			t.Errorf("args %v: err = %v, want invalid args", args, err)
		}
	}
	for _, args := range [][]string{{"a"}, {"a", "1", "2"}} {
		if err := cmd.Args(cmd, args); err != nil {
			t.Errorf("args %v: %v", args, err)
		}
	}
	if err := cmd.RunE(cmd, []string{"a", "200", "100"}); exitcodes.CodeForError(err) != exitcodes.InvalidArgs {
		t.Errorf("reversed range: err = %v, want invalid args", err)
	}
}

func TestHandleValidatorMetrics(t *testing.T) {
	eng := &mockEngine{metric: kyv.ValidatorMetric{Address: "terravaloper1a", RewardsAccrued: "1500000", DelegatedAmount: "250000000", Timestamp: 300}}
	d, out := testDeps(t, "text", eng)

	if err := handleValidatorMetrics(context.Background(), d, "terravaloper1a", 300); err != nil {
		t.Fatal(err)
	}
	if eng.calls[0] != "validator_metrics_at terravaloper1a 300" {
		t.Errorf("calls = %v", eng.calls)
	}
	containsAll(t, out.String(), "Validator: terravaloper1a", "Delegated: 250,000,000", "Rewards: 1,500,000")
}

func TestHandleValidatorMetrics_Error(t *testing.T) {
	d, out := testDeps(t, "text", &mockEngine{err: errMock})
	if err := handleValidatorMetrics(context.Background(), d, "terravaloper1a", 300); !errors.Is(err, errMock) {
		t.Errorf("err = %v, want errMock", err)
	}
	if out.Len() != 0 {
		t.Errorf("no output expected, got %q", out.String())
	}
}
