package kyv

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidatorMetric_UnmarshalFieldNames(t *testing.T) {
	var legacy, current ValidatorMetric
	require.NoError(t, json.Unmarshal([]byte(`{"addr":"terravaloper1a","rewards":"100","delegated_amount":"10000000","timestamp":1630407446}`), &legacy))
	require.NoError(t, json.Unmarshal([]byte(`{"operator_addr":"terravaloper1a","rewards":"100","delegated_amount":"10000000","timestamp":1630407446}`), &current))

	want := ValidatorMetric{Address: "terravaloper1a", RewardsAccrued: "100", DelegatedAmount: "10000000", Timestamp: 1630407446}
	assert.Equal(t, want, legacy)
	assert.Equal(t, want, current)
}

func TestValidatorMetric_NumericAmountsKeepText(t *testing.T) {
	var m ValidatorMetric
	require.NoError(t, json.Unmarshal([]byte(`{"addr":"a","rewards":12345678901234567890.5,"delegated_amount":7,"timestamp":1}`), &m))
	assert.Equal(t, "12345678901234567890.5", m.RewardsAccrued)
	assert.Equal(t, "7", m.DelegatedAmount)

	err := json.Unmarshal([]byte(`{"addr":"a","rewards":true,"delegated_amount":"1"}`), &m)
	assert.ErrorIs(t, err, ErrInvalidAmount)
}

func TestValidatorMetric_MissingAmountIsInvalid(t *testing.T) {
	for name, body := range map[string]string{
		"missing delegated": `{"addr":"a","rewards":"1","timestamp":1}`,
		"null delegated":    `{"addr":"a","rewards":"1","delegated_amount":null,"timestamp":1}`,
		"missing rewards":   `{"addr":"a","delegated_amount":"1","timestamp":1}`,
		"null rewards":      `{"addr":"a","rewards":null,"delegated_amount":"1","timestamp":1}`,
	} {
		t.Run(name, func(t *testing.T) {
			var m ValidatorMetric
			err := json.Unmarshal([]byte(body), &m)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidAmount)
			assert.Contains(t, err.Error(), "missing")
		})
	}

	var rows []ValidatorMetric
	err := json.Unmarshal([]byte(`[{"addr":"a","rewards":"1","delegated_amount":"1"},{"addr":"b","rewards":"1"}]`), &rows)
	assert.ErrorIs(t, err, ErrInvalidAmount)
}
