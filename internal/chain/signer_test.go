package chain

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeyringSigner_AddressIsCached(t *testing.T) {
	bin, dir := makeFakeTerrad(t)
	s := NewKeyringSigner(KeyringOptions{Binary: bin, KeyName: "kyv-manager", KeyringBackend: "test", HomeDir: "/tmp/terra"})
	for i := 0; i < 3; i++ {
		addr, err := s.Address(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "terra1sender", addr)
	}
	calls := readCalls(t, dir)
	require.Len(t, calls, 1, "expected one keys show call")
	assert.Equal(t, "keys show kyv-manager -a --keyring-backend test --home /tmp/terra", calls[0])
}

func TestKeyringSigner_Sign(t *testing.T) {
	bin, dir := makeFakeTerrad(t)
	s := NewKeyringSigner(KeyringOptions{Binary: bin, KeyName: "kyv-manager", KeyringBackend: "test", ChainID: "localterra"})
	signed, err := s.Sign(context.Background(), []byte(`{"body":{}}`))
	require.NoError(t, err)
	assert.Equal(t, `{"body":{}}`, strings.TrimSpace(string(signed)))
	calls := readCalls(t, dir)
	assert.Contains(t, calls[0], "--from kyv-manager --chain-id localterra --keyring-backend test")
}

func TestKeyringSigner_RequiresKeyName(t *testing.T) {
	s := NewKeyringSigner(KeyringOptions{KeyringBackend: "test"})
	_, err := s.Address(context.Background())
	assert.Error(t, err, "address without key name")
	_, err = s.Sign(context.Background(), []byte("{}"))
	assert.Error(t, err, "sign without key name")
}
