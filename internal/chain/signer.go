package chain

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
)

// KeyringOptions configures a KeyringSigner.
type KeyringOptions struct {
	Binary         string
	HomeDir        string
	KeyName        string
	KeyringBackend string
	ChainID        string
	Node           string
	Runner         Runner
}

// KeyringSigner signs with a key held in the chain binary's keyring. The
// mnemonic never passes through this process.
type KeyringSigner struct {
	opts KeyringOptions

	mu   sync.Mutex
	addr string
}

// NewKeyringSigner returns a Signer bound to one keyring key.
func NewKeyringSigner(opts KeyringOptions) *KeyringSigner {
	if opts.Binary == "" {
		opts.Binary = "terrad"
	}
	if opts.Runner == nil {
		opts.Runner = ExecRunner{}
	}
	return &KeyringSigner{opts: opts}
}

func (s *KeyringSigner) keyringArgs() []string {
	args := []string{"--keyring-backend", s.opts.KeyringBackend}
	if s.opts.HomeDir != "" {
		args = append(args, "--home", s.opts.HomeDir)
	}
	return args
}

// Address resolves (once) the bech32 account address of the key.
func (s *KeyringSigner) Address(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.addr != "" {
		return s.addr, nil
	}
	if s.opts.KeyName == "" {
		return "", errors.New("key name required")
	}
	args := append([]string{"keys", "show", s.opts.KeyName, "-a"}, s.keyringArgs()...)
	out, err := s.opts.Runner.Run(ctx, s.opts.Binary, args...)
	if err != nil {
		return "", fmt.Errorf("keys show %s: %w", s.opts.KeyName, err)
	}
	addr := strings.TrimSpace(string(out))
	if addr == "" {
		return "", fmt.Errorf("keys show %s: empty address", s.opts.KeyName)
	}
	s.addr = addr
	return addr, nil
}

// Sign signs an unsigned tx JSON document and returns the signed document.
func (s *KeyringSigner) Sign(ctx context.Context, unsignedTx []byte) ([]byte, error) {
	if s.opts.KeyName == "" {
		return nil, errors.New("key name required")
	}
	tmp, err := os.CreateTemp("", "kyv-unsigned-*.json")
	if err != nil {
		return nil, err
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(unsignedTx); err != nil {
		_ = tmp.Close()
		return nil, err
	}
	_ = tmp.Close()

	args := []string{"tx", "sign", tmp.Name(), "--from", s.opts.KeyName, "--chain-id", s.opts.ChainID}
	args = append(args, s.keyringArgs()...)
	if s.opts.Node != "" {
		args = append(args, "--node", s.opts.Node)
	}
	args = append(args, "-o", "json")
	out, err := s.opts.Runner.Run(ctx, s.opts.Binary, args...)
	if err != nil {
		return nil, fmt.Errorf("tx sign: %w", err)
	}
	return firstJSONObject(out)
}
