package chain

import (
	"errors"
	"fmt"
)

var (
	// ErrZeroFunds is returned when a zero amount is attached; callers must
	// pass empty Coins to send no funds.
	ErrZeroFunds = errors.New("zero-amount funds are not allowed; omit funds instead")
	// ErrReadOnly is returned by clients that cannot sign.
	ErrReadOnly = errors.New("client is read-only")
	// ErrNoMessages is returned by Execute when msgs is empty.
	ErrNoMessages = errors.New("no messages to execute")
)

// QueryError is a failed read-only query: transport down, malformed
// request or a contract-side query error.
type QueryError struct {
	Query string
	Err   error
}

func (e *QueryError) Error() string {
	if e.Query == "" {
		return fmt.Sprintf("query failed: %v", e.Err)
	}
	return fmt.Sprintf("query %s failed: %v", e.Query, e.Err)
}

func (e *QueryError) Unwrap() error { return e.Err }

// TransportError is a failure to build, sign, broadcast or confirm a
// transaction. Before the confirm stage nothing was included on chain; a
// confirm failure leaves inclusion unknown.
type TransportError struct {
	Stage string // build, sign, broadcast or confirm
	Err   error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("tx %s failed: %v", e.Stage, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// TxError is a transaction that reached the chain and was rejected. Code and
// Codespace are exactly what the chain reported.
type TxError struct {
	Code      uint32
	Codespace string
	TxHash    string
	RawLog    string
}

func (e *TxError) Error() string {
	msg := fmt.Sprintf("transaction rejected: code: %d, codespace: %s", e.Code, e.Codespace)
	if e.TxHash != "" {
		msg += ", txhash: " + e.TxHash
	}
	if e.RawLog != "" {
		msg += ": " + e.RawLog
	}
	return msg
}

// IsTransport reports whether err is a query or transport failure.
func IsTransport(err error) bool {
	var qe *QueryError
	var te *TransportError
	return errors.As(err, &qe) || errors.As(err, &te)
}

// AsTxError extracts a contract rejection from err.
func AsTxError(err error) (*TxError, bool) {
	var te *TxError
	if errors.As(err, &te) {
		return te, true
	}
	return nil, false
}
