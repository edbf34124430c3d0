package sync

import (
	"fmt"

	"github.com/bitanchor/anchoring/btc"
)

// ChainUpdateError is the typed failure of one ChainUpdateTask.Process call,
// generalized from original_source/src/sync/mod.rs's ChainUpdateError enum.
type ChainUpdateError struct {
	// Kind identifies which arm of the original enum this is.
	Kind ChainUpdateErrorKind
	// Balance/Needed are populated only when Kind == InsufficientFunds.
	Balance, Needed int64
	// Err carries the wrapped client or internal error, for Client and
	// Internal.
	Err error
}

// ChainUpdateErrorKind enumerates the possible ChainUpdateError causes.
type ChainUpdateErrorKind int

const (
	// ChainUpdateClient means the host-chain RPC call itself failed.
	ChainUpdateClient ChainUpdateErrorKind = iota
	// ChainUpdateInsufficientFunds means the last proposal attempt
	// failed for lack of funds; this is not retried by the task itself.
	ChainUpdateInsufficientFunds
	// ChainUpdateNoInitialFunds means the anchoring chain has no genesis
	// funding transaction configured or queued yet.
	ChainUpdateNoInitialFunds
	// ChainUpdateInternal means a local error, e.g. a malformed
	// proposal payload, that is never the host chain's fault.
	ChainUpdateInternal
)

func (e ChainUpdateError) Error() string {
	switch e.Kind {
	case ChainUpdateClient:
		return fmt.Sprintf("sync: host-chain client error: %v", e.Err)
	case ChainUpdateInsufficientFunds:
		return fmt.Sprintf("sync: insufficient funds: need %d, have %d", e.Needed, e.Balance)
	case ChainUpdateNoInitialFunds:
		return "sync: no initial funding transaction"
	case ChainUpdateInternal:
		return fmt.Sprintf("sync: internal error: %v", e.Err)
	default:
		return "sync: unknown chain update error"
	}
}

// SyncWithBitcoinError is the typed failure of one BitcoinSyncTask.Process
// call, generalized from the same source file's SyncWithBitcoinError enum.
type SyncWithBitcoinError struct {
	Kind ChainUpdateErrorKind // reuses Client/Internal; relay errors use Relay below
	Err  error
}

func (e SyncWithBitcoinError) Error() string {
	return fmt.Sprintf("sync: %v", e.Err)
}

// RelayError wraps a failure returned by the Bitcoin relay.
type RelayError struct {
	Err error
}

func (e RelayError) Error() string {
	return fmt.Sprintf("sync: relay error: %v", e.Err)
}

// UnconfirmedFundingTransaction is returned by BitcoinSyncTask's cold-start
// walk-back when the genesis funding transaction itself has no
// confirmations yet, mirroring the original's
// SyncWithBitcoinError::UnconfirmedFundingTransaction arm.
type UnconfirmedFundingTransaction struct {
	FundingTxId btc.TxId
}

func (e UnconfirmedFundingTransaction) Error() string {
	return fmt.Sprintf("sync: initial funding transaction %s is unconfirmed", e.FundingTxId)
}

// MissingChainTransaction is returned when the anchoring chain is shorter
// than the index the task expected to find, which should never happen
// against a well-behaved Ledger.
type MissingChainTransaction struct {
	Index uint64
}

func (e MissingChainTransaction) Error() string {
	return fmt.Sprintf("sync: transaction with index %d is absent from the anchoring chain", e.Index)
}
