package anchoring

import (
	"fmt"

	"github.com/bitanchor/anchoring/btc"
)

// InsufficientFunds is returned by BuildProposal when no combination of the
// tip output and queued funding outputs covers the estimated fee plus dust
// threshold (spec §4.3).
type InsufficientFunds struct {
	Balance int64
	Needed  int64
}

func (e InsufficientFunds) Error() string {
	return fmt.Sprintf("anchoring: insufficient funds: have %d, need %d", e.Balance, e.Needed)
}

// NoInitialFunds is returned by BuildProposal when the chain has no tip
// transaction yet and the funding queue is empty, i.e. the service has never
// received its genesis funding.
type NoInitialFunds struct{}

func (e NoInitialFunds) Error() string {
	return "anchoring: no tip transaction and no funding available"
}

// ChainBroken is returned when an entry is appended that does not reference
// the current tip's transaction id and output index.
type ChainBroken struct {
	Reason string
}

func (e ChainBroken) Error() string {
	return fmt.Sprintf("anchoring: chain broken: %s", e.Reason)
}

// IncorrectLect is returned by audit checks when a reported LECT does not
// correspond to any entry the service itself proposed or recognizes.
type IncorrectLect struct {
	Reason string
	Tx     btc.Tx
}

func (e IncorrectLect) Error() string {
	return fmt.Sprintf("anchoring: incorrect lect: %s", e.Reason)
}

// LectNotFound is returned when no quorum of validators has reported a
// matching LECT for the anchoring transaction expected at height.
type LectNotFound struct {
	Height uint64
}

func (e LectNotFound) Error() string {
	return fmt.Sprintf("anchoring: no quorum lect reported for height %d", e.Height)
}
