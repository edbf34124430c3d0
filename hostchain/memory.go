package hostchain

import (
	"context"
	"sync"

	"github.com/bitanchor/anchoring/anchoring"
)

// MemoryLedger is an in-process Ledger fake used by every unit test in this
// repository, and suitable for operators writing their own tests against
// PrivateAPI without standing up etcd (spec §9's design note on
// substitutable fakes). It guards state with a mutex and a monotonically
// increasing version counter, giving the exact same load/CAS/retry
// semantics StateMachine expects from a real backend.
type MemoryLedger struct {
	mu      sync.Mutex
	state   *State
	version int64
}

// NewMemoryLedger seeds a MemoryLedger with a genesis configuration.
func NewMemoryLedger(genesis anchoring.Configuration) *MemoryLedger {
	return &MemoryLedger{state: NewState(genesis), version: 1}
}

func (m *MemoryLedger) Load(ctx context.Context) (*State, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.Clone(), m.version, nil
}

func (m *MemoryLedger) Save(ctx context.Context, state *State, expectedVersion int64) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if expectedVersion != m.version {
		return 0, Conflict{}
	}
	m.state = state
	m.version++
	return m.version, nil
}
