package hostchain

import (
	"context"
	"encoding/binary"
	"fmt"

	"github.com/bitanchor/anchoring/btc"
	clientv3 "go.etcd.io/etcd/client/v3"
)

// BlockSource supplies the height and hash of the host chain's current tip,
// the external event StateMachine.OnBlock reacts to (spec §4.4). It is this
// service's one dependency on the host chain's own block production; a
// validator process polls it on a ticker the same way sync.BitcoinSyncTask
// polls relay.Relay for Bitcoin confirmations.
type BlockSource interface {
	LatestBlock(ctx context.Context) (height uint64, hash btc.Hash, err error)
}

// MemoryBlockSource is a self-advancing fake for tests and for running
// without a real host chain client: each call advances the height by one and
// derives a deterministic hash from it, so OnBlock always has a new block to
// react to.
type MemoryBlockSource struct {
	height uint64
}

// NewMemoryBlockSource returns a BlockSource that advances by one block on
// every call, starting from height 1.
func NewMemoryBlockSource() *MemoryBlockSource {
	return &MemoryBlockSource{}
}

func (s *MemoryBlockSource) LatestBlock(ctx context.Context) (uint64, btc.Hash, error) {
	s.height++
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], s.height)
	sum := shaSum(buf[:])
	hash, err := btc.NewHash(sum[:])
	return s.height, hash, err
}

// EtcdBlockSource reads the host chain's current tip height/hash from a
// dedicated etcd key pair under prefix. Those keys are written by the host
// chain's own consensus process, outside this repo's scope (spec §1 scopes
// this repository to the anchoring coordination core, not host-chain
// consensus); this service only ever reads them, the same read-only
// relationship relay.Relay has to an external Bitcoin node.
type EtcdBlockSource struct {
	client *clientv3.Client
	prefix string
}

// NewEtcdBlockSource returns a BlockSource reading height/hash from
// "<prefix>/height" and "<prefix>/hash" in client's keyspace.
func NewEtcdBlockSource(client *clientv3.Client, prefix string) *EtcdBlockSource {
	return &EtcdBlockSource{client: client, prefix: prefix}
}

func (s *EtcdBlockSource) LatestBlock(ctx context.Context) (uint64, btc.Hash, error) {
	heightResp, err := s.client.Get(ctx, s.prefix+"/height")
	if err != nil {
		return 0, btc.Hash{}, fmt.Errorf("reading host chain height: %w", err)
	}
	if len(heightResp.Kvs) == 0 {
		return 0, btc.Hash{}, fmt.Errorf("host chain height not yet published under %s/height", s.prefix)
	}
	if len(heightResp.Kvs[0].Value) != 8 {
		return 0, btc.Hash{}, fmt.Errorf("host chain height value at %s/height is not 8 bytes", s.prefix)
	}
	height := binary.BigEndian.Uint64(heightResp.Kvs[0].Value)

	hashResp, err := s.client.Get(ctx, s.prefix+"/hash")
	if err != nil {
		return 0, btc.Hash{}, fmt.Errorf("reading host chain block hash: %w", err)
	}
	if len(hashResp.Kvs) == 0 {
		return 0, btc.Hash{}, fmt.Errorf("host chain block hash not yet published under %s/hash", s.prefix)
	}
	hash, err := btc.NewHash(hashResp.Kvs[0].Value)
	if err != nil {
		return 0, btc.Hash{}, err
	}
	return height, hash, nil
}
