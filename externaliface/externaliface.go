// Package externaliface declares the narrow interfaces this consensus
// core expects from everything CANONICAL §1/§6 treats as an external,
// out-of-scope collaborator: wire-level peer protocols, HTTP/JSON-RPC
// servers, wallet/key management, miner block-template assembly,
// mempool fee/eviction policy, and the DNS resolver front-end. The
// authenticated name tree is not declared here; its seam is
// consensus.NameTree. Nothing in this package has logic —
// it exists so a future implementation of any of these pieces has a
// documented seam to implement against without reaching into the
// consensus or chainstore packages' internals.
package externaliface

import (
	"context"

	"github.com/handshake-org/hsd-sub011/consensus"
)

// PeerTransport is the wire-level P2P surface: inventory exchange,
// header/block relay, compact-block reconstruction. Out of scope per
// CANONICAL §1's "HTTP / JSON-RPC servers, CLI, wallet, miner, mempool
// eviction" and networking exclusions.
type PeerTransport interface {
	Announce(ctx context.Context, inv consensus.InvItem) error
	RequestBlock(ctx context.Context, hash consensus.Hash) (*consensus.Block, error)
	RequestHeaders(ctx context.Context, locator []consensus.Hash, stop consensus.Hash) ([]*consensus.BlockHeader, error)
}

// DNSResolverFront reads committed name-tree resources to answer
// recursive DNS queries; it never mutates chain state.
type DNSResolverFront interface {
	ResolveName(ctx context.Context, name string) (resource []byte, ok bool, err error)
}

// RPCServer fronts the chain core with JSON-RPC/HTTP, translating
// wire requests into consensus/chainstore calls and back into JSON.
type RPCServer interface {
	Serve(ctx context.Context, addr string) error
	Shutdown(ctx context.Context) error
}

// KeyManager is the wallet-facing key custody surface: signing
// requests never see raw private key material cross this boundary.
type KeyManager interface {
	Sign(ctx context.Context, keyID string, digest [32]byte) (sig []byte, pub []byte, err error)
	DeriveAddress(ctx context.Context, keyID string, prefix string) (consensus.Address, error)
}

// MinerFeed supplies the block-template assembly loop with candidate
// transactions and their fee-rate ranking; the core only ever receives
// a fully-formed Block to validate, never participates in selection.
type MinerFeed interface {
	CandidateTxs(ctx context.Context, maxWeight uint64) ([]*consensus.TX, error)
}

// MempoolPolicy is the fee/eviction policy surface a node's mempool
// implements; the consensus core only checks the narrow per-tx
// sanity/authorization rules in consensus.CheckTxSane/VerifyInputs and
// never needs to know about relay policy, replace-by-fee, or eviction.
type MempoolPolicy interface {
	Accept(tx *consensus.TX, feeRate uint64) (accepted bool, reason string)
	Evict(maxBytes uint64) []consensus.Hash
}
