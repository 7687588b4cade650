// Package chain defines the read-only surface the node requires from the
// chain, and the SubscriptionReader that assembles model subscriptions out
// of the Reader contract's batched views.
package chain

import (
	"context"
)

//go:generate mockery --name Client --output ../internal/mocks/ --case=underscore --structname RPCClient --filename rpc_client.go
//go:generate mockery --name Coordinator --output ../internal/mocks/ --case=underscore --structname Coordinator --filename coordinator.go
//go:generate mockery --name Reader --output ../internal/mocks/ --case=underscore --structname Reader --filename reader.go

type (
	// Client is the RPC capability the node consumes. The node never signs
	// or submits transactions; reads are all it needs.
	Client interface {
		HeadBlockNumber(ctx context.Context) (uint64, error)
	}

	// Coordinator exposes the subscription bookkeeping of the on-chain
	// Coordinator contract.
	Coordinator interface {
		// HeadSubscriptionID returns the highest subscription ID visible at
		// the given block.
		HeadSubscriptionID(ctx context.Context, blockNumber uint64) (uint64, error)
	}

	// Reader exposes the batched view calls of the Reader contract. Both
	// calls are evaluated at a pinned block number so that successive reads
	// observe a single consistent chain state.
	Reader interface {
		// ReadSubscriptionBatch returns the raw subscription rows for IDs in
		// [startID, endID).
		ReadSubscriptionBatch(ctx context.Context, startID, endID uint64, blockNumber uint64) ([]RawSubscription, error)

		// ReadRedundancyCountBatch returns the response count for each
		// (id, interval) pair. ids and intervals must have the same length;
		// the result has that length too.
		ReadRedundancyCountBatch(ctx context.Context, ids []uint64, intervals []uint32, blockNumber uint64) ([]uint16, error)
	}

	// RawSubscription is a subscription row as returned by the Reader
	// contract, before an ID is assigned. IDs are positional: the i-th row
	// of a batch starting at startID has ID startID+i.
	RawSubscription struct {
		Owner         string
		ActiveAt      uint64
		Period        uint32
		Frequency     uint32
		Redundancy    uint16
		Containers    []string
		Lazy          bool
		Verifier      string
		PaymentAmount uint64
		PaymentToken  string
		Wallet        string
	}
)
