package chain

import (
	"context"

	"github.com/pkg/errors"

	"github.com/mcieric/infernet-node/core/logger"
	"github.com/mcieric/infernet-node/core/store/models"
)

// SubscriptionReader reads batches of subscriptions and redundancy counts
// through the Reader contract, pinning every call to a single block number
// to avoid time-of-check-to-time-of-use skew between successive reads.
type SubscriptionReader struct {
	reader Reader
	lggr   *logger.Logger
}

// NewSubscriptionReader returns a SubscriptionReader on top of the given
// Reader contract binding.
func NewSubscriptionReader(reader Reader, lggr *logger.Logger) *SubscriptionReader {
	return &SubscriptionReader{
		reader: reader,
		lggr:   lggr.Named("SubscriptionReader"),
	}
}

// ReadSubscriptionBatch reads subscriptions with IDs in [startID, endID)
// at the given block and assembles them into model subscriptions, assigning
// IDs densely by row position.
func (r *SubscriptionReader) ReadSubscriptionBatch(ctx context.Context, startID, endID uint64, blockNumber uint64) ([]models.Subscription, error) {
	if endID <= startID {
		return nil, errors.Errorf("invalid subscription batch [%d, %d)", startID, endID)
	}

	raws, err := r.reader.ReadSubscriptionBatch(ctx, startID, endID, blockNumber)
	if err != nil {
		return nil, errors.Wrapf(err, "reading subscription batch [%d, %d) at block %d", startID, endID, blockNumber)
	}

	subscriptions := make([]models.Subscription, len(raws))
	for i, raw := range raws {
		subscriptions[i] = models.Subscription{
			ID:            startID + uint64(i),
			Owner:         raw.Owner,
			ActiveAt:      raw.ActiveAt,
			Period:        raw.Period,
			Frequency:     raw.Frequency,
			Redundancy:    raw.Redundancy,
			Containers:    raw.Containers,
			Lazy:          raw.Lazy,
			PaymentToken:  raw.PaymentToken,
			PaymentAmount: raw.PaymentAmount,
			Wallet:        raw.Wallet,
			Verifier:      raw.Verifier,
		}
	}

	r.lggr.Debugw("Read subscription batch", "startID", startID, "endID", endID, "blockNumber", blockNumber, "count", len(subscriptions))
	return subscriptions, nil
}

// ReadRedundancyCountBatch reads the on-chain response count for each
// (id, interval) pair at the given block.
func (r *SubscriptionReader) ReadRedundancyCountBatch(ctx context.Context, ids []uint64, intervals []uint32, blockNumber uint64) ([]uint16, error) {
	if len(ids) != len(intervals) {
		return nil, errors.Errorf("ids and intervals must have the same length: %d != %d", len(ids), len(intervals))
	}

	counts, err := r.reader.ReadRedundancyCountBatch(ctx, ids, intervals, blockNumber)
	if err != nil {
		return nil, errors.Wrapf(err, "reading redundancy counts for %d subscriptions at block %d", len(ids), blockNumber)
	}
	if len(counts) != len(ids) {
		return nil, errors.Errorf("reader returned %d counts for %d subscriptions", len(counts), len(ids))
	}
	return counts, nil
}
