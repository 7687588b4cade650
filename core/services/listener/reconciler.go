package listener

import (
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/atomic"

	"github.com/mcieric/infernet-node/core/chain"
	"github.com/mcieric/infernet-node/core/logger"
	"github.com/mcieric/infernet-node/core/store/models"
	"github.com/mcieric/infernet-node/core/utils"
)

// maxBatchRetryDelay caps the exponential backoff between retries of a
// failed batch sync.
const maxBatchRetryDelay = 5 * time.Minute

// Reconciler snapshot-syncs the local view of subscriptions with chain
// state at a pinned block. Because the ChainProcessor keys tracked
// subscriptions by ID and re-tracking a known ID is a no-op, every sync is
// idempotent and safe to repeat over overlapping ranges.
type Reconciler struct {
	coordinator chain.Coordinator
	reader      *chain.SubscriptionReader
	guardian    Guardian
	processor   ChainProcessor
	lggr        *logger.Logger

	batchSize  uint64
	batchSleep time.Duration

	// Owned by the listener; the reconciler only reads it.
	lastSubscriptionID *atomic.Uint64

	chStop  <-chan struct{}
	wgTrack *sync.WaitGroup
}

func newReconciler(
	coordinator chain.Coordinator,
	reader *chain.SubscriptionReader,
	guardian Guardian,
	processor ChainProcessor,
	batchSize uint64,
	batchSleep time.Duration,
	lastSubscriptionID *atomic.Uint64,
	chStop <-chan struct{},
	wgTrack *sync.WaitGroup,
	lggr *logger.Logger,
) *Reconciler {
	return &Reconciler{
		coordinator:        coordinator,
		reader:             reader,
		guardian:           guardian,
		processor:          processor,
		batchSize:          batchSize,
		batchSleep:         batchSleep,
		lastSubscriptionID: lastSubscriptionID,
		chStop:             chStop,
		wgTrack:            wgTrack,
		lggr:               lggr.Named("Reconciler"),
	}
}

// SnapshotSync syncs all subscriptions created after the last synced ID,
// as seen at headBlock. Batches are synced sequentially, each with
// exponential-backoff retry, with a sleep between batches to stay under
// RPC provider rate limits. Returns an error when the highest subscription
// ID cannot be collected, or early when the context is cancelled by
// shutdown.
func (r *Reconciler) SnapshotSync(ctx context.Context, headBlock uint64) error {
	headSubID, err := r.coordinator.HeadSubscriptionID(ctx, headBlock)
	if err != nil {
		return errors.Wrap(err, "collecting highest subscription id")
	}
	r.lggr.Infow("Collected highest subscription id", "id", headSubID, "headBlock", headBlock)

	// Subscription IDs are 1-indexed at the contract level.
	start := r.lastSubscriptionID.Load() + 1
	if start > headSubID {
		return nil
	}

	batches := GetBatches(start, headSubID, r.batchSize)
	r.lggr.Infow("Syncing new subscriptions", "batches", batches)

	for _, batch := range batches {
		if err := r.syncBatchWithRetry(ctx, batch, headBlock); err != nil {
			return err
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(r.batchSleep):
		}
	}
	return nil
}

// syncBatchWithRetry retries syncBatch until it succeeds or shutdown is
// observed. The first retry waits batchSleep; subsequent retries double.
func (r *Reconciler) syncBatchWithRetry(ctx context.Context, batch Batch, blockNumber uint64) error {
	sleeper := utils.NewBackoffSleeperWith(r.batchSleep, maxBatchRetryDelay)
	for {
		err := r.syncBatch(ctx, batch, blockNumber)
		if err == nil {
			return nil
		}
		promSyncBatchRetries.Inc()
		r.lggr.Errorw("Error syncing subscription batch. Retrying...", "batch", batch, "err", err)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(sleeper.Backoff.Duration()):
		}
	}
}

// syncBatch reads one batch of subscriptions at the pinned block, collects
// response counts for those on their terminal interval, then filters each
// through the Guardian and hands accepted ones to the ChainProcessor.
func (r *Reconciler) syncBatch(ctx context.Context, batch Batch, blockNumber uint64) error {
	subscriptions, err := r.reader.ReadSubscriptionBatch(ctx, batch.Start, batch.End, blockNumber)
	if err != nil {
		return err
	}

	// Subscriptions on their terminal interval also carry their response
	// count, so completed ones can be filtered out downstream.
	var (
		ids       []uint64
		intervals []uint32
	)
	for _, sub := range subscriptions {
		if sub.LastInterval() {
			ids = append(ids, sub.ID)
			intervals = append(intervals, sub.Interval())
		}
	}
	if len(ids) > 0 {
		counts, err := r.reader.ReadRedundancyCountBatch(ctx, ids, intervals, blockNumber)
		if err != nil {
			return err
		}
		for i := range ids {
			for j := range subscriptions {
				if subscriptions[j].ID == ids[i] {
					subscriptions[j].SetResponseCount(intervals[i], counts[i])
					break
				}
			}
		}
	}

	for i := range subscriptions {
		msg := models.SubscriptionCreatedMessage{Subscription: subscriptions[i]}

		if gerr := r.guardian.ProcessMessage(msg); gerr != nil {
			promGuardianRejections.Inc()
			r.lggr.Infow("Ignored subscription creation", "id", subscriptions[i].ID, "err", gerr.Reason)
			continue
		}

		r.track(msg)
		promSubscriptionsSynced.Inc()
		r.lggr.Infow("Relayed subscription creation", "id", subscriptions[i].ID)
	}
	return nil
}

// track hands an accepted subscription to the ChainProcessor without
// awaiting it. The goroutine is owned by the listener's wait group and its
// context is cancelled at shutdown, so no tracking work outlives Close.
func (r *Reconciler) track(msg models.SubscriptionCreatedMessage) {
	r.wgTrack.Add(1)
	go func() {
		defer r.wgTrack.Done()
		ctx, cancel := utils.ContextFromChan(r.chStop)
		defer cancel()

		if err := r.processor.Track(ctx, msg); err != nil {
			r.lggr.Errorw("Failed to track subscription", "id", msg.Subscription.ID, "err", err)
		}
	}()
}
