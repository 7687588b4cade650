package listener

import (
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/atomic"

	"github.com/mcieric/infernet-node/core/chain"
	"github.com/mcieric/infernet-node/core/logger"
	"github.com/mcieric/infernet-node/core/service"
	"github.com/mcieric/infernet-node/core/store/models"
	"github.com/mcieric/infernet-node/core/utils"
)

//go:generate mockery --name Guardian --output ./mocks/ --case=underscore --structname Guardian --filename guardian.go
//go:generate mockery --name ChainProcessor --output ./mocks/ --case=underscore --structname ChainProcessor --filename chain_processor.go

const (
	// subscriptionSyncBatchSize caps how many subscriptions a single run
	// loop iteration reports as pending sync.
	subscriptionSyncBatchSize = 20

	// blockSyncCeiling caps how many blocks a single run loop iteration
	// may advance, bounding RPC load when far behind head.
	blockSyncCeiling = 100

	// idlePollInterval is how long the run loop sleeps when caught up to
	// head.
	idlePollInterval = 500 * time.Millisecond
)

var (
	promSubscriptionsSynced = promauto.NewCounter(prometheus.CounterOpts{
		Name: "listener_subscriptions_relayed_total",
		Help: "Number of subscriptions accepted by the guardian and relayed to the chain processor",
	})
	promGuardianRejections = promauto.NewCounter(prometheus.CounterOpts{
		Name: "listener_guardian_rejections_total",
		Help: "Number of subscriptions dropped by guardian policy",
	})
	promSyncBatchRetries = promauto.NewCounter(prometheus.CounterOpts{
		Name: "listener_sync_batch_retries_total",
		Help: "Number of subscription batch syncs that failed and were retried",
	})
)

type (
	// Guardian filters subscription messages against local node policy
	// before they are admitted for tracking. A nil return admits the
	// message.
	Guardian interface {
		ProcessMessage(msg models.SubscriptionCreatedMessage) *models.GuardianError
	}

	// ChainProcessor owns admitted subscriptions, keyed by ID, and
	// schedules their execution. Tracking an already-known ID is a no-op,
	// which is what makes snapshot syncs idempotent.
	ChainProcessor interface {
		Track(ctx context.Context, msg models.SubscriptionCreatedMessage) error
	}

	// Config is the configuration surface the listener consumes.
	Config interface {
		TrailHeadBlocks() uint64
		SnapshotSyncSleep() time.Duration
		SnapshotSyncBatchSize() uint64
	}

	// The Listener replays on-chain Coordinator subscriptions into local
	// state. On Start it snapshot-syncs everything visible up to
	// head - trail, then keeps advancing a synced-head pointer: each
	// iteration moves at most blockSyncCeiling blocks, reconciles new
	// subscriptions at the pinned head, and sleeps when caught up.
	//
	// All reads trail the chain head by the configured margin, so
	// reorganizations up to that depth never disturb synced state.
	Listener struct {
		utils.StartStopOnce

		rpc         chain.Client
		coordinator chain.Coordinator
		reconciler  *Reconciler
		config      Config
		lggr        *logger.Logger

		lastSyncedBlock    atomic.Uint64
		lastSubscriptionID atomic.Uint64

		chStop  chan struct{}
		wgDone  sync.WaitGroup
		wgTrack sync.WaitGroup
	}
)

var _ service.Service = (*Listener)(nil)

// NewListener creates a new Listener wired to its chain views and
// downstream collaborators.
func NewListener(
	rpc chain.Client,
	coordinator chain.Coordinator,
	reader *chain.SubscriptionReader,
	guardian Guardian,
	processor ChainProcessor,
	config Config,
	lggr *logger.Logger,
) *Listener {
	lggr = lggr.Named("ChainListener")
	l := &Listener{
		rpc:         rpc,
		coordinator: coordinator,
		config:      config,
		lggr:        lggr,
		chStop:      make(chan struct{}),
	}
	l.reconciler = newReconciler(
		coordinator,
		reader,
		guardian,
		processor,
		config.SnapshotSyncBatchSize(),
		config.SnapshotSyncSleep(),
		&l.lastSubscriptionID,
		l.chStop,
		&l.wgTrack,
		lggr,
	)
	lggr.Infow("Initialized ChainListener")
	return l
}

// Start snapshot-syncs subscriptions up to head - trail, then spawns the
// run loop.
func (l *Listener) Start() error {
	return l.StartOnce("ChainListener", func() error {
		ctx, cancel := utils.ContextFromChan(l.chStop)
		defer cancel()

		head, err := l.headBlock(ctx)
		if err != nil {
			return errors.Wrap(err, "collecting head block number")
		}

		l.lastSyncedBlock.Store(head)
		l.lastSubscriptionID.Store(0)

		l.lggr.Infow("Started snapshot sync", "head", head, "behind", l.config.TrailHeadBlocks())
		if err := l.reconciler.SnapshotSync(ctx, head); err != nil {
			return errors.Wrap(err, "snapshot sync")
		}
		l.lggr.Infow("Finished snapshot sync", "newHead", head)

		l.wgDone.Add(1)
		go l.runForever()
		return nil
	})
}

// Close stops the run loop and waits for it, and for any in-flight
// tracking tasks, to finish.
func (l *Listener) Close() error {
	return l.StopOnce("ChainListener", func() error {
		close(l.chStop)
		l.wgDone.Wait()
		l.wgTrack.Wait()
		return nil
	})
}

// Ready implements service.Checkable.
func (l *Listener) Ready() error { return nil }

// Healthy implements service.Checkable.
func (l *Listener) Healthy() error { return nil }

// LastSyncedBlock returns the highest block the listener has synced
// through. Monotonically non-decreasing.
func (l *Listener) LastSyncedBlock() uint64 {
	return l.lastSyncedBlock.Load()
}

// LastSubscriptionID returns the highest subscription ID the listener has
// synced through. Monotonically non-decreasing.
func (l *Listener) LastSubscriptionID() uint64 {
	return l.lastSubscriptionID.Load()
}

// headBlock returns the chain head trailed by the configured safety
// margin.
func (l *Listener) headBlock(ctx context.Context) (uint64, error) {
	head, err := l.rpc.HeadBlockNumber(ctx)
	if err != nil {
		return 0, err
	}
	trail := l.config.TrailHeadBlocks()
	if head < trail {
		return 0, nil
	}
	return head - trail, nil
}

// runForever is the core event loop. Errors are logged and retried on the
// next iteration; nothing propagates out until shutdown.
func (l *Listener) runForever() {
	defer l.wgDone.Done()

	ctx, cancel := utils.ContextFromChan(l.chStop)
	defer cancel()

	l.lggr.Infow("Started ChainListener lifecycle", "lastSynced", l.lastSyncedBlock.Load())

	for {
		select {
		case <-l.chStop:
			return
		default:
		}

		head, err := l.headBlock(ctx)
		if err != nil {
			l.lggr.Errorw("Failed to collect head block number", "err", err)
			if !l.sleep(idlePollInterval) {
				return
			}
			continue
		}

		lastSynced := l.lastSyncedBlock.Load()
		if head <= lastSynced {
			l.lggr.Debugw("No new blocks, sleeping for 500ms", "head", head, "synced", lastSynced, "behind", l.config.TrailHeadBlocks())
			if !l.sleep(idlePollInterval) {
				return
			}
			continue
		}

		numBlocksToSync := head - lastSynced
		if numBlocksToSync > blockSyncCeiling {
			numBlocksToSync = blockSyncCeiling
		}
		targetBlock := lastSynced + numBlocksToSync

		headSubID, err := l.coordinator.HeadSubscriptionID(ctx, targetBlock)
		if err != nil {
			l.lggr.Errorw("Failed to collect head subscription id", "err", err, "targetBlock", targetBlock)
			if !l.sleep(idlePollInterval) {
				return
			}
			continue
		}

		var numSubsToSync uint64
		if lastSubID := l.lastSubscriptionID.Load(); headSubID > lastSubID {
			numSubsToSync = headSubID - lastSubID
		}
		if numSubsToSync > subscriptionSyncBatchSize {
			numSubsToSync = subscriptionSyncBatchSize
		}
		l.lggr.Infow("Checking subscriptions",
			"lastSubID", l.lastSubscriptionID.Load(), "headSubID", headSubID,
			"numSubsToSync", numSubsToSync, "headBlock", head)

		if err := l.reconciler.SnapshotSync(ctx, head); err != nil {
			if ctx.Err() != nil {
				return
			}
			l.lggr.Errorw("Failed to snapshot sync", "err", err, "headBlock", head)
			if !l.sleep(idlePollInterval) {
				return
			}
			continue
		}

		l.lastSyncedBlock.Store(targetBlock)
		l.lastSubscriptionID.Store(headSubID)

		l.lggr.Infow("Checked for new subscriptions",
			"lastSynced", targetBlock, "lastSubID", headSubID)
	}
}

// sleep waits for d, returning false if shutdown was observed instead.
func (l *Listener) sleep(d time.Duration) bool {
	select {
	case <-l.chStop:
		return false
	case <-time.After(d):
		return true
	}
}
