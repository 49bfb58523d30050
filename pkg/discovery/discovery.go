package discovery

import (
	"context"
	"errors"
	"sync"

	log "github.com/sirupsen/logrus"
	"github.com/tdex-network/utxo-wallet/pkg/currency"
	"github.com/tdex-network/utxo-wallet/pkg/explorer"
	"github.com/tdex-network/utxo-wallet/pkg/wallet"
	"golang.org/x/sync/errgroup"
)

const (
	// BatchSize is the number of addresses queried at once for each branch.
	BatchSize = 40
	// GapLimit is the number of consecutive unused addresses after which a
	// branch is considered exhausted.
	GapLimit = 20
)

var (
	// ErrNullExplorer ...
	ErrNullExplorer = errors.New("explorer service must not be null")
)

// SynchronizerOpts is the struct given to NewSynchronizer.
type SynchronizerOpts struct {
	Currency     *currency.Descriptor
	ExternalNode wallet.ExtendedKey
	InternalNode wallet.ExtendedKey
	Explorer     explorer.Service
}

func (o SynchronizerOpts) validate() error {
	if o.Currency == nil {
		return wallet.ErrNullCurrency
	}
	if len(o.ExternalNode) <= 0 || len(o.InternalNode) <= 0 {
		return wallet.ErrNullExtendedKey
	}
	if o.Explorer == nil {
		return ErrNullExplorer
	}
	return nil
}

// Synchronizer discovers the used addresses of the two branches of an
// account and collects their transactions and unspents.
type Synchronizer struct {
	currency *currency.Descriptor
	explorer explorer.Service
	caches   map[wallet.Branch]*addressCache

	lock         *sync.Mutex
	snapshotLock *sync.RWMutex
	snapshot     *Snapshot
}

// NewSynchronizer returns a new Synchronizer for the given branch nodes.
func NewSynchronizer(opts SynchronizerOpts) (*Synchronizer, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}

	caches := make(map[wallet.Branch]*addressCache)
	for branch, node := range map[wallet.Branch]wallet.ExtendedKey{
		wallet.External: opts.ExternalNode,
		wallet.Internal: opts.InternalNode,
	} {
		cache, err := newAddressCache(node, branch, opts.Currency)
		if err != nil {
			return nil, err
		}
		caches[branch] = cache
	}

	return &Synchronizer{
		currency:     opts.Currency,
		explorer:     opts.Explorer,
		caches:       caches,
		lock:         &sync.Mutex{},
		snapshotLock: &sync.RWMutex{},
	}, nil
}

// Start scans both branches and fetches the fee levels concurrently, then
// returns a new snapshot of the account. A failing batch query ends the scan
// of its branch with the addresses found so far, a failing fee query leaves
// the snapshot without fee levels. Concurrent calls are serialized.
func (s *Synchronizer) Start(ctx context.Context) (*Snapshot, error) {
	s.lock.Lock()
	defer s.lock.Unlock()

	var external, internal *branchScan
	var fees []explorer.FeeLevel

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		external, err = s.scanBranch(gctx, wallet.External)
		return
	})
	g.Go(func() (err error) {
		internal, err = s.scanBranch(gctx, wallet.Internal)
		return
	})
	g.Go(func() error {
		if err := gctx.Err(); err != nil {
			return err
		}
		levels, err := s.explorer.GetFees(gctx)
		if err != nil {
			if ctxErr := gctx.Err(); ctxErr != nil {
				return ctxErr
			}
			log.WithError(err).Warnf("%s: failed to fetch fee levels", s.currency.ShortName)
			return nil
		}
		fees = levels
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	snapshot := newSnapshot(external, internal, fees)

	log.Debugf(
		"%s: synced %d external and %d internal addresses, %d unspents, balance %d",
		s.currency.ShortName, len(snapshot.Addresses.External),
		len(snapshot.Addresses.Internal), len(snapshot.Unspents), snapshot.Balance,
	)

	s.snapshotLock.Lock()
	s.snapshot = snapshot
	s.snapshotLock.Unlock()

	return snapshot, nil
}

// Snapshot returns the result of the last successful Start, if any.
func (s *Synchronizer) Snapshot() *Snapshot {
	s.snapshotLock.RLock()
	defer s.snapshotLock.RUnlock()
	return s.snapshot
}
