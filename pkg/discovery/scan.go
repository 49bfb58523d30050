package discovery

import (
	"context"
	"fmt"

	"github.com/btcsuite/btcd/btcutil/hdkeychain"
	log "github.com/sirupsen/logrus"
	"github.com/tdex-network/utxo-wallet/pkg/currency"
	"github.com/tdex-network/utxo-wallet/pkg/explorer"
	"github.com/tdex-network/utxo-wallet/pkg/wallet"
)

// addressCache holds the addresses derived so far for a branch, in index
// order. It is reused across scans.
type addressCache struct {
	branch    wallet.Branch
	currency  *currency.Descriptor
	node      *hdkeychain.ExtendedKey
	addresses []string
}

func newAddressCache(
	node wallet.ExtendedKey, branch wallet.Branch, c *currency.Descriptor,
) (*addressCache, error) {
	key, err := wallet.ParseExtendedKey(node)
	if err != nil {
		return nil, fmt.Errorf("%s: %s node: %w", c.ShortName, branch, err)
	}
	return &addressCache{
		branch:   branch,
		currency: c,
		node:     key,
	}, nil
}

// get returns the addresses in the range [from, to).
func (a *addressCache) get(from, to uint32) ([]string, error) {
	for i := uint32(len(a.addresses)); i < to; i++ {
		child, err := a.node.Derive(i)
		if err != nil {
			return nil, fmt.Errorf("%w: %s", wallet.ErrKeyDerivation, err)
		}
		pubKey, err := child.ECPubKey()
		if err != nil {
			return nil, fmt.Errorf("%w: %s", wallet.ErrKeyDerivation, err)
		}
		address, err := wallet.EncodeAddress(pubKey.SerializeCompressed(), a.currency)
		if err != nil {
			return nil, err
		}
		a.addresses = append(a.addresses, address)
	}

	addresses := make([]string, to-from)
	copy(addresses, a.addresses[from:to])
	return addresses, nil
}

// branchScan is the result of the scan of a branch.
type branchScan struct {
	// records are the used addresses, followed by the empty one if the scan
	// reached the gap limit.
	records []wallet.AddressRecord
	empty   wallet.AddressRecord
	// complete is false if the scan stopped because of a failure.
	complete     bool
	scanned      []string
	transactions []explorer.TxActivity
	utxos        []explorer.Utxo
	lastBlock    int64
}

// scanBranch queries the addresses of the branch in batches until GapLimit
// consecutive unused addresses are found.
func (s *Synchronizer) scanBranch(
	ctx context.Context, branch wallet.Branch,
) (*branchScan, error) {
	cache := s.caches[branch]
	res := &branchScan{
		records:      make([]wallet.AddressRecord, 0),
		scanned:      make([]string, 0),
		transactions: make([]explorer.TxActivity, 0),
		utxos:        make([]explorer.Utxo, 0),
	}
	logger := log.WithFields(log.Fields{
		"currency": s.currency.ShortName,
		"branch":   branch.String(),
	})

	counter := 0
	emptyFound := false
	for from := uint32(0); ; from += BatchSize {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		addresses, err := cache.get(from, from+BatchSize)
		if err != nil {
			logger.WithError(err).Warn("failed to derive addresses, scan stopped")
			return res, nil
		}

		info, err := s.explorer.GetAddressInfo(ctx, addresses)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			logger.WithError(err).Warnf(
				"failed to fetch activity of addresses [%d, %d), scan stopped",
				from, from+BatchSize,
			)
			return res, nil
		}

		res.transactions = append(res.transactions, info.Transactions...)
		res.utxos = append(res.utxos, info.Utxos...)
		if info.LastBlock > res.lastBlock {
			res.lastBlock = info.LastBlock
		}

		for i, address := range addresses {
			record := wallet.AddressRecord{
				Branch:      branch,
				DeriveIndex: from + uint32(i),
				Address:     address,
			}
			if info.HasActivity(address) {
				counter = 0
				res.records = append(res.records, record)
			} else {
				counter++
				if !emptyFound {
					emptyFound = true
					res.empty = record
				}
			}
			res.scanned = append(res.scanned, address)
		}

		if counter >= GapLimit {
			res.records = append(res.records, res.empty)
			res.complete = true
			logger.Debugf("scan completed after %d addresses", len(res.scanned))
			return res, nil
		}
	}
}
