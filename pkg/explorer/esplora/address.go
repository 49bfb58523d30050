package esplora

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/tdex-network/utxo-wallet/pkg/explorer"
	"golang.org/x/sync/errgroup"
)

// GetAddressInfo fetches the history and the unspents of every address
// concurrently, one goroutine per address.
func (e *esplora) GetAddressInfo(
	ctx context.Context, addresses []string,
) (*explorer.AddressInfo, error) {
	if len(addresses) <= 0 {
		return nil, explorer.ErrEmptyAddressList
	}

	txsByAddress := make([][]explorer.TxActivity, len(addresses))
	utxosByAddress := make([][]explorer.Utxo, len(addresses))
	var lastBlock int64

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		height, err := e.getBlockHeight(gctx)
		if err != nil {
			return err
		}
		lastBlock = height
		return nil
	})
	for i := range addresses {
		i := i
		addr := addresses[i]
		g.Go(func() error {
			txs, err := e.getTransactionsForAddress(gctx, addr)
			if err != nil {
				return fmt.Errorf("error on retrieving txs of %s: %w", addr, err)
			}
			txsByAddress[i] = txs
			return nil
		})
		g.Go(func() error {
			utxos, err := e.getUnspents(gctx, addr)
			if err != nil {
				return fmt.Errorf("error on retrieving utxos of %s: %w", addr, err)
			}
			utxosByAddress[i] = utxos
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	info := &explorer.AddressInfo{
		Transactions: make([]explorer.TxActivity, 0),
		Utxos:        make([]explorer.Utxo, 0),
		LastBlock:    lastBlock,
	}
	for i := range addresses {
		info.Transactions = append(info.Transactions, txsByAddress[i]...)
		info.Utxos = append(info.Utxos, utxosByAddress[i]...)
	}
	return info, nil
}

// getTransactionsForAddress returns the whole history of the address. The
// first page contains mempool txs plus the newest confirmed ones, the
// following confirmed pages are fetched starting from the last seen txid.
func (e *esplora) getTransactionsForAddress(
	ctx context.Context, address string,
) ([]explorer.TxActivity, error) {
	url := fmt.Sprintf("%s/address/%s/txs", e.apiURL, address)
	page, err := e.getTxs(ctx, url)
	if err != nil {
		return nil, err
	}

	txs := make([]explorer.TxActivity, 0, len(page))
	for {
		confirmed := 0
		lastSeen := ""
		for _, t := range page {
			txs = append(txs, t.activity(address))
			if t.Status.Confirmed {
				confirmed++
				lastSeen = t.TxID
			}
		}
		if confirmed < chainPageSize {
			return txs, nil
		}

		url = fmt.Sprintf(
			"%s/address/%s/txs/chain/%s", e.apiURL, address, lastSeen,
		)
		if page, err = e.getTxs(ctx, url); err != nil {
			return nil, err
		}
	}
}

func (e *esplora) getTxs(ctx context.Context, url string) ([]tx, error) {
	resp, err := e.client.Get(ctx, url)
	if err != nil {
		return nil, err
	}
	var txs []tx
	if err := json.Unmarshal([]byte(resp), &txs); err != nil {
		return nil, err
	}
	return txs, nil
}

func (e *esplora) getUnspents(
	ctx context.Context, address string,
) ([]explorer.Utxo, error) {
	url := fmt.Sprintf("%s/address/%s/utxo", e.apiURL, address)
	resp, err := e.client.Get(ctx, url)
	if err != nil {
		return nil, err
	}

	var outs []utxo
	if err := json.Unmarshal([]byte(resp), &outs); err != nil {
		return nil, err
	}

	unspents := make([]explorer.Utxo, 0, len(outs))
	for _, u := range outs {
		unspents = append(unspents, u.toExplorer(address))
	}
	return unspents, nil
}
