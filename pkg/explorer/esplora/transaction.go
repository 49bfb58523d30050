package esplora

import (
	"context"
	"fmt"
	"strings"

	"github.com/tdex-network/utxo-wallet/pkg/explorer"
	"golang.org/x/sync/errgroup"
)

// GetRawTransactions fetches the hex of every given transaction concurrently.
func (e *esplora) GetRawTransactions(
	ctx context.Context, hashes []string,
) ([]explorer.RawTx, error) {
	txs := make([]explorer.RawTx, len(hashes))

	g, gctx := errgroup.WithContext(ctx)
	for i := range hashes {
		i := i
		g.Go(func() error {
			txHex, err := e.getTransactionHex(gctx, hashes[i])
			if err != nil {
				return err
			}
			txs[i] = explorer.RawTx{Hash: hashes[i], RawData: txHex}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return txs, nil
}

func (e *esplora) getTransactionHex(
	ctx context.Context, hash string,
) (string, error) {
	url := fmt.Sprintf("%s/tx/%s/hex", e.apiURL, hash)
	resp, err := e.client.Get(ctx, url)
	if err != nil {
		if explorer.IsNotFound(err) {
			return "", fmt.Errorf("%w: %s", explorer.ErrTransactionNotFound, hash)
		}
		return "", err
	}
	return strings.TrimSpace(resp), nil
}

func (e *esplora) BroadcastTransaction(
	ctx context.Context, txHex string,
) (string, error) {
	url := fmt.Sprintf("%s/tx", e.apiURL)
	headers := map[string]string{
		"Content-Type": "text/plain",
	}

	resp, err := e.client.Post(ctx, url, txHex, headers)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(resp), nil
}
