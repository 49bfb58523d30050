package blockchair

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/tdex-network/utxo-wallet/pkg/explorer"
	"golang.org/x/sync/errgroup"
)

// GetRawTransactions fetches the hex of every given transaction concurrently.
func (b *blockchair) GetRawTransactions(
	ctx context.Context, hashes []string,
) ([]explorer.RawTx, error) {
	txs := make([]explorer.RawTx, len(hashes))

	g, gctx := errgroup.WithContext(ctx)
	for i := range hashes {
		i := i
		g.Go(func() error {
			txHex, err := b.getRawTransaction(gctx, hashes[i])
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

func (b *blockchair) getRawTransaction(
	ctx context.Context, hash string,
) (string, error) {
	resp, err := b.client.Get(ctx, b.endpoint("raw/transaction/"+hash, nil))
	if err != nil {
		if explorer.IsNotFound(err) {
			return "", fmt.Errorf("%w: %s", explorer.ErrTransactionNotFound, hash)
		}
		return "", err
	}

	var res rawTxResponse
	if err := json.Unmarshal([]byte(resp), &res); err != nil {
		return "", fmt.Errorf("invalid raw tx response: %w", err)
	}
	if err := res.Context.err(); err != nil {
		return "", err
	}

	data := make(map[string]rawTx)
	if err := json.Unmarshal(res.Data, &data); err != nil {
		return "", fmt.Errorf("%w: %s", explorer.ErrTransactionNotFound, hash)
	}
	tx, ok := data[hash]
	if !ok || tx.RawTransaction == "" {
		return "", fmt.Errorf("%w: %s", explorer.ErrTransactionNotFound, hash)
	}
	return tx.RawTransaction, nil
}

// BroadcastTransaction pushes the given tx and returns its hash.
func (b *blockchair) BroadcastTransaction(
	ctx context.Context, txHex string,
) (string, error) {
	body, err := json.Marshal(map[string]string{"data": txHex})
	if err != nil {
		return "", err
	}
	headers := map[string]string{
		"Content-Type": "application/json",
	}

	resp, err := b.client.Post(
		ctx, b.endpoint("push/transaction", nil), string(body), headers,
	)
	if err != nil {
		return "", fmt.Errorf("failed to push tx: %w", err)
	}

	var res pushResponse
	if err := json.Unmarshal([]byte(resp), &res); err != nil {
		return "", fmt.Errorf("invalid push response: %w", err)
	}
	if err := res.Context.err(); err != nil {
		return "", err
	}
	return res.Data.TransactionHash, nil
}
