package blockchair

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	log "github.com/sirupsen/logrus"
	"github.com/tdex-network/utxo-wallet/pkg/explorer"
)

// GetAddressInfo fetches the activity of all the given addresses with a
// single dashboard request.
func (b *blockchair) GetAddressInfo(
	ctx context.Context, addresses []string,
) (*explorer.AddressInfo, error) {
	if len(addresses) <= 0 {
		return nil, explorer.ErrEmptyAddressList
	}

	params := url.Values{}
	params.Set("transaction_details", "true")
	params.Set("limit", fmt.Sprintf("%d,%d", dashboardLimit, dashboardLimit))
	endpoint := b.endpoint(
		"dashboards/addresses/"+strings.Join(addresses, ","), params,
	)

	resp, err := b.client.Get(ctx, endpoint)
	if err != nil {
		return nil, err
	}
	var dashboard dashboardResponse
	if err := json.Unmarshal([]byte(resp), &dashboard); err != nil {
		return nil, fmt.Errorf("invalid dashboard response: %w", err)
	}
	if err := dashboard.Context.err(); err != nil {
		return nil, err
	}

	resolver := newAddressResolver(addresses)
	info := &explorer.AddressInfo{
		Transactions: make([]explorer.TxActivity, 0, len(dashboard.Data.Transactions)),
		Utxos:        make([]explorer.Utxo, 0, len(dashboard.Data.Utxo)),
		LastBlock:    dashboard.Context.State,
	}
	for _, tx := range dashboard.Data.Transactions {
		addr, ok := resolver.resolve(tx.Address)
		if !ok {
			log.Debugf("blockchair: skipping tx %s of unknown address %s", tx.Hash, tx.Address)
			continue
		}
		info.Transactions = append(info.Transactions, tx.toExplorer(addr))
	}
	for _, u := range dashboard.Data.Utxo {
		addr, ok := resolver.resolve(u.Address)
		if !ok {
			log.Debugf(
				"blockchair: skipping utxo %s:%d of unknown address %s",
				u.TransactionHash, u.Index, u.Address,
			)
			continue
		}
		info.Utxos = append(info.Utxos, u.toExplorer(addr))
	}
	return info, nil
}
