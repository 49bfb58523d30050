package blockchair

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/tdex-network/utxo-wallet/pkg/explorer"
)

// GetFees returns the single fee level suggested by blockchair.
func (b *blockchair) GetFees(ctx context.Context) ([]explorer.FeeLevel, error) {
	resp, err := b.client.Get(ctx, b.endpoint("stats", nil))
	if err != nil {
		return nil, err
	}

	var stats statsResponse
	if err := json.Unmarshal([]byte(resp), &stats); err != nil {
		return nil, fmt.Errorf("invalid stats response: %w", err)
	}
	if err := stats.Context.err(); err != nil {
		return nil, err
	}

	rate := decimal.NewFromFloat(stats.Data.SuggestedFeePerByte).Ceil()
	return []explorer.FeeLevel{
		{Level: "optimal", FeePerByte: rate.String()},
	}, nil
}
