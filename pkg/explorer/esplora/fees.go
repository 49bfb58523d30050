package esplora

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/shopspring/decimal"
	"github.com/tdex-network/utxo-wallet/pkg/explorer"
)

// GetFees returns one fee level per configured confirmation target. A
// missing target takes the estimate of the closest greater one available.
func (e *esplora) GetFees(ctx context.Context) ([]explorer.FeeLevel, error) {
	url := fmt.Sprintf("%s/fee-estimates", e.apiURL)
	resp, err := e.client.Get(ctx, url)
	if err != nil {
		return nil, err
	}

	estimates := make(map[string]decimal.Decimal)
	if err := json.Unmarshal([]byte(resp), &estimates); err != nil {
		return nil, fmt.Errorf("invalid fee estimates: %w", err)
	}
	byTarget := make(map[int]decimal.Decimal, len(estimates))
	for k, v := range estimates {
		target, err := strconv.Atoi(k)
		if err != nil {
			continue
		}
		byTarget[target] = v
	}

	levels := make([]explorer.FeeLevel, 0, len(e.feeTargets))
	for _, target := range e.feeTargets {
		rate, ok := closestEstimate(byTarget, target)
		if !ok {
			continue
		}
		levels = append(levels, explorer.FeeLevel{
			Level:      strconv.Itoa(target),
			FeePerByte: rate.Ceil().String(),
		})
	}
	return levels, nil
}

func closestEstimate(
	byTarget map[int]decimal.Decimal, target int,
) (decimal.Decimal, bool) {
	if rate, ok := byTarget[target]; ok {
		return rate, true
	}
	best := -1
	for t := range byTarget {
		if t > target && (best < 0 || t < best) {
			best = t
		}
	}
	if best < 0 {
		return decimal.Zero, false
	}
	return byTarget[best], true
}
