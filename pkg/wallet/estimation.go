package wallet

import "github.com/tdex-network/utxo-wallet/pkg/currency"

// Sizes in bytes of the single-key inputs and outputs spent and created by
// the wallet, and of the tx overhead.
const (
	legacyInputSize    = 148
	legacyOutputSize   = 34
	legacyOverheadSize = 10

	witnessBaseInputSize     = 41
	witnessTotalInputSize    = 149
	witnessOutputSize        = 32
	witnessBaseOverheadSize  = 10
	witnessTotalOverheadSize = 12
)

// EstimateTxSize returns the estimated size of a transaction with the given
// number of inputs and outputs. For witness transactions this is the virtual
// size, computed from the base size (without witness data) and the total
// size as ceil((3*base + total) / 4).
func EstimateTxSize(inputs, outputs int, witness bool) int {
	if !witness {
		return legacyInputSize*inputs + legacyOutputSize*outputs + legacyOverheadSize
	}

	baseSize := witnessBaseInputSize*inputs + witnessOutputSize*outputs +
		witnessBaseOverheadSize
	totalSize := witnessTotalInputSize*inputs + witnessOutputSize*outputs +
		witnessTotalOverheadSize

	weight := baseSize*3 + totalSize
	return (weight + 3) / 4
}

func estimateTxSize(inputs, outputs int, c *currency.Descriptor) int {
	return EstimateTxSize(inputs, outputs, c.IsSegwit())
}
