package wallet

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEstimateTxSize(t *testing.T) {
	tests := []struct {
		inputs   int
		outputs  int
		witness  bool
		expected int
	}{
		{1, 2, false, 226},
		{2, 2, false, 374},
		{3, 1, false, 488},
		{1, 2, true, 143},
		{1, 1, true, 111},
		{2, 2, true, 211},
		{3, 1, true, 247},
		{0, 0, true, 11},
	}

	for _, tt := range tests {
		assert.Equal(
			t, tt.expected, EstimateTxSize(tt.inputs, tt.outputs, tt.witness),
			"inputs: %d, outputs: %d, witness: %v", tt.inputs, tt.outputs, tt.witness,
		)
	}
}

func TestEstimateTxSizeIsMonotonic(t *testing.T) {
	for _, witness := range []bool{false, true} {
		for i := 1; i < 20; i++ {
			assert.Greater(t, EstimateTxSize(i+1, 2, witness), EstimateTxSize(i, 2, witness))
			assert.Greater(t, EstimateTxSize(i, 3, witness), EstimateTxSize(i, 2, witness))
		}
	}
}
