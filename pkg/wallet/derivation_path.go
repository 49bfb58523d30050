package wallet

import (
	"fmt"
	"math"
	"math/big"
	"strings"

	"github.com/btcsuite/btcd/btcutil/hdkeychain"
)

// DerivationPath is the internal representation of a hierarchical
// deterministic wallet path, like m/84'/0'/0'/0.
type DerivationPath []uint32

// ParseDerivationPath converts a derivation path string to the
// internal binary representation
func ParseDerivationPath(strPath string) (DerivationPath, error) {
	if strings.TrimSpace(strPath) == "" {
		return nil, ErrNullDerivationPath
	}

	elems := strings.Split(strPath, "/")
	for _, elem := range elems {
		if elem == "" {
			return nil, ErrMalformedDerivationPath
		}
	}
	if len(elems) < 2 {
		return nil, ErrMalformedDerivationPath
	}
	if strings.TrimSpace(elems[0]) == "m" {
		elems = elems[1:]
	}

	path := make(DerivationPath, 0, len(elems))
	for _, elem := range elems {
		value, err := parsePathElem(elem)
		if err != nil {
			return nil, err
		}
		path = append(path, value)
	}
	return path, nil
}

func parsePathElem(elem string) (uint32, error) {
	elem = strings.TrimSpace(elem)
	var value uint32

	if strings.HasSuffix(elem, "'") {
		value = hdkeychain.HardenedKeyStart
		elem = strings.TrimSpace(strings.TrimSuffix(elem, "'"))
	}

	// big int also accepts hex elems
	bigval, ok := new(big.Int).SetString(elem, 0)
	if !ok {
		return 0, fmt.Errorf("%w: invalid elem '%s' in path", ErrInvalidDerivationPath, elem)
	}

	max := math.MaxUint32 - value
	if bigval.Sign() < 0 || bigval.Cmp(big.NewInt(int64(max))) > 0 {
		if value == 0 {
			return 0, fmt.Errorf("elem %v must be in range [0, %d]", bigval, max)
		}
		return 0, fmt.Errorf("elem %v must be in hardened range [0, %d]", bigval, max)
	}
	return value + uint32(bigval.Uint64()), nil
}

// Child returns a copy of the path extended with the given index.
func (path DerivationPath) Child(index uint32) DerivationPath {
	child := make(DerivationPath, len(path), len(path)+1)
	copy(child, path)
	return append(child, index)
}

// Purpose returns the first elem of the path without the hardened offset.
func (path DerivationPath) Purpose() uint32 {
	if len(path) <= 0 {
		return 0
	}
	return path[0] &^ hdkeychain.HardenedKeyStart
}

// String converts a binary derivation path to its canonical representation
func (path DerivationPath) String() string {
	if len(path) <= 0 {
		return ""
	}

	var b strings.Builder
	b.WriteString("m")
	for _, component := range path {
		if component >= hdkeychain.HardenedKeyStart {
			fmt.Fprintf(&b, "/%d'", component-hdkeychain.HardenedKeyStart)
			continue
		}
		fmt.Fprintf(&b, "/%d", component)
	}
	return b.String()
}

// deriveFromPath derives every step of the path starting from key.
func deriveFromPath(
	key *hdkeychain.ExtendedKey, path DerivationPath,
) (*hdkeychain.ExtendedKey, error) {
	var err error
	for _, step := range path {
		key, err = key.Derive(step)
		if err != nil {
			return nil, fmt.Errorf("%w at %s: %s", ErrKeyDerivation, path, err)
		}
	}
	return key, nil
}
