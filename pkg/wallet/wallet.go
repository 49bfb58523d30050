package wallet

import (
	"errors"
	"fmt"
)

var (
	// ErrNullDerivationPath ...
	ErrNullDerivationPath = errors.New("derivation path must not be null")
	// ErrNullExtendedKey ...
	ErrNullExtendedKey = errors.New("extended key must not be null")
	// ErrNullCurrency ...
	ErrNullCurrency = errors.New("currency must not be null")
	// ErrNullSeed ...
	ErrNullSeed = errors.New("either seed or mnemonic must be defined")
	// ErrNullAddress ...
	ErrNullAddress = errors.New("address must not be null")
	// ErrNullChangeAddress ...
	ErrNullChangeAddress = errors.New("change address must not be null")

	// ErrMalformedDerivationPath ...
	ErrMalformedDerivationPath = errors.New(
		"path must not start or end with a '/' and " +
			"can optionally start with 'm/' for absolute paths",
	)
	// ErrInvalidDerivationPath ...
	ErrInvalidDerivationPath = errors.New("invalid derivation path")
	// ErrInvalidEntropySize ...
	ErrInvalidEntropySize = errors.New(
		"entropy size must be a multiple of 32 in the range [128,256]",
	)
	// ErrInvalidMnemonic ...
	ErrInvalidMnemonic = errors.New("mnemonic is invalid")
	// ErrInvalidRange ...
	ErrInvalidRange = errors.New("range start must not be greater than range end")
	// ErrInvalidExtendedKeyPrefix ...
	ErrInvalidExtendedKeyPrefix = errors.New("unknown extended public key prefix")

	// ErrKeyDerivation is returned when a child key can't be derived from
	// the given node.
	ErrKeyDerivation = errors.New("failed to derive key")
	// ErrAddressEncoding is returned when a public key can't be encoded as an
	// address of the currency, or an address can't be decoded.
	ErrAddressEncoding = errors.New("failed to encode address")

	// ErrInvalidAmount ...
	ErrInvalidAmount = errors.New("amount must be greater than zero")
	// ErrInvalidFee ...
	ErrInvalidFee = errors.New("fee is invalid")
	// ErrInsufficientBalance is returned when the selected inputs do not cover
	// the amount plus the fee.
	ErrInsufficientBalance = errors.New("insufficient balance")
	// ErrMissingUnspentInfo is returned when a legacy input has neither its
	// previous raw tx nor the hash to fetch it.
	ErrMissingUnspentInfo = errors.New("unspent is missing its transaction hash")
	// ErrRawTxLookup is returned when the previous raw txs of legacy inputs
	// can't be fetched.
	ErrRawTxLookup = errors.New("failed to fetch previous raw transactions")
	// ErrTxBuild is returned when the transaction can't be built, signed or
	// when any of its signatures is invalid.
	ErrTxBuild = errors.New("failed to build transaction")
)

// Branch identifies one of the two chains of an account: the external one
// for receiving addresses and the internal one for change addresses.
type Branch uint32

const (
	// External is the branch of receiving addresses.
	External Branch = iota
	// Internal is the branch of change addresses.
	Internal
)

func (b Branch) String() string {
	switch b {
	case External:
		return "external"
	case Internal:
		return "internal"
	default:
		return fmt.Sprintf("branch(%d)", uint32(b))
	}
}

// ParseBranch is the inverse of Branch.String. It also accepts "0" and "1".
func ParseBranch(str string) (Branch, error) {
	switch str {
	case "external", "0":
		return External, nil
	case "internal", "1":
		return Internal, nil
	default:
		return 0, fmt.Errorf("unknown branch %q", str)
	}
}

// ExtendedKey is a BIP32 extended key in its base58 serialized format.
type ExtendedKey string

// KeyPair holds the keys and the address of a derived child.
type KeyPair struct {
	// WIF is the private key in wallet import format.
	WIF string
	// PublicKey is the compressed public key in hex format.
	PublicKey string
	Address   string
}

// AddressRecord is an address derived at a given index of a branch.
type AddressRecord struct {
	Branch      Branch `json:"branch"`
	DeriveIndex uint32 `json:"derive_index"`
	Address     string `json:"address"`
}

// wrapErr tags err with the currency short name.
func wrapErr(shortName string, err error) error {
	return fmt.Errorf("%s: %w", shortName, err)
}
