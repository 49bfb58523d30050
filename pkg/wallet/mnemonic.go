package wallet

import (
	"strings"

	"github.com/tyler-smith/go-bip39"
)

// NewMnemonicOpts is the struct given to NewMnemonic
type NewMnemonicOpts struct {
	EntropySize int
}

func (o NewMnemonicOpts) validate() error {
	if o.EntropySize > 0 {
		if o.EntropySize < 128 || o.EntropySize > 256 || o.EntropySize%32 != 0 {
			return ErrInvalidEntropySize
		}
	}
	if o.EntropySize < 0 {
		return ErrInvalidEntropySize
	}
	return nil
}

// NewMnemonic returns a new BIP39 mnemonic as a list of words. The entropy
// size defaults to 128 bits (12 words).
func NewMnemonic(opts NewMnemonicOpts) ([]string, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}
	if opts.EntropySize == 0 {
		opts.EntropySize = 128
	}

	entropy, err := bip39.NewEntropy(opts.EntropySize)
	if err != nil {
		return nil, err
	}
	mnemonic, err := bip39.NewMnemonic(entropy)
	if err != nil {
		return nil, err
	}
	return strings.Fields(mnemonic), nil
}

// IsMnemonicValid returns whether the words and the checksum of the given
// mnemonic are valid.
func IsMnemonicValid(mnemonic string) bool {
	return bip39.IsMnemonicValid(normalizeMnemonic(mnemonic))
}

// SeedFromMnemonic returns the BIP39 seed of the given mnemonic.
func SeedFromMnemonic(mnemonic, passphrase string) ([]byte, error) {
	mnemonic = normalizeMnemonic(mnemonic)
	if !bip39.IsMnemonicValid(mnemonic) {
		return nil, ErrInvalidMnemonic
	}
	return bip39.NewSeed(mnemonic, passphrase), nil
}

func normalizeMnemonic(mnemonic string) string {
	return strings.Join(strings.Fields(mnemonic), " ")
}
