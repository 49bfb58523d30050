package wallet

import (
	"encoding/hex"
	"fmt"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/btcutil/hdkeychain"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/tdex-network/utxo-wallet/pkg/currency"
)

// NewMasterKey returns the BIP32 root node of the given seed. Nodes are
// always serialized with the bitcoin mainnet versions (xprv/xpub), public
// keys are converted to the coin prefix only when exported.
func NewMasterKey(seed []byte) (*hdkeychain.ExtendedKey, error) {
	if len(seed) <= 0 {
		return nil, ErrNullSeed
	}
	master, err := hdkeychain.NewMaster(seed, &chaincfg.MainNetParams)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrKeyDerivation, err)
	}
	return master, nil
}

// ParseExtendedKey parses the given base58 extended key.
func ParseExtendedKey(key ExtendedKey) (*hdkeychain.ExtendedKey, error) {
	if len(key) <= 0 {
		return nil, ErrNullExtendedKey
	}
	node, err := hdkeychain.NewKeyFromString(string(key))
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrKeyDerivation, err)
	}
	return node, nil
}

// DeriveChild returns the non hardened child at index of the given node.
func DeriveChild(node ExtendedKey, index uint32) (*hdkeychain.ExtendedKey, error) {
	if index >= hdkeychain.HardenedKeyStart {
		return nil, fmt.Errorf("%w: index %d is hardened", ErrKeyDerivation, index)
	}
	parent, err := ParseExtendedKey(node)
	if err != nil {
		return nil, err
	}
	child, err := parent.Derive(index)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrKeyDerivation, err)
	}
	return child, nil
}

// AddressFromNode returns the address of the child at index of the given
// branch node.
func AddressFromNode(
	node ExtendedKey, index uint32, c *currency.Descriptor,
) (string, error) {
	child, err := DeriveChild(node, index)
	if err != nil {
		return "", wrapErr(c.ShortName, err)
	}
	pubKey, err := child.ECPubKey()
	if err != nil {
		return "", wrapErr(c.ShortName, fmt.Errorf("%w: %s", ErrKeyDerivation, err))
	}
	return EncodeAddress(pubKey.SerializeCompressed(), c)
}

// DeriveKeyPair returns the private key in WIF format, the public key and the
// address of the child at index of the given branch node.
func DeriveKeyPair(
	node ExtendedKey, index uint32, c *currency.Descriptor,
) (*KeyPair, error) {
	privKey, err := derivePrivateKey(node, index)
	if err != nil {
		return nil, wrapErr(c.ShortName, err)
	}
	defer privKey.Zero()

	wif, err := btcutil.NewWIF(privKey, c.Params, true)
	if err != nil {
		return nil, wrapErr(c.ShortName, fmt.Errorf("%w: %s", ErrKeyDerivation, err))
	}
	pubKey := privKey.PubKey().SerializeCompressed()
	address, err := EncodeAddress(pubKey, c)
	if err != nil {
		return nil, err
	}

	return &KeyPair{
		WIF:       wif.String(),
		PublicKey: hex.EncodeToString(pubKey),
		Address:   address,
	}, nil
}

func derivePrivateKey(node ExtendedKey, index uint32) (*btcec.PrivateKey, error) {
	child, err := DeriveChild(node, index)
	if err != nil {
		return nil, err
	}
	privKey, err := child.ECPrivKey()
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrKeyDerivation, err)
	}
	return privKey, nil
}

// NeuterExtendedKey returns the extended public key of the given node,
// converted to the given prefix unless it is xpub.
func NeuterExtendedKey(node *hdkeychain.ExtendedKey, prefix string) (string, error) {
	pub, err := node.Neuter()
	if err != nil {
		return "", fmt.Errorf("%w: %s", ErrKeyDerivation, err)
	}
	if prefix == "" || prefix == "xpub" {
		return pub.String(), nil
	}
	return ConvertExtendedPublicKey(pub.String(), prefix)
}

// ConvertExtendedPublicKey re-encodes the given extended public key with the
// version bytes of prefix (xpub, ypub, zpub, Ltub, dgub).
func ConvertExtendedPublicKey(xpub string, prefix string) (string, error) {
	version, ok := currency.ExtendedPublicKeyVersion(prefix)
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrInvalidExtendedKeyPrefix, prefix)
	}
	key, err := hdkeychain.NewKeyFromString(xpub)
	if err != nil {
		return "", fmt.Errorf("%w: %s", ErrKeyDerivation, err)
	}
	if key.IsPrivate() {
		return "", fmt.Errorf("%w: expected a public key", ErrKeyDerivation)
	}
	converted, err := key.CloneWithVersion(version)
	if err != nil {
		return "", fmt.Errorf("%w: %s", ErrKeyDerivation, err)
	}
	return converted.String(), nil
}

// AccountExtendedPublicKey returns the extended public key of the account
// node of the currency, with the type matching the purpose of the account
// path (44' xpub, 49' ypub, 84' zpub).
func AccountExtendedPublicKey(seed []byte, c *currency.Descriptor) (string, error) {
	master, err := NewMasterKey(seed)
	if err != nil {
		return "", wrapErr(c.ShortName, err)
	}
	path, err := ParseDerivationPath(c.AccountPath)
	if err != nil {
		return "", wrapErr(c.ShortName, err)
	}
	account, err := deriveFromPath(master, path)
	if err != nil {
		return "", wrapErr(c.ShortName, err)
	}
	xpub, err := NeuterExtendedKey(account, c.AccountPubKeyType())
	if err != nil {
		return "", wrapErr(c.ShortName, err)
	}
	return xpub, nil
}
