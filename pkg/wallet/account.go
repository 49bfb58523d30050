package wallet

import (
	"encoding/hex"
	"fmt"

	"github.com/btcsuite/btcd/btcutil/hdkeychain"
	"github.com/tdex-network/utxo-wallet/pkg/currency"
)

// DeriveAccountOpts is the struct given to DeriveAccount. Either Seed or
// Mnemonic must be defined, the account extended public key is returned only
// when the mnemonic is given.
type DeriveAccountOpts struct {
	Seed        []byte
	Mnemonic    string
	ShortName   string
	AddressType currency.AddressType
}

func (o DeriveAccountOpts) validate() error {
	if len(o.Seed) <= 0 && len(o.Mnemonic) <= 0 {
		return ErrNullSeed
	}
	if len(o.Mnemonic) > 0 && !IsMnemonicValid(o.Mnemonic) {
		return ErrInvalidMnemonic
	}
	if _, err := currency.Lookup(o.ShortName, o.AddressType); err != nil {
		return err
	}
	return nil
}

// AccountCore holds the branch nodes of a currency account along with the
// first address of each branch.
type AccountCore struct {
	ExternalNode ExtendedKey `json:"externalNode"`
	InternalNode ExtendedKey `json:"internalNode"`
	// ExternalPubKey and InternalPubKey use the currency prefix.
	ExternalPubKey           string `json:"externalPubKey"`
	InternalPubKey           string `json:"internalPubKey"`
	ExternalAddress          string `json:"externalAddress"`
	InternalAddress          string `json:"internalAddress"`
	AccountExtendedPublicKey string `json:"accountExtendedPublicKey,omitempty"`
}

// DeriveAccount derives the external and internal branch nodes of the
// account of the resolved currency.
func DeriveAccount(opts DeriveAccountOpts) (*AccountCore, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}
	c, _ := currency.Lookup(opts.ShortName, opts.AddressType)

	seed := opts.Seed
	if len(opts.Mnemonic) > 0 {
		var err error
		if seed, err = SeedFromMnemonic(opts.Mnemonic, ""); err != nil {
			return nil, wrapErr(c.ShortName, err)
		}
	}
	master, err := NewMasterKey(seed)
	if err != nil {
		return nil, wrapErr(c.ShortName, err)
	}

	core := &AccountCore{}
	for _, branch := range []Branch{External, Internal} {
		node, err := deriveBranchNode(master, c, branch)
		if err != nil {
			return nil, wrapErr(c.ShortName, err)
		}
		pubKey, err := NeuterExtendedKey(node, c.PubKeyPrefix)
		if err != nil {
			return nil, wrapErr(c.ShortName, err)
		}
		xprv := ExtendedKey(node.String())
		address, err := AddressFromNode(xprv, 0, c)
		if err != nil {
			return nil, err
		}

		if branch == External {
			core.ExternalNode, core.ExternalPubKey, core.ExternalAddress =
				xprv, pubKey, address
		} else {
			core.InternalNode, core.InternalPubKey, core.InternalAddress =
				xprv, pubKey, address
		}
	}

	if len(opts.Mnemonic) > 0 {
		xpub, err := AccountExtendedPublicKey(seed, c)
		if err != nil {
			return nil, err
		}
		core.AccountExtendedPublicKey = xpub
	}

	return core, nil
}

func deriveBranchNode(
	root *hdkeychain.ExtendedKey, c *currency.Descriptor, branch Branch,
) (*hdkeychain.ExtendedKey, error) {
	path, err := ParseDerivationPath(c.BranchPath(uint32(branch)))
	if err != nil {
		return nil, err
	}
	return deriveFromPath(root, path)
}

// DeriveAddressListOpts is the struct given to DeriveAddressList.
type DeriveAddressListOpts struct {
	// RootKey is the extended private key of the wallet root.
	RootKey     ExtendedKey
	ShortName   string
	AddressType currency.AddressType
	Branch      Branch
	From        uint32
	To          uint32
}

func (o DeriveAddressListOpts) validate() error {
	if len(o.RootKey) <= 0 {
		return ErrNullExtendedKey
	}
	if _, err := currency.Lookup(o.ShortName, o.AddressType); err != nil {
		return err
	}
	if o.Branch != External && o.Branch != Internal {
		return fmt.Errorf("unknown branch %d", o.Branch)
	}
	if o.From > o.To {
		return ErrInvalidRange
	}
	if o.To >= hdkeychain.HardenedKeyStart {
		return fmt.Errorf("%w: index %d is hardened", ErrKeyDerivation, o.To)
	}
	return nil
}

// ChildKey is a child of a branch node with its keys in hex format.
type ChildKey struct {
	Path       string `json:"path"`
	PrivateKey string `json:"privateKey"`
	PublicKey  string `json:"publicKey"`
	Address    string `json:"address"`
	Index      uint32 `json:"index"`
}

// AddressList is the result of DeriveAddressList.
type AddressList struct {
	PrivateExtendedKey ExtendedKey `json:"privateExtendedKey"`
	PublicExtendedKey  string      `json:"publicExtendedKey"`
	Children           []ChildKey  `json:"list"`
}

// DeriveAddressList derives the children in the inclusive range [From, To]
// of the given branch of the currency account.
func DeriveAddressList(opts DeriveAddressListOpts) (*AddressList, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}
	c, _ := currency.Lookup(opts.ShortName, opts.AddressType)

	root, err := ParseExtendedKey(opts.RootKey)
	if err != nil {
		return nil, wrapErr(c.ShortName, err)
	}
	if !root.IsPrivate() {
		return nil, wrapErr(c.ShortName, fmt.Errorf(
			"%w: root key must be private", ErrKeyDerivation,
		))
	}
	node, err := deriveBranchNode(root, c, opts.Branch)
	if err != nil {
		return nil, wrapErr(c.ShortName, err)
	}
	xpub, err := NeuterExtendedKey(node, "xpub")
	if err != nil {
		return nil, wrapErr(c.ShortName, err)
	}

	branchPath := c.BranchPath(uint32(opts.Branch))
	children := make([]ChildKey, 0, opts.To-opts.From+1)
	for i := opts.From; ; i++ {
		child, err := node.Derive(i)
		if err != nil {
			return nil, wrapErr(c.ShortName, fmt.Errorf("%w: %s", ErrKeyDerivation, err))
		}
		privKey, err := child.ECPrivKey()
		if err != nil {
			return nil, wrapErr(c.ShortName, fmt.Errorf("%w: %s", ErrKeyDerivation, err))
		}
		pubKey := privKey.PubKey().SerializeCompressed()
		address, err := EncodeAddress(pubKey, c)
		if err != nil {
			return nil, err
		}

		children = append(children, ChildKey{
			Path:       fmt.Sprintf("%s/%d", branchPath, i),
			PrivateKey: hex.EncodeToString(privKey.Serialize()),
			PublicKey:  hex.EncodeToString(pubKey),
			Address:    address,
			Index:      i,
		})
		privKey.Zero()

		if i == opts.To {
			break
		}
	}

	return &AddressList{
		PrivateExtendedKey: ExtendedKey(node.String()),
		PublicExtendedKey:  xpub,
		Children:           children,
	}, nil
}
