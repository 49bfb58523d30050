package currency

import (
	"errors"
	"fmt"
	"strings"

	"github.com/btcsuite/btcd/chaincfg"
)

var (
	// ErrUnknownCurrency is returned when a (short name, address type) pair
	// does not match any supported currency.
	ErrUnknownCurrency = errors.New("unknown currency")
	// ErrUnknownAddressType ...
	ErrUnknownAddressType = errors.New("address type must be either p2pkh or p2wpkh")
)

// Currency enumerates the supported coins and variants.
type Currency int

const (
	BTC Currency = iota
	BTCSegwit
	DOGE
	LTC
	BCH
	BTCV
)

func (c Currency) String() string {
	switch c {
	case BTC:
		return "BTC"
	case BTCSegwit:
		return "BTC_SEGWIT"
	case DOGE:
		return "DOGE"
	case LTC:
		return "LTC"
	case BCH:
		return "BCH"
	case BTCV:
		return "BTCV"
	default:
		return fmt.Sprintf("Currency(%d)", int(c))
	}
}

// AddressType is the script type used for the addresses of a currency.
type AddressType string

const (
	// P2PKH is the legacy pay-to-pubkey-hash address type.
	P2PKH AddressType = "p2pkh"
	// P2WPKH is the native segwit pay-to-witness-pubkey-hash address type.
	P2WPKH AddressType = "p2wpkh"
)

// ParseAddressType ...
func ParseAddressType(str string) (AddressType, error) {
	switch AddressType(strings.ToLower(strings.TrimSpace(str))) {
	case P2PKH:
		return P2PKH, nil
	case P2WPKH:
		return P2WPKH, nil
	default:
		return "", ErrUnknownAddressType
	}
}

// Descriptor holds the static settings of a supported currency.
type Descriptor struct {
	Currency    Currency
	ShortName   string
	Name        string
	AccountPath string
	AddressType AddressType
	// PubKeyPrefix is the base58 prefix used to export the extended public
	// keys of the account branches.
	PubKeyPrefix string
	Network      string
	Params       *chaincfg.Params
	// FeeIDs name the fee tiers, the last one is always the custom tier.
	FeeIDs []string
	// MaxMoney is the upper bound for any output value of the chain.
	MaxMoney int64
}

const coin = int64(100000000)

var descriptors = [...]Descriptor{
	BTC: {
		Currency:     BTC,
		ShortName:    "BTC",
		Name:         "Bitcoin",
		AccountPath:  "m/44'/0'/0'",
		AddressType:  P2PKH,
		PubKeyPrefix: "xpub",
		Network:      "btc",
		Params:       BitcoinParams,
		FeeIDs:       []string{"fast", "medium", "custom"},
		MaxMoney:     21000000 * coin,
	},
	BTCSegwit: {
		Currency:     BTCSegwit,
		ShortName:    "BTC",
		Name:         "Bitcoin",
		AccountPath:  "m/84'/0'/0'",
		AddressType:  P2WPKH,
		PubKeyPrefix: "xpub",
		Network:      "btc",
		Params:       BitcoinParams,
		FeeIDs:       []string{"fast", "medium", "custom"},
		MaxMoney:     21000000 * coin,
	},
	DOGE: {
		Currency:     DOGE,
		ShortName:    "DOGE",
		Name:         "Dogecoin",
		AccountPath:  "m/44'/3'/0'",
		AddressType:  P2PKH,
		PubKeyPrefix: "dgub",
		Network:      "doge",
		Params:       DogecoinParams,
		FeeIDs:       []string{"optimal", "custom"},
		MaxMoney:     10000000000 * coin,
	},
	LTC: {
		Currency:     LTC,
		ShortName:    "LTC",
		Name:         "Litecoin",
		AccountPath:  "m/84'/2'/0'",
		AddressType:  P2WPKH,
		PubKeyPrefix: "Ltub",
		Network:      "ltc",
		Params:       LitecoinParams,
		FeeIDs:       []string{"optimal", "custom"},
		MaxMoney:     84000000 * coin,
	},
	BCH: {
		Currency:     BCH,
		ShortName:    "BCH",
		Name:         "Bitcoin Cash",
		AccountPath:  "m/44'/145'/0'",
		AddressType:  P2PKH,
		PubKeyPrefix: "xpub",
		Network:      "bch",
		Params:       BitcoinCashParams,
		FeeIDs:       []string{"optimal", "custom"},
		MaxMoney:     21000000 * coin,
	},
	BTCV: {
		Currency:     BTCV,
		ShortName:    "BTCV",
		Name:         "Bitcoin Vault",
		AccountPath:  "m/84'/440'/0'",
		AddressType:  P2WPKH,
		PubKeyPrefix: "xpub",
		Network:      "btcv",
		Params:       BitcoinVaultParams,
		FeeIDs:       []string{"fast", "medium", "custom"},
		MaxMoney:     21000000 * coin,
	},
}

// Get returns the descriptor of the given currency. It panics for values
// outside the enum.
func Get(c Currency) *Descriptor {
	if c < BTC || c > BTCV {
		panic(fmt.Sprintf("unsupported currency %d", int(c)))
	}
	return &descriptors[c]
}

// All returns the descriptors of every supported currency.
func All() []*Descriptor {
	all := make([]*Descriptor, 0, len(descriptors))
	for i := range descriptors {
		all = append(all, &descriptors[i])
	}
	return all
}

// Lookup resolves a currency by its short name and address type. BTC is the
// only coin with two variants, the type is ignored for the others.
func Lookup(shortName string, addressType AddressType) (*Descriptor, error) {
	switch strings.ToUpper(strings.TrimSpace(shortName)) {
	case "BTC":
		if addressType == P2WPKH {
			return Get(BTCSegwit), nil
		}
		return Get(BTC), nil
	case "BTC_SEGWIT":
		return Get(BTCSegwit), nil
	case "DOGE":
		return Get(DOGE), nil
	case "LTC":
		return Get(LTC), nil
	case "BCH":
		return Get(BCH), nil
	case "BTCV":
		return Get(BTCV), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownCurrency, shortName)
	}
}

// IsSegwit returns whether the currency spends native segwit outputs.
func (d *Descriptor) IsSegwit() bool {
	return d.AddressType == P2WPKH
}

// IsCashAddr returns whether addresses are CashAddr encoded.
func (d *Descriptor) IsCashAddr() bool {
	return d.Currency == BCH
}

// BranchPath returns the derivation path of the given account branch.
func (d *Descriptor) BranchPath(branch uint32) string {
	return fmt.Sprintf("%s/%d", d.AccountPath, branch)
}

// AccountPubKeyType returns the extended public key type used to export the
// account node, chosen after the purpose of the account path.
func (d *Descriptor) AccountPubKeyType() string {
	switch {
	case strings.Contains(d.AccountPath, "44'"):
		return "xpub"
	case strings.Contains(d.AccountPath, "49'"):
		return "ypub"
	case strings.Contains(d.AccountPath, "84'"):
		return "zpub"
	default:
		return d.PubKeyPrefix
	}
}

// FeeID returns the name of the i-th of n fee tiers, where the last tier is
// the custom one.
func (d *Descriptor) FeeID(i, n int) string {
	if i == n-1 {
		return d.FeeIDs[len(d.FeeIDs)-1]
	}
	if i < len(d.FeeIDs)-1 {
		return d.FeeIDs[i]
	}
	return fmt.Sprintf("level-%d", i+1)
}

// CustomFeeID ...
func (d *Descriptor) CustomFeeID() string {
	return d.FeeIDs[len(d.FeeIDs)-1]
}
