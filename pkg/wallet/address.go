package wallet

import (
	"fmt"
	"strings"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/txscript"
	bchtxscript "github.com/gcash/bchd/txscript"
	"github.com/gcash/bchutil"
	"github.com/tdex-network/utxo-wallet/pkg/currency"
)

// EncodeAddress returns the address of the given compressed public key for
// the currency: base58 P2PKH, bech32 P2WPKH, or CashAddr without prefix for
// bitcoin cash.
func EncodeAddress(pubKey []byte, c *currency.Descriptor) (string, error) {
	if _, err := btcec.ParsePubKey(pubKey); err != nil {
		return "", wrapErr(c.ShortName, fmt.Errorf("%w: %s", ErrAddressEncoding, err))
	}

	switch c.Currency {
	case currency.BCH:
		addr, err := EncodeCashAddress(pubKey, false)
		if err != nil {
			return "", wrapErr(c.ShortName, err)
		}
		return addr, nil
	case currency.BTC, currency.BTCSegwit, currency.DOGE, currency.LTC, currency.BTCV:
		hash := btcutil.Hash160(pubKey)
		var addr btcutil.Address
		var err error
		if c.IsSegwit() {
			addr, err = btcutil.NewAddressWitnessPubKeyHash(hash, c.Params)
		} else {
			addr, err = btcutil.NewAddressPubKeyHash(hash, c.Params)
		}
		if err != nil {
			return "", wrapErr(c.ShortName, fmt.Errorf("%w: %s", ErrAddressEncoding, err))
		}
		return addr.EncodeAddress(), nil
	default:
		return "", fmt.Errorf("%w: %s", ErrAddressEncoding, c.Currency)
	}
}

// EncodeCashAddress returns the P2PKH CashAddr of the given public key, with
// or without the bitcoincash: prefix.
func EncodeCashAddress(pubKey []byte, withPrefix bool) (string, error) {
	addr, err := bchutil.NewAddressPubKeyHash(
		bchutil.Hash160(pubKey), currency.BitcoinCashAddrParams,
	)
	if err != nil {
		return "", fmt.Errorf("%w: %s", ErrAddressEncoding, err)
	}
	return formatCashAddress(addr.EncodeAddress(), withPrefix), nil
}

// ToCashAddress converts a bitcoin cash address, either in legacy or CashAddr
// format, to CashAddr with or without the bitcoincash: prefix.
func ToCashAddress(address string, withPrefix bool) (string, error) {
	addr, err := decodeCashAddress(address)
	if err != nil {
		return "", err
	}

	script, err := bchtxscript.PayToAddrScript(addr)
	if err != nil {
		return "", fmt.Errorf("%w: %s", ErrAddressEncoding, err)
	}

	var converted bchutil.Address
	switch bchtxscript.GetScriptClass(script) {
	case bchtxscript.PubKeyHashTy:
		converted, err = bchutil.NewAddressPubKeyHash(
			addr.ScriptAddress(), currency.BitcoinCashAddrParams,
		)
	case bchtxscript.ScriptHashTy:
		converted, err = bchutil.NewAddressScriptHashFromHash(
			addr.ScriptAddress(), currency.BitcoinCashAddrParams,
		)
	default:
		return "", fmt.Errorf("%w: unsupported address %s", ErrAddressEncoding, address)
	}
	if err != nil {
		return "", fmt.Errorf("%w: %s", ErrAddressEncoding, err)
	}
	return formatCashAddress(converted.EncodeAddress(), withPrefix), nil
}

func decodeCashAddress(address string) (bchutil.Address, error) {
	address = strings.TrimSpace(address)
	if address == "" {
		return nil, ErrNullAddress
	}
	prefix := currency.BitcoinCashAddrParams.CashAddressPrefix
	// CashAddr is all lowercase or all uppercase, its payload starts with q (P2PKH) or
	// p (P2SH). Legacy base58 addresses start with 1 or 3.
	lower := strings.ToLower(address)
	isCashAddr := strings.HasPrefix(lower, prefix+":") ||
		(!strings.Contains(lower, ":") &&
			(strings.HasPrefix(lower, "q") || strings.HasPrefix(lower, "p")))
	if isCashAddr {
		if address != lower && address != strings.ToUpper(address) {
			return nil, fmt.Errorf("%w: mixed case address %s", ErrAddressEncoding, address)
		}
		address = lower
		if !strings.HasPrefix(address, prefix+":") {
			address = prefix + ":" + address
		}
	}
	addr, err := bchutil.DecodeAddress(address, currency.BitcoinCashAddrParams)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrAddressEncoding, err)
	}
	return addr, nil
}

func formatCashAddress(address string, withPrefix bool) string {
	prefix := currency.BitcoinCashAddrParams.CashAddressPrefix + ":"
	address = strings.TrimPrefix(address, prefix)
	if withPrefix {
		return prefix + address
	}
	return address
}

// outputScript returns the locking script paying to the given address.
func outputScript(address string, c *currency.Descriptor) ([]byte, error) {
	if c.IsCashAddr() {
		addr, err := decodeCashAddress(address)
		if err != nil {
			return nil, err
		}
		script, err := bchtxscript.PayToAddrScript(addr)
		if err != nil {
			return nil, fmt.Errorf("%w: %s", ErrAddressEncoding, err)
		}
		return script, nil
	}

	addr, err := btcutil.DecodeAddress(strings.TrimSpace(address), c.Params)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrAddressEncoding, err)
	}
	if !addr.IsForNet(c.Params) {
		return nil, fmt.Errorf(
			"%w: %s is not a %s address", ErrAddressEncoding, address, c.ShortName,
		)
	}
	script, err := txscript.PayToAddrScript(addr)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrAddressEncoding, err)
	}
	return script, nil
}

// scriptAddress returns the address that the given locking script pays to,
// or an empty string for non standard scripts.
func scriptAddress(script []byte, c *currency.Descriptor) string {
	if c.IsCashAddr() {
		_, addrs, _, err := bchtxscript.ExtractPkScriptAddrs(
			script, currency.BitcoinCashAddrParams,
		)
		if err != nil || len(addrs) <= 0 {
			return ""
		}
		return formatCashAddress(addrs[0].EncodeAddress(), false)
	}
	_, addrs, _, err := txscript.ExtractPkScriptAddrs(script, c.Params)
	if err != nil || len(addrs) <= 0 {
		return ""
	}
	return addrs[0].EncodeAddress()
}
