package currency

import (
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/wire"
	bchchaincfg "github.com/gcash/bchd/chaincfg"
)

// Extended public key version bytes, indexed by their base58 prefix.
var extendedPublicKeyVersions = map[string][4]byte{
	"xpub": {0x04, 0x88, 0xb2, 0x1e},
	"ypub": {0x04, 0x9d, 0x7c, 0xb2},
	"zpub": {0x04, 0xb2, 0x47, 0x46},
	"Ltub": {0x01, 0x9d, 0xa4, 0x62},
	"dgub": {0x02, 0xfa, 0xca, 0xfd},
}

var (
	// BitcoinParams are the parameters of the bitcoin main network.
	BitcoinParams = &chaincfg.MainNetParams

	// BitcoinVaultParams share the bitcoin HD versions but use their own
	// address prefixes.
	BitcoinVaultParams = func() *chaincfg.Params {
		params := chaincfg.MainNetParams
		params.Name = "btcv"
		params.Net = wire.BitcoinNet(0xd9b4bef8)
		params.Bech32HRPSegwit = "royale"
		params.PubKeyHashAddrID = 0x4e
		params.ScriptHashAddrID = 0x3c
		params.PrivateKeyID = 0x80
		return &params
	}()

	// DogecoinParams are the parameters of the dogecoin main network.
	DogecoinParams = func() *chaincfg.Params {
		params := chaincfg.MainNetParams
		params.Name = "doge"
		params.Net = wire.BitcoinNet(0xc0c0c0c0)
		params.Bech32HRPSegwit = ""
		params.PubKeyHashAddrID = 0x1e
		params.ScriptHashAddrID = 0x16
		params.PrivateKeyID = 0x9e
		params.HDPublicKeyID = [4]byte{0x02, 0xfa, 0xca, 0xfd}
		params.HDPrivateKeyID = [4]byte{0x02, 0xfa, 0xc3, 0x98}
		params.HDCoinType = 3
		return &params
	}()

	// LitecoinParams are the parameters of the litecoin main network.
	LitecoinParams = func() *chaincfg.Params {
		params := chaincfg.MainNetParams
		params.Name = "ltc"
		params.Net = wire.BitcoinNet(0xdbb6c0fb)
		params.Bech32HRPSegwit = "ltc"
		params.PubKeyHashAddrID = 0x30
		params.ScriptHashAddrID = 0x32
		params.PrivateKeyID = 0xb0
		params.HDPublicKeyID = [4]byte{0x01, 0x9d, 0xa4, 0x62}
		params.HDPrivateKeyID = [4]byte{0x01, 0x9d, 0x9c, 0xfe}
		params.HDCoinType = 2
		return &params
	}()

	// BitcoinCashParams are used for keys, WIF and legacy addresses of
	// bitcoin cash. CashAddr encoding uses BitcoinCashAddrParams.
	BitcoinCashParams = func() *chaincfg.Params {
		params := chaincfg.MainNetParams
		params.Name = "bch"
		params.Net = wire.BitcoinNet(0xe8f3e1e3)
		params.Bech32HRPSegwit = ""
		params.PubKeyHashAddrID = 0x00
		params.ScriptHashAddrID = 0x08
		params.HDCoinType = 145
		return &params
	}()

	// BitcoinCashAddrParams are the bchd parameters used for CashAddr
	// encoding and FORKID signing.
	BitcoinCashAddrParams = &bchchaincfg.MainNetParams
)

func init() {
	// Neutering an extended key needs its private version registered.
	mustRegister(DogecoinParams)
	mustRegister(LitecoinParams)
	// Decoding bech32 addresses needs the segwit prefix registered.
	mustRegister(BitcoinVaultParams)
}

func mustRegister(params *chaincfg.Params) {
	if err := chaincfg.Register(params); err != nil &&
		err != chaincfg.ErrDuplicateNet {
		panic("failed to register network " + params.Name + ": " + err.Error())
	}
}

// ExtendedPublicKeyVersion returns the version bytes for the given extended
// public key prefix (xpub, ypub, zpub, Ltub, dgub).
func ExtendedPublicKeyVersion(prefix string) ([]byte, bool) {
	version, ok := extendedPublicKeyVersions[prefix]
	if !ok {
		return nil, false
	}
	return version[:], true
}
