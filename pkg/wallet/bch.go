package wallet

import (
	"bytes"
	"encoding/hex"
	"fmt"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/gcash/bchd/bchec"
	"github.com/gcash/bchd/chaincfg/chainhash"
	bchtxscript "github.com/gcash/bchd/txscript"
	bchwire "github.com/gcash/bchd/wire"
	"github.com/gcash/bchutil"
	"github.com/tdex-network/utxo-wallet/pkg/currency"
)

const cashTxVersion = 2

// signCashTx builds a bitcoin cash tx and signs every input with an ECDSA
// SIGHASH_ALL|SIGHASH_FORKID signature, committing to the value of the spent output.
// Addresses of inputs and outputs are normalized to CashAddr.
func (t *Tx) signCashTx(inputs []Unspent, outputs []Output) (*SignedTransaction, error) {
	if err := t.checkOutputs(outputs); err != nil {
		return nil, err
	}

	tx := bchwire.NewMsgTx(cashTxVersion)
	sequences := make([]uint32, 0, len(inputs))
	for _, in := range inputs {
		hash, err := chainhash.NewHashFromStr(in.TransactionHash)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid input hash %q", ErrTxBuild, in.TransactionHash)
		}
		txIn := bchwire.NewTxIn(bchwire.NewOutPoint(hash, in.Index), nil)
		txIn.Sequence = t.sequence(in)
		tx.AddTxIn(txIn)
		sequences = append(sequences, txIn.Sequence)
	}

	normalized := make([]Output, 0, len(outputs))
	for _, out := range outputs {
		address, err := ToCashAddress(out.Address, false)
		if err != nil {
			return nil, fmt.Errorf("%w: %s", ErrTxBuild, err)
		}
		script, err := outputScript(address, t.currency)
		if err != nil {
			return nil, fmt.Errorf("%w: %s", ErrTxBuild, err)
		}
		tx.AddTxOut(bchwire.NewTxOut(out.Value, script))
		normalized = append(normalized, Output{Address: address, Value: out.Value})
	}

	scripts := make([][]byte, 0, len(inputs))
	for i, in := range inputs {
		script, err := t.signCashInput(tx, i, in)
		if err != nil {
			return nil, err
		}
		scripts = append(scripts, script)
	}

	sigHashes := bchtxscript.NewTxSigHashes(tx)
	for i, in := range inputs {
		vm, err := bchtxscript.NewEngine(
			scripts[i], tx, i, bchtxscript.StandardVerifyFlags, nil,
			sigHashes, nil, in.Value,
		)
		if err != nil {
			return nil, fmt.Errorf("%w: %s", ErrTxBuild, err)
		}
		if err := vm.Execute(); err != nil {
			return nil, fmt.Errorf("%w: invalid signature for input %d: %s", ErrTxBuild, i, err)
		}
	}

	var buf bytes.Buffer
	if err := tx.Serialize(&buf); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrTxBuild, err)
	}

	signedIns := signedInputs(inputs, sequences)
	for i := range signedIns {
		if address, err := ToCashAddress(signedIns[i].Address, false); err == nil {
			signedIns[i].Address = address
		}
	}

	return &SignedTransaction{
		Hash:    tx.TxHash().String(),
		Raw:     hex.EncodeToString(buf.Bytes()),
		Inputs:  signedIns,
		Outputs: normalized,
	}, nil
}

// signCashInput signs the i-th input of tx and returns the P2PKH script of
// the output it spends.
func (t *Tx) signCashInput(tx *bchwire.MsgTx, i int, in Unspent) ([]byte, error) {
	key, err := t.inputKey(in)
	if err != nil {
		return nil, err
	}
	defer key.Zero()

	privKey, pubKey := toCashKey(key)
	defer privKey.D.SetInt64(0)

	addr, err := bchutil.NewAddressPubKeyHash(
		bchutil.Hash160(pubKey.SerializeCompressed()), currency.BitcoinCashAddrParams,
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrTxBuild, err)
	}
	script, err := bchtxscript.PayToAddrScript(addr)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrTxBuild, err)
	}

	sig, err := bchtxscript.RawTxInECDSASignature(
		tx, i, script, bchtxscript.SigHashAll|bchtxscript.SigHashForkID,
		privKey, in.Value,
	)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to sign input %d: %s", ErrTxBuild, i, err)
	}
	sigScript, err := bchtxscript.NewScriptBuilder().
		AddData(sig).
		AddData(pubKey.SerializeCompressed()).
		Script()
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrTxBuild, err)
	}
	tx.TxIn[i].SignatureScript = sigScript
	return script, nil
}

func toCashKey(key *btcec.PrivateKey) (*bchec.PrivateKey, *bchec.PublicKey) {
	return bchec.PrivKeyFromBytes(bchec.S256(), key.Serialize())
}
