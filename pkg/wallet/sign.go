package wallet

import (
	"bytes"
	"encoding/hex"
	"fmt"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"
	log "github.com/sirupsen/logrus"
)

// signTx builds a version 1 tx and signs every input with SIGHASH_ALL:
// segwit inputs commit to the P2WPKH script and value, legacy ones to the
// output of their previous tx.
func (t *Tx) signTx(inputs []Unspent, outputs []Output) (*SignedTransaction, error) {
	if err := t.checkOutputs(outputs); err != nil {
		return nil, err
	}

	tx := wire.NewMsgTx(1)
	sequences := make([]uint32, 0, len(inputs))
	for _, in := range inputs {
		hash, err := chainhash.NewHashFromStr(in.TransactionHash)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid input hash %q", ErrTxBuild, in.TransactionHash)
		}
		txIn := wire.NewTxIn(wire.NewOutPoint(hash, in.Index), nil, nil)
		txIn.Sequence = t.sequence(in)
		tx.AddTxIn(txIn)
		sequences = append(sequences, txIn.Sequence)
	}
	for _, out := range outputs {
		script, err := outputScript(out.Address, t.currency)
		if err != nil {
			return nil, fmt.Errorf("%w: %s", ErrTxBuild, err)
		}
		tx.AddTxOut(wire.NewTxOut(out.Value, script))
	}

	keys := make([]*btcec.PrivateKey, 0, len(inputs))
	defer func() {
		for _, key := range keys {
			key.Zero()
		}
	}()
	prevOuts := make([]*wire.TxOut, 0, len(inputs))
	fetcher := txscript.NewMultiPrevOutFetcher(nil)
	for i, in := range inputs {
		key, err := t.inputKey(in)
		if err != nil {
			return nil, err
		}
		keys = append(keys, key)

		prevOut, err := t.prevOut(in, key.PubKey())
		if err != nil {
			return nil, err
		}
		prevOuts = append(prevOuts, prevOut)
		fetcher.AddPrevOut(tx.TxIn[i].PreviousOutPoint, prevOut)
	}

	sigHashes := txscript.NewTxSigHashes(tx, fetcher)
	for i := range inputs {
		if err := t.signInput(tx, i, sigHashes, prevOuts[i], keys[i]); err != nil {
			return nil, err
		}
	}

	for i, prevOut := range prevOuts {
		vm, err := txscript.NewEngine(
			prevOut.PkScript, tx, i, txscript.StandardVerifyFlags, nil,
			sigHashes, prevOut.Value, fetcher,
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

	return &SignedTransaction{
		Hash:    tx.TxHash().String(),
		Raw:     hex.EncodeToString(buf.Bytes()),
		Inputs:  signedInputs(inputs, sequences),
		Outputs: outputs,
	}, nil
}

func (t *Tx) signInput(
	tx *wire.MsgTx, i int, sigHashes *txscript.TxSigHashes,
	prevOut *wire.TxOut, key *btcec.PrivateKey,
) error {
	if t.currency.IsSegwit() {
		witness, err := txscript.WitnessSignature(
			tx, sigHashes, i, prevOut.Value, prevOut.PkScript,
			txscript.SigHashAll, key, true,
		)
		if err != nil {
			return fmt.Errorf("%w: failed to sign input %d: %s", ErrTxBuild, i, err)
		}
		tx.TxIn[i].Witness = witness
		return nil
	}

	sigScript, err := txscript.SignatureScript(
		tx, i, prevOut.PkScript, txscript.SigHashAll, key, true,
	)
	if err != nil {
		return fmt.Errorf("%w: failed to sign input %d: %s", ErrTxBuild, i, err)
	}
	tx.TxIn[i].SignatureScript = sigScript
	return nil
}

// inputKey derives the private key locking the given unspent.
func (t *Tx) inputKey(in Unspent) (*btcec.PrivateKey, error) {
	node, err := t.nodes.get(in.Branch)
	if err != nil {
		return nil, err
	}
	return derivePrivateKey(node, in.DeriveIndex)
}

// prevOut returns the output spent by the given input. For legacy inputs
// this is read from the previous tx. If that can't be parsed, or holds values
// outside the money range of the chain, the P2PKH script of the key and the
// claimed value are used instead.
func (t *Tx) prevOut(in Unspent, pubKey *btcec.PublicKey) (*wire.TxOut, error) {
	if t.currency.IsSegwit() {
		script, err := payToWitnessPubKeyHashScript(pubKey)
		if err != nil {
			return nil, err
		}
		return wire.NewTxOut(in.Value, script), nil
	}

	if len(in.RawTx) <= 0 {
		return nil, fmt.Errorf(
			"%w: missing previous tx of input %s", ErrTxBuild, in.outpoint(),
		)
	}

	prevTx, err := decodeTx(in.RawTx)
	if err != nil || !t.valuesInRange(prevTx) {
		log.WithField("input", in.outpoint()).Warnf(
			"%s: previous tx can't be used as spend proof, signing with the "+
				"input claimed value", t.currency.ShortName,
		)
		script, err := payToPubKeyHashScript(pubKey)
		if err != nil {
			return nil, err
		}
		return wire.NewTxOut(in.Value, script), nil
	}

	if prevTx.TxHash().String() != in.TransactionHash {
		return nil, fmt.Errorf(
			"%w: previous tx %s does not match input %s",
			ErrTxBuild, prevTx.TxHash(), in.outpoint(),
		)
	}
	if int(in.Index) >= len(prevTx.TxOut) {
		return nil, fmt.Errorf(
			"%w: previous tx has no output %d", ErrTxBuild, in.Index,
		)
	}
	prevOut := prevTx.TxOut[in.Index]
	if prevOut.Value != in.Value {
		return nil, fmt.Errorf(
			"%w: input %s value %d does not match previous output value %d",
			ErrTxBuild, in.outpoint(), in.Value, prevOut.Value,
		)
	}
	return prevOut, nil
}

func (t *Tx) valuesInRange(tx *wire.MsgTx) bool {
	for _, out := range tx.TxOut {
		if out.Value < 0 || out.Value > t.currency.MaxMoney {
			return false
		}
	}
	return true
}

func decodeTx(txHex string) (*wire.MsgTx, error) {
	buf, err := hex.DecodeString(txHex)
	if err != nil {
		return nil, err
	}
	tx := wire.NewMsgTx(wire.TxVersion)
	if err := tx.Deserialize(bytes.NewReader(buf)); err != nil {
		return nil, err
	}
	return tx, nil
}

func payToPubKeyHashScript(pubKey *btcec.PublicKey) ([]byte, error) {
	script, err := txscript.NewScriptBuilder().
		AddOp(txscript.OP_DUP).
		AddOp(txscript.OP_HASH160).
		AddData(btcutil.Hash160(pubKey.SerializeCompressed())).
		AddOp(txscript.OP_EQUALVERIFY).
		AddOp(txscript.OP_CHECKSIG).
		Script()
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrTxBuild, err)
	}
	return script, nil
}

func payToWitnessPubKeyHashScript(pubKey *btcec.PublicKey) ([]byte, error) {
	script, err := txscript.NewScriptBuilder().
		AddOp(txscript.OP_0).
		AddData(btcutil.Hash160(pubKey.SerializeCompressed())).
		Script()
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrTxBuild, err)
	}
	return script, nil
}
