package wallet

import (
	"context"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/tdex-network/utxo-wallet/pkg/currency"
	"github.com/tdex-network/utxo-wallet/pkg/explorer"
)

// DecodedOutput is an output of a decoded tx.
type DecodedOutput struct {
	Address string `json:"addr"`
	Value   int64  `json:"value"`
	Script  string `json:"script"`
	Index   uint32 `json:"n"`
}

// DecodeRawTransactionOpts is the struct given to DecodeRawTransaction.
type DecodeRawTransactionOpts struct {
	RawTx    string
	Currency *currency.Descriptor
	// PrevOuts are the outputs spent by the tx inputs, in input order. Only
	// their value and address are required.
	PrevOuts []Unspent
	// Owned are the wallet unspents, with the branch, index and raw tx of
	// the key locking them, matched with the inputs by outpoint.
	Owned []Unspent
}

func (o DecodeRawTransactionOpts) validate() error {
	if o.Currency == nil {
		return ErrNullCurrency
	}
	if len(o.RawTx) <= 0 {
		return fmt.Errorf("%w: raw tx must not be null", ErrTxBuild)
	}
	return nil
}

// DecodeRawTransaction rebuilds the description of a previously signed tx,
// to be replaced by fee. Inputs not found among the owned unspents are
// assumed to be locked by the first key of the internal branch.
func DecodeRawTransaction(opts DecodeRawTransactionOpts) (*ReplacedTx, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}
	c := opts.Currency

	tx, err := decodeTx(opts.RawTx)
	if err != nil {
		return nil, wrapErr(c.ShortName, fmt.Errorf("%w: %s", ErrTxBuild, err))
	}

	owned := make(map[string]Unspent, len(opts.Owned))
	for _, u := range opts.Owned {
		owned[u.outpoint()] = u
	}

	inputs := make([]ReplacedInput, 0, len(tx.TxIn))
	for i, in := range tx.TxIn {
		if i >= len(opts.PrevOuts) {
			return nil, wrapErr(c.ShortName, fmt.Errorf(
				"%w: prevout not found for input %s", ErrMissingUnspentInfo,
				in.PreviousOutPoint,
			))
		}
		spent := opts.PrevOuts[i]

		prevOut := Unspent{
			Address:         spent.Address,
			Branch:          Internal,
			TransactionHash: in.PreviousOutPoint.Hash.String(),
			Index:           in.PreviousOutPoint.Index,
			Value:           spent.Value,
			BlockID:         spent.BlockID,
		}
		if u, ok := owned[prevOut.outpoint()]; ok {
			prevOut.Branch = u.Branch
			prevOut.DeriveIndex = u.DeriveIndex
			prevOut.RawTx = u.RawTx
		}

		witness := make([]string, 0, len(in.Witness))
		for _, w := range in.Witness {
			witness = append(witness, hex.EncodeToString(w))
		}
		sequence := in.Sequence

		inputs = append(inputs, ReplacedInput{
			Sequence: &sequence,
			Script:   hex.EncodeToString(in.SignatureScript),
			Witness:  strings.Join(witness, " "),
			PrevOut:  prevOut,
		})
	}

	outputs := make([]DecodedOutput, 0, len(tx.TxOut))
	for i, out := range tx.TxOut {
		outputs = append(outputs, DecodedOutput{
			Address: scriptAddress(out.PkScript, c),
			Value:   out.Value,
			Script:  hex.EncodeToString(out.PkScript),
			Index:   uint32(i),
		})
	}

	return &ReplacedTx{
		Inputs:   inputs,
		Outputs:  outputs,
		LockTime: tx.LockTime,
	}, nil
}

// ResolvePrevOuts returns the outputs spent by the inputs of the given raw
// tx, in input order, reading value and address from the previous txs
// fetched with the explorer.
func ResolvePrevOuts(
	ctx context.Context, svc explorer.Service, rawTx string,
	c *currency.Descriptor,
) ([]Unspent, error) {
	if c == nil {
		return nil, ErrNullCurrency
	}
	if svc == nil {
		return nil, wrapErr(c.ShortName, fmt.Errorf("%w: no explorer available", ErrRawTxLookup))
	}
	tx, err := decodeTx(rawTx)
	if err != nil {
		return nil, wrapErr(c.ShortName, fmt.Errorf("%w: %s", ErrTxBuild, err))
	}

	hashes := make([]string, 0, len(tx.TxIn))
	seen := make(map[string]bool)
	for _, in := range tx.TxIn {
		hash := in.PreviousOutPoint.Hash.String()
		if !seen[hash] {
			seen[hash] = true
			hashes = append(hashes, hash)
		}
	}

	rawTxs, err := svc.GetRawTransactions(ctx, hashes)
	if err != nil {
		return nil, wrapErr(c.ShortName, fmt.Errorf("%w: %s", ErrRawTxLookup, err))
	}
	prevTxs := make(map[string]string, len(rawTxs))
	for _, raw := range rawTxs {
		prevTxs[raw.Hash] = raw.RawData
	}

	prevOuts := make([]Unspent, 0, len(tx.TxIn))
	for _, in := range tx.TxIn {
		hash := in.PreviousOutPoint.Hash.String()
		index := in.PreviousOutPoint.Index

		prevTx, err := decodeTx(prevTxs[hash])
		if err != nil {
			return nil, wrapErr(c.ShortName, fmt.Errorf(
				"%w: previous tx %s: %s", ErrRawTxLookup, hash, err,
			))
		}
		if int(index) >= len(prevTx.TxOut) {
			return nil, wrapErr(c.ShortName, fmt.Errorf(
				"%w: previous tx %s has no output %d", ErrTxBuild, hash, index,
			))
		}
		out := prevTx.TxOut[index]
		prevOuts = append(prevOuts, Unspent{
			Address:         scriptAddress(out.PkScript, c),
			TransactionHash: hash,
			Index:           index,
			Value:           out.Value,
			RawTx:           prevTxs[hash],
		})
	}
	return prevOuts, nil
}
