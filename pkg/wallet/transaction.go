package wallet

import (
	"context"
	"fmt"

	"github.com/btcsuite/btcd/wire"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
	"github.com/tdex-network/utxo-wallet/pkg/currency"
	"github.com/tdex-network/utxo-wallet/pkg/mathutil"
)

// MakeOpts is the struct given to Make.
type MakeOpts struct {
	Address       string
	ChangeAddress string
	// Amount to send in coin units.
	Amount decimal.Decimal
	// Fee is one of the quotes returned by CalcFee.
	Fee *FeeQuote
}

// validate checks the preconditions of Make, in order: amount, fee, change.
func (o MakeOpts) validate() (amount, change int64, err error) {
	amount = mathutil.CoinToSatoshi(o.Amount)
	if amount <= 0 {
		return 0, 0, ErrInvalidAmount
	}
	if o.Fee == nil || o.Fee.Value < 0 {
		return 0, 0, ErrInvalidFee
	}
	change = o.Fee.InputsAmount - amount - o.Fee.Value
	if change < 0 {
		return 0, 0, ErrInsufficientBalance
	}
	if len(o.Address) <= 0 {
		return 0, 0, ErrNullAddress
	}
	if change > 0 && len(o.ChangeAddress) <= 0 {
		return 0, 0, ErrNullChangeAddress
	}
	return amount, change, nil
}

// Output is an output of a signed transaction.
type Output struct {
	Address string `json:"address"`
	Value   int64  `json:"value"`
}

// SignedInput is an input of a signed transaction.
type SignedInput struct {
	Hash     string `json:"hash"`
	Index    uint32 `json:"index"`
	Address  string `json:"address"`
	Value    int64  `json:"value"`
	Sequence uint32 `json:"sequence"`
}

// SignedTransaction is the result of Make.
type SignedTransaction struct {
	Hash    string        `json:"hash"`
	Raw     string        `json:"tx"`
	Inputs  []SignedInput `json:"inputs"`
	Outputs []Output      `json:"outputs"`
}

// Make builds and signs a transaction paying amount to address and the
// change, if any, to the change address, spending the inputs of the given
// fee quote.
func (t *Tx) Make(ctx context.Context, opts MakeOpts) (*SignedTransaction, error) {
	amount, change, err := opts.validate()
	if err != nil {
		return nil, wrapErr(t.currency.ShortName, err)
	}

	inputs, err := t.withPrevTxs(ctx, opts.Fee.Inputs)
	if err != nil {
		return nil, wrapErr(t.currency.ShortName, err)
	}

	outputs := []Output{{Address: opts.Address, Value: amount}}
	if change != 0 {
		outputs = append(outputs, Output{Address: opts.ChangeAddress, Value: change})
	}

	var signed *SignedTransaction
	switch t.currency.Currency {
	case currency.BCH:
		signed, err = t.signCashTx(inputs, outputs)
	case currency.BTC, currency.BTCSegwit, currency.DOGE, currency.LTC, currency.BTCV:
		signed, err = t.signTx(inputs, outputs)
	default:
		err = fmt.Errorf("%w: unsupported currency", ErrTxBuild)
	}
	if err != nil {
		return nil, wrapErr(t.currency.ShortName, err)
	}

	log.Debugf(
		"%s: built tx %s with %d inputs and %d outputs",
		t.currency.ShortName, signed.Hash, len(signed.Inputs), len(signed.Outputs),
	)
	return signed, nil
}

// withPrevTxs returns a copy of the inputs, completed with the previous raw
// txs required to sign legacy inputs. The missing ones are fetched from the
// explorer in a single request.
func (t *Tx) withPrevTxs(ctx context.Context, unspents []Unspent) ([]Unspent, error) {
	inputs := make([]Unspent, len(unspents))
	copy(inputs, unspents)
	if t.currency.IsSegwit() || t.currency.IsCashAddr() {
		return inputs, nil
	}

	hashes := make([]string, 0)
	seen := make(map[string]bool)
	for _, in := range inputs {
		if len(in.RawTx) > 0 {
			continue
		}
		if len(in.TransactionHash) <= 0 {
			return nil, ErrMissingUnspentInfo
		}
		if !seen[in.TransactionHash] {
			seen[in.TransactionHash] = true
			hashes = append(hashes, in.TransactionHash)
		}
	}
	if len(hashes) <= 0 {
		return inputs, nil
	}

	if t.explorer == nil {
		return nil, fmt.Errorf("%w: no explorer available", ErrRawTxLookup)
	}
	txs, err := t.explorer.GetRawTransactions(ctx, hashes)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrRawTxLookup, err)
	}
	rawTxs := make(map[string]string, len(txs))
	for _, tx := range txs {
		rawTxs[tx.Hash] = tx.RawData
	}
	for i, in := range inputs {
		if len(in.RawTx) <= 0 {
			inputs[i].RawTx = rawTxs[in.TransactionHash]
		}
	}
	return inputs, nil
}

// sequence returns the sequence of the input spending u.
func (t *Tx) sequence(u Unspent) uint32 {
	if u.Sequence != nil {
		return *u.Sequence
	}
	if t.rbf {
		return wire.MaxTxInSequenceNum - 2
	}
	return wire.MaxTxInSequenceNum
}

func (t *Tx) checkOutputs(outputs []Output) error {
	for _, out := range outputs {
		if out.Value < 0 || out.Value > t.currency.MaxMoney {
			return fmt.Errorf("%w: output value %d out of range", ErrTxBuild, out.Value)
		}
	}
	return nil
}

func signedInputs(inputs []Unspent, sequences []uint32) []SignedInput {
	signed := make([]SignedInput, 0, len(inputs))
	for i, in := range inputs {
		signed = append(signed, SignedInput{
			Hash:     in.TransactionHash,
			Index:    in.Index,
			Address:  in.Address,
			Value:    in.Value,
			Sequence: sequences[i],
		})
	}
	return signed
}
