package wallet

import (
	"context"
	"fmt"
	"math"

	"github.com/shopspring/decimal"
	"github.com/tdex-network/utxo-wallet/pkg/currency"
	"github.com/tdex-network/utxo-wallet/pkg/explorer"
	"github.com/tdex-network/utxo-wallet/pkg/mathutil"
	"golang.org/x/sync/errgroup"
)

// DustThreshold is the min amount, in satoshis, that the selected inputs
// must exceed the amount plus fee of an ordinary or replacement tx.
const DustThreshold = 1000

// Unspent is a spendable output owned by the wallet, along with the branch
// and index of the key that locks it.
type Unspent struct {
	Address         string `json:"address"`
	Branch          Branch `json:"node_type"`
	DeriveIndex     uint32 `json:"derive_index"`
	TransactionHash string `json:"transaction_hash"`
	Index           uint32 `json:"index"`
	Value           int64  `json:"value"`
	BlockID         int64  `json:"block_id"`
	// RawTx is the hex of the tx creating this output, required to sign
	// legacy inputs. When missing it is fetched from the explorer.
	RawTx string `json:"tx,omitempty"`
	// Sequence overrides the default sequence of the input spending this
	// output.
	Sequence *uint32 `json:"sequence,omitempty"`
}

// Confirmed returns whether the output is included in a block.
func (u Unspent) Confirmed() bool {
	return u.BlockID != explorer.UnconfirmedBlockID
}

func (u Unspent) outpoint() string {
	return fmt.Sprintf("%s:%d", u.TransactionHash, u.Index)
}

// Nodes are the extended private keys of the account branches.
type Nodes struct {
	External ExtendedKey
	Internal ExtendedKey
}

func (n Nodes) get(branch Branch) (ExtendedKey, error) {
	switch branch {
	case External:
		return n.External, nil
	case Internal:
		return n.Internal, nil
	default:
		return "", fmt.Errorf("%w: unknown branch %d", ErrKeyDerivation, branch)
	}
}

// FeeQuote is the fee and the input selection computed for one fee rate. An
// empty quote, with zero value and no inputs, means the rate can't be used
// to pay the requested amount.
type FeeQuote struct {
	ID string `json:"id"`
	// Value is the fee in satoshis.
	Value int64 `json:"value"`
	// CoinValue is the fee in coin units.
	CoinValue    string    `json:"coinValue"`
	FeePerByte   uint64    `json:"feePerByte"`
	Inputs       []Unspent `json:"inputs"`
	InputsAmount int64     `json:"inputsAmount"`
	Custom       bool      `json:"custom"`
}

// IsEmpty returns whether no input was selected for the quote.
func (q FeeQuote) IsEmpty() bool {
	return len(q.Inputs) <= 0
}

// ReplacedInput is an input of a tx to replace by fee.
type ReplacedInput struct {
	// Sequence is nil when the sequence of the replaced input is unknown.
	Sequence *uint32 `json:"sequence,omitempty"`
	Script   string  `json:"script,omitempty"`
	Witness  string  `json:"witness,omitempty"`
	// PrevOut is the output spent by the input.
	PrevOut Unspent `json:"prev_out"`
}

// ReplacedTx is the description of a tx to replace by fee.
type ReplacedTx struct {
	Inputs   []ReplacedInput `json:"inputs"`
	Outputs  []DecodedOutput `json:"outputs"`
	LockTime uint32          `json:"locktime"`
}

// NewTxOpts is the struct given to NewTx.
type NewTxOpts struct {
	Unspents  []Unspent
	Nodes     Nodes
	FeeLevels []explorer.FeeLevel
	Currency  *currency.Descriptor
	// Explorer is used to fetch the previous txs of legacy inputs, if not
	// already known.
	Explorer explorer.Service
	// RBF marks the new inputs as replaceable.
	RBF bool
}

func (o NewTxOpts) validate() error {
	if o.Currency == nil {
		return ErrNullCurrency
	}
	if len(o.Nodes.External) <= 0 || len(o.Nodes.Internal) <= 0 {
		return ErrNullExtendedKey
	}
	for _, lvl := range o.FeeLevels {
		if _, err := mathutil.ParseFeeRate(lvl.FeePerByte); err != nil {
			return fmt.Errorf("%w: %s", ErrInvalidFee, err)
		}
	}
	return nil
}

// Tx is the builder of the transactions spending a fixed set of unspents.
type Tx struct {
	unspents  []Unspent
	balance   int64
	nodes     Nodes
	feeLevels []explorer.FeeLevel
	currency  *currency.Descriptor
	explorer  explorer.Service
	rbf       bool
}

// NewTx returns a new Tx for the given unspents.
func NewTx(opts NewTxOpts) (*Tx, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}

	unspents := make([]Unspent, len(opts.Unspents))
	copy(unspents, opts.Unspents)
	balance := int64(0)
	for _, u := range unspents {
		balance += u.Value
	}
	feeLevels := make([]explorer.FeeLevel, len(opts.FeeLevels))
	copy(feeLevels, opts.FeeLevels)

	return &Tx{
		unspents:  unspents,
		balance:   balance,
		nodes:     opts.Nodes,
		feeLevels: feeLevels,
		currency:  opts.Currency,
		explorer:  opts.Explorer,
		rbf:       opts.RBF,
	}, nil
}

// Balance returns the sum of the values of the unspents.
func (t *Tx) Balance() int64 {
	return t.balance
}

// CalcFeeOpts is the struct given to CalcFee.
type CalcFeeOpts struct {
	// Amount to send in coin units, ignored when SendAll is true.
	Amount decimal.Decimal
	// CustomFeePerByte is the rate of the last, custom, quote.
	CustomFeePerByte uint64
	// SendAll spends all unspents to a single output.
	SendAll bool
	// Replacement is the tx to replace, if any.
	Replacement *ReplacedTx
}

// CalcFee returns one quote for every fee level plus one for the custom rate,
// in this order.
func (t *Tx) CalcFee(ctx context.Context, opts CalcFeeOpts) ([]FeeQuote, error) {
	rates := make([]uint64, 0, len(t.feeLevels)+1)
	for _, lvl := range t.feeLevels {
		rate, _ := mathutil.ParseFeeRate(lvl.FeePerByte)
		rates = append(rates, rate)
	}
	rates = append(rates, opts.CustomFeePerByte)

	amount := t.balance
	if !opts.SendAll {
		amount = mathutil.CoinToSatoshi(opts.Amount)
	}

	quotes := make([]FeeQuote, len(rates))
	if amount <= 0 || t.balance < amount {
		for i, rate := range rates {
			quotes[i] = t.emptyQuote(i, len(rates), rate)
		}
		return quotes, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	for i := range rates {
		i := i
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			rate := rates[i]

			var quote FeeQuote
			switch {
			case opts.Replacement != nil:
				quote = t.replacementQuote(rate, amount, opts.Replacement)
			case opts.SendAll:
				quote = t.sendAllQuote(rate, amount)
			default:
				quote = t.quote(rate, amount)
			}
			quote.ID = t.currency.FeeID(i, len(rates))
			quote.Custom = i == len(rates)-1
			quote.FeePerByte = rate
			quote.CoinValue = mathutil.SatoshiToCoin(quote.Value)
			quotes[i] = quote
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return quotes, nil
}

func (t *Tx) emptyQuote(i, n int, rate uint64) FeeQuote {
	return FeeQuote{
		ID:         t.currency.FeeID(i, n),
		CoinValue:  "0",
		FeePerByte: rate,
		Inputs:     []Unspent{},
		Custom:     i == n-1,
	}
}

// quote selects the unspents in order until they cover the amount, the fee
// of a tx with 2 outputs and the dust threshold.
func (t *Tx) quote(rate uint64, amount int64) FeeQuote {
	if rate == 0 {
		return FeeQuote{Inputs: []Unspent{}}
	}

	inputs := make([]Unspent, 0)
	inputsAmount := int64(0)
	for _, u := range t.unspents {
		inputs = append(inputs, u)
		inputsAmount += u.Value

		fee, ok := t.fee(rate, len(inputs), 2)
		if !ok {
			break
		}
		if inputsAmount >= amount+fee+DustThreshold {
			return FeeQuote{
				Value:        fee,
				Inputs:       inputs,
				InputsAmount: inputsAmount,
			}
		}
	}
	return FeeQuote{Inputs: []Unspent{}}
}

// sendAllQuote spends all the unspents to a single output. The rate is not
// required to be positive.
func (t *Tx) sendAllQuote(rate uint64, balance int64) FeeQuote {
	fee, ok := t.fee(rate, len(t.unspents), 1)
	if !ok || balance-fee < 0 {
		return FeeQuote{Inputs: []Unspent{}}
	}
	inputs := make([]Unspent, len(t.unspents))
	copy(inputs, t.unspents)
	return FeeQuote{
		Value:        fee,
		Inputs:       inputs,
		InputsAmount: balance,
	}
}

// replacementQuote spends again all the inputs of the replaced tx, with a
// bumped sequence, and adds confirmed unspents until the new fee is covered.
func (t *Tx) replacementQuote(
	rate uint64, amount int64, replaced *ReplacedTx,
) FeeQuote {
	if rate == 0 {
		return FeeQuote{Inputs: []Unspent{}}
	}

	inputs := make([]Unspent, 0, len(replaced.Inputs))
	carried := make(map[string]bool)
	inputsAmount := int64(0)
	for _, in := range replaced.Inputs {
		prevOut := in.PrevOut
		prevOut.BlockID = 0
		sequence := bumpSequence(in.Sequence)
		prevOut.Sequence = &sequence

		inputs = append(inputs, prevOut)
		carried[prevOut.outpoint()] = true
		inputsAmount += prevOut.Value
	}

	fee, ok := t.fee(rate, len(inputs), 2)
	if !ok {
		return FeeQuote{Inputs: []Unspent{}}
	}
	for _, u := range t.unspents {
		if inputsAmount >= amount+fee+DustThreshold {
			break
		}
		if !u.Confirmed() || carried[u.outpoint()] {
			continue
		}
		inputs = append(inputs, u)
		inputsAmount += u.Value
		if fee, ok = t.fee(rate, len(inputs), 2); !ok {
			return FeeQuote{Inputs: []Unspent{}}
		}
	}

	if inputsAmount < amount+fee+DustThreshold {
		return FeeQuote{Inputs: []Unspent{}}
	}
	return FeeQuote{
		Value:        fee,
		Inputs:       inputs,
		InputsAmount: inputsAmount,
	}
}

// fee returns the fee of a tx with the given number of inputs and outputs.
// It is false when the fee exceeds the money supply of the chain, so no
// selection can pay it.
func (t *Tx) fee(rate uint64, inputs, outputs int) (int64, bool) {
	size := uint64(estimateTxSize(inputs, outputs, t.currency))
	if rate > uint64(t.currency.MaxMoney)/size {
		return 0, false
	}
	return int64(rate * size), true
}

// bumpSequence returns the sequence of a replacing input. Final sequences
// can't be bumped and are kept as they are.
func bumpSequence(sequence *uint32) uint32 {
	if sequence == nil {
		return 1
	}
	if *sequence == math.MaxUint32 {
		return math.MaxUint32
	}
	return *sequence + 1
}
