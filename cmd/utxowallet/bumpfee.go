package main

import (
	"github.com/tdex-network/utxo-wallet/pkg/mathutil"
	"github.com/tdex-network/utxo-wallet/pkg/wallet"
	"github.com/urfave/cli/v2"
)

var bumpfee = cli.Command{
	Name: "bumpfee",
	Usage: "replace a transaction of the wallet with one paying the same " +
		"recipient with a higher fee",
	Flags: []cli.Flag{
		mnemonicFlag,
		&cli.StringFlag{
			Name:     "tx",
			Usage:    "the raw hex of the transaction to replace",
			Required: true,
		},
		feeRateFlag,
		feeLevelFlag,
		broadcastFlag,
	},
	Action: bumpFeeAction,
}

func bumpFeeAction(ctx *cli.Context) error {
	rawTx := ctx.String("tx")

	account, err := syncAccount(ctx)
	if err != nil {
		return err
	}

	prevOuts, err := wallet.ResolvePrevOuts(
		ctx.Context, account.explorer, rawTx, account.currency,
	)
	if err != nil {
		return err
	}
	replaced, err := wallet.DecodeRawTransaction(wallet.DecodeRawTransactionOpts{
		RawTx:    rawTx,
		Currency: account.currency,
		PrevOuts: prevOuts,
		Owned:    account.snapshot.Unspents,
	})
	if err != nil {
		return err
	}
	if len(replaced.Outputs) <= 0 {
		return &invalidUsageError{ctx, ctx.Command.Name}
	}
	recipient := replaced.Outputs[0]
	amount := mathutil.SatoshiToCoinDecimal(recipient.Value)

	tx, err := account.newTx(true)
	if err != nil {
		return err
	}
	quotes, err := tx.CalcFee(ctx.Context, wallet.CalcFeeOpts{
		Amount:           amount,
		CustomFeePerByte: ctx.Uint64(feeRateFlag.Name),
		Replacement:      replaced,
	})
	if err != nil {
		return err
	}
	feeLevel := ctx.String(feeLevelFlag.Name)
	if feeLevel == "" {
		feeLevel = account.currency.FeeID(0, len(quotes))
	}
	quote, err := selectQuote(quotes, feeLevel)
	if err != nil {
		return err
	}

	signed, err := tx.Make(ctx.Context, wallet.MakeOpts{
		Address:       recipient.Address,
		ChangeAddress: account.snapshot.ChangeAddress(),
		Amount:        amount,
		Fee:           quote,
	})
	if err != nil {
		return err
	}

	return publish(ctx, account, signed)
}
