package main

import (
	"github.com/shopspring/decimal"
	"github.com/tdex-network/utxo-wallet/pkg/mathutil"
	"github.com/tdex-network/utxo-wallet/pkg/wallet"
	"github.com/urfave/cli/v2"
)

var (
	amountFlag = &cli.StringFlag{
		Name:  "amount",
		Usage: "the amount to send in coin units",
	}
	feeRateFlag = &cli.Uint64Flag{
		Name:  "fee_rate",
		Usage: "the custom fee rate in satoshi per byte",
	}
)

var fee = cli.Command{
	Name:  "fee",
	Usage: "compute the fee and the selected inputs for every fee level",
	Flags: []cli.Flag{
		mnemonicFlag,
		amountFlag,
		feeRateFlag,
		&cli.BoolFlag{
			Name:  "send_all",
			Usage: "spend all the unspents to a single output",
		},
	},
	Action: feeAction,
}

func feeAction(ctx *cli.Context) error {
	sendAll := ctx.Bool("send_all")
	amount, err := parseAmount(ctx, !sendAll)
	if err != nil {
		return err
	}

	account, err := syncAccount(ctx)
	if err != nil {
		return err
	}
	tx, err := account.newTx(false)
	if err != nil {
		return err
	}

	quotes, err := tx.CalcFee(ctx.Context, wallet.CalcFeeOpts{
		Amount:           amount,
		CustomFeePerByte: ctx.Uint64(feeRateFlag.Name),
		SendAll:          sendAll,
	})
	if err != nil {
		return err
	}

	printJSON(quotes)

	return nil
}

func parseAmount(ctx *cli.Context, required bool) (decimal.Decimal, error) {
	str := ctx.String(amountFlag.Name)
	if str == "" {
		if required {
			return decimal.Zero, &invalidUsageError{ctx, ctx.Command.Name}
		}
		return decimal.Zero, nil
	}
	return mathutil.ParseCoinAmount(str)
}
