package main

import (
	"fmt"

	log "github.com/sirupsen/logrus"
	"github.com/tdex-network/utxo-wallet/pkg/mathutil"
	"github.com/tdex-network/utxo-wallet/pkg/wallet"
	"github.com/urfave/cli/v2"
)

var (
	addressFlag = &cli.StringFlag{
		Name:  "address",
		Usage: "the address of the recipient",
	}
	feeLevelFlag = &cli.StringFlag{
		Name:  "fee_level",
		Usage: "the id of the fee level to use, see the fee command",
	}
	broadcastFlag = &cli.BoolFlag{
		Name:  "broadcast",
		Usage: "broadcast the signed transaction",
	}
)

var send = cli.Command{
	Name:  "send",
	Usage: "build and sign a transaction paying an address",
	Flags: []cli.Flag{
		mnemonicFlag,
		addressFlag,
		amountFlag,
		feeRateFlag,
		feeLevelFlag,
		&cli.BoolFlag{
			Name:  "send_all",
			Usage: "spend all the unspents to the recipient, without change",
		},
		&cli.BoolFlag{
			Name:  "rbf",
			Usage: "mark the transaction as replaceable by fee",
		},
		broadcastFlag,
	},
	Action: sendAction,
}

func sendAction(ctx *cli.Context) error {
	address := ctx.String(addressFlag.Name)
	if address == "" {
		return &invalidUsageError{ctx, ctx.Command.Name}
	}
	sendAll := ctx.Bool("send_all")
	amount, err := parseAmount(ctx, !sendAll)
	if err != nil {
		return err
	}

	account, err := syncAccount(ctx)
	if err != nil {
		return err
	}
	tx, err := account.newTx(ctx.Bool("rbf"))
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
	feeLevel := ctx.String(feeLevelFlag.Name)
	if feeLevel == "" {
		feeLevel = account.currency.FeeID(0, len(quotes))
	}
	quote, err := selectQuote(quotes, feeLevel)
	if err != nil {
		return err
	}
	if sendAll {
		amount = mathutil.SatoshiToCoinDecimal(quote.InputsAmount - quote.Value)
	}

	signed, err := tx.Make(ctx.Context, wallet.MakeOpts{
		Address:       address,
		ChangeAddress: account.snapshot.ChangeAddress(),
		Amount:        amount,
		Fee:           quote,
	})
	if err != nil {
		return err
	}

	return publish(ctx, account, signed)
}

// publish prints the signed tx and, if requested, broadcasts it.
func publish(
	ctx *cli.Context, account *syncedAccount, signed *wallet.SignedTransaction,
) error {
	if ctx.Bool(broadcastFlag.Name) {
		hash, err := account.explorer.BroadcastTransaction(ctx.Context, signed.Raw)
		if err != nil {
			return fmt.Errorf("failed to broadcast tx %s: %w", signed.Hash, err)
		}
		log.Infof("%s: broadcasted tx %s", account.currency.ShortName, hash)
	}

	printJSON(signed)

	return nil
}
