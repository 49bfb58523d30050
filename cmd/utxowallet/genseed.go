package main

import (
	"fmt"
	"strings"

	"github.com/tdex-network/utxo-wallet/pkg/wallet"
	"github.com/urfave/cli/v2"
)

var genseed = cli.Command{
	Name:  "genseed",
	Usage: "generate a mnemonic seed",
	Flags: []cli.Flag{
		&cli.IntFlag{
			Name:  "entropy_size",
			Usage: "the entropy size in bits, a multiple of 32 in [128, 256]",
			Value: 128,
		},
	},
	Action: genSeedAction,
}

func genSeedAction(ctx *cli.Context) error {
	mnemonic, err := wallet.NewMnemonic(wallet.NewMnemonicOpts{
		EntropySize: ctx.Int("entropy_size"),
	})
	if err != nil {
		return err
	}

	fmt.Println()
	fmt.Println(strings.Join(mnemonic, " "))

	return nil
}
