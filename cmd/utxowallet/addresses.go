package main

import (
	"github.com/tdex-network/utxo-wallet/internal/config"
	"github.com/tdex-network/utxo-wallet/pkg/wallet"
	"github.com/urfave/cli/v2"
)

var addresses = cli.Command{
	Name:  "addresses",
	Usage: "derive a range of keys and addresses of an account branch",
	Flags: []cli.Flag{
		mnemonicFlag,
		&cli.StringFlag{
			Name:  "branch",
			Usage: "either external or internal",
			Value: "external",
		},
		&cli.UintFlag{
			Name:  "from",
			Usage: "the index of the first child",
		},
		&cli.UintFlag{
			Name:  "to",
			Usage: "the index of the last child, included",
			Value: 9,
		},
	},
	Action: addressesAction,
}

func addressesAction(ctx *cli.Context) error {
	branch, err := wallet.ParseBranch(ctx.String("branch"))
	if err != nil {
		return &invalidUsageError{ctx, ctx.Command.Name}
	}
	mnemonic, err := getMnemonic(ctx)
	if err != nil {
		return err
	}
	c, err := config.GetCurrency()
	if err != nil {
		return err
	}

	seed, err := wallet.SeedFromMnemonic(mnemonic, "")
	if err != nil {
		return err
	}
	root, err := wallet.NewMasterKey(seed)
	if err != nil {
		return err
	}

	list, err := wallet.DeriveAddressList(wallet.DeriveAddressListOpts{
		RootKey:     wallet.ExtendedKey(root.String()),
		ShortName:   c.ShortName,
		AddressType: c.AddressType,
		Branch:      branch,
		From:        uint32(ctx.Uint("from")),
		To:          uint32(ctx.Uint("to")),
	})
	if err != nil {
		return err
	}

	printJSON(list)

	return nil
}
