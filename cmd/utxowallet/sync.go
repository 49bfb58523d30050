package main

import (
	"github.com/urfave/cli/v2"
)

var syncaccount = cli.Command{
	Name:   "sync",
	Usage:  "discover the used addresses, the transactions and the unspents of the account",
	Flags:  []cli.Flag{mnemonicFlag},
	Action: syncAction,
}

func syncAction(ctx *cli.Context) error {
	account, err := syncAccount(ctx)
	if err != nil {
		return err
	}

	printJSON(account.snapshot)

	return nil
}
