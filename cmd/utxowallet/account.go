package main

import (
	"github.com/urfave/cli/v2"
)

var account = cli.Command{
	Name:   "account",
	Usage:  "derive the branch nodes and the first addresses of the account",
	Flags:  []cli.Flag{mnemonicFlag},
	Action: accountAction,
}

func accountAction(ctx *cli.Context) error {
	core, _, err := getAccount(ctx)
	if err != nil {
		return err
	}

	printJSON(core)

	return nil
}
