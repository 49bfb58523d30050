package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	log "github.com/sirupsen/logrus"
	"github.com/tdex-network/utxo-wallet/internal/config"
	"github.com/tdex-network/utxo-wallet/pkg/currency"
	"github.com/tdex-network/utxo-wallet/pkg/discovery"
	"github.com/tdex-network/utxo-wallet/pkg/explorer"
	"github.com/tdex-network/utxo-wallet/pkg/stats"
	"github.com/tdex-network/utxo-wallet/pkg/wallet"
	"github.com/urfave/cli/v2"
)

var (
	mnemonicFlag = &cli.StringFlag{
		Name:    "mnemonic",
		Usage:   "the BIP39 mnemonic of the wallet",
		EnvVars: []string{"UTXOWALLET_MNEMONIC"},
	}

	stopStats   context.CancelFunc
	statsDumped <-chan struct{}
)

func main() {
	app := cli.NewApp()

	app.Version = "0.0.1"
	app.Name = "utxowallet"
	app.Usage = "Command line interface for a multi-currency UTXO wallet"
	app.Flags = []cli.Flag{
		&cli.StringFlag{
			Name:  "currency",
			Usage: "the coin of the wallet, overrides UTXOWALLET_CURRENCY",
		},
		&cli.StringFlag{
			Name:  "address_type",
			Usage: "either p2pkh or p2wpkh, overrides UTXOWALLET_ADDRESS_TYPE",
		},
	}
	app.Before = initApp
	app.After = closeApp
	app.Commands = append(
		app.Commands,
		&genseed,
		&account,
		&addresses,
		&syncaccount,
		&fee,
		&send,
		&bumpfee,
	)

	err := app.Run(os.Args)
	if err != nil {
		fatal(err)
	}
}

func initApp(ctx *cli.Context) error {
	if err := config.InitConfig(); err != nil {
		return err
	}
	if c := ctx.String("currency"); c != "" {
		config.Set(config.CurrencyKey, c)
	}
	if t := ctx.String("address_type"); t != "" {
		config.Set(config.AddressTypeKey, t)
	}
	log.SetLevel(config.GetLogLevel())

	if config.GetBool(config.EnableStatsKey) {
		var statsCtx context.Context
		statsCtx, stopStats = context.WithCancel(context.Background())
		statsDumped = stats.Watch(
			statsCtx, config.GetStatsInterval(), prometheus.DefaultGatherer,
			config.GetStatsPath(),
		)
	}
	return nil
}

func closeApp(_ *cli.Context) error {
	if stopStats != nil {
		stopStats()
		<-statsDumped
	}
	return nil
}

func getMnemonic(ctx *cli.Context) (string, error) {
	mnemonic := strings.TrimSpace(ctx.String(mnemonicFlag.Name))
	if mnemonic == "" {
		return "", fmt.Errorf(
			"mnemonic must be given with --%s or UTXOWALLET_MNEMONIC",
			mnemonicFlag.Name,
		)
	}
	return mnemonic, nil
}

// getAccount derives the account of the configured currency from the
// mnemonic.
func getAccount(ctx *cli.Context) (*wallet.AccountCore, *currency.Descriptor, error) {
	mnemonic, err := getMnemonic(ctx)
	if err != nil {
		return nil, nil, err
	}
	c, err := config.GetCurrency()
	if err != nil {
		return nil, nil, err
	}
	core, err := wallet.DeriveAccount(wallet.DeriveAccountOpts{
		Mnemonic:    mnemonic,
		ShortName:   c.ShortName,
		AddressType: c.AddressType,
	})
	if err != nil {
		return nil, nil, err
	}
	return core, c, nil
}

type syncedAccount struct {
	core     *wallet.AccountCore
	currency *currency.Descriptor
	explorer explorer.Service
	snapshot *discovery.Snapshot
}

// syncAccount derives the account and scans its addresses.
func syncAccount(ctx *cli.Context) (*syncedAccount, error) {
	core, c, err := getAccount(ctx)
	if err != nil {
		return nil, err
	}
	svc, err := config.GetExplorer()
	if err != nil {
		return nil, err
	}

	synchronizer, err := discovery.NewSynchronizer(discovery.SynchronizerOpts{
		Currency:     c,
		ExternalNode: core.ExternalNode,
		InternalNode: core.InternalNode,
		Explorer:     svc,
	})
	if err != nil {
		return nil, err
	}
	snapshot, err := synchronizer.Start(ctx.Context)
	if err != nil {
		return nil, err
	}

	return &syncedAccount{
		core:     core,
		currency: c,
		explorer: svc,
		snapshot: snapshot,
	}, nil
}

// newTx returns a tx builder spending all the unspents of the account.
func (a *syncedAccount) newTx(rbf bool) (*wallet.Tx, error) {
	return wallet.NewTx(wallet.NewTxOpts{
		Unspents: a.snapshot.Unspents,
		Nodes: wallet.Nodes{
			External: a.core.ExternalNode,
			Internal: a.core.InternalNode,
		},
		FeeLevels: a.snapshot.Fees,
		Currency:  a.currency,
		Explorer:  a.explorer,
		RBF:       rbf,
	})
}

func selectQuote(quotes []wallet.FeeQuote, id string) (*wallet.FeeQuote, error) {
	ids := make([]string, 0, len(quotes))
	for i := range quotes {
		if quotes[i].ID == id {
			if quotes[i].IsEmpty() {
				return nil, fmt.Errorf("fee level %s can't pay the given amount", id)
			}
			return &quotes[i], nil
		}
		ids = append(ids, quotes[i].ID)
	}
	return nil, fmt.Errorf(
		"unknown fee level %s, must be one of %s", id, strings.Join(ids, ", "),
	)
}

func printJSON(resp interface{}) {
	b, err := json.MarshalIndent(resp, "", "\t")
	if err != nil {
		fmt.Println("unable to decode response: ", err)
		return
	}
	fmt.Println(string(b))
}

type invalidUsageError struct {
	ctx     *cli.Context
	command string
}

func (e *invalidUsageError) Error() string {
	return fmt.Sprintf("invalid usage of command %s", e.command)
}

func fatal(err error) {
	var e *invalidUsageError
	if errors.As(err, &e) {
		_ = cli.ShowCommandHelp(e.ctx, e.command)
	} else {
		_, _ = fmt.Fprintf(os.Stderr, "[utxowallet] %v\n", err)
	}
	os.Exit(1)
}
