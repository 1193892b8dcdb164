package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/spf13/cobra"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"

	datadir       = btcutil.AppDataDir("coinpay-cli", false)
	statePath     = filepath.Join(datadir, "state.json")
	daemonDatadir = btcutil.AppDataDir("coinpayd", false)
	initialState  = map[string]string{
		"rpcserver":     "localhost:18000",
		"no_tls":        strconv.FormatBool(false),
		"tls_cert_path": filepath.Join(daemonDatadir, "mainnet", "tls", "cert.pem"),
	}

	rootCmd = &cobra.Command{
		Use:   "coinpay",
		Short: "CLI for coinpay daemon",
		Long:  "This CLI lets you interact with a running coinpay daemon",
		PersistentPreRun: func(_ *cobra.Command, _ []string) {
			if _, err := os.Stat(datadir); os.IsNotExist(err) {
				os.Mkdir(datadir, os.ModeDir|0755)
			}
		},
		Version:       formatVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}
)

func init() {
	rootCmd.AddCommand(configCmd, coinsCmd, payCmd, watchCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
