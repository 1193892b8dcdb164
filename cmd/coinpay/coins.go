package main

import (
	"context"

	"github.com/spf13/cobra"
	pb "github.com/vulpemventures/coinpay/api-spec/go/coinpay/v1"
)

var (
	owner      string
	assetType  string
	minBalance string
	rescan     bool

	coinsSyncCmd = &cobra.Command{
		Use:   "sync",
		Short: "sync owner coins with the ledger",
		Long: "this command fetches all the coins owned by the given account " +
			"from the ledger and updates the local coin set",
		RunE: coinsSync,
	}
	coinsListCmd = &cobra.Command{
		Use:   "list",
		Short: "list owner coins",
		Long: "this command returns the spendable and locked coins of the " +
			"given account, optionally filtered by asset type and min balance",
		RunE: coinsList,
	}
	coinsBalanceCmd = &cobra.Command{
		Use:   "balance",
		Short: "get owner balance",
		Long: "this command returns the spendable and locked balance of the " +
			"given account for every asset type it owns",
		RunE: coinsBalance,
	}
	coinsMetadataCmd = &cobra.Command{
		Use:   "metadata",
		Short: "get asset metadata",
		Long: "this command returns name, symbol and decimals of the given " +
			"asset type",
		RunE: coinsMetadata,
	}
	coinsCmd = &cobra.Command{
		Use:   "coins",
		Short: "interact with coinpay coin interface",
		Long: "this command lets you sync the coins of an account with the " +
			"ledger, list them, or get the account balance",
	}
)

func init() {
	coinsCmd.PersistentFlags().StringVar(&owner, "owner", "", "account address")

	coinsSyncCmd.Flags().BoolVar(
		&rescan, "rescan", false,
		"drop the coins of the account and fetch them again from scratch",
	)
	coinsListCmd.Flags().StringVar(
		&assetType, "asset-type", "", "filter coins by asset type",
	)
	coinsListCmd.Flags().StringVar(
		&minBalance, "min", "", "filter spendable coins by min balance",
	)
	coinsMetadataCmd.Flags().StringVar(
		&assetType, "asset-type", "", "asset type in the form addr::module::name",
	)
	coinsMetadataCmd.MarkFlagRequired("asset-type")

	coinsCmd.AddCommand(
		coinsSyncCmd, coinsListCmd, coinsBalanceCmd, coinsMetadataCmd,
	)
}

func coinsSync(_ *cobra.Command, _ []string) error {
	client, cleanup, err := getCoinClient()
	if err != nil {
		return err
	}
	defer cleanup()

	reply, err := client.SyncCoins(context.Background(), &pb.SyncCoinsRequest{
		Owner:  owner,
		Rescan: rescan,
	})
	return printReply(reply, err)
}

func coinsList(_ *cobra.Command, _ []string) error {
	client, cleanup, err := getCoinClient()
	if err != nil {
		return err
	}
	defer cleanup()

	reply, err := client.ListCoins(context.Background(), &pb.ListCoinsRequest{
		Owner:      owner,
		AssetType:  assetType,
		MinBalance: pb.Integer(minBalance),
	})
	return printReply(reply, err)
}

func coinsBalance(_ *cobra.Command, _ []string) error {
	client, cleanup, err := getCoinClient()
	if err != nil {
		return err
	}
	defer cleanup()

	reply, err := client.GetBalance(context.Background(), &pb.GetBalanceRequest{
		Owner: owner,
	})
	return printReply(reply, err)
}

func coinsMetadata(_ *cobra.Command, _ []string) error {
	client, cleanup, err := getCoinClient()
	if err != nil {
		return err
	}
	defer cleanup()

	reply, err := client.GetCoinMetadata(
		context.Background(), &pb.GetCoinMetadataRequest{AssetType: assetType},
	)
	return printReply(reply, err)
}
