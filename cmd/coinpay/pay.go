package main

import (
	"context"
	"strconv"

	"github.com/spf13/cobra"
	pb "github.com/vulpemventures/coinpay/api-spec/go/coinpay/v1"
)

var (
	amount    string
	recipient string
	gasBudget uint64
	strategy  string
	coinIDs   []string
	txDigest  string

	payBuildCmd = &cobra.Command{
		Use:   "build",
		Short: "build a payment plan",
		Long: "this command selects the gas coin and the coins to transfer the " +
			"given amount of an asset to the recipient, and locks them",
		RunE: payBuild,
	}
	paySelectCmd = &cobra.Command{
		Use:   "select",
		Short: "select coins",
		Long: "this command selects and locks a set of coins of the given asset " +
			"type covering the target amount",
		RunE: paySelect,
	}
	payUnlockCmd = &cobra.Command{
		Use:   "unlock",
		Short: "unlock coins",
		Long:  "this command releases the lock of the given coins",
		RunE:  payUnlock,
	}
	paySpentCmd = &cobra.Command{
		Use:   "spent",
		Short: "mark coins as spent",
		Long: "this command marks the given coins as spent by the given " +
			"transaction",
		RunE: paySpent,
	}
	payCmd = &cobra.Command{
		Use:   "pay",
		Short: "interact with coinpay payment interface",
		Long: "this command lets you build payment plans, select coins, and " +
			"manage the lifecycle of the coins locked for them",
	}
)

func init() {
	for _, cmd := range []*cobra.Command{payBuildCmd, paySelectCmd} {
		cmd.Flags().StringVar(&owner, "owner", "", "account address")
		cmd.Flags().StringVar(
			&assetType, "asset-type", "", "asset type in the form addr::module::name",
		)
		cmd.Flags().StringVar(&amount, "amount", "", "amount in base units")
		cmd.MarkFlagRequired("owner")
		cmd.MarkFlagRequired("asset-type")
		cmd.MarkFlagRequired("amount")
	}
	payBuildCmd.Flags().StringVar(&recipient, "recipient", "", "recipient address")
	payBuildCmd.Flags().Uint64Var(&gasBudget, "gas-budget", 0, "gas budget")
	payBuildCmd.MarkFlagRequired("recipient")
	paySelectCmd.Flags().StringVar(
		&strategy, "strategy", "greedy",
		"coin selection strategy (greedy | smallest-subset)",
	)

	for _, cmd := range []*cobra.Command{payUnlockCmd, paySpentCmd} {
		cmd.Flags().StringSliceVar(&coinIDs, "coin-id", nil, "coin id, repeatable")
		cmd.MarkFlagRequired("coin-id")
	}
	paySpentCmd.Flags().StringVar(&txDigest, "tx-digest", "", "spending tx digest")
	paySpentCmd.MarkFlagRequired("tx-digest")

	payCmd.AddCommand(payBuildCmd, paySelectCmd, payUnlockCmd, paySpentCmd)
}

func payBuild(_ *cobra.Command, _ []string) error {
	client, cleanup, err := getPaymentClient()
	if err != nil {
		return err
	}
	defer cleanup()

	reply, err := client.BuildPayment(
		context.Background(), &pb.BuildPaymentRequest{
			Owner:     owner,
			AssetType: assetType,
			Amount:    pb.Integer(amount),
			Recipient: recipient,
			GasBudget: pb.Integer(strconv.FormatUint(gasBudget, 10)),
		},
	)
	return printReply(reply, err)
}

func paySelect(_ *cobra.Command, _ []string) error {
	client, cleanup, err := getPaymentClient()
	if err != nil {
		return err
	}
	defer cleanup()

	reply, err := client.SelectCoins(context.Background(), &pb.SelectCoinsRequest{
		Owner:        owner,
		AssetType:    assetType,
		TargetAmount: pb.Integer(amount),
		Strategy:     strategy,
	})
	return printReply(reply, err)
}

func payUnlock(_ *cobra.Command, _ []string) error {
	client, cleanup, err := getPaymentClient()
	if err != nil {
		return err
	}
	defer cleanup()

	reply, err := client.UnlockCoins(context.Background(), &pb.UnlockCoinsRequest{
		CoinIds: coinIDs,
	})
	return printReply(reply, err)
}

func paySpent(_ *cobra.Command, _ []string) error {
	client, cleanup, err := getPaymentClient()
	if err != nil {
		return err
	}
	defer cleanup()

	reply, err := client.MarkSpent(context.Background(), &pb.MarkSpentRequest{
		CoinIds:  coinIDs,
		TxDigest: txDigest,
	})
	return printReply(reply, err)
}
