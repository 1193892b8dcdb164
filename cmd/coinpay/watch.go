package main

import (
	"context"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	pb "github.com/vulpemventures/coinpay/api-spec/go/coinpay/v1"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "watch coin events",
	Long: "this command streams the events (new, locked, unlocked, spent) of " +
		"the coins tracked by the daemon until interrupted",
	RunE: watch,
}

func watch(_ *cobra.Command, _ []string) error {
	client, cleanup, err := getNotificationClient()
	if err != nil {
		return err
	}
	defer cleanup()

	ctx, cancel := signal.NotifyContext(
		context.Background(), os.Interrupt, syscall.SIGTERM,
	)
	defer cancel()

	stream, err := client.CoinNotifications(
		ctx, &pb.CoinNotificationsRequest{},
	)
	if err != nil {
		printErr(err)
		return nil
	}

	for {
		msg, err := stream.Recv()
		if err != nil {
			if err == io.EOF || ctx.Err() != nil {
				return nil
			}
			printErr(err)
			return nil
		}
		if err := printJSON(msg); err != nil {
			return err
		}
	}
}
