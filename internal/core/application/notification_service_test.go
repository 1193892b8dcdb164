package application_test

import (
	"math/big"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/vulpemventures/coinpay/internal/core/application"
	"github.com/vulpemventures/coinpay/internal/core/domain"
	"github.com/vulpemventures/coinpay/internal/infrastructure/storage/db/inmemory"
	"github.com/vulpemventures/coinpay/pkg/coin"
)

func TestGetCoinChannel(t *testing.T) {
	owner, recipient := randomOwner(), randomOwner()
	repoManager := inmemory.NewRepoManager()

	svc := application.NewNotificationService(repoManager)
	paymentSvc, err := application.NewPaymentService(
		repoManager, coin.NativeAssetType, coinExpiryDuration, nil,
	)
	require.NoError(t, err)

	chEvents, err := svc.GetCoinChannel(ctx)
	require.NoError(t, err)

	events := make(chan domain.CoinEvent, 10)
	go func() {
		for event := range chEvents {
			t.Logf("received event: %s %v", event.EventType, application.CoinsInfo(event.Coins).IDs())
			events <- event
		}
	}()

	_, err = repoManager.CoinRepository().AddCoins(ctx, []*domain.Coin{
		newCoin(owner, "0xc1", coin.NativeAssetTypeArg, 100),
		newCoin(owner, "0xc2", coin.NativeAssetTypeArg, 200),
		newCoin(owner, "0xc3", coin.NativeAssetTypeArg, 1000),
		newCoin(owner, "0xc4", usdcType, 500),
	})
	require.NoError(t, err)

	time.Sleep(100 * time.Millisecond)

	info, err := paymentSvc.BuildPayment(ctx, owner, application.Payment{
		AssetType: coin.NativeAssetTypeArg,
		Amount:    big.NewInt(150),
		Recipient: recipient,
		GasBudget: 50,
	})
	require.NoError(t, err)

	time.Sleep(100 * time.Millisecond)

	_, err = paymentSvc.MarkSpent(ctx, info.Plan.CoinIDs(), "0xdigest")
	require.NoError(t, err)

	received := make(map[domain.CoinEventType][]string)
	timeout := time.After(3 * time.Second)
	for len(received) < 3 {
		select {
		case event := <-events:
			received[event.EventType] = application.CoinsInfo(event.Coins).IDs()
		case <-timeout:
			t.Fatalf("missing events, got %v", received)
		}
	}

	require.Len(t, received[domain.CoinAdded], 4)
	require.ElementsMatch(t, info.Plan.CoinIDs(), received[domain.CoinLocked])
	require.ElementsMatch(t, info.Plan.CoinIDs(), received[domain.CoinSpent])
}
