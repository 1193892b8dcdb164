package grpc_interface_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	pb "github.com/vulpemventures/coinpay/api-spec/go/coinpay/v1"
	appconfig "github.com/vulpemventures/coinpay/internal/app-config"
	grpc_interface "github.com/vulpemventures/coinpay/internal/interfaces/grpc"
	jsonrpc_ledger "github.com/vulpemventures/coinpay/internal/infrastructure/ledger-client/jsonrpc"
	"github.com/vulpemventures/coinpay/pkg/coin"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

const (
	owner     = "0xa11ce"
	recipient = "0xb0b"
)

func newFakeNode(t *testing.T) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(
		func(w http.ResponseWriter, r *http.Request) {
			var req struct {
				Id     uint64 `json:"id"`
				Method string `json:"method"`
			}
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))

			resp := map[string]interface{}{"jsonrpc": "2.0", "id": req.Id}
			switch req.Method {
			case "sui_getChainIdentifier":
				resp["result"] = "4c78adac"
			case "suix_getAllCoins", "suix_getCoins":
				data := make([]map[string]string, 0, 3)
				for id, balance := range map[string]string{
					"0xc1": "100", "0xc2": "200", "0xc3": "1000",
				} {
					data = append(data, map[string]string{
						"coinType":     coin.NativeAssetTypeArg,
						"coinObjectId": id,
						"version":      "1",
						"digest":       "digest" + id,
						"balance":      balance,
					})
				}
				resp["result"] = map[string]interface{}{
					"data": data, "nextCursor": nil, "hasNextPage": false,
				}
			default:
				resp["result"] = nil
			}
			json.NewEncoder(w).Encode(resp)
		},
	))
}

func startService(t *testing.T, port int) (*grpc.ClientConn, func()) {
	node := newFakeNode(t)

	svc, err := grpc_interface.NewService(
		grpc_interface.ServiceConfig{Port: port, NoTLS: true},
		&appconfig.AppConfig{
			NativeAssetType:    coin.NativeAssetType,
			CoinExpiryDuration: time.Minute,
			RepoManagerType:    "inmemory",
			LedgerClientConfig: jsonrpc_ledger.ServiceArgs{Addr: node.URL},
		},
	)
	require.NoError(t, err)
	require.NoError(t, svc.Start())

	conn, err := grpc.Dial(
		fmt.Sprintf("localhost:%d", port),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)

	return conn, func() {
		conn.Close()
		svc.Stop()
		node.Close()
	}
}

func TestService(t *testing.T) {
	conn, stop := startService(t, 18090)
	defer stop()

	coinClient := pb.NewCoinServiceClient(conn)
	paymentClient := pb.NewPaymentServiceClient(conn)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	syncRes, err := coinClient.SyncCoins(ctx, &pb.SyncCoinsRequest{Owner: owner})
	require.NoError(t, err)
	require.Equal(t, 3, syncRes.Added)
	require.Zero(t, syncRes.Updated)
	require.Zero(t, syncRes.Spent)

	listRes, err := coinClient.ListCoins(ctx, &pb.ListCoinsRequest{Owner: owner})
	require.NoError(t, err)
	require.Len(t, listRes.SpendableCoins, 3)
	require.Empty(t, listRes.LockedCoins)

	_, err = paymentClient.BuildPayment(ctx, &pb.BuildPaymentRequest{
		Owner:     owner,
		Amount:    "1000000",
		Recipient: recipient,
		GasBudget: "50",
	})
	require.Error(t, err)
	require.Equal(t, codes.FailedPrecondition, status.Code(err))

	_, err = paymentClient.BuildPayment(ctx, &pb.BuildPaymentRequest{Owner: owner})
	require.Error(t, err)
	require.Equal(t, codes.InvalidArgument, status.Code(err))

	payment := &pb.BuildPaymentRequest{
		Owner:     owner,
		Amount:    "150",
		Recipient: recipient,
		GasBudget: "50",
	}
	buildRes, err := paymentClient.BuildPayment(ctx, payment)
	require.NoError(t, err)
	require.Equal(t, string(coin.PlanKindNativeAssetIsGas), buildRes.Kind)
	require.NotEmpty(t, buildRes.GasCoin)
	require.NotEmpty(t, buildRes.Digest)
	require.Equal(t, pb.Integer("50"), buildRes.GasBudget)
	require.Greater(t, buildRes.ExpirationDate, time.Now().Unix())
	require.NotEmpty(t, buildRes.InputCoins)

	unlockRes, err := paymentClient.UnlockCoins(ctx, &pb.UnlockCoinsRequest{
		CoinIds: buildRes.InputCoins,
	})
	require.NoError(t, err)
	require.Equal(t, len(buildRes.InputCoins), unlockRes.Count)

	buildRes, err = paymentClient.BuildPayment(ctx, payment)
	require.NoError(t, err)
	inputCoins := buildRes.InputCoins

	listRes, err = coinClient.ListCoins(ctx, &pb.ListCoinsRequest{Owner: owner})
	require.NoError(t, err)
	require.Len(t, listRes.LockedCoins, len(inputCoins))
	for _, c := range listRes.LockedCoins {
		require.Equal(t, buildRes.ExpirationDate, c.LockExpiryTimestamp)
	}

	_, err = paymentClient.MarkSpent(ctx, &pb.MarkSpentRequest{CoinIds: inputCoins})
	require.Error(t, err)
	require.Equal(t, codes.InvalidArgument, status.Code(err))

	spentRes, err := paymentClient.MarkSpent(ctx, &pb.MarkSpentRequest{
		CoinIds: inputCoins, TxDigest: "0xdigest",
	})
	require.NoError(t, err)
	require.Equal(t, len(inputCoins), spentRes.Count)

	listRes, err = coinClient.ListCoins(ctx, &pb.ListCoinsRequest{Owner: owner})
	require.NoError(t, err)
	require.Len(t, listRes.SpendableCoins, 3-len(inputCoins))

	balanceRes, err := coinClient.GetBalance(ctx, &pb.GetBalanceRequest{
		Owner: owner,
	})
	require.NoError(t, err)
	require.Contains(t, balanceRes.Balance, coin.NativeAssetTypeArg)
}

func TestServiceRequestEncoding(t *testing.T) {
	conn, stop := startService(t, 18091)
	defer stop()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, err := pb.NewCoinServiceClient(conn).SyncCoins(
		ctx, &pb.SyncCoinsRequest{Owner: owner},
	)
	require.NoError(t, err)

	invoke := func(method string, req map[string]interface{}) (*structpb.Struct, error) {
		in, err := structpb.NewStruct(req)
		require.NoError(t, err)
		out := new(structpb.Struct)
		err = conn.Invoke(
			ctx, pb.FullMethod(pb.PaymentServiceName, method), in, out,
		)
		return out, err
	}

	// Amounts given as plain numbers are accepted.
	res, err := invoke("BuildPayment", map[string]interface{}{
		"owner":      owner,
		"amount":     150,
		"recipient":  recipient,
		"gas_budget": 50,
	})
	require.NoError(t, err)
	require.Equal(t, "50", res.GetFields()["gas_budget"].GetStringValue())
	require.NotEmpty(t, res.GetFields()["input_coins"].GetListValue().GetValues())

	_, err = invoke("BuildPayment", map[string]interface{}{
		"owner":      owner,
		"amount":     1.5,
		"recipient":  recipient,
		"gas_budget": 50,
	})
	require.Error(t, err)
	require.Equal(t, codes.InvalidArgument, status.Code(err))

	_, err = invoke("UnlockCoins", map[string]interface{}{
		"coin_ids": []interface{}{1, 2},
	})
	require.Error(t, err)
	require.Equal(t, codes.InvalidArgument, status.Code(err))

	_, err = invoke("UnlockCoins", map[string]interface{}{
		"coin_ids": "0xc1",
	})
	require.Error(t, err)
	require.Equal(t, codes.InvalidArgument, status.Code(err))
}
