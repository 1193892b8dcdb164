package jsonrpc_ledger_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"
	jsonrpc_ledger "github.com/vulpemventures/coinpay/internal/infrastructure/ledger-client/jsonrpc"
	"github.com/vulpemventures/coinpay/pkg/coin"
)

const (
	owner    = "0xa11ce"
	usdcType = "0xabc::usdc::USDC"
)

var ctx = context.Background()

type rpcRequest struct {
	JsonRpc string            `json:"jsonrpc"`
	Id      uint64            `json:"id"`
	Method  string            `json:"method"`
	Params  []json.RawMessage `json:"params"`
}

// fakeNode serves 3 coins over 2 pages and the metadata of the usdc asset.
func fakeNode(t *testing.T, req rpcRequest) map[string]interface{} {
	resp := map[string]interface{}{"jsonrpc": "2.0", "id": req.Id}

	switch req.Method {
	case "sui_getChainIdentifier":
		resp["result"] = "4c78adac"
	case "suix_getAllCoins", "suix_getCoins":
		cursorIndex := 1
		if req.Method == "suix_getCoins" {
			cursorIndex = 2
		}
		var cursor *string
		require.NoError(t, json.Unmarshal(req.Params[cursorIndex], &cursor))

		if cursor == nil {
			next := "page2"
			resp["result"] = map[string]interface{}{
				"data": []map[string]string{
					coinObject("0xc1", coin.NativeAssetTypeArg, "100"),
					coinObject("0xc2", coin.NativeAssetTypeArg, "200"),
				},
				"nextCursor":  next,
				"hasNextPage": true,
			}
		} else {
			resp["result"] = map[string]interface{}{
				"data": []map[string]string{
					coinObject("0xc3", usdcType, "340282366920938463463374607431768211455"),
					coinObject("0xc4", usdcType, "not a number"),
				},
				"nextCursor":  nil,
				"hasNextPage": false,
			}
		}
	case "suix_getCoinMetadata":
		var assetType string
		require.NoError(t, json.Unmarshal(req.Params[0], &assetType))
		if assetType == coin.MustParseAssetType(usdcType).String() {
			resp["result"] = map[string]interface{}{
				"decimals": 6, "name": "USD Coin", "symbol": "USDC",
				"description": "", "iconUrl": "", "id": "0xmeta",
			}
		} else {
			resp["result"] = nil
		}
	default:
		resp["error"] = map[string]interface{}{
			"code": -32601, "message": "method not found",
		}
	}
	return resp
}

func coinObject(id, assetType, balance string) map[string]string {
	return map[string]string{
		"coinType":     assetType,
		"coinObjectId": id,
		"version":      "7",
		"digest":       "digest" + id,
		"balance":      balance,
	}
}

func newHTTPNode(t *testing.T) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(
		func(w http.ResponseWriter, r *http.Request) {
			var req rpcRequest
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			json.NewEncoder(w).Encode(fakeNode(t, req))
		},
	))
}

// newWSNode returns a node replying the given number of times to every
// request.
func newWSNode(t *testing.T, replies int) *httptest.Server {
	upgrader := websocket.Upgrader{}
	return httptest.NewServer(http.HandlerFunc(
		func(w http.ResponseWriter, r *http.Request) {
			conn, err := upgrader.Upgrade(w, r, nil)
			if err != nil {
				return
			}
			defer conn.Close()
			for {
				var req rpcRequest
				if err := conn.ReadJSON(&req); err != nil {
					return
				}
				resp := fakeNode(t, req)
				for i := 0; i < replies; i++ {
					if err := conn.WriteJSON(resp); err != nil {
						return
					}
				}
			}
		},
	))
}

func TestLedgerClient(t *testing.T) {
	httpNode := newHTTPNode(t)
	defer httpNode.Close()
	wsNode := newWSNode(t, 1)
	defer wsNode.Close()

	addrs := map[string]string{
		"http": httpNode.URL,
		"ws":   "ws" + strings.TrimPrefix(wsNode.URL, "http"),
	}

	for name, addr := range addrs {
		addr := addr
		t.Run(name, func(t *testing.T) {
			svc, err := jsonrpc_ledger.NewService(jsonrpc_ledger.ServiceArgs{
				Addr:     addr,
				PageSize: 2,
			})
			require.NoError(t, err)

			_, err = svc.GetCoins(ctx, owner, coin.AssetType{})
			require.Error(t, err)

			require.NoError(t, svc.Start())
			defer svc.Stop()

			coins, err := svc.GetCoins(ctx, owner, coin.AssetType{})
			require.NoError(t, err)
			require.Len(t, coins, 3)
			require.Equal(t, "0xc1", coins[0].ID)
			require.Equal(t, coin.NativeAssetType.String(), coins[0].Type)
			require.Equal(t, "7", coins[0].Version)
			require.Equal(t, "340282366920938463463374607431768211455", coins[2].Balance.String())
			for _, c := range coins {
				ownerAddr, _ := coin.NormalizeAddress(owner)
				require.Equal(t, ownerAddr, c.Owner)
			}

			coins, err = svc.GetCoins(ctx, owner, coin.MustParseAssetType(usdcType))
			require.NoError(t, err)
			require.Len(t, coins, 3)

			metadata, err := svc.GetCoinMetadata(ctx, coin.MustParseAssetType(usdcType))
			require.NoError(t, err)
			require.Equal(t, uint8(6), metadata.Decimals)
			require.Equal(t, "USDC", metadata.Symbol)

			metadata, err = svc.GetCoinMetadata(ctx, coin.NativeAssetType)
			require.Error(t, err)
			require.Nil(t, metadata)
		})
	}
}

func TestLedgerClientWithDuplicateResponses(t *testing.T) {
	wsNode := newWSNode(t, 3)
	defer wsNode.Close()

	svc, err := jsonrpc_ledger.NewService(jsonrpc_ledger.ServiceArgs{
		Addr:     "ws" + strings.TrimPrefix(wsNode.URL, "http"),
		PageSize: 2,
	})
	require.NoError(t, err)
	require.NoError(t, svc.Start())
	defer svc.Stop()

	for i := 0; i < 3; i++ {
		ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
		coins, err := svc.GetCoins(ctx, owner, coin.AssetType{})
		cancel()
		require.NoError(t, err)
		require.Len(t, coins, 3)
	}
}

func TestLedgerClientTLS(t *testing.T) {
	tlsNode := httptest.NewTLSServer(http.HandlerFunc(
		func(w http.ResponseWriter, r *http.Request) {
			var req rpcRequest
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			json.NewEncoder(w).Encode(fakeNode(t, req))
		},
	))
	defer tlsNode.Close()

	t.Run("untrusted certificate", func(t *testing.T) {
		svc, err := jsonrpc_ledger.NewService(jsonrpc_ledger.ServiceArgs{
			Addr: tlsNode.URL,
		})
		require.NoError(t, err)
		require.Error(t, svc.Start())
	})

	t.Run("insecure", func(t *testing.T) {
		svc, err := jsonrpc_ledger.NewService(jsonrpc_ledger.ServiceArgs{
			Addr:        tlsNode.URL,
			TLSInsecure: true,
		})
		require.NoError(t, err)
		require.NoError(t, svc.Start())
		defer svc.Stop()

		coins, err := svc.GetCoins(ctx, owner, coin.AssetType{})
		require.NoError(t, err)
		require.Len(t, coins, 3)
	})
}

func TestFailingNewService(t *testing.T) {
	tests := []struct {
		args        jsonrpc_ledger.ServiceArgs
		expectedErr string
	}{
		{jsonrpc_ledger.ServiceArgs{}, "missing endpoint"},
		{jsonrpc_ledger.ServiceArgs{Addr: "tcp://localhost:9000"}, "unknown protocol"},
		{jsonrpc_ledger.ServiceArgs{Addr: "http://localhost:9000", PageSize: -1}, "page size"},
	}

	for i, tt := range tests {
		t.Run(fmt.Sprint(i), func(t *testing.T) {
			svc, err := jsonrpc_ledger.NewService(tt.args)
			require.ErrorContains(t, err, tt.expectedErr)
			require.Nil(t, svc)
		})
	}
}
