package jsonrpc_ledger

import (
	"encoding/json"
	"fmt"
	"math/big"
	"sync"

	"github.com/vulpemventures/coinpay/internal/core/domain"
	"github.com/vulpemventures/coinpay/pkg/coin"
)

const (
	jsonrpcVersion = "2.0"

	methodGetCoins        = "suix_getCoins"
	methodGetAllCoins     = "suix_getAllCoins"
	methodGetCoinMetadata = "suix_getCoinMetadata"
	methodGetChainId      = "sui_getChainIdentifier"
)

type request struct {
	JsonRpc string        `json:"jsonrpc"`
	Id      uint64        `json:"id"`
	Method  string        `json:"method"`
	Params  []interface{} `json:"params"`
}

type response struct {
	JsonRpc string          `json:"jsonrpc"`
	Id      uint64          `json:"id"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *responseErr    `json:"error,omitempty"`
}

func (r response) error() error {
	if r.Error == nil {
		return nil
	}
	return r.Error
}

type responseErr struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *responseErr) Error() string {
	return fmt.Sprintf("code: %d, message: %s", e.Code, e.Message)
}

// coinPage is a page of coin objects as returned by suix_getCoins and
// suix_getAllCoins.
type coinPage struct {
	Data        []coinObject `json:"data"`
	NextCursor  *string      `json:"nextCursor"`
	HasNextPage bool         `json:"hasNextPage"`
}

type coinObject struct {
	CoinType            string `json:"coinType"`
	CoinObjectId        string `json:"coinObjectId"`
	Version             string `json:"version"`
	Digest              string `json:"digest"`
	Balance             string `json:"balance"`
	PreviousTransaction string `json:"previousTransaction"`
}

func (o coinObject) toDomain(owner string) (*domain.Coin, error) {
	balance, ok := new(big.Int).SetString(o.Balance, 10)
	if !ok {
		return nil, fmt.Errorf(
			"invalid balance %q for coin %s", o.Balance, o.CoinObjectId,
		)
	}
	return domain.NewCoin(owner, coin.Coin{
		ID:      o.CoinObjectId,
		Type:    o.CoinType,
		Balance: balance,
	}, o.Version, o.Digest)
}

// chHandler routes the responses received over a socket to the goroutines
// waiting for them.
type chHandler struct {
	lock             *sync.RWMutex
	chReportsByReqId map[uint64]chan response
}

func newChHandler() *chHandler {
	return &chHandler{
		lock:             &sync.RWMutex{},
		chReportsByReqId: make(map[uint64]chan response),
	}
}

func (h *chHandler) addRequest(req request) chan response {
	h.lock.Lock()
	defer h.lock.Unlock()

	if ch, ok := h.chReportsByReqId[req.Id]; ok {
		return ch
	}
	ch := make(chan response, 1)
	h.chReportsByReqId[req.Id] = ch
	return ch
}

func (h *chHandler) getChReportsForReqId(id uint64) chan response {
	h.lock.RLock()
	defer h.lock.RUnlock()

	return h.chReportsByReqId[id]
}

func (h *chHandler) clearRequest(id uint64) {
	h.lock.Lock()
	defer h.lock.Unlock()

	delete(h.chReportsByReqId, id)
}

func (h *chHandler) clear() {
	h.lock.Lock()
	defer h.lock.Unlock()

	h.chReportsByReqId = make(map[uint64]chan response)
}
