package coinpayv1

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math/big"

	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"
)

// Integer is an integer of arbitrary size encoded as a decimal string.
// Plain JSON numbers are accepted as well when decoding.
type Integer string

func (i *Integer) UnmarshalJSON(buf []byte) error {
	if bytes.Equal(buf, []byte("null")) {
		*i = ""
		return nil
	}
	if len(buf) > 0 && buf[0] == '"' {
		var s string
		if err := json.Unmarshal(buf, &s); err != nil {
			return err
		}
		*i = Integer(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(buf, &n); err != nil {
		return fmt.Errorf("integer must be either a string or a number")
	}
	*i = Integer(n.String())
	return nil
}

// BigInt parses the integer. An empty value returns nil.
func (i Integer) BigInt() (*big.Int, error) {
	if i == "" {
		return nil, nil
	}
	n, ok := new(big.Int).SetString(string(i), 10)
	if !ok {
		return nil, fmt.Errorf("%q is not an integer", string(i))
	}
	return n, nil
}

func NewInteger(n *big.Int) Integer {
	if n == nil {
		return "0"
	}
	return Integer(n.String())
}

type Coin struct {
	CoinId              string  `json:"coin_id"`
	AssetType           string  `json:"asset_type"`
	Balance             Integer `json:"balance"`
	Owner               string  `json:"owner"`
	Version             string  `json:"version,omitempty"`
	Digest              string  `json:"digest,omitempty"`
	LockTimestamp       int64   `json:"lock_timestamp,omitempty"`
	LockExpiryTimestamp int64   `json:"lock_expiry_timestamp,omitempty"`
	SpentBy             string  `json:"spent_by,omitempty"`
}

type Balance struct {
	Spendable Integer `json:"spendable"`
	Locked    Integer `json:"locked"`
	Total     Integer `json:"total"`
}

type SyncCoinsRequest struct {
	Owner  string `json:"owner"`
	Rescan bool   `json:"rescan,omitempty"`
}

type SyncCoinsResponse struct {
	Added   int `json:"added"`
	Updated int `json:"updated"`
	Spent   int `json:"spent"`
}

type ListCoinsRequest struct {
	Owner      string  `json:"owner"`
	AssetType  string  `json:"asset_type,omitempty"`
	MinBalance Integer `json:"min_balance,omitempty"`
}

type ListCoinsResponse struct {
	SpendableCoins []*Coin `json:"spendable_coins"`
	LockedCoins    []*Coin `json:"locked_coins"`
}

type GetBalanceRequest struct {
	Owner string `json:"owner"`
}

type GetBalanceResponse struct {
	// Balance is indexed by asset type.
	Balance map[string]*Balance `json:"balance"`
}

type GetCoinMetadataRequest struct {
	AssetType string `json:"asset_type"`
}

type GetCoinMetadataResponse struct {
	Id          string `json:"id"`
	Decimals    int    `json:"decimals"`
	Name        string `json:"name"`
	Symbol      string `json:"symbol"`
	Description string `json:"description"`
	IconUrl     string `json:"icon_url"`
}

type BuildPaymentRequest struct {
	Owner     string  `json:"owner"`
	AssetType string  `json:"asset_type,omitempty"`
	Amount    Integer `json:"amount,omitempty"`
	Recipient string  `json:"recipient,omitempty"`
	GasBudget Integer `json:"gas_budget,omitempty"`
}

type BuildPaymentResponse struct {
	Kind           string    `json:"kind"`
	InputCoins     []string  `json:"input_coins"`
	GasCoin        string    `json:"gas_coin"`
	Recipients     []string  `json:"recipients"`
	Amounts        []Integer `json:"amounts"`
	GasBudget      Integer   `json:"gas_budget"`
	Digest         string    `json:"digest"`
	ExpirationDate int64     `json:"expiration_date"`
}

type SelectCoinsRequest struct {
	Owner        string  `json:"owner"`
	AssetType    string  `json:"asset_type,omitempty"`
	TargetAmount Integer `json:"target_amount,omitempty"`
	Strategy     string  `json:"strategy,omitempty"`
}

type SelectCoinsResponse struct {
	Coins          []*Coin `json:"coins"`
	Change         Integer `json:"change"`
	ExpirationDate int64   `json:"expiration_date"`
}

type UnlockCoinsRequest struct {
	CoinIds []string `json:"coin_ids"`
}

type UnlockCoinsResponse struct {
	Count int `json:"count"`
}

type MarkSpentRequest struct {
	CoinIds  []string `json:"coin_ids"`
	TxDigest string   `json:"tx_digest,omitempty"`
}

type MarkSpentResponse struct {
	Count int `json:"count"`
}

type CoinNotificationsRequest struct{}

type CoinNotificationsResponse struct {
	EventType string  `json:"event_type"`
	Coins     []*Coin `json:"coins"`
}

// Getters are nil safe like the ones of generated messages.

func (x *SyncCoinsRequest) GetOwner() string {
	if x == nil {
		return ""
	}
	return x.Owner
}

func (x *SyncCoinsRequest) GetRescan() bool {
	if x == nil {
		return false
	}
	return x.Rescan
}

func (x *ListCoinsRequest) GetOwner() string {
	if x == nil {
		return ""
	}
	return x.Owner
}

func (x *ListCoinsRequest) GetAssetType() string {
	if x == nil {
		return ""
	}
	return x.AssetType
}

func (x *ListCoinsRequest) GetMinBalance() Integer {
	if x == nil {
		return ""
	}
	return x.MinBalance
}

func (x *GetBalanceRequest) GetOwner() string {
	if x == nil {
		return ""
	}
	return x.Owner
}

func (x *GetCoinMetadataRequest) GetAssetType() string {
	if x == nil {
		return ""
	}
	return x.AssetType
}

func (x *BuildPaymentRequest) GetOwner() string {
	if x == nil {
		return ""
	}
	return x.Owner
}

func (x *BuildPaymentRequest) GetAssetType() string {
	if x == nil {
		return ""
	}
	return x.AssetType
}

func (x *BuildPaymentRequest) GetAmount() Integer {
	if x == nil {
		return ""
	}
	return x.Amount
}

func (x *BuildPaymentRequest) GetRecipient() string {
	if x == nil {
		return ""
	}
	return x.Recipient
}

func (x *BuildPaymentRequest) GetGasBudget() Integer {
	if x == nil {
		return ""
	}
	return x.GasBudget
}

func (x *SelectCoinsRequest) GetOwner() string {
	if x == nil {
		return ""
	}
	return x.Owner
}

func (x *SelectCoinsRequest) GetAssetType() string {
	if x == nil {
		return ""
	}
	return x.AssetType
}

func (x *SelectCoinsRequest) GetTargetAmount() Integer {
	if x == nil {
		return ""
	}
	return x.TargetAmount
}

func (x *SelectCoinsRequest) GetStrategy() string {
	if x == nil {
		return ""
	}
	return x.Strategy
}

func (x *UnlockCoinsRequest) GetCoinIds() []string {
	if x == nil {
		return nil
	}
	return x.CoinIds
}

func (x *MarkSpentRequest) GetCoinIds() []string {
	if x == nil {
		return nil
	}
	return x.CoinIds
}

func (x *MarkSpentRequest) GetTxDigest() string {
	if x == nil {
		return ""
	}
	return x.TxDigest
}

// toStruct converts a message to the struct sent over the wire.
func toStruct(msg interface{}) (*structpb.Struct, error) {
	buf, err := json.Marshal(msg)
	if err != nil {
		return nil, err
	}
	s := &structpb.Struct{}
	if bytes.Equal(buf, []byte("null")) {
		return s, nil
	}
	if err := protojson.Unmarshal(buf, s); err != nil {
		return nil, err
	}
	return s, nil
}

// fromStruct fills the given message with the content of the wire struct.
func fromStruct(s *structpb.Struct, msg interface{}) error {
	buf, err := protojson.Marshal(s)
	if err != nil {
		return err
	}
	return json.Unmarshal(buf, msg)
}
