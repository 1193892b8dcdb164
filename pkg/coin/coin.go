package coin

import (
	"encoding/json"
	"fmt"
	"math/big"
)

// Coin is a snapshot of a coin object owned by an account: a discrete,
// spendable quantity of a fungible asset. Coins are never mutated by any of
// the functions of this package, balances included.
type Coin struct {
	ID      string
	Type    string
	Balance *big.Int
}

// AssetType parses and returns the asset type of the coin.
func (c Coin) AssetType() (AssetType, error) {
	return ParseAssetType(c.Type)
}

// IsOfType returns whether the coin is fungible with the given asset type.
// Coins with malformed type are never of any type.
func (c Coin) IsOfType(t AssetType) bool {
	ct, err := c.AssetType()
	if err != nil {
		return false
	}
	return ct.Equal(t)
}

// Validate checks the coin is well formed.
func (c Coin) Validate() error {
	if c.ID == "" {
		return ErrMissingCoinID
	}
	if _, err := c.AssetType(); err != nil {
		return err
	}
	if c.Balance == nil {
		return ErrMissingBalance
	}
	if c.Balance.Sign() < 0 {
		return ErrNegativeBalance
	}
	return nil
}

func (c Coin) String() string {
	return fmt.Sprintf("{%s: %s %s}", c.ID, balanceOf(c), c.Type)
}

// balanceOf returns the balance of the coin, treating a missing one as zero.
func balanceOf(c Coin) *big.Int {
	if c.Balance == nil {
		return new(big.Int)
	}
	return c.Balance
}

// Coins is a list of coins.
type Coins []Coin

// IDs returns the ids of the coins, in order.
func (c Coins) IDs() []string {
	ids := make([]string, 0, len(c))
	for _, cc := range c {
		ids = append(ids, cc.ID)
	}
	return ids
}

// OfType returns the coins of the given asset type, preserving their order.
func (c Coins) OfType(t AssetType) Coins {
	list := make(Coins, 0, len(c))
	for _, cc := range c {
		if cc.IsOfType(t) {
			list = append(list, cc)
		}
	}
	return list
}

// Validate checks every coin is well formed and that there are no duplicates.
func (c Coins) Validate() error {
	ids := make(map[string]struct{}, len(c))
	for _, cc := range c {
		if err := cc.Validate(); err != nil {
			return fmt.Errorf("coin %s: %w", cc.ID, err)
		}
		if _, ok := ids[cc.ID]; ok {
			return fmt.Errorf("coin %s: %w", cc.ID, ErrDuplicatedCoin)
		}
		ids[cc.ID] = struct{}{}
	}
	return nil
}

// Object is the closed set of representations of a ledger object: either a
// full one, with its content, or a summary, as returned by owner listings.
type Object interface {
	objectID() string
	objectType() string
}

// ObjectSummary is the light view of an object.
type ObjectSummary struct {
	ObjectID string `json:"objectId"`
	Type     string `json:"type"`
	Version  string `json:"version"`
	Digest   string `json:"digest"`
}

func (o ObjectSummary) objectID() string   { return o.ObjectID }
func (o ObjectSummary) objectType() string { return o.Type }

// ObjectFull is the object with its move content. For coins, the id is found
// under fields.id.id and the balance under fields.balance.
type ObjectFull struct {
	Type   string                 `json:"type"`
	Fields map[string]interface{} `json:"fields"`
}

func (o ObjectFull) objectID() string {
	id, ok := o.Fields["id"].(map[string]interface{})
	if !ok {
		return ""
	}
	str, _ := id["id"].(string)
	return str
}

func (o ObjectFull) objectType() string { return o.Type }

func (o ObjectFull) balance() (*big.Int, bool) {
	switch v := o.Fields["balance"].(type) {
	case string:
		return new(big.Int).SetString(v, 10)
	case json.Number:
		return new(big.Int).SetString(v.String(), 10)
	case float64:
		if v < 0 || v != float64(uint64(v)) {
			return nil, false
		}
		return new(big.Int).SetUint64(uint64(v)), true
	default:
		return nil, false
	}
}

// ObjectID returns the id of the given object.
func ObjectID(obj Object) string {
	return obj.objectID()
}

// ObjectAssetType returns the asset type of the given coin object, ie. the T
// of 0x2::coin::Coin<T>.
func ObjectAssetType(obj Object) (AssetType, error) {
	arg := CoinTypeArg(obj.objectType())
	if arg == "" {
		return AssetType{}, ErrNotACoin
	}
	return ParseAssetType(arg)
}

// IsCoinObject returns whether the given object is a coin.
func IsCoinObject(obj Object) bool {
	return IsCoinType(obj.objectType())
}

// FromObject converts a full coin object into a Coin. Object summaries don't
// carry the balance, therefore they can't be converted.
func FromObject(obj Object) (Coin, error) {
	assetType, err := ObjectAssetType(obj)
	if err != nil {
		return Coin{}, err
	}
	id := ObjectID(obj)
	if id == "" {
		return Coin{}, ErrMissingCoinID
	}

	var full ObjectFull
	switch o := obj.(type) {
	case ObjectFull:
		full = o
	case *ObjectFull:
		full = *o
	default:
		return Coin{}, ErrMissingBalance
	}
	balance, ok := full.balance()
	if !ok {
		return Coin{}, ErrMalformedObject
	}
	if balance.Sign() < 0 {
		return Coin{}, ErrNegativeBalance
	}

	return Coin{ID: id, Type: assetType.String(), Balance: balance}, nil
}
