package db_test

import (
	"crypto/rand"
	"encoding/hex"
	"math/big"

	"github.com/vulpemventures/coinpay/internal/core/domain"
	"github.com/vulpemventures/coinpay/pkg/coin"
)

var assetTypes = []string{
	coin.NativeAssetTypeArg,
	"0xabc::usdc::USDC",
}

func randomCoinsForOwner(
	owner string,
) ([]*domain.Coin, []string, map[string]*domain.Balance) {
	num := randomIntInRange(2, 6)
	coins := make([]*domain.Coin, 0, num)
	ids := make([]string, 0, num)
	balanceByType := make(map[string]*domain.Balance)
	for i := 0; i < num; i++ {
		assetType := coin.MustParseAssetType(
			assetTypes[randomIntInRange(0, len(assetTypes)-1)],
		).String()
		c := &domain.Coin{
			Coin: coin.Coin{
				ID:      randomID(),
				Type:    assetType,
				Balance: randomBalance(),
			},
			Owner:   owner,
			Version: "1",
			Digest:  randomHex(32),
		}
		coins = append(coins, c)
		ids = append(ids, c.ID)

		if _, ok := balanceByType[assetType]; !ok {
			balanceByType[assetType] = domain.NewBalance()
		}
		b := balanceByType[assetType]
		b.Spendable.Add(b.Spendable, c.Balance)
	}
	return coins, ids, balanceByType
}

func randomID() string {
	return "0x" + randomHex(32)
}

func randomOwner() string {
	return "0x" + randomHex(32)
}

func randomHex(len int) string {
	return hex.EncodeToString(randomBytes(len))
}

// randomBalance returns balances that don't fit 64 bits to make sure they are
// persisted with arbitrary precision.
func randomBalance() *big.Int {
	max := new(big.Int).Lsh(big.NewInt(1), 100)
	n, _ := rand.Int(rand.Reader, max)
	return n.Add(n, big.NewInt(1))
}

func randomBytes(len int) []byte {
	b := make([]byte, len)
	rand.Read(b)
	return b
}

func randomIntInRange(min, max int) int {
	n, _ := rand.Int(rand.Reader, big.NewInt(int64(max-min+1)))
	return min + int(n.Int64())
}
