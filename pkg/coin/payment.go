package coin

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"math/big"

	"golang.org/x/crypto/blake2b"
)

// PlanKind tells whether the asset transferred is also the one paying for gas.
type PlanKind string

const (
	PlanKindNativeAssetIsGas PlanKind = "native-asset-is-gas"
	PlanKindSeparateGas      PlanKind = "separate-gas"
)

var defaultAssembler = &Assembler{NativeAssetType}

// PaymentRequest holds the info to transfer some amount of a fungible asset to
// a recipient given the coins owned by the sender. Coins can be of any type:
// only those of the transfer asset and of the native one are considered.
type PaymentRequest struct {
	Coins     []Coin
	AssetType AssetType
	Amount    *big.Int
	Recipient string
	GasBudget uint64
}

// Validate checks the request is well formed. BuildPayment does not call it,
// it's up to the caller to decide whether the coins need to be checked.
func (r PaymentRequest) Validate() error {
	if r.AssetType.IsZero() {
		return ErrMissingAssetType
	}
	if r.Amount == nil {
		return ErrMissingAmount
	}
	if r.Amount.Sign() < 0 {
		return ErrNegativeAmount
	}
	if r.Recipient == "" {
		return ErrMissingRecipient
	}
	return Coins(r.Coins).Validate()
}

// PaymentPlan is the unsigned description of the coins funding a transfer.
// When the transferred asset is the native one, the gas coin is also the
// first of the InputCoins, otherwise it's not part of them and it's only
// referenced by GasCoin.
type PaymentPlan struct {
	Kind       PlanKind
	InputCoins []string
	GasCoin    string
	Recipients []string
	Amounts    []*big.Int
	GasBudget  uint64
}

// IsNativeTransfer returns whether the gas coin doubles as a transfer input.
func (p *PaymentPlan) IsNativeTransfer() bool {
	return p.Kind == PlanKindNativeAssetIsGas
}

// CoinIDs returns the ids of all the coins consumed by the plan, gas coin
// first, each appearing once.
func (p *PaymentPlan) CoinIDs() []string {
	if p.IsNativeTransfer() {
		return append([]string{}, p.InputCoins...)
	}
	return append([]string{p.GasCoin}, p.InputCoins...)
}

// Digest returns the hex encoded blake2b-256 hash of the plan. Two plans have
// the same digest only if they spend the same coins in the same order to pay
// the same amounts to the same recipients.
func (p *PaymentPlan) Digest() (string, error) {
	buf, err := json.Marshal(p)
	if err != nil {
		return "", fmt.Errorf("failed to serialize plan: %w", err)
	}
	hash := blake2b.Sum256(buf)
	return hex.EncodeToString(hash[:]), nil
}

// Assembler builds payment plans for a ledger whose gas is paid with the
// configured native asset.
type Assembler struct {
	nativeType AssetType
}

// NewAssembler returns a new Assembler for the given native asset type.
func NewAssembler(nativeType AssetType) (*Assembler, error) {
	if nativeType.IsZero() {
		return nil, ErrMissingNativeType
	}
	return &Assembler{nativeType}, nil
}

// NativeAssetType returns the asset type used to pay for gas.
func (a *Assembler) NativeAssetType() AssetType {
	return a.nativeType
}

// BuildPayment selects the gas coin and the transfer coins for the given
// request. It returns an *InsufficientGasFundsError if no coin of the native
// asset can cover the gas budget on its own, or an
// *InsufficientTransferFundsError if the coins of the transfer asset, net of
// the gas coin, can't cover the amount. No partial plan is ever returned.
func (a *Assembler) BuildPayment(req PaymentRequest) (*PaymentPlan, error) {
	isNativeTransfer := req.AssetType.Equal(a.nativeType)

	transferCoins := Coins(req.Coins).OfType(req.AssetType)
	gasCoins := transferCoins
	if !isNativeTransfer {
		gasCoins = Coins(req.Coins).OfType(a.nativeType)
	}

	gasBudget := new(big.Int).SetUint64(req.GasBudget)
	gasCoin, ok := FindSmallestSufficient(gasCoins, gasBudget)
	if !ok {
		return nil, &InsufficientGasFundsError{req.GasBudget}
	}

	amount := new(big.Int).Set(amountOrZero(req.Amount))
	needed := new(big.Int).Set(amount)
	exclude := make([]string, 0, 1)
	if isNativeTransfer {
		// The gas coin is going to be the first input, therefore only the
		// amount it can't cover must be taken from the other coins.
		needed.Add(needed, gasBudget)
		needed.Sub(needed, balanceOf(gasCoin))
		exclude = append(exclude, gasCoin.ID)
	}

	inputs := make([]Coin, 0)
	if needed.Sign() > 0 {
		inputs = SelectMinimalCombinedSet(transferCoins, needed, exclude...)
		if len(inputs) == 0 {
			available := TotalBalance(transferCoins)
			suggested := new(big.Int).Set(available)
			if isNativeTransfer {
				suggested.Sub(suggested, gasBudget)
			}
			return nil, &InsufficientTransferFundsError{
				Amount:    amount,
				Available: available,
				Suggested: suggested,
			}
		}
	}

	kind := PlanKindSeparateGas
	inputIDs := Coins(inputs).IDs()
	if isNativeTransfer {
		kind = PlanKindNativeAssetIsGas
		inputIDs = append([]string{gasCoin.ID}, inputIDs...)
	}

	return &PaymentPlan{
		Kind:       kind,
		InputCoins: inputIDs,
		GasCoin:    gasCoin.ID,
		Recipients: []string{req.Recipient},
		Amounts:    []*big.Int{amount},
		GasBudget:  req.GasBudget,
	}, nil
}

// BuildPayment builds a payment plan for a ledger whose native asset is
// NativeAssetType. See Assembler.BuildPayment.
func BuildPayment(req PaymentRequest) (*PaymentPlan, error) {
	return defaultAssembler.BuildPayment(req)
}
