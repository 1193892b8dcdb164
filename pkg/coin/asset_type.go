package coin

import (
	"encoding/hex"
	"fmt"
	"regexp"
	"strings"
)

const (
	// FrameworkAddress is the address where the ledger framework modules,
	// included the native asset one, are published.
	FrameworkAddress = "0x2"
	// NativeAssetTypeArg is the canonical string form of the native asset.
	NativeAssetTypeArg = FrameworkAddress + "::sui::SUI"

	addressLen = 32
	separator  = "::"
)

var (
	coinTypeArgRegex = regexp.MustCompile(`^0x0*2::coin::Coin<(.+)>$`)

	// NativeAssetType is the parsed version of NativeAssetTypeArg.
	NativeAssetType = MustParseAssetType(NativeAssetTypeArg)
)

// AssetType is the structured identifier of a fungible asset, in the form
// <namespace>::<module>::<name>. Two coins are fungible with each other if and
// only if their asset types are equal.
type AssetType struct {
	Namespace string
	Module    string
	Name      string
}

// ParseAssetType parses the given canonical string form of an asset type.
// The namespace is normalized to its 0x-prefixed, 32-byte, lower case hex
// form so that short and long address notations compare equal. The name may
// carry type parameters, like in "0xa::lp::LP<0x2::sui::SUI>".
func ParseAssetType(str string) (AssetType, error) {
	str = strings.TrimSpace(str)
	if str == "" {
		return AssetType{}, ErrMissingAssetType
	}

	parts := strings.SplitN(str, separator, 3)
	if len(parts) != 3 {
		return AssetType{}, ErrInvalidAssetType
	}
	for _, p := range parts {
		if p == "" {
			return AssetType{}, ErrInvalidAssetType
		}
	}

	namespace, err := NormalizeAddress(parts[0])
	if err != nil {
		return AssetType{}, err
	}

	return AssetType{
		Namespace: namespace,
		Module:    parts[1],
		Name:      parts[2],
	}, nil
}

// MustParseAssetType is like ParseAssetType but panics on error.
// Use it only for constants.
func MustParseAssetType(str string) AssetType {
	t, err := ParseAssetType(str)
	if err != nil {
		panic(fmt.Sprintf("coin: invalid asset type %q: %s", str, err))
	}
	return t
}

func (t AssetType) String() string {
	return strings.Join([]string{t.Namespace, t.Module, t.Name}, separator)
}

// Equal returns whether the two asset types identify the same asset.
func (t AssetType) Equal(other AssetType) bool {
	return t == other
}

// IsZero returns whether the asset type is the empty one.
func (t AssetType) IsZero() bool {
	return t == AssetType{}
}

// IsNative returns whether t is the ledger's native asset.
func (t AssetType) IsNative() bool {
	return t == NativeAssetType
}

// Symbol returns the name of the asset type stripped of its type parameters,
// if any.
func (t AssetType) Symbol() string {
	symbol, _, _ := strings.Cut(t.Name, "<")
	return symbol
}

// NormalizeAddress returns the 0x-prefixed, zero-padded, lower case version of
// the given hex address.
func NormalizeAddress(addr string) (string, error) {
	addr = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(addr), "0x"))
	if addr == "" || len(addr) > addressLen*2 {
		return "", ErrInvalidNamespace
	}
	addr = strings.Repeat("0", addressLen*2-len(addr)) + addr
	if _, err := hex.DecodeString(addr); err != nil {
		return "", ErrInvalidNamespace
	}
	return "0x" + addr, nil
}

// IsCoinType returns whether the given object type is the one of a coin object,
// ie. 0x2::coin::Coin<T>.
func IsCoinType(objectType string) bool {
	return coinTypeArgRegex.MatchString(objectType)
}

// CoinTypeArg returns the type argument T of the given 0x2::coin::Coin<T>
// object type, or an empty string if the object is not a coin.
func CoinTypeArg(objectType string) string {
	matches := coinTypeArgRegex.FindStringSubmatch(objectType)
	if len(matches) < 2 {
		return ""
	}
	return matches[1]
}
