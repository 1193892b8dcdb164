package grpc_handler

import (
	"errors"
	"fmt"
	"math/big"
	"strconv"

	pb "github.com/vulpemventures/coinpay/api-spec/go/coinpay/v1"
	"github.com/vulpemventures/coinpay/internal/core/application"
	"github.com/vulpemventures/coinpay/internal/core/domain"
	greedy_selector "github.com/vulpemventures/coinpay/internal/infrastructure/coin-selector/greedy"
	ss_selector "github.com/vulpemventures/coinpay/internal/infrastructure/coin-selector/smallest-subset"
	"github.com/vulpemventures/coinpay/pkg/coin"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

var invalidArgumentErrors = []error{
	application.ErrInvalidOwner,
	application.ErrInvalidRecipient,
	application.ErrZeroAmount,
	coin.ErrMissingAssetType,
	coin.ErrInvalidAssetType,
	coin.ErrInvalidNamespace,
	coin.ErrMissingAmount,
	coin.ErrNegativeAmount,
	coin.ErrMissingRecipient,
	domain.ErrMissingTxDigest,
}

// toStatusErr maps the errors returned by the application services to gRPC
// status errors. Insufficient funds errors are reported as failed
// preconditions, with the amounts attached as details.
func toStatusErr(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := status.FromError(err); ok {
		return err
	}

	var gasErr *coin.InsufficientGasFundsError
	if errors.As(err, &gasErr) {
		return withDetails(codes.FailedPrecondition, err, map[string]interface{}{
			"reason":    "insufficient_gas_funds",
			"requested": strconv.FormatUint(gasErr.Requested, 10),
		})
	}
	var transferErr *coin.InsufficientTransferFundsError
	if errors.As(err, &transferErr) {
		return withDetails(codes.FailedPrecondition, err, map[string]interface{}{
			"reason":    "insufficient_transfer_funds",
			"amount":    bigString(transferErr.Amount),
			"available": bigString(transferErr.Available),
			"suggested": bigString(transferErr.Suggested),
		})
	}
	if errors.Is(err, greedy_selector.ErrTargetAmountNotReached) ||
		errors.Is(err, ss_selector.ErrTargetAmountNotReached) {
		return status.Error(codes.FailedPrecondition, err.Error())
	}
	if errors.Is(err, application.ErrCoinsNotLocked) {
		return status.Error(codes.Aborted, err.Error())
	}
	for _, e := range invalidArgumentErrors {
		if errors.Is(err, e) {
			return status.Error(codes.InvalidArgument, err.Error())
		}
	}
	return status.Error(codes.Internal, err.Error())
}

func withDetails(
	code codes.Code, err error, details map[string]interface{},
) error {
	st := status.New(code, err.Error())
	detailsStruct, _ := structpb.NewStruct(details)
	if stWithDetails, err := st.WithDetails(detailsStruct); err == nil {
		st = stWithDetails
	}
	return st.Err()
}

func invalidArgument(err error) error {
	return status.Error(codes.InvalidArgument, err.Error())
}

// parseInteger returns nil for a missing value.
func parseInteger(name string, value pb.Integer) (*big.Int, error) {
	n, err := value.BigInt()
	if err != nil {
		return nil, fmt.Errorf("invalid %s: must be an integer", name)
	}
	return n, nil
}

func parseUint64(name string, value pb.Integer) (uint64, error) {
	n, err := parseInteger(name, value)
	if err != nil {
		return 0, err
	}
	if n == nil {
		return 0, nil
	}
	if n.Sign() < 0 || !n.IsUint64() {
		return 0, fmt.Errorf("invalid %s: out of range", name)
	}
	return n.Uint64(), nil
}

func parseOwner(owner string) (string, error) {
	if owner == "" {
		return "", fmt.Errorf("missing owner")
	}
	return owner, nil
}

func parseCoinIDs(list []string) ([]string, error) {
	ids := make([]string, 0, len(list))
	for _, id := range list {
		if id != "" {
			ids = append(ids, id)
		}
	}
	if len(ids) == 0 {
		return nil, fmt.Errorf("missing coin ids")
	}
	return ids, nil
}

func parseCoinSelectionStrategy(str string) (int, error) {
	switch str {
	case "", "greedy":
		return application.CoinSelectionStrategyGreedy, nil
	case "smallest-subset":
		return application.CoinSelectionStrategySmallestSubset, nil
	default:
		return -1, fmt.Errorf(
			"unknown coin selection strategy %q, must be one of greedy | smallest-subset",
			str,
		)
	}
}

func bigString(n *big.Int) string {
	if n == nil {
		return "0"
	}
	return n.String()
}

func integerList(list []*big.Int) []pb.Integer {
	values := make([]pb.Integer, 0, len(list))
	for _, n := range list {
		values = append(values, pb.NewInteger(n))
	}
	return values
}

func parseCoins(coins application.Coins) []*pb.Coin {
	list := make([]*pb.Coin, 0, len(coins))
	for _, c := range coins {
		info := &pb.Coin{
			CoinId:    c.ID,
			AssetType: c.Type,
			Balance:   pb.NewInteger(c.Balance),
			Owner:     c.Owner,
			Version:   c.Version,
			Digest:    c.Digest,
		}
		if c.IsLocked() {
			info.LockTimestamp = c.LockTimestamp
			info.LockExpiryTimestamp = c.LockExpiryTimestamp
		}
		if c.IsSpent() {
			info.SpentBy = c.SpentStatus.TxDigest
		}
		list = append(list, info)
	}
	return list
}

func parseCoinsInfo(coins []domain.CoinInfo) []*pb.Coin {
	list := make([]*pb.Coin, 0, len(coins))
	for _, c := range coins {
		list = append(list, &pb.Coin{
			CoinId:    c.ID,
			AssetType: c.Type,
			Balance:   pb.NewInteger(c.Balance),
			Owner:     c.Owner,
			Version:   c.Version,
			Digest:    c.Digest,
			SpentBy:   c.SpentStatus.TxDigest,
		})
	}
	return list
}

func parseCoinEventType(eventType domain.CoinEventType) string {
	switch eventType {
	case domain.CoinAdded:
		return "COIN_EVENT_TYPE_NEW"
	case domain.CoinLocked:
		return "COIN_EVENT_TYPE_LOCKED"
	case domain.CoinUnlocked:
		return "COIN_EVENT_TYPE_UNLOCKED"
	case domain.CoinSpent:
		return "COIN_EVENT_TYPE_SPENT"
	case domain.CoinUpdated:
		return "COIN_EVENT_TYPE_UPDATED"
	default:
		return "COIN_EVENT_TYPE_UNSPECIFIED"
	}
}
