package grpc_handler

import (
	"context"

	pb "github.com/vulpemventures/coinpay/api-spec/go/coinpay/v1"
	"github.com/vulpemventures/coinpay/internal/core/application"
	"github.com/vulpemventures/coinpay/pkg/coin"
)

type coinHandler struct {
	appSvc *application.CoinService
}

func NewCoinHandler(appSvc *application.CoinService) pb.CoinServiceServer {
	return &coinHandler{appSvc}
}

func (c *coinHandler) SyncCoins(
	ctx context.Context, req *pb.SyncCoinsRequest,
) (*pb.SyncCoinsResponse, error) {
	owner, err := parseOwner(req.GetOwner())
	if err != nil {
		return nil, invalidArgument(err)
	}

	info, err := c.appSvc.SyncCoins(ctx, owner, req.GetRescan())
	if err != nil {
		return nil, toStatusErr(err)
	}

	return &pb.SyncCoinsResponse{
		Added:   info.Added,
		Updated: info.Updated,
		Spent:   info.Spent,
	}, nil
}

func (c *coinHandler) ListCoins(
	ctx context.Context, req *pb.ListCoinsRequest,
) (*pb.ListCoinsResponse, error) {
	owner, err := parseOwner(req.GetOwner())
	if err != nil {
		return nil, invalidArgument(err)
	}
	minBalance, err := parseInteger("min_balance", req.GetMinBalance())
	if err != nil {
		return nil, invalidArgument(err)
	}

	info, err := c.appSvc.ListCoins(ctx, owner, req.GetAssetType(), minBalance)
	if err != nil {
		return nil, toStatusErr(err)
	}

	return &pb.ListCoinsResponse{
		SpendableCoins: parseCoins(info.Spendable),
		LockedCoins:    parseCoins(info.Locked),
	}, nil
}

func (c *coinHandler) GetBalance(
	ctx context.Context, req *pb.GetBalanceRequest,
) (*pb.GetBalanceResponse, error) {
	owner, err := parseOwner(req.GetOwner())
	if err != nil {
		return nil, invalidArgument(err)
	}

	balance, err := c.appSvc.GetBalance(ctx, owner)
	if err != nil {
		return nil, toStatusErr(err)
	}

	balanceByAsset := make(map[string]*pb.Balance, len(balance))
	for assetType, b := range balance {
		balanceByAsset[assetType] = &pb.Balance{
			Spendable: pb.NewInteger(b.Spendable),
			Locked:    pb.NewInteger(b.Locked),
			Total:     pb.NewInteger(b.Total()),
		}
	}
	return &pb.GetBalanceResponse{Balance: balanceByAsset}, nil
}

func (c *coinHandler) GetCoinMetadata(
	ctx context.Context, req *pb.GetCoinMetadataRequest,
) (*pb.GetCoinMetadataResponse, error) {
	assetType := req.GetAssetType()
	if assetType == "" {
		return nil, invalidArgument(coin.ErrMissingAssetType)
	}

	metadata, err := c.appSvc.GetCoinMetadata(ctx, assetType)
	if err != nil {
		return nil, toStatusErr(err)
	}

	return &pb.GetCoinMetadataResponse{
		Id:          metadata.ID,
		Decimals:    int(metadata.Decimals),
		Name:        metadata.Name,
		Symbol:      metadata.Symbol,
		Description: metadata.Description,
		IconUrl:     metadata.IconURL,
	}, nil
}
