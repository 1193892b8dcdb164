package grpc_handler

import (
	"context"
	"math/big"

	pb "github.com/vulpemventures/coinpay/api-spec/go/coinpay/v1"
	"github.com/vulpemventures/coinpay/internal/core/application"
	"github.com/vulpemventures/coinpay/internal/core/domain"
)

type paymentHandler struct {
	appSvc *application.PaymentService
}

func NewPaymentHandler(
	appSvc *application.PaymentService,
) pb.PaymentServiceServer {
	return &paymentHandler{appSvc}
}

func (p *paymentHandler) BuildPayment(
	ctx context.Context, req *pb.BuildPaymentRequest,
) (*pb.BuildPaymentResponse, error) {
	owner, err := parseOwner(req.GetOwner())
	if err != nil {
		return nil, invalidArgument(err)
	}
	amount, err := parseInteger("amount", req.GetAmount())
	if err != nil {
		return nil, invalidArgument(err)
	}
	gasBudget, err := parseUint64("gas_budget", req.GetGasBudget())
	if err != nil {
		return nil, invalidArgument(err)
	}

	info, err := p.appSvc.BuildPayment(ctx, owner, application.Payment{
		AssetType: req.GetAssetType(),
		Amount:    amount,
		Recipient: req.GetRecipient(),
		GasBudget: gasBudget,
	})
	if err != nil {
		return nil, toStatusErr(err)
	}

	plan := info.Plan
	return &pb.BuildPaymentResponse{
		Kind:           string(plan.Kind),
		InputCoins:     plan.InputCoins,
		GasCoin:        plan.GasCoin,
		Recipients:     plan.Recipients,
		Amounts:        integerList(plan.Amounts),
		GasBudget:      pb.NewInteger(new(big.Int).SetUint64(plan.GasBudget)),
		Digest:         info.Digest,
		ExpirationDate: info.ExpirationDate,
	}, nil
}

func (p *paymentHandler) SelectCoins(
	ctx context.Context, req *pb.SelectCoinsRequest,
) (*pb.SelectCoinsResponse, error) {
	owner, err := parseOwner(req.GetOwner())
	if err != nil {
		return nil, invalidArgument(err)
	}
	targetAmount, err := parseInteger("target_amount", req.GetTargetAmount())
	if err != nil {
		return nil, invalidArgument(err)
	}
	strategy, err := parseCoinSelectionStrategy(req.GetStrategy())
	if err != nil {
		return nil, invalidArgument(err)
	}

	coins, change, expirationDate, err := p.appSvc.SelectCoins(
		ctx, owner, req.GetAssetType(), targetAmount, strategy,
	)
	if err != nil {
		return nil, toStatusErr(err)
	}

	return &pb.SelectCoinsResponse{
		Coins:          parseCoins(coins),
		Change:         pb.NewInteger(change),
		ExpirationDate: expirationDate,
	}, nil
}

func (p *paymentHandler) UnlockCoins(
	ctx context.Context, req *pb.UnlockCoinsRequest,
) (*pb.UnlockCoinsResponse, error) {
	ids, err := parseCoinIDs(req.GetCoinIds())
	if err != nil {
		return nil, invalidArgument(err)
	}

	count, err := p.appSvc.UnlockCoins(ctx, ids)
	if err != nil {
		return nil, toStatusErr(err)
	}

	return &pb.UnlockCoinsResponse{Count: count}, nil
}

func (p *paymentHandler) MarkSpent(
	ctx context.Context, req *pb.MarkSpentRequest,
) (*pb.MarkSpentResponse, error) {
	ids, err := parseCoinIDs(req.GetCoinIds())
	if err != nil {
		return nil, invalidArgument(err)
	}
	txDigest := req.GetTxDigest()
	if txDigest == "" {
		return nil, invalidArgument(domain.ErrMissingTxDigest)
	}

	count, err := p.appSvc.MarkSpent(ctx, ids, txDigest)
	if err != nil {
		return nil, toStatusErr(err)
	}

	return &pb.MarkSpentResponse{Count: count}, nil
}
