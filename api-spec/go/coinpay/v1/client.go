package coinpayv1

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

type CoinServiceClient interface {
	SyncCoins(
		ctx context.Context, in *SyncCoinsRequest, opts ...grpc.CallOption,
	) (*SyncCoinsResponse, error)
	ListCoins(
		ctx context.Context, in *ListCoinsRequest, opts ...grpc.CallOption,
	) (*ListCoinsResponse, error)
	GetBalance(
		ctx context.Context, in *GetBalanceRequest, opts ...grpc.CallOption,
	) (*GetBalanceResponse, error)
	GetCoinMetadata(
		ctx context.Context, in *GetCoinMetadataRequest, opts ...grpc.CallOption,
	) (*GetCoinMetadataResponse, error)
}

type PaymentServiceClient interface {
	BuildPayment(
		ctx context.Context, in *BuildPaymentRequest, opts ...grpc.CallOption,
	) (*BuildPaymentResponse, error)
	SelectCoins(
		ctx context.Context, in *SelectCoinsRequest, opts ...grpc.CallOption,
	) (*SelectCoinsResponse, error)
	UnlockCoins(
		ctx context.Context, in *UnlockCoinsRequest, opts ...grpc.CallOption,
	) (*UnlockCoinsResponse, error)
	MarkSpent(
		ctx context.Context, in *MarkSpentRequest, opts ...grpc.CallOption,
	) (*MarkSpentResponse, error)
}

type NotificationServiceClient interface {
	CoinNotifications(
		ctx context.Context, in *CoinNotificationsRequest, opts ...grpc.CallOption,
	) (NotificationService_CoinNotificationsClient, error)
}

type NotificationService_CoinNotificationsClient interface {
	Recv() (*CoinNotificationsResponse, error)
	grpc.ClientStream
}

type coinServiceClient struct {
	cc grpc.ClientConnInterface
}

func NewCoinServiceClient(cc grpc.ClientConnInterface) CoinServiceClient {
	return &coinServiceClient{cc}
}

func (c *coinServiceClient) SyncCoins(
	ctx context.Context, in *SyncCoinsRequest, opts ...grpc.CallOption,
) (*SyncCoinsResponse, error) {
	out := new(SyncCoinsResponse)
	if err := invoke(
		ctx, c.cc, CoinServiceName, "SyncCoins", in, out, opts...,
	); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *coinServiceClient) ListCoins(
	ctx context.Context, in *ListCoinsRequest, opts ...grpc.CallOption,
) (*ListCoinsResponse, error) {
	out := new(ListCoinsResponse)
	if err := invoke(
		ctx, c.cc, CoinServiceName, "ListCoins", in, out, opts...,
	); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *coinServiceClient) GetBalance(
	ctx context.Context, in *GetBalanceRequest, opts ...grpc.CallOption,
) (*GetBalanceResponse, error) {
	out := new(GetBalanceResponse)
	if err := invoke(
		ctx, c.cc, CoinServiceName, "GetBalance", in, out, opts...,
	); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *coinServiceClient) GetCoinMetadata(
	ctx context.Context, in *GetCoinMetadataRequest, opts ...grpc.CallOption,
) (*GetCoinMetadataResponse, error) {
	out := new(GetCoinMetadataResponse)
	if err := invoke(
		ctx, c.cc, CoinServiceName, "GetCoinMetadata", in, out, opts...,
	); err != nil {
		return nil, err
	}
	return out, nil
}

type paymentServiceClient struct {
	cc grpc.ClientConnInterface
}

func NewPaymentServiceClient(cc grpc.ClientConnInterface) PaymentServiceClient {
	return &paymentServiceClient{cc}
}

func (c *paymentServiceClient) BuildPayment(
	ctx context.Context, in *BuildPaymentRequest, opts ...grpc.CallOption,
) (*BuildPaymentResponse, error) {
	out := new(BuildPaymentResponse)
	if err := invoke(
		ctx, c.cc, PaymentServiceName, "BuildPayment", in, out, opts...,
	); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *paymentServiceClient) SelectCoins(
	ctx context.Context, in *SelectCoinsRequest, opts ...grpc.CallOption,
) (*SelectCoinsResponse, error) {
	out := new(SelectCoinsResponse)
	if err := invoke(
		ctx, c.cc, PaymentServiceName, "SelectCoins", in, out, opts...,
	); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *paymentServiceClient) UnlockCoins(
	ctx context.Context, in *UnlockCoinsRequest, opts ...grpc.CallOption,
) (*UnlockCoinsResponse, error) {
	out := new(UnlockCoinsResponse)
	if err := invoke(
		ctx, c.cc, PaymentServiceName, "UnlockCoins", in, out, opts...,
	); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *paymentServiceClient) MarkSpent(
	ctx context.Context, in *MarkSpentRequest, opts ...grpc.CallOption,
) (*MarkSpentResponse, error) {
	out := new(MarkSpentResponse)
	if err := invoke(
		ctx, c.cc, PaymentServiceName, "MarkSpent", in, out, opts...,
	); err != nil {
		return nil, err
	}
	return out, nil
}

type notificationServiceClient struct {
	cc grpc.ClientConnInterface
}

func NewNotificationServiceClient(
	cc grpc.ClientConnInterface,
) NotificationServiceClient {
	return &notificationServiceClient{cc}
}

func (c *notificationServiceClient) CoinNotifications(
	ctx context.Context, in *CoinNotificationsRequest, opts ...grpc.CallOption,
) (NotificationService_CoinNotificationsClient, error) {
	desc := &NotificationService_ServiceDesc.Streams[0]
	stream, err := c.cc.NewStream(
		ctx, desc, FullMethod(NotificationServiceName, desc.StreamName), opts...,
	)
	if err != nil {
		return nil, err
	}
	if in == nil {
		in = &CoinNotificationsRequest{}
	}
	msg, err := toStruct(in)
	if err != nil {
		return nil, err
	}
	if err := stream.SendMsg(msg); err != nil {
		return nil, err
	}
	if err := stream.CloseSend(); err != nil {
		return nil, err
	}
	return &coinNotificationsClient{stream}, nil
}

type coinNotificationsClient struct {
	grpc.ClientStream
}

func (x *coinNotificationsClient) Recv() (*CoinNotificationsResponse, error) {
	m := new(structpb.Struct)
	if err := x.ClientStream.RecvMsg(m); err != nil {
		return nil, err
	}
	out := new(CoinNotificationsResponse)
	if err := fromStruct(m, out); err != nil {
		return nil, err
	}
	return out, nil
}

func invoke(
	ctx context.Context, cc grpc.ClientConnInterface, service, method string,
	in, out interface{}, opts ...grpc.CallOption,
) error {
	req, err := toStruct(in)
	if err != nil {
		return err
	}
	reply := new(structpb.Struct)
	if err := cc.Invoke(
		ctx, FullMethod(service, method), req, reply, opts...,
	); err != nil {
		return err
	}
	return fromStruct(reply, out)
}
