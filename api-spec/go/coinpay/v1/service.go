// Package coinpayv1 declares the gRPC services described in
// api-spec/protobuf/coinpay/v1/service.proto. Messages travel as
// google.protobuf.Struct and are converted from and to the typed requests
// and responses of this package, so that no generated code is needed.
package coinpayv1

import (
	"context"
	"fmt"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

const (
	CoinServiceName         = "coinpay.v1.CoinService"
	PaymentServiceName      = "coinpay.v1.PaymentService"
	NotificationServiceName = "coinpay.v1.NotificationService"

	protoFile = "coinpay/v1/service.proto"
)

type CoinServiceServer interface {
	SyncCoins(context.Context, *SyncCoinsRequest) (*SyncCoinsResponse, error)
	ListCoins(context.Context, *ListCoinsRequest) (*ListCoinsResponse, error)
	GetBalance(context.Context, *GetBalanceRequest) (*GetBalanceResponse, error)
	GetCoinMetadata(
		context.Context, *GetCoinMetadataRequest,
	) (*GetCoinMetadataResponse, error)
}

type PaymentServiceServer interface {
	BuildPayment(
		context.Context, *BuildPaymentRequest,
	) (*BuildPaymentResponse, error)
	SelectCoins(context.Context, *SelectCoinsRequest) (*SelectCoinsResponse, error)
	UnlockCoins(context.Context, *UnlockCoinsRequest) (*UnlockCoinsResponse, error)
	MarkSpent(context.Context, *MarkSpentRequest) (*MarkSpentResponse, error)
}

type NotificationServiceServer interface {
	CoinNotifications(
		*CoinNotificationsRequest, NotificationService_CoinNotificationsServer,
	) error
}

type NotificationService_CoinNotificationsServer interface {
	Send(*CoinNotificationsResponse) error
	grpc.ServerStream
}

var CoinService_ServiceDesc = grpc.ServiceDesc{
	ServiceName: CoinServiceName,
	HandlerType: (*CoinServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		unaryMethod(CoinServiceName, "SyncCoins", CoinServiceServer.SyncCoins),
		unaryMethod(CoinServiceName, "ListCoins", CoinServiceServer.ListCoins),
		unaryMethod(CoinServiceName, "GetBalance", CoinServiceServer.GetBalance),
		unaryMethod(
			CoinServiceName, "GetCoinMetadata", CoinServiceServer.GetCoinMetadata,
		),
	},
	Metadata: protoFile,
}

var PaymentService_ServiceDesc = grpc.ServiceDesc{
	ServiceName: PaymentServiceName,
	HandlerType: (*PaymentServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		unaryMethod(
			PaymentServiceName, "BuildPayment", PaymentServiceServer.BuildPayment,
		),
		unaryMethod(
			PaymentServiceName, "SelectCoins", PaymentServiceServer.SelectCoins,
		),
		unaryMethod(
			PaymentServiceName, "UnlockCoins", PaymentServiceServer.UnlockCoins,
		),
		unaryMethod(PaymentServiceName, "MarkSpent", PaymentServiceServer.MarkSpent),
	},
	Metadata: protoFile,
}

var NotificationService_ServiceDesc = grpc.ServiceDesc{
	ServiceName: NotificationServiceName,
	HandlerType: (*NotificationServiceServer)(nil),
	Streams: []grpc.StreamDesc{
		{
			StreamName:    "CoinNotifications",
			Handler:       coinNotificationsHandler,
			ServerStreams: true,
		},
	},
	Metadata: protoFile,
}

func RegisterCoinServiceServer(s grpc.ServiceRegistrar, srv CoinServiceServer) {
	s.RegisterService(&CoinService_ServiceDesc, srv)
}

func RegisterPaymentServiceServer(
	s grpc.ServiceRegistrar, srv PaymentServiceServer,
) {
	s.RegisterService(&PaymentService_ServiceDesc, srv)
}

func RegisterNotificationServiceServer(
	s grpc.ServiceRegistrar, srv NotificationServiceServer,
) {
	s.RegisterService(&NotificationService_ServiceDesc, srv)
}

func unaryMethod[S any, Req any, Resp any](
	service, method string,
	call func(S, context.Context, *Req) (*Resp, error),
) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: method,
		Handler: func(
			srv interface{}, ctx context.Context, dec func(interface{}) error,
			interceptor grpc.UnaryServerInterceptor,
		) (interface{}, error) {
			in := new(structpb.Struct)
			if err := dec(in); err != nil {
				return nil, err
			}
			req := new(Req)
			if err := fromStruct(in, req); err != nil {
				return nil, status.Errorf(
					codes.InvalidArgument, "malformed request: %s", err,
				)
			}
			handler := func(ctx context.Context, req interface{}) (interface{}, error) {
				resp, err := call(srv.(S), ctx, req.(*Req))
				if err != nil {
					return nil, err
				}
				out, err := toStruct(resp)
				if err != nil {
					return nil, status.Error(codes.Internal, err.Error())
				}
				return out, nil
			}
			if interceptor == nil {
				return handler(ctx, req)
			}
			info := &grpc.UnaryServerInfo{
				Server:     srv,
				FullMethod: FullMethod(service, method),
			}
			return interceptor(ctx, req, info, handler)
		},
	}
}

func coinNotificationsHandler(srv interface{}, stream grpc.ServerStream) error {
	in := new(structpb.Struct)
	if err := stream.RecvMsg(in); err != nil {
		return err
	}
	req := new(CoinNotificationsRequest)
	if err := fromStruct(in, req); err != nil {
		return status.Errorf(codes.InvalidArgument, "malformed request: %s", err)
	}
	return srv.(NotificationServiceServer).CoinNotifications(
		req, &coinNotificationsServer{stream},
	)
}

type coinNotificationsServer struct {
	grpc.ServerStream
}

func (x *coinNotificationsServer) Send(m *CoinNotificationsResponse) error {
	msg, err := toStruct(m)
	if err != nil {
		return err
	}
	return x.ServerStream.SendMsg(msg)
}

// FullMethod returns the gRPC path of the given method.
func FullMethod(service, method string) string {
	return fmt.Sprintf("/%s/%s", service, method)
}
