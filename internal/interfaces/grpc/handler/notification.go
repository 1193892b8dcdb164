package grpc_handler

import (
	"fmt"

	pb "github.com/vulpemventures/coinpay/api-spec/go/coinpay/v1"
	"github.com/vulpemventures/coinpay/internal/core/application"
)

var ErrStreamConnectionClosed = fmt.Errorf("connection closed on by server")

type notification struct {
	appSvc  *application.NotificationService
	chClose chan struct{}
}

func NewNotificationHandler(
	appSvc *application.NotificationService, chClose chan struct{},
) pb.NotificationServiceServer {
	return &notification{appSvc, chClose}
}

func (n notification) CoinNotifications(
	_ *pb.CoinNotificationsRequest,
	stream pb.NotificationService_CoinNotificationsServer,
) error {
	chCoinEvents, err := n.appSvc.GetCoinChannel(stream.Context())
	if err != nil {
		return err
	}

	for {
		select {
		case e, ok := <-chCoinEvents:
			if !ok {
				return ErrStreamConnectionClosed
			}
			if err := stream.Send(&pb.CoinNotificationsResponse{
				EventType: parseCoinEventType(e.EventType),
				Coins:     parseCoinsInfo(e.Coins),
			}); err != nil {
				return err
			}
		case <-stream.Context().Done():
			return nil
		case <-n.chClose:
			return ErrStreamConnectionClosed
		}
	}
}
