package application

import (
	"context"

	"github.com/vulpemventures/coinpay/internal/core/domain"
	"github.com/vulpemventures/coinpay/internal/core/ports"
)

// Notification service has the very simple task of making the event channel
// of the used domain.CoinRepository accessible by external clients so that
// they can get real-time updates on the status of the coins.
type NotificationService struct {
	repoManager ports.RepoManager
}

func NewNotificationService(
	repoManager ports.RepoManager,
) *NotificationService {
	return &NotificationService{repoManager}
}

func (ns *NotificationService) GetCoinChannel(
	ctx context.Context,
) (chan domain.CoinEvent, error) {
	return ns.repoManager.CoinRepository().GetEventChannel(), nil
}
