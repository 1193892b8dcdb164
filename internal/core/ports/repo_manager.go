package ports

import (
	"github.com/vulpemventures/coinpay/internal/core/domain"
)

type CoinEventHandler func(event domain.CoinEvent)

// RepoManager is the abstraction for any kind of service intended to manage
// domain repositories implementations of the same concrete type.
type RepoManager interface {
	// CoinRepository returns the coin repository.
	CoinRepository() domain.CoinRepository

	// RegisterHandlerForCoinEvent registers an handler function, executed
	// whenever the given event type occurs.
	RegisterHandlerForCoinEvent(
		eventType domain.CoinEventType, handler CoinEventHandler,
	)

	// Reset brings all the repos to their initial state by deleting any persisted data.
	Reset()

	// Close closes the connection with all concrete repositories
	// implementations.
	Close()
}
