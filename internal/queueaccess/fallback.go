package queueaccess

import (
	"fmt"

	"stylus/internal/ipc"
	"stylus/internal/queue"
)

// Session pairs an Access with the cleanup for whichever backend it wraps,
// closing the IPC connection or the store handle as appropriate.
type Session struct {
	Access Access
	close  func() error
}

func (s Session) Close() error {
	if s.close == nil {
		return nil
	}
	return s.close()
}

// OpenWithFallback prefers talking to a running daemon over IPC and drops
// back to opening the queue database directly when no daemon answers. CLI
// commands use this so they work whether or not the daemon is up.
func OpenWithFallback(
	dial func() (*ipc.Client, error),
	openStore func() (*queue.Store, error),
) (Session, error) {
	if dial != nil {
		if client, err := dial(); err == nil {
			return Session{Access: NewIPCAccess(client), close: client.Close}, nil
		}
	}

	if openStore == nil {
		return Session{}, fmt.Errorf("open queue store: no store opener configured")
	}
	store, err := openStore()
	if err != nil {
		return Session{}, fmt.Errorf("open queue store: %w", err)
	}
	return Session{Access: NewStoreAccess(store), close: store.Close}, nil
}
