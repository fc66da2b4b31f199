package services

import (
	"fmt"
	"sync/atomic"

	"github.com/sirupsen/logrus"

	"storefront/internal/database"
)

// Connectivity tracks whether the database refused writes on permission
// grounds. Once tripped it stays tripped until Reset.
type Connectivity struct {
	offline atomic.Bool
}

func NewConnectivity() *Connectivity {
	return &Connectivity{}
}

func (c *Connectivity) Offline() bool {
	return c.offline.Load()
}

// Observe inspects a repository error. Permission failures switch the store
// to offline mode and come back as ErrOffline.
func (c *Connectivity) Observe(err error) error {
	if err == nil || !database.IsPermissionDenied(err) {
		return err
	}
	if !c.offline.Swap(true) {
		logrus.WithError(err).Warn("database denied a write, switching to offline mode")
	}
	return fmt.Errorf("%w: %v", ErrOffline, err)
}

// Guard rejects writes while offline.
func (c *Connectivity) Guard() error {
	if c.Offline() {
		return ErrOffline
	}
	return nil
}

func (c *Connectivity) Reset() {
	c.offline.Store(false)
}
