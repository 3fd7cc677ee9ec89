package alert

import (
	"context"
	"sync"
	"time"
)

type Permission string

const (
	PermissionDefault Permission = "default"
	PermissionGranted Permission = "granted"
	PermissionDenied  Permission = "denied"
)

// PermissionProvider reports whether notifications may be raised. It is read
// on every completion; implementations must not block.
type PermissionProvider interface {
	Permission() Permission
}

type StaticPermission Permission

func (p StaticPermission) Permission() Permission { return Permission(p) }

// PollingPermission caches the result of probe and refreshes it only when Poll
// is called, either directly or from Run.
type PollingPermission struct {
	probe func(ctx context.Context) (Permission, error)

	mu     sync.RWMutex
	cached Permission
}

func NewPollingPermission(probe func(ctx context.Context) (Permission, error)) *PollingPermission {
	return &PollingPermission{probe: probe, cached: PermissionDefault}
}

func (p *PollingPermission) Permission() Permission {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.cached
}

// Poll refreshes the cached value. On error the previous value is kept.
func (p *PollingPermission) Poll(ctx context.Context) error {
	perm, err := p.probe(ctx)
	if err != nil {
		return err
	}
	p.mu.Lock()
	p.cached = perm
	p.mu.Unlock()
	return nil
}

func (p *PollingPermission) Run(ctx context.Context, interval time.Duration) {
	_ = p.Poll(ctx)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			_ = p.Poll(ctx)
		}
	}
}
