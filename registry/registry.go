// Package registry announces XML-RPC servers and discovers them.
//
// Servers register under the key /xmlrpc/{service}/{addr} with a TTL lease
// which is kept alive while the server runs, so crashed servers expire on
// their own. Clients discover the current instances and pick one with a
// Picker.
package registry

import (
	"context"
	"errors"
	"sync/atomic"
	"time"
)

// ErrNoInstances is returned when there is nothing to pick from.
var ErrNoInstances = errors.New("no instances available")

// Instance is a registered server.
type Instance struct {
	// Addr is the endpoint URL of the server.
	Addr    string `json:"addr"`
	Version string `json:"version"`
}

// Registry is a service directory.
type Registry interface {
	Register(ctx context.Context, service string, instance Instance, ttl time.Duration) error
	Deregister(ctx context.Context, service string, addr string) error
	Discover(ctx context.Context, service string) ([]Instance, error)
}

// Picker selects an instance for the next call. It must be goroutine-safe.
type Picker interface {
	Pick(instances []Instance) (*Instance, error)
}

// RoundRobin picks instances in order.
type RoundRobin struct {
	counter uint64
}

func (b *RoundRobin) Pick(instances []Instance) (*Instance, error) {
	if len(instances) == 0 {
		return nil, ErrNoInstances
	}
	index := (atomic.AddUint64(&b.counter, 1) - 1) % uint64(len(instances))
	return &instances[index], nil
}

// Resolve discovers the instances of a service and picks one.
func Resolve(ctx context.Context, r Registry, p Picker, service string) (*Instance, error) {
	instances, err := r.Discover(ctx, service)
	if err != nil {
		return nil, err
	}
	return p.Pick(instances)
}
