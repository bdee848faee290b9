package registry

import (
	"context"
	"encoding/json"
	"time"

	clientv3 "go.etcd.io/etcd/client/v3"
)

const keyPrefix = "/xmlrpc/"

func serviceKey(service string) string {
	return keyPrefix + service + "/"
}

var _ Registry = &EtcdRegistry{}

// EtcdRegistry implements Registry with etcd v3.
type EtcdRegistry struct {
	client *clientv3.Client
}

// NewEtcdRegistry connects to the given etcd endpoints. Connections are made
// lazily, so an unreachable etcd fails on first use.
func NewEtcdRegistry(endpoints []string) (*EtcdRegistry, error) {
	c, err := clientv3.New(clientv3.Config{
		Endpoints:   endpoints,
		DialTimeout: 5 * time.Second,
	})
	if err != nil {
		return nil, err
	}
	return &EtcdRegistry{client: c}, nil
}

// Register stores the instance under a lease which is kept alive until ctx is
// done.
func (r *EtcdRegistry) Register(ctx context.Context, service string, instance Instance, ttl time.Duration) error {
	seconds := int64(ttl / time.Second)
	if seconds < 1 {
		seconds = 1
	}
	lease, err := r.client.Grant(ctx, seconds)
	if err != nil {
		return err
	}

	val, err := json.Marshal(instance)
	if err != nil {
		return err
	}
	key := serviceKey(service) + instance.Addr
	if _, err := r.client.Put(ctx, key, string(val), clientv3.WithLease(lease.ID)); err != nil {
		return err
	}

	ch, err := r.client.KeepAlive(ctx, lease.ID)
	if err != nil {
		return err
	}
	logger.Printf("registered %s with lease %x", key, lease.ID)

	go func() {
		for range ch {
		}
		logger.Printf("keepalive stopped for %s", key)
	}()
	return nil
}

// Deregister removes an instance ahead of its lease expiring.
func (r *EtcdRegistry) Deregister(ctx context.Context, service string, addr string) error {
	_, err := r.client.Delete(ctx, serviceKey(service)+addr)
	return err
}

// Discover returns the registered instances of a service. Malformed entries
// are skipped.
func (r *EtcdRegistry) Discover(ctx context.Context, service string) ([]Instance, error) {
	resp, err := r.client.Get(ctx, serviceKey(service), clientv3.WithPrefix())
	if err != nil {
		return nil, err
	}

	instances := make([]Instance, 0, len(resp.Kvs))
	for _, kv := range resp.Kvs {
		var instance Instance
		if err := json.Unmarshal(kv.Value, &instance); err != nil {
			logger.Printf("skipping malformed instance %s: %s", kv.Key, err)
			continue
		}
		instances = append(instances, instance)
	}
	return instances, nil
}

// Close closes the etcd client.
func (r *EtcdRegistry) Close() error {
	return r.client.Close()
}
