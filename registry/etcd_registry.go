// Package registry locates plugin hosts.
//
// The etcd implementation keeps one key per host:
//
//	Key:   /twitter-bridge/{Plugin}/{Addr}
//	Value: JSON-encoded ServiceInstance
//
// Keys are attached to a TTL lease kept alive by the host, so a crashed host
// disappears once its lease expires.
package registry

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	clientv3 "go.etcd.io/etcd/client/v3"
)

// KeyPrefix is the root of all plugin host keys.
const KeyPrefix = "/twitter-bridge/"

// EtcdRegistry implements Registry on etcd v3.
type EtcdRegistry struct {
	client *clientv3.Client
}

// NewEtcdRegistry connects to the given etcd endpoints.
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

func pluginPrefix(plugin string) string {
	return KeyPrefix + plugin + "/"
}

// Register stores instance under a lease of ttl seconds and keeps the lease
// alive in the background.
//
// The lease id stays local so several hosts can share one EtcdRegistry.
func (r *EtcdRegistry) Register(plugin string, instance ServiceInstance, ttl int64) error {
	ctx := context.TODO()

	lease, err := r.client.Grant(ctx, ttl)
	if err != nil {
		return err
	}

	val, err := json.Marshal(instance)
	if err != nil {
		return err
	}

	_, err = r.client.Put(ctx, pluginPrefix(plugin)+instance.Addr, string(val), clientv3.WithLease(lease.ID))
	if err != nil {
		return err
	}

	ch, err := r.client.KeepAlive(ctx, lease.ID)
	if err != nil {
		return err
	}

	// Drain keepalive responses so the channel never fills.
	go func() {
		for range ch {
		}
		slog.Debug("registry lease keepalive stopped", "plugin", plugin, "addr", instance.Addr)
	}()
	return nil
}

// Deregister removes a host. Plugin hosts call it before closing their listener.
func (r *EtcdRegistry) Deregister(plugin string, addr string) error {
	_, err := r.client.Delete(context.TODO(), pluginPrefix(plugin)+addr)
	return err
}

// Watch emits the full instance list every time the plugin's prefix changes.
// Once the last host is gone it emits an empty list.
func (r *EtcdRegistry) Watch(plugin string) <-chan []ServiceInstance {
	ch := make(chan []ServiceInstance, 1)

	go func() {
		defer close(ch)
		watchChan := r.client.Watch(context.TODO(), pluginPrefix(plugin), clientv3.WithPrefix())
		for range watchChan {
			// Re-read the prefix rather than applying individual events.
			instances, err := r.Discover(plugin)
			if errors.Is(err, ErrNoInstances) {
				instances, err = []ServiceInstance{}, nil
			}
			if err != nil {
				slog.Warn("registry watch refresh failed", "plugin", plugin, "error", err)
				continue
			}
			ch <- instances
		}
	}()

	return ch
}

// Discover returns every registered host for plugin.
func (r *EtcdRegistry) Discover(plugin string) ([]ServiceInstance, error) {
	resp, err := r.client.Get(context.TODO(), pluginPrefix(plugin), clientv3.WithPrefix())
	if err != nil {
		return nil, err
	}

	instances := make([]ServiceInstance, 0, len(resp.Kvs))
	for _, kv := range resp.Kvs {
		var instance ServiceInstance
		if err := json.Unmarshal(kv.Value, &instance); err != nil {
			continue // skip malformed entries
		}
		instances = append(instances, instance)
	}
	if len(instances) == 0 {
		return nil, ErrNoInstances
	}

	return instances, nil
}

// Close releases the etcd connection.
func (r *EtcdRegistry) Close() error {
	return r.client.Close()
}
