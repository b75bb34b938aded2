// Package loadbalance picks one plugin host out of the instances a registry
// returns.
//
//   - RoundRobin:     equal-capacity hosts
//   - WeightedRandom: hosts with different capacity
package loadbalance

import (
	"fmt"
	"twitter-bridge/registry"
)

// Balancer selects a target instance before each dispatch.
type Balancer interface {
	// Pick selects one instance. Must be goroutine-safe.
	Pick(instances []registry.ServiceInstance) (*registry.ServiceInstance, error)

	// Name returns the strategy name for logs.
	Name() string
}

// New returns the balancer named by a config value.
func New(name string) (Balancer, error) {
	switch name {
	case "", "roundrobin":
		return &RoundRobinBalancer{}, nil
	case "weighted":
		return &WeightedRandomBalancer{}, nil
	}
	return nil, fmt.Errorf("unknown balancer %q", name)
}
