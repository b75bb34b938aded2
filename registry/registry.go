package registry

import "errors"

// ErrNoInstances is returned when no plugin host is known for a plugin.
var ErrNoInstances = errors.New("registry: no instances available")

// ServiceInstance is one plugin host reachable at Addr.
type ServiceInstance struct {
	Addr    string
	Weight  int // Weight for load balancing
	Version string
}

// Registry maps plugin identifiers to the hosts serving them.
type Registry interface {
	Register(plugin string, instance ServiceInstance, ttl int64) error
	Deregister(plugin string, addr string) error
	Discover(plugin string) ([]ServiceInstance, error)
	Watch(plugin string) <-chan []ServiceInstance
}
