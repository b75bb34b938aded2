package registry

import "sync"

// StaticRegistry serves a fixed, in-process set of instances. It is used when
// a plugin host address is configured directly instead of through etcd.
// TTLs are ignored.
type StaticRegistry struct {
	mu        sync.RWMutex
	instances map[string][]ServiceInstance
	fallback  []ServiceInstance
}

// NewStaticRegistry returns a registry that answers every plugin with addrs
// unless a plugin has instances registered explicitly.
func NewStaticRegistry(addrs ...string) *StaticRegistry {
	r := &StaticRegistry{instances: make(map[string][]ServiceInstance)}
	for _, addr := range addrs {
		r.fallback = append(r.fallback, ServiceInstance{Addr: addr, Weight: 1})
	}
	return r
}

func (r *StaticRegistry) Register(plugin string, instance ServiceInstance, ttl int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, inst := range r.instances[plugin] {
		if inst.Addr == instance.Addr {
			return nil
		}
	}
	r.instances[plugin] = append(r.instances[plugin], instance)
	return nil
}

func (r *StaticRegistry) Deregister(plugin string, addr string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	insts := r.instances[plugin]
	for i, inst := range insts {
		if inst.Addr == addr {
			r.instances[plugin] = append(insts[:i:i], insts[i+1:]...)
			break
		}
	}
	return nil
}

func (r *StaticRegistry) Discover(plugin string) ([]ServiceInstance, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	insts := r.instances[plugin]
	if len(insts) == 0 {
		insts = r.fallback
	}
	if len(insts) == 0 {
		return nil, ErrNoInstances
	}
	return append([]ServiceInstance(nil), insts...), nil
}

// Watch emits the current instance list once; a static set never changes.
func (r *StaticRegistry) Watch(plugin string) <-chan []ServiceInstance {
	ch := make(chan []ServiceInstance, 1)
	insts, _ := r.Discover(plugin)
	ch <- insts
	close(ch)
	return ch
}
