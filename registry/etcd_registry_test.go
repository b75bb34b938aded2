package registry

import (
	"errors"
	"os"
	"strings"
	"testing"
	"time"
)

// Requires a running etcd; set TWITTER_BRIDGE_ETCD_ENDPOINTS to enable.
func newTestEtcdRegistry(t *testing.T) *EtcdRegistry {
	t.Helper()
	endpoints := os.Getenv("TWITTER_BRIDGE_ETCD_ENDPOINTS")
	if endpoints == "" {
		t.Skip("TWITTER_BRIDGE_ETCD_ENDPOINTS not set")
	}

	reg, err := NewEtcdRegistry(strings.Split(endpoints, ","))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { reg.Close() })
	return reg
}

func TestRegisterAndDiscover(t *testing.T) {
	reg := newTestEtcdRegistry(t)

	const plugin = "TwitterPluginTest"
	inst1 := ServiceInstance{Addr: "127.0.0.1:8001", Weight: 10, Version: "1.0"}
	inst2 := ServiceInstance{Addr: "127.0.0.1:8002", Weight: 5, Version: "1.0"}

	if err := reg.Register(plugin, inst1, 10); err != nil {
		t.Fatal(err)
	}
	if err := reg.Register(plugin, inst2, 10); err != nil {
		t.Fatal(err)
	}

	instances, err := reg.Discover(plugin)
	if err != nil {
		t.Fatal(err)
	}
	if len(instances) != 2 {
		t.Fatalf("expect 2 instances, got %d", len(instances))
	}

	if err := reg.Deregister(plugin, inst1.Addr); err != nil {
		t.Fatal(err)
	}

	time.Sleep(100 * time.Millisecond)

	instances, err = reg.Discover(plugin)
	if err != nil {
		t.Fatal(err)
	}
	if len(instances) != 1 || instances[0].Addr != inst2.Addr {
		t.Fatalf("unexpected instances after deregister: %+v", instances)
	}

	reg.Deregister(plugin, inst2.Addr)
	if _, err := reg.Discover(plugin); !errors.Is(err, ErrNoInstances) {
		t.Fatalf("expected ErrNoInstances, got %v", err)
	}
}

func TestWatchEmitsEmptyListWhenLastHostLeaves(t *testing.T) {
	reg := newTestEtcdRegistry(t)

	const plugin = "TwitterPluginWatchTest"
	inst := ServiceInstance{Addr: "127.0.0.1:8101", Weight: 1, Version: "1.0"}
	updates := reg.Watch(plugin)
	// Give the watch time to be established before the first write.
	time.Sleep(100 * time.Millisecond)

	if err := reg.Register(plugin, inst, 10); err != nil {
		t.Fatal(err)
	}
	next := func() []ServiceInstance {
		select {
		case instances := <-updates:
			return instances
		case <-time.After(5 * time.Second):
			t.Fatal("no watch update")
			return nil
		}
	}
	if instances := next(); len(instances) != 1 || instances[0].Addr != inst.Addr {
		t.Fatalf("unexpected instances after register: %+v", instances)
	}

	if err := reg.Deregister(plugin, inst.Addr); err != nil {
		t.Fatal(err)
	}
	instances := next()
	if instances == nil || len(instances) != 0 {
		t.Fatalf("expected an empty list after the last host left, got %+v", instances)
	}
}
