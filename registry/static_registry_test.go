package registry

import (
	"errors"
	"testing"
)

func TestStaticRegistryFallback(t *testing.T) {
	reg := NewStaticRegistry("127.0.0.1:7070")

	insts, err := reg.Discover("TwitterPlugin")
	if err != nil {
		t.Fatal(err)
	}
	if len(insts) != 1 || insts[0].Addr != "127.0.0.1:7070" {
		t.Fatalf("unexpected instances %+v", insts)
	}
}

func TestStaticRegistryRegisterDeregister(t *testing.T) {
	reg := NewStaticRegistry()

	if _, err := reg.Discover("TwitterPlugin"); !errors.Is(err, ErrNoInstances) {
		t.Fatalf("expected ErrNoInstances, got %v", err)
	}

	inst1 := ServiceInstance{Addr: "127.0.0.1:8001", Weight: 10}
	inst2 := ServiceInstance{Addr: "127.0.0.1:8002", Weight: 5}
	reg.Register("TwitterPlugin", inst1, 10)
	reg.Register("TwitterPlugin", inst2, 10)
	reg.Register("TwitterPlugin", inst2, 10)

	insts, err := reg.Discover("TwitterPlugin")
	if err != nil {
		t.Fatal(err)
	}
	if len(insts) != 2 {
		t.Fatalf("expect 2 instances, got %d", len(insts))
	}

	reg.Deregister("TwitterPlugin", inst1.Addr)
	insts, _ = reg.Discover("TwitterPlugin")
	if len(insts) != 1 || insts[0].Addr != inst2.Addr {
		t.Fatalf("unexpected instances after deregister: %+v", insts)
	}

	watched := <-reg.Watch("TwitterPlugin")
	if len(watched) != 1 {
		t.Fatalf("watch returned %+v", watched)
	}
}
