package factory

import (
	"testing"
	"time"
)

type engineStub struct {
	Budget time.Duration
	Depth  int
}

type engineConf struct {
	Budget time.Duration `json:"budget"`
	Depth  int           `json:"depth"`
}

func TestRegistryCreateDecodesConf(t *testing.T) {
	reg := NewRegistry[*engineStub]()
	reg.MustRegister("stub", func(conf map[string]any) (*engineStub, error) {
		var c engineConf
		if err := Decode(conf, &c); err != nil {
			return nil, err
		}
		return &engineStub{Budget: c.Budget, Depth: c.Depth}, nil
	})
	inst, err := reg.Create(ModuleConfig{Type: "stub", Conf: map[string]any{"budget": "250ms", "depth": "4"}})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if inst.Budget != 250*time.Millisecond || inst.Depth != 4 {
		t.Fatalf("unexpected %+v", inst)
	}
}

func TestRegistryErrors(t *testing.T) {
	reg := NewRegistry[int]()
	if err := reg.Register("x", func(map[string]any) (int, error) { return 1, nil }); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := reg.Register("x", func(map[string]any) (int, error) { return 2, nil }); err == nil {
		t.Fatal("expected duplicate error")
	}
	if err := reg.Register("y", nil); err == nil {
		t.Fatal("expected nil factory error")
	}
	if _, err := reg.Create(ModuleConfig{Type: "z"}); err == nil {
		t.Fatal("expected unknown type error")
	}
	if names := reg.Names(); len(names) != 1 || names[0] != "x" {
		t.Fatalf("names = %v", names)
	}
}
