package modkit

import "testing"

type stub struct{ ports any }

func (s *stub) Ports() any   { return s.ports }
func (s *stub) Name() string { return "stub" }

var _ Module = (*stub)(nil)

func TestBuilder_TypeSignatureAndUse(t *testing.T) {
	t.Parallel()

	var b Builder = func(_ Deps) (Module, error) {
		return &stub{ports: "ok"}, nil
	}

	m, err := b(Deps{})
	if err != nil || m == nil {
		t.Fatalf("builder failed: %v", err)
	}
	if p := m.Ports(); p != "ok" {
		t.Fatalf("unexpected Ports value: got=%v want=ok", p)
	}
}
