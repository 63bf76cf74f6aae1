package registry

import (
	"testing"

	"github.com/rc1405/fiddler-sub001/internal/ferrors"
	"github.com/rc1405/fiddler-sub001/internal/schema"
)

func mustCompile(t *testing.T, src string) *schema.Validator {
	t.Helper()
	v, err := schema.Compile([]byte(src))
	if err != nil {
		t.Fatalf("failed to compile test schema: %v", err)
	}
	return v
}

func noopFactory(conf any, ctx Context) (any, error) {
	return conf, nil
}

// TestRegistry_DuplicateRegistrationRejected is scenario S6 from spec.md §8.
func TestRegistry_DuplicateRegistrationRejected(t *testing.T) {
	r := New()
	sch := mustCompile(t, `{"type": "object"}`)

	if err := r.Register(Processor, "noop", sch, noopFactory); err != nil {
		t.Fatalf("first registration should succeed, got: %v", err)
	}

	err := r.Register(Processor, "noop", sch, noopFactory)
	if err == nil {
		t.Fatalf("expected duplicate registration error")
	}
	dup, ok := err.(*ferrors.DuplicateRegisteredName)
	if !ok {
		t.Fatalf("expected *ferrors.DuplicateRegisteredName, got %T", err)
	}
	if dup.Name != "noop" {
		t.Fatalf("expected name %q, got %q", "noop", dup.Name)
	}
}

func TestRegistry_LookupNotFound(t *testing.T) {
	r := New()
	_, err := r.Lookup(Input, "does-not-exist")
	if _, ok := err.(*ferrors.ConfigurationItemNotFound); !ok {
		t.Fatalf("expected ConfigurationItemNotFound, got %v (%T)", err, err)
	}
}

func TestRegistry_FreezeRejectsFurtherWrites(t *testing.T) {
	r := New()
	sch := mustCompile(t, `{"type": "object"}`)
	r.Freeze()

	err := r.Register(Input, "anything", sch, noopFactory)
	if err == nil {
		t.Fatalf("expected frozen registry to reject writes")
	}
}

func TestRegistry_DifferentKindsDoNotCollide(t *testing.T) {
	r := New()
	sch := mustCompile(t, `{"type": "object"}`)

	if err := r.Register(Processor, "check", sch, noopFactory); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := r.Register(Output, "check", sch, noopFactory); err != nil {
		t.Fatalf("same name under a different kind should be allowed: %v", err)
	}
}

// TestRegistry_BatchKindsLookupCleanly exercises spec.md §9's open question
// on optional batch variants: looking up a kind with nothing registered
// must fail cleanly, not panic.
func TestRegistry_BatchKindsLookupCleanly(t *testing.T) {
	r := New()
	_, err := r.Lookup(InputBatch, "anything")
	if _, ok := err.(*ferrors.ConfigurationItemNotFound); !ok {
		t.Fatalf("expected ConfigurationItemNotFound for unregistered batch kind, got %v", err)
	}
}
