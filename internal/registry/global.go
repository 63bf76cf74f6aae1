package registry

import "github.com/rc1405/fiddler-sub001/internal/schema"

// Global is the process-wide registry every built-in plugin package
// registers itself against from an init() function, and the one
// public/service.Environment wraps by default. Grounded on the real
// Benthos bundle.GlobalEnvironment singleton referenced throughout the
// teacher's copied public/service/stream_builder.go.
var Global = New()

// MustRegister registers an entry against the Global registry and panics on
// failure, the conventional shape for package-level init() registration
// where a duplicate name is a programming error, not a runtime condition.
func MustRegister(kind Kind, name string, rawSchema []byte, factory Factory) {
	sch, err := compileOrPanic(rawSchema)
	if err != nil {
		panic(err)
	}
	if err := Global.Register(kind, name, sch, factory); err != nil {
		panic(err)
	}
}

func compileOrPanic(rawSchema []byte) (*schema.Validator, error) {
	return schema.Compile(rawSchema)
}
