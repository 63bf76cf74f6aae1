// Package all blank-imports every built-in plugin package so registering a
// single side effect import wires the complete built-in catalog into the
// process-wide registry. Mirrors the way the Rust runtime's register_*
// functions are all called from one place at startup
// (original_source/fiddler/src/lib.rs and lib/src/lib.rs), re-expressed as
// Go's init()-via-blank-import idiom.
package all

import (
	_ "github.com/rc1405/fiddler-sub001/internal/composite"
	_ "github.com/rc1405/fiddler-sub001/internal/impl/amqp"
	_ "github.com/rc1405/fiddler-sub001/internal/impl/aws"
	_ "github.com/rc1405/fiddler-sub001/internal/impl/decode"
	_ "github.com/rc1405/fiddler-sub001/internal/impl/dropassert"
	_ "github.com/rc1405/fiddler-sub001/internal/impl/elasticsearch"
	_ "github.com/rc1405/fiddler-sub001/internal/impl/file"
	_ "github.com/rc1405/fiddler-sub001/internal/impl/generator"
	_ "github.com/rc1405/fiddler-sub001/internal/impl/lines"
	_ "github.com/rc1405/fiddler-sub001/internal/impl/mockinput"
	_ "github.com/rc1405/fiddler-sub001/internal/impl/mqtt"
	_ "github.com/rc1405/fiddler-sub001/internal/impl/noop"
	_ "github.com/rc1405/fiddler-sub001/internal/impl/redis"
	_ "github.com/rc1405/fiddler-sub001/internal/impl/stdio"
	_ "github.com/rc1405/fiddler-sub001/internal/impl/zeromq"
)
