package constant

import "time"

const Version = "0.1.0"

// CompileTime is overridden at build time through -ldflags.
var CompileTime = time.Now().Truncate(time.Second)
