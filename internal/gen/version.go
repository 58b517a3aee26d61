package gen

import (
	"strconv"

	"github.com/roach88/apigen/internal/emit"
	"github.com/roach88/apigen/internal/ir"
)

// genVersion writes the compatibility header read by packaging. Two builds
// whose registries differ never share FO_COMPATIBILITY_VERSION.
func genVersion(ctx *Context, _ Output, f *emit.File) error {
	f.Write(versionLines(ctx.Opts, ctx.Fingerprint)...)
	return nil
}

func versionLines(opts Options, fingerprint string) []string {
	var b block
	header(&b, "//", "Version and compatibility information")
	b.line("#pragma once", "")
	b.linef("#define FO_GAME_NAME %s", strconv.Quote(opts.GameName))
	b.linef("#define FO_GAME_VERSION %s", strconv.Quote(opts.Version))
	b.linef("#define FO_BUILD_HASH %s", strconv.Quote(opts.BuildHash))
	b.linef("#define FO_REGISTRY_FINGERPRINT %s", strconv.Quote(fingerprint))
	b.linef("#define FO_COMPATIBILITY_VERSION %s", strconv.Quote(ir.ShortFingerprint(fingerprint)))
	return b
}
