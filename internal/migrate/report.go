package migrate

import (
	"fmt"
	"strings"

	"github.com/cockroachdb/errors"

	"xpack-migrator/internal/diagnostic"
	"xpack-migrator/internal/trace"
	"xpack-migrator/internal/xpack"
)

// reportRejected reports every structural error of entities that could not be
// parsed, at the location the error refers to.
func reportRejected(rep *diagnostic.Reporter, rejected []xpack.Rejected) {
	for _, rej := range rejected {
		for _, err := range trace.Errors(rej.Err) {
			src := rej.Source

			var ve trace.ValidationError
			if errors.As(err, &ve) {
				src = ve.Source()
			}

			msg := strings.TrimPrefix(err.Error(), src.FullPath()+": ")
			rep.Problem(trace.At(src), fmt.Sprintf("%s '%s' was not migrated: %s", capitalize(rej.Kind), rej.Name, msg))
		}
	}
}

// reportUnknown reports settings nobody reads.
func reportUnknown(rep *diagnostic.Reporter, settings []xpack.Setting) {
	for _, s := range settings {
		rep.Preset(diagnostic.UnknownKey, s)
	}
}

// reportIgnored reports settings that are deliberately not migrated.
func reportIgnored(rep *diagnostic.Reporter, settings []xpack.Setting) {
	for _, s := range settings {
		rep.Preset(diagnostic.IgnoredKey, s)
	}
}

func capitalize(s string) string {
	if s == "" {
		return s
	}

	return strings.ToUpper(s[:1]) + s[1:]
}
