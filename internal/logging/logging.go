// Package logging sets up the slog logger carried through a build's context.
package logging

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/lmittmann/tint"
	"github.com/neilotoole/slogt"
	slogctx "github.com/veqryn/slog-context"
)

// Options configures Setup.
type Options struct {
	Verbose bool
	NoColor bool
	// Root, when set, is replaced by "." at the start of string attributes
	// so logged paths stay short.
	Root string
}

// Setup installs a tint handler writing to w as the default logger and
// returns ctx carrying it.
func Setup(ctx context.Context, w io.Writer, opts Options) context.Context {
	level := slog.LevelInfo
	if opts.Verbose {
		level = slog.LevelDebug
	}

	handler := tint.NewHandler(w, &tint.Options{
		Level:      level,
		TimeFormat: "15:04:05.000",
		AddSource:  opts.Verbose,
		NoColor:    opts.NoColor,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			return relativize(opts.Root, a)
		},
	})

	logger := slog.New(slogctx.NewHandler(handler, nil))
	slog.SetDefault(logger)

	return slogctx.NewCtx(ctx, logger)
}

// ForTest returns a context whose logger writes through t.Log.
func ForTest(t testing.TB) context.Context {
	return slogctx.NewCtx(context.Background(), slogt.New(t))
}

// From returns the logger carried by ctx, or the default logger.
func From(ctx context.Context) *slog.Logger {
	return slogctx.FromCtx(ctx)
}

func relativize(root string, a slog.Attr) slog.Attr {
	if root == "" || a.Value.Kind() != slog.KindString {
		return a
	}
	s := a.Value.String()
	if rest, ok := strings.CutPrefix(s, strings.TrimSuffix(root, "/")+"/"); ok {
		a.Value = slog.StringValue("./" + rest)
	}
	return a
}
