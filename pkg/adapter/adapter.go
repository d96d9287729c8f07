package adapter

import (
	"context"
	"log/slog"
	"path/filepath"

	"synesis-hq/synesis/pkg/config"
	"synesis-hq/synesis/pkg/syn/compiler"
	"synesis-hq/synesis/pkg/telemetry/logging"
	"synesis-hq/synesis/pkg/workspace"
)

// Adapter compiles projects for interactive use. Templates and
// bibliographies are served from its cache between compilations; unsaved
// editor buffers are passed as overlays.
type Adapter struct {
	compiler *compiler.Compiler
	cache    *Cache
	logger   *slog.Logger
}

// New creates an adapter around c with an empty cache.
func New(c *compiler.Compiler) *Adapter {
	return &Adapter{
		compiler: c,
		cache:    NewCache(c.Parser()),
		logger:   logging.Discard(),
	}
}

// WithLogger sets the logger of the adapter and its cache.
func (a *Adapter) WithLogger(logger *slog.Logger) *Adapter {
	if logger != nil {
		a.logger = logger
		a.cache.WithLogger(logger)
	}
	return a
}

// WithMetrics sets the recorder of cache metrics.
func (a *Adapter) WithMetrics(r CacheRecorder) *Adapter {
	a.cache.WithMetrics(r)
	return a
}

// Cache returns the template and bibliography cache.
func (a *Adapter) Cache() *Cache {
	return a.cache
}

// Invalidate drops cached builds of path. Editors call it when a buffer is
// saved; the watcher calls it on every file event.
func (a *Adapter) Invalidate(path string) bool {
	dropped := a.cache.Invalidate(path)
	if dropped {
		a.logger.Debug("cache invalidated", "path", path)
	}
	return dropped
}

// Check compiles the project at projectPath. Overlays replace file
// contents by path, in the same form the project path is given. A template
// or bibliography with an overlay is built from it and not cached.
func (a *Adapter) Check(ctx context.Context, projectPath string, overlays map[string][]byte) (*compiler.Result, error) {
	opts := a.compiler.Options()
	in, err := workspace.NewLoader(a.compiler.Parser(), opts.MaxFileSize).
		WithOverlays(overlays).
		WithLogger(a.logger).
		Load(ctx, projectPath)
	if err != nil {
		return nil, err
	}

	edited := make(map[string]bool, len(overlays))
	for path := range overlays {
		edited[filepath.Clean(path)] = true
	}

	art := &compiler.Artifacts{}
	if !edited[in.Template.Path] {
		art.Template, art.TemplateDiagnostics, err = a.cache.Template(in.Template)
		if err != nil {
			return nil, err
		}
	}
	bibEdited := false
	for _, d := range in.Bibliographies {
		bibEdited = bibEdited || edited[d.Path]
	}
	if !bibEdited {
		art.Bibliography, art.BibliographyDiagnostics, err = a.cache.Bibliography(in.Bibliographies)
		if err != nil {
			return nil, err
		}
	}
	if art.Template != nil || art.Bibliography != nil {
		in.Prebuilt = art
	}

	return a.compiler.Compile(ctx, in)
}

// Watch compiles the project at projectPath, then again after every batch
// of file changes below the project directory, until ctx is canceled. Each
// outcome is passed to onResult. Changed files are invalidated in the
// cache as soon as their event arrives.
func (a *Adapter) Watch(ctx context.Context, projectPath string, cfg *config.AdapterConfig, onResult func(*compiler.Result, error)) error {
	w, err := NewWatcher(WatcherConfigFrom(cfg, filepath.Dir(projectPath)), a.logger)
	if err != nil {
		return err
	}
	defer w.Stop()

	onResult(a.Check(ctx, projectPath, nil))

	return w.Watch(ctx,
		func(path string) {
			a.Invalidate(path)
		},
		func(paths []string) {
			if ctx.Err() != nil {
				return
			}
			a.logger.InfoContext(ctx, "recompiling", "changed", paths)
			onResult(a.Check(ctx, projectPath, nil))
		})
}
