package workspace

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"synesis-hq/synesis/pkg/syn/ast"
	"synesis-hq/synesis/pkg/syn/compiler"
	synerrors "synesis-hq/synesis/pkg/syn/errors"
	"synesis-hq/synesis/pkg/syn/parser"
	"synesis-hq/synesis/pkg/telemetry/logging"
)

// ProjectExt is the extension of project files.
const ProjectExt = ".synp"

// projectPattern matches project files at any depth.
const projectPattern = "**/*" + ProjectExt

var (
	// ErrNoProject is returned when a directory holds no project file.
	ErrNoProject = errors.New("no project file found")

	// ErrAmbiguousProject is returned when a directory holds more than one
	// project file and none was named.
	ErrAmbiguousProject = errors.New("more than one project file found")

	// ErrMissingTemplate is returned when the project names no template or
	// the template file does not exist.
	ErrMissingTemplate = errors.New("template not found")

	// ErrUnmatchedInclude is returned when an INCLUDE path or pattern
	// matches no file.
	ErrUnmatchedInclude = errors.New("include matches no file")
)

// ProjectError reports a project file that could not be used because of
// its own diagnostics.
type ProjectError struct {
	Path        string
	Diagnostics *synerrors.DiagnosticList
}

// Error implements the error interface.
func (e *ProjectError) Error() string {
	return fmt.Sprintf("%s: invalid project file (%d problem(s))", e.Path, e.Diagnostics.Count())
}

// Discover returns every project file below root, sorted.
func Discover(root string) ([]string, error) {
	matches, err := doublestar.Glob(os.DirFS(root), projectPattern, doublestar.WithFilesOnly())
	if err != nil {
		return nil, fmt.Errorf("discover projects in %s: %w", root, err)
	}
	out := make([]string, 0, len(matches))
	for _, m := range matches {
		out = append(out, filepath.Join(root, filepath.FromSlash(m)))
	}
	sort.Strings(out)
	return out, nil
}

// ResolveProject turns a command-line argument into a project file. A
// directory must contain exactly one project file; an empty path means the
// working directory.
func ResolveProject(path string) (string, error) {
	if path == "" {
		path = "."
	}
	info, err := os.Stat(path)
	if err != nil {
		return "", err
	}
	if !info.IsDir() {
		return path, nil
	}

	found, err := Discover(path)
	if err != nil {
		return "", err
	}
	switch len(found) {
	case 0:
		return "", fmt.Errorf("%w in %s", ErrNoProject, path)
	case 1:
		return found[0], nil
	default:
		return "", fmt.Errorf("%w in %s: %s", ErrAmbiguousProject, path, strings.Join(found, ", "))
	}
}

// Loader reads a project and every file it references.
type Loader struct {
	parser      *parser.Parser
	maxFileSize int64
	overlays    map[string][]byte
	logger      *slog.Logger
}

// NewLoader creates a loader that rejects files above maxFileSize bytes.
// Zero disables the limit.
func NewLoader(p *parser.Parser, maxFileSize int64) *Loader {
	return &Loader{
		parser:      p,
		maxFileSize: maxFileSize,
		logger:      logging.Discard(),
	}
}

// WithOverlays makes the loader read the given contents instead of the
// files on disk. Keys are cleaned paths.
func (l *Loader) WithOverlays(overlays map[string][]byte) *Loader {
	l.overlays = make(map[string][]byte, len(overlays))
	for path, data := range overlays {
		l.overlays[filepath.Clean(path)] = data
	}
	return l
}

// WithLogger sets the logger.
func (l *Loader) WithLogger(logger *slog.Logger) *Loader {
	if logger != nil {
		l.logger = logger
	}
	return l
}

// Load parses the project file at projectPath, resolves its TEMPLATE and
// INCLUDE paths relative to the project directory, expands patterns and
// reads every file.
//
// A project file without a usable PROJECT block yields a *ProjectError.
// A missing template or an INCLUDE matching nothing is fatal.
func (l *Loader) Load(ctx context.Context, projectPath string) (*compiler.Inputs, error) {
	projectPath = filepath.Clean(projectPath)
	data, err := l.read(projectPath)
	if err != nil {
		return nil, err
	}

	project, diags, err := compiler.ParseProject(l.parser, data, projectPath)
	if err != nil {
		return nil, err
	}
	if project == nil {
		return nil, &ProjectError{Path: projectPath, Diagnostics: diags}
	}

	in := &compiler.Inputs{
		Project:            project,
		ProjectPath:        projectPath,
		ProjectDiagnostics: diags,
	}
	dir := filepath.Dir(projectPath)

	if project.TemplatePath == "" {
		return nil, fmt.Errorf("%s: %w: no TEMPLATE line", projectPath, ErrMissingTemplate)
	}
	templatePath := resolve(dir, project.TemplatePath)
	if !l.exists(templatePath) {
		return nil, fmt.Errorf("%s: %w: %s", project.TemplateLocation, ErrMissingTemplate, templatePath)
	}
	if in.Template, err = l.document(templatePath); err != nil {
		return nil, err
	}

	groups := []struct {
		kind ast.IncludeKind
		dst  *[]compiler.Document
	}{
		{ast.IncludeBibliography, &in.Bibliographies},
		{ast.IncludeAnnotations, &in.Annotations},
		{ast.IncludeOntology, &in.Ontologies},
	}
	for _, g := range groups {
		seen := make(map[string]bool)
		for _, inc := range project.IncludesOf(g.kind) {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			paths, err := l.expand(dir, inc)
			if err != nil {
				return nil, err
			}
			for _, path := range paths {
				if seen[path] {
					continue
				}
				seen[path] = true
				doc, err := l.document(path)
				if err != nil {
					return nil, err
				}
				*g.dst = append(*g.dst, doc)
			}
		}
	}

	l.logger.DebugContext(ctx, "project loaded",
		"project", projectPath,
		"template", in.Template.Path,
		"bibliographies", len(in.Bibliographies),
		"annotations", len(in.Annotations),
		"ontologies", len(in.Ontologies))
	return in, nil
}

// expand returns the files an INCLUDE names, sorted. Overlays count for
// literal paths only.
func (l *Loader) expand(dir string, inc *ast.IncludeNode) ([]string, error) {
	pattern := resolve(dir, inc.Path)
	if !hasMeta(inc.Path) {
		if !l.exists(pattern) {
			return nil, fmt.Errorf("%s: %w: INCLUDE %s %q", inc.Location, ErrUnmatchedInclude, inc.Kind, inc.Path)
		}
		return []string{pattern}, nil
	}

	matches, err := doublestar.FilepathGlob(pattern, doublestar.WithFilesOnly())
	if err != nil {
		return nil, fmt.Errorf("%s: INCLUDE %s %q: %w", inc.Location, inc.Kind, inc.Path, err)
	}
	if len(matches) == 0 {
		return nil, fmt.Errorf("%s: %w: INCLUDE %s %q", inc.Location, ErrUnmatchedInclude, inc.Kind, inc.Path)
	}
	for i, m := range matches {
		matches[i] = filepath.Clean(m)
	}
	sort.Strings(matches)
	return matches, nil
}

func (l *Loader) document(path string) (compiler.Document, error) {
	data, err := l.read(path)
	if err != nil {
		return compiler.Document{}, err
	}
	return compiler.Document{Path: path, Data: data}, nil
}

// read returns the overlay for path, or the file contents. Oversized
// input is rejected before it is read.
func (l *Loader) read(path string) ([]byte, error) {
	if data, ok := l.overlays[path]; ok {
		if err := l.checkSize(path, int64(len(data))); err != nil {
			return nil, err
		}
		return data, nil
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, synerrors.NewFatalError(path, err)
	}
	if info.IsDir() {
		return nil, synerrors.NewFatalError(path, fmt.Errorf("is a directory"))
	}
	if err := l.checkSize(path, info.Size()); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, synerrors.NewFatalError(path, err)
	}
	return data, nil
}

func (l *Loader) checkSize(path string, size int64) error {
	if l.maxFileSize > 0 && size > l.maxFileSize {
		return synerrors.NewFatalError(path,
			fmt.Errorf("%w: %d > %d bytes", synerrors.ErrFileTooLarge, size, l.maxFileSize))
	}
	return nil
}

func (l *Loader) exists(path string) bool {
	if _, ok := l.overlays[path]; ok {
		return true
	}
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// Load reads the project at projectPath with the size limit of opts.
func Load(ctx context.Context, projectPath string, opts compiler.Options) (*compiler.Inputs, error) {
	p := parser.NewParser()
	if opts.MaxFileSize > 0 {
		p.WithMaxFileSize(opts.MaxFileSize)
	}
	return NewLoader(p, opts.MaxFileSize).Load(ctx, projectPath)
}

// resolve makes path relative to dir unless it is absolute.
func resolve(dir, path string) string {
	path = filepath.FromSlash(path)
	if filepath.IsAbs(path) {
		return filepath.Clean(path)
	}
	return filepath.Join(dir, path)
}

func hasMeta(pattern string) bool {
	return strings.ContainsAny(pattern, "*?[{")
}
