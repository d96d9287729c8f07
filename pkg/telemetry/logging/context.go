package logging

import (
	"context"
	"log/slog"
)

// Context keys for common log fields.
type contextKey string

const (
	// CompilationIDKey is the context key for compilation IDs.
	CompilationIDKey contextKey = "compilation_id"

	// ProjectKey is the context key for project names.
	ProjectKey contextKey = "project"

	// DocumentKey is the context key for document paths.
	DocumentKey contextKey = "document"
)

// WithCompilationID adds a compilation ID to the context.
func WithCompilationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, CompilationIDKey, id)
}

// GetCompilationID retrieves the compilation ID from the context.
func GetCompilationID(ctx context.Context) string {
	if id, ok := ctx.Value(CompilationIDKey).(string); ok {
		return id
	}
	return ""
}

// WithProject adds a project name to the context.
func WithProject(ctx context.Context, project string) context.Context {
	return context.WithValue(ctx, ProjectKey, project)
}

// GetProject retrieves the project name from the context.
func GetProject(ctx context.Context) string {
	if project, ok := ctx.Value(ProjectKey).(string); ok {
		return project
	}
	return ""
}

// WithDocument adds a document path to the context.
func WithDocument(ctx context.Context, path string) context.Context {
	return context.WithValue(ctx, DocumentKey, path)
}

// GetDocument retrieves the document path from the context.
func GetDocument(ctx context.Context) string {
	if path, ok := ctx.Value(DocumentKey).(string); ok {
		return path
	}
	return ""
}

// extractContextFields returns the context fields as slog attributes.
func extractContextFields(ctx context.Context) []slog.Attr {
	if ctx == nil {
		return nil
	}

	var fields []slog.Attr
	if id := GetCompilationID(ctx); id != "" {
		fields = append(fields, slog.String(string(CompilationIDKey), id))
	}
	if project := GetProject(ctx); project != "" {
		fields = append(fields, slog.String(string(ProjectKey), project))
	}
	if path := GetDocument(ctx); path != "" {
		fields = append(fields, slog.String(string(DocumentKey), path))
	}
	return fields
}

// contextHandler adds the context fields to every record logged with a
// context.
type contextHandler struct {
	slog.Handler
}

func (h *contextHandler) Handle(ctx context.Context, r slog.Record) error {
	if fields := extractContextFields(ctx); len(fields) > 0 {
		r = r.Clone()
		r.AddAttrs(fields...)
	}
	return h.Handler.Handle(ctx, r)
}

func (h *contextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &contextHandler{Handler: h.Handler.WithAttrs(attrs)}
}

func (h *contextHandler) WithGroup(name string) slog.Handler {
	return &contextHandler{Handler: h.Handler.WithGroup(name)}
}
