package export

import "fmt"

// ExportError reports a failure while writing one output format.
type ExportError struct {
	Format string // Output format ("json", "csv", "sqlite", "xlsx")
	Target string // File, table or database written
	Cause  error
}

// Error implements the error interface.
func (e *ExportError) Error() string {
	return fmt.Sprintf("export error [format=%s, target=%s]: %v", e.Format, e.Target, e.Cause)
}

// Unwrap returns the underlying cause error.
func (e *ExportError) Unwrap() error {
	return e.Cause
}

// NewExportError creates a new ExportError.
func NewExportError(format, target string, cause error) *ExportError {
	return &ExportError{
		Format: format,
		Target: target,
		Cause:  cause,
	}
}

// StorageError reports a failure of the run store.
type StorageError struct {
	Driver    string // Database driver ("sqlite", "sqlite3")
	Operation string // Operation that failed ("open", "store", "prune", ...)
	Cause     error
}

// Error implements the error interface.
func (e *StorageError) Error() string {
	return fmt.Sprintf("storage error [driver=%s, operation=%s]: %v", e.Driver, e.Operation, e.Cause)
}

// Unwrap returns the underlying cause error.
func (e *StorageError) Unwrap() error {
	return e.Cause
}

// NewStorageError creates a new StorageError.
func NewStorageError(driver, operation string, cause error) *StorageError {
	return &StorageError{
		Driver:    driver,
		Operation: operation,
		Cause:     cause,
	}
}
