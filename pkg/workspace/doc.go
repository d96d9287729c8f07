// Package workspace finds Synesis projects on disk and reads them into
// compiler inputs.
//
// A project file names its template and includes relative to its own
// directory. INCLUDE paths may be doublestar patterns:
//
//	INCLUDE ANNOTATIONS "interviews/**/*.syn"
//
// All file access of a compilation happens here, before the pipeline runs.
package workspace
