// Package validation provides input validation utilities for GoTrail.
//
// # Path Validation
//
// The primary purpose of this package is to prevent directory traversal
// when processing user-provided file paths. Pipeline definitions reference
// input datasets, log files, and output files by relative path, and every
// one of those references is validated against the definition's base
// directory before it is opened.
//
// # Security Guarantees
//
// The PathValidator layers several checks:
//
//   - Lexical validation: Rejects absolute paths, ".." components, and Windows reserved names
//   - Path normalization: Cleans and normalizes paths to canonical form
//   - Symbolic link resolution: Resolves symlinks to their real paths
//   - Containment verification: Ensures the final path is within the base directory
//
// These layers work together to prevent:
//
//   - Directory traversal (../../etc/passwd)
//   - Absolute path injection (/etc/passwd)
//   - Symbolic link escapes (symlink pointing outside the base directory)
//
// # Usage
//
// For repeated validations (recommended):
//
//	validator, err := validation.NewPathValidator("/var/data/pipelines")
//	if err != nil {
//	    log.Fatalf("Failed to create validator: %v", err)
//	}
//
//	safePath, err := validator.Validate(userInput)
//	if err != nil {
//	    return fmt.Errorf("invalid path: %w", err)
//	}
//
//	data, err := os.ReadFile(safePath)
//
// For one-off validations:
//
//	safePath, err := validation.ValidateSecurePath("/var/data/pipelines", userInput)
//	if err != nil {
//	    return fmt.Errorf("invalid path: %w", err)
//	}
//
// # Identifier Validation
//
// Pipeline names and SQLite sink table names are interpolated into log
// output and SQL statements. ValidName and ValidSQLIdentifier gate those
// interpolations so quoting can stay simple.
package validation
