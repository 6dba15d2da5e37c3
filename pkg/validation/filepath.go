package validation

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// maxUserPathLen bounds user-provided paths before any processing.
const maxUserPathLen = 1024

// PathValidator validates user-provided file paths to prevent directory
// traversal. Pipeline definitions name input files, log files, and output
// files relative to the definition's directory; every one of those paths
// passes through a validator rooted there.
//
// Validation layers:
//   - Lexical validation (reject absolute paths, .., reserved names)
//   - Path normalization
//   - Symbolic link resolution
//   - Containment verification
type PathValidator struct {
	basePath     string
	resolvedBase string
}

// ValidationError represents a path validation failure with context for logging.
type ValidationError struct {
	UserPath     string // Original user input that was rejected
	Reason       string // Human-readable reason for rejection
	ResolvedPath string // Resolved path if resolution succeeded (may be empty)
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	if e.ResolvedPath != "" {
		return fmt.Sprintf("path validation failed: %s (input: %s, resolved: %s)",
			e.Reason, e.UserPath, e.ResolvedPath)
	}
	return fmt.Sprintf("path validation failed: %s (input: %s)", e.Reason, e.UserPath)
}

// NewPathValidator creates a new path validator for the given base directory.
//
// The base directory must be an absolute path to an existing directory. All
// validated paths are restricted to this directory and its subdirectories.
func NewPathValidator(basePath string) (*PathValidator, error) {
	if basePath == "" {
		return nil, fmt.Errorf("base path cannot be empty")
	}

	if !filepath.IsAbs(basePath) {
		return nil, fmt.Errorf("base path must be absolute: %s", basePath)
	}

	info, err := os.Stat(basePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("base path does not exist: %s", basePath)
		}
		return nil, fmt.Errorf("cannot access base path: %w", err)
	}

	if !info.IsDir() {
		return nil, fmt.Errorf("base path is not a directory: %s", basePath)
	}

	// Resolve symbolic links so containment checks compare real locations
	resolvedBase, err := filepath.EvalSymlinks(basePath)
	if err != nil {
		return nil, fmt.Errorf("cannot resolve symbolic links in base path: %w", err)
	}

	return &PathValidator{
		basePath:     basePath,
		resolvedBase: resolvedBase,
	}, nil
}

// Validate validates that userPath is safe to access within the base directory.
//
// Returns the validated absolute path if safe, or error if the path:
//   - Is empty
//   - Escapes the base directory (via .., absolute paths, or symlinks)
//   - Exceeds maximum path length
//   - Cannot be resolved
//
// The path does not have to exist: paths for files about to be created are
// validated against their nearest existing ancestor.
func (v *PathValidator) Validate(userPath string) (string, error) {
	if userPath == "" {
		return "", &ValidationError{
			UserPath: userPath,
			Reason:   "path cannot be empty",
		}
	}

	if len(userPath) > maxUserPathLen {
		return "", &ValidationError{
			UserPath: userPath,
			Reason:   fmt.Sprintf("path length exceeds maximum of %d bytes", maxUserPathLen),
		}
	}

	// Lexical validation: filepath.IsLocal rejects absolute paths, paths
	// starting with "..", and Windows reserved names
	if !filepath.IsLocal(userPath) {
		return "", &ValidationError{
			UserPath: userPath,
			Reason:   "path escapes allowed directory",
		}
	}

	cleanPath := filepath.Clean(userPath)
	fullPath := filepath.Join(v.basePath, cleanPath)

	// Resolve symbolic links. For paths that don't exist yet, resolve the
	// nearest existing ancestor instead so outputs and their directories
	// can be created safely. The walk terminates at the base directory,
	// which the constructor guarantees exists.
	resolvedPath, err := filepath.EvalSymlinks(fullPath)
	if err != nil {
		ancestor := filepath.Dir(fullPath)
		suffix := filepath.Base(fullPath)
		for {
			resolvedAncestor, ancestorErr := filepath.EvalSymlinks(ancestor)
			if ancestorErr == nil {
				resolvedPath = filepath.Join(resolvedAncestor, suffix)
				break
			}
			next := filepath.Dir(ancestor)
			if next == ancestor {
				return "", &ValidationError{
					UserPath: userPath,
					Reason:   "cannot resolve path",
				}
			}
			suffix = filepath.Join(filepath.Base(ancestor), suffix)
			ancestor = next
		}
	}

	// Containment: the resolved path must still sit under the resolved base
	relPath, err := filepath.Rel(v.resolvedBase, resolvedPath)
	if err != nil {
		return "", &ValidationError{
			UserPath:     userPath,
			Reason:       "path is not relative to base",
			ResolvedPath: resolvedPath,
		}
	}

	if relPath == ".." || strings.HasPrefix(relPath, ".."+string(filepath.Separator)) {
		return "", &ValidationError{
			UserPath:     userPath,
			Reason:       "resolved path escapes base directory",
			ResolvedPath: resolvedPath,
		}
	}

	return resolvedPath, nil
}

// BaseDir returns the validator's base directory as given at construction.
func (v *PathValidator) BaseDir() string {
	return v.basePath
}

// ValidateSecurePath is a convenience function that validates a path without
// creating a PathValidator instance.
//
// Use this for one-off validations. For repeated validations, create a
// PathValidator instance to avoid re-resolving the base path.
func ValidateSecurePath(basePath, userPath string) (string, error) {
	validator, err := NewPathValidator(basePath)
	if err != nil {
		return "", fmt.Errorf("invalid base path: %w", err)
	}
	return validator.Validate(userPath)
}
