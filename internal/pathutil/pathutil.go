// Package pathutil provides shared path validation helpers.
package pathutil

import (
	"fmt"
	"path/filepath"
	"strings"
)

// ValidateFilePath rejects empty paths, null bytes and any ".." segment.
// Segments are checked before cleaning, so "data/../etc/passwd" is rejected
// even though it cleans to "etc/passwd".
func ValidateFilePath(filePath string) error {
	if filePath == "" {
		return fmt.Errorf("file path cannot be empty")
	}
	if strings.Contains(filePath, "\x00") {
		return fmt.Errorf("file path contains invalid characters")
	}
	for _, segment := range strings.Split(filepath.ToSlash(filePath), "/") {
		if segment == ".." {
			return fmt.Errorf("file path contains path traversal: %q", filePath)
		}
	}
	return nil
}

// ValidateFileName checks that name is a bare file name with the given
// extension, such as the artifact name inside the artifacts directory.
func ValidateFileName(name, ext string) error {
	if err := ValidateFilePath(name); err != nil {
		return err
	}
	if strings.ContainsAny(name, `/\`) || name == "." {
		return fmt.Errorf("file name must not contain a directory: %q", name)
	}
	if ext != "" && !strings.EqualFold(filepath.Ext(name), ext) {
		return fmt.Errorf("file name %q must have extension %s", name, ext)
	}
	return nil
}
