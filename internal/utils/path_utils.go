package utils

import (
	"os"
	"path/filepath"

	"github.com/funvibe/exprjit/internal/config"
)

// ResolveImportPath turns an import path into a file path. A path without
// an extension gets the default source extension; a relative path is
// joined onto baseDir.
func ResolveImportPath(baseDir, importPath string) string {
	if filepath.Ext(importPath) == "" {
		importPath += config.SourceFileExt
	}
	if filepath.IsAbs(importPath) || baseDir == "" {
		return importPath
	}
	return filepath.Join(baseDir, importPath)
}

// ExtractModuleName derives a module name from a file path.
// It takes the base filename and removes any recognized source extension.
func ExtractModuleName(path string) string {
	name := filepath.Base(path)
	return config.TrimSourceExt(name)
}

// GetModuleDir returns the directory imports inside path resolve against:
// path itself when it is an existing directory, else its parent.
func GetModuleDir(path string) string {
	if info, err := os.Stat(path); err == nil && info.IsDir() {
		return path
	}
	return filepath.Dir(path)
}
