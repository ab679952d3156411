package session

import (
	"os"
	"path/filepath"

	"github.com/funvibe/exprjit/internal/ast"
	"github.com/funvibe/exprjit/internal/diagnostics"
	"github.com/funvibe/exprjit/internal/utils"
)

// Import evaluates the file at path, relative to dir, in the root context.
// Each file is imported at most once per session.
func (s *Session) Import(path, dir string, at ast.Node) error {
	fail := func(format string, a ...any) error {
		if at != nil {
			return diagnostics.NewAt(diagnostics.ImportError, at.GetToken(), format, a...)
		}
		return diagnostics.New(diagnostics.ImportError, format, a...)
	}
	if path == "" {
		return fail("empty import path")
	}
	if dir == "" {
		dir = s.dir
	}
	path = utils.ResolveImportPath(dir, path)
	abs, err := filepath.Abs(path)
	if err != nil {
		return fail("%s: %v", path, err)
	}
	module := utils.ExtractModuleName(abs)
	if s.imported[abs] {
		s.log.Debug("import skipped", "module", module, "path", abs)
		return nil
	}
	src, err := os.ReadFile(abs)
	if err != nil {
		return fail("cannot read %s", path)
	}
	s.imported[abs] = true

	if err := s.run(string(src), abs, filepath.Dir(abs), false); err != nil {
		return fail("%s: %s", filepath.Base(abs), diagnostics.Render(err, false))
	}
	s.log.Debug("imported", "module", module, "path", abs)
	return nil
}
