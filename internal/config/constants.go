package config

import "strings"

const SourceFileExt = ".xj"

// SourceFileExtensions are all recognized source file extensions
var SourceFileExtensions = []string{".xj", ".exprjit"}

// HasSourceExt reports whether path ends in a recognized source extension.
func HasSourceExt(path string) bool {
	for _, ext := range SourceFileExtensions {
		if strings.HasSuffix(path, ext) {
			return true
		}
	}
	return false
}

// TrimSourceExt removes a recognized source extension from path.
func TrimSourceExt(path string) string {
	for _, ext := range SourceFileExtensions {
		if strings.HasSuffix(path, ext) {
			return strings.TrimSuffix(path, ext)
		}
	}
	return path
}

// SettingsFileName is looked up in the working directory when no -config flag is given.
const SettingsFileName = "exprjit.yaml"

// RootContextName names the process-wide root context.
const RootContextName = "global"

// AnonFuncName is the fixed name of the zero-argument wrapper synthesized
// around each top-level expression before it is compiled and invoked.
const AnonFuncName = "__anon_expr"

// BoxTypeName is the IR type name of the boxed runtime value {tag, payload}.
const BoxTypeName = "xj.box"

// Runtime symbols provided by the execution engine to compiled code.
const (
	AllocBoxSymbol  = "xj.alloc.box"
	PowSymbol       = "pow"
	StrLitSymbol    = "xj.str.lit"
	StrConcatSymbol = "xj.str.concat"
	VarGetSymbol    = "xj.var.get"
	VarSetSymbol    = "xj.var.set"
	FailSymbol      = "xj.fail"
)

// Shared binary-operator dispatch helpers, emitted at most once per unit.
const (
	BinopHelperPrefix = "xj.binop."
	NegHelperName     = "xj.neg"
)

// Backend names
const (
	BackendJIT      = "jit"
	BackendTreeWalk = "tree-walk"
)

// DefaultMaxSteps bounds the number of IR instructions a single invocation may execute.
const DefaultMaxSteps = 50_000_000
