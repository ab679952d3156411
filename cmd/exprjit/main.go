package main

import (
	"bufio"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/mattn/go-isatty"

	"github.com/funvibe/exprjit/internal/ast"
	"github.com/funvibe/exprjit/internal/config"
	"github.com/funvibe/exprjit/internal/diagnostics"
	"github.com/funvibe/exprjit/internal/parser"
	"github.com/funvibe/exprjit/internal/prettyprinter"
	"github.com/funvibe/exprjit/internal/session"
	"github.com/funvibe/exprjit/internal/symbols"
	"github.com/funvibe/exprjit/internal/utils"
)

var (
	configPath  = flag.String("config", "", "settings file (default ./"+config.SettingsFileName+")")
	backendName = flag.String("backend", "", "override the backend: jit or tree-walk")
	dumpIR      = flag.Bool("dump-ir", false, "print the IR of every compiled unit")
	exprFlag    = flag.String("e", "", "evaluate the given source and exit")
	fmtFlag     = flag.Bool("fmt", false, "print the input reformatted instead of running it")
)

func main() {
	// Catch panics and show user-friendly error
	defer func() {
		if r := recover(); r != nil {
			if os.Getenv("DEBUG") == "1" {
				panic(r)
			}
			fmt.Fprintf(os.Stderr, "Internal error: %v\n", r)
			os.Exit(1)
		}
	}()

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [flags] [file%s]\n", filepath.Base(os.Args[0]), config.SourceFileExt)
		flag.PrintDefaults()
	}
	flag.Parse()

	if *fmtFlag {
		os.Exit(format())
	}

	settings, err := loadSettings()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(2)
	}
	color := diagnostics.ColorEnabled(settings.Color, os.Stderr)

	wd, _ := os.Getwd()
	s, err := session.New(session.Options{
		Settings: settings,
		Out:      os.Stdout,
		Err:      os.Stderr,
		Color:    color,
		Dir:      wd,
		Logger:   settings.NewLogger(),
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", diagnostics.Render(err, color))
		os.Exit(2)
	}
	defer s.Close()

	switch {
	case *exprFlag != "":
		if s.Run(*exprFlag, "") != nil {
			s.Close()
			os.Exit(1)
		}
	case flag.NArg() > 0:
		path, _ := filepath.Abs(flag.Arg(0))
		src, err := os.ReadFile(path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error reading input: %s\n", err)
			os.Exit(1)
		}
		if s.Run(string(src), path) != nil {
			s.Close()
			os.Exit(1)
		}
	case isatty.IsTerminal(os.Stdin.Fd()) || isatty.IsCygwinTerminal(os.Stdin.Fd()):
		repl(s, os.Stdin, os.Stdout)
	default:
		src, err := io.ReadAll(os.Stdin)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error reading input: %s\n", err)
			os.Exit(1)
		}
		if s.Run(string(src), "") != nil {
			s.Close()
			os.Exit(1)
		}
	}
}

func loadSettings() (*config.Settings, error) {
	path := *configPath
	if path == "" {
		path = config.SettingsFileName
	}
	settings, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if *backendName != "" {
		settings.Backend = *backendName
	}
	if *dumpIR {
		settings.DumpIR = true
	}
	return settings, settings.Validate()
}

// format prints the input file, or stdin, in canonical layout.
func format() int {
	var src []byte
	var err error
	file := ""
	if flag.NArg() > 0 {
		file = flag.Arg(0)
		src, err = os.ReadFile(file)
	} else {
		src, err = io.ReadAll(os.Stdin)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading input: %s\n", err)
		return 1
	}
	stack := symbols.NewStack(symbols.NewContext(config.RootContextName, nil))
	p := parser.New(string(src), ast.NewBuilder(stack), utils.GetModuleDir(file))
	program := p.ParseProgram()
	if errs := p.Errors(); len(errs) > 0 {
		color := diagnostics.ColorEnabled("auto", os.Stderr)
		for _, e := range errs {
			e.File = file
			diagnostics.Fprint(os.Stderr, e, color)
		}
		return 1
	}
	fmt.Print(prettyprinter.FormatProgram(program))
	return 0
}

// repl reads statements line by line. A line that leaves braces open
// continues on the next line.
func repl(s *session.Session, in io.Reader, out io.Writer) {
	fmt.Fprintf(out, "exprjit (%s backend); Ctrl-D to exit\n", s.Backend.Name())
	scanner := bufio.NewScanner(in)
	var buf strings.Builder
	depth := 0
	prompt := func() {
		if depth > 0 {
			fmt.Fprint(out, "... ")
		} else {
			fmt.Fprint(out, ">>> ")
		}
	}
	prompt()
	for scanner.Scan() {
		line := scanner.Text()
		buf.WriteString(line)
		buf.WriteByte('\n')
		depth += strings.Count(line, "{") - strings.Count(line, "}")
		if depth <= 0 {
			s.Run(buf.String(), "")
			buf.Reset()
			depth = 0
		}
		prompt()
	}
	fmt.Fprintln(out)
}
