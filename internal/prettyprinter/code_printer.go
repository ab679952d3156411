package prettyprinter

import (
	"bytes"
	"strconv"
	"strings"

	"github.com/funvibe/exprjit/internal/ast"
	"github.com/funvibe/exprjit/internal/value"
)

// --- Code Printer (Output looks like source code) ---

// Operator precedence (higher = binds tighter)
var operatorPrecedence = map[string]int{
	"+": 1,
	"-": 1,
	"*": 2,
	"/": 2,
	"^": 3,
}

const prefixPrecedence = 4

func getPrecedence(op string) int {
	if p, ok := operatorPrecedence[op]; ok {
		return p
	}
	return 10 // Default high precedence for unknown ops
}

// Right-associative operators
var rightAssoc = map[string]bool{
	"^": true,
}

type CodePrinter struct {
	buf       bytes.Buffer
	indent    int
	lineWidth int // max line width (0 = unlimited)
	column    int // current column position
}

func NewCodePrinter() *CodePrinter {
	return &CodePrinter{indent: 0, lineWidth: 100, column: 0}
}

func NewCodePrinterWithWidth(width int) *CodePrinter {
	return &CodePrinter{indent: 0, lineWidth: width, column: 0}
}

// Format renders a single node.
func Format(n ast.Node) string {
	p := NewCodePrinter()
	p.PrintNode(n)
	return p.String()
}

// FormatProgram renders every statement of program, one per line.
func FormatProgram(program *ast.Program) string {
	p := NewCodePrinter()
	p.PrintProgram(program)
	return p.String()
}

func (p *CodePrinter) String() string {
	return p.buf.String()
}

func (p *CodePrinter) write(s string) {
	p.buf.WriteString(s)
	// Track column position
	if idx := strings.LastIndex(s, "\n"); idx != -1 {
		p.column = len(s) - idx - 1
	} else {
		p.column += len(s)
	}
}

func (p *CodePrinter) writeln() {
	p.buf.WriteString("\n")
	p.column = 0
}

func (p *CodePrinter) writeIndent() {
	for i := 0; i < p.indent; i++ {
		p.buf.WriteString("    ")
	}
	p.column = p.indent * 4
}

func (p *CodePrinter) PrintProgram(program *ast.Program) {
	for i, stmt := range program.Statements {
		if i > 0 {
			p.writeln()
		}
		p.PrintNode(stmt)
	}
	if len(program.Statements) > 0 {
		p.writeln()
	}
}

// PrintNode prints a statement or expression. Statements other than
// function definitions end in a semicolon so that a following line starting
// with "-" or "(" cannot continue them.
func (p *CodePrinter) PrintNode(n ast.Node) {
	switch n := n.(type) {
	case *ast.FunctionDef:
		p.printFunction(n)
	case *ast.Import:
		p.write("import " + quote(n.Path) + ";")
	case *ast.Error:
		p.write("<error: " + n.Message + ">")
	case *ast.Declaration:
		p.write("declare " + n.Name + ";")
	case ast.Expression:
		p.printStatement(n)
	case nil:
		p.write("<???>")
	}
}

func (p *CodePrinter) printStatement(n ast.Expression) {
	switch n := n.(type) {
	case *ast.TopLevelExp:
		p.printExpr(n.Expr, 0, false)
	case *ast.Assignment:
		p.write(n.Name + " = ")
		p.printExpr(n.Value, 0, false)
	case *ast.DeclarationAssignment:
		p.write("declare " + n.Name + " = ")
		p.printExpr(n.Value, 0, false)
	default:
		p.printExpr(n, 0, false)
	}
	p.write(";")
}

func (p *CodePrinter) printFunction(n *ast.FunctionDef) {
	p.write("def " + n.FunctionName() + "(")
	for i, param := range n.Signature.Params {
		if i > 0 {
			p.write(", ")
		}
		p.write(param.Name)
		if param.Default != nil {
			p.write(" = ")
			p.printExpr(param.Default, 0, false)
		}
	}
	p.write(") {")
	p.indent++
	for _, stmt := range n.Body {
		p.writeln()
		p.writeIndent()
		p.PrintNode(stmt)
	}
	if n.Return != nil {
		p.writeln()
		p.writeIndent()
		p.write("return ")
		p.printExpr(n.Return, 0, false)
		p.write(";")
	}
	p.indent--
	p.writeln()
	p.writeIndent()
	p.write("}")
}

// printExpr prints an expression, adding parentheses only if needed
func (p *CodePrinter) printExpr(expr ast.Expression, parentPrec int, isRight bool) {
	switch e := expr.(type) {
	case *ast.BinaryExp:
		prec := getPrecedence(e.Operator)
		needParens := prec < parentPrec
		// For same precedence, check associativity
		if prec == parentPrec {
			if isRight && !rightAssoc[e.Operator] {
				needParens = true
			} else if !isRight && rightAssoc[e.Operator] {
				needParens = true
			}
		}
		if needParens {
			p.write("(")
		}
		p.printExpr(e.Left, prec, false)
		p.write(" " + e.Operator + " ")
		p.printExpr(e.Right, prec, true)
		if needParens {
			p.write(")")
		}
	case *ast.UnaryExp:
		p.write(e.Operator)
		p.printExpr(e.Operand, prefixPrecedence, false)
	case *ast.Number:
		p.write(numberLiteral(e))
	case *ast.String:
		s, _ := e.Value.AsString()
		p.write(quote(s))
	case *ast.Variable:
		p.write(e.Name)
	case *ast.CallExp:
		p.printCall(e)
	case *ast.TopLevelExp:
		p.printExpr(e.Expr, parentPrec, isRight)
	case nil:
		p.write("<???>")
	default:
		// Assignments only occur as statements.
		p.write("(")
		p.printStatement(e)
		p.write(")")
	}
}

// printCall keeps arguments on one line unless that overflows lineWidth,
// in which case each argument gets its own line.
func (p *CodePrinter) printCall(e *ast.CallExp) {
	flat := NewCodePrinterWithWidth(0)
	for i, arg := range e.Args {
		if i > 0 {
			flat.write(", ")
		}
		flat.printExpr(arg, 0, false)
	}
	args := flat.String()
	p.write(e.Callee + "(")
	if p.lineWidth == 0 || p.column+len(args)+1 <= p.lineWidth || len(e.Args) < 2 {
		p.write(args)
		p.write(")")
		return
	}
	p.indent++
	for i, arg := range e.Args {
		p.writeln()
		p.writeIndent()
		p.printExpr(arg, 0, false)
		if i < len(e.Args)-1 {
			p.write(",")
		}
	}
	p.indent--
	p.writeln()
	p.writeIndent()
	p.write(")")
}

// numberLiteral renders a literal that parses back to the same tag.
func numberLiteral(n *ast.Number) string {
	v := n.Value
	if v == nil {
		return n.Token.Lexeme
	}
	switch v.Tag() {
	case value.Char:
		return strconv.FormatInt(v.AsInt64(), 10) + "c"
	case value.Short:
		return strconv.FormatInt(v.AsInt64(), 10) + "s"
	case value.Int:
		return strconv.FormatInt(v.AsInt64(), 10) + "i"
	case value.Long:
		return strconv.FormatInt(v.AsInt64(), 10)
	case value.Float:
		return strconv.FormatFloat(v.AsFloat64(), 'g', -1, 32) + "f"
	case value.Double:
		s := strconv.FormatFloat(v.AsFloat64(), 'g', -1, 64)
		if !strings.ContainsAny(s, ".eEnN") {
			s += ".0"
		}
		return s
	}
	return v.String()
}

var escaper = strings.NewReplacer(`\`, `\\`, `"`, `\"`, "\n", `\n`, "\t", `\t`)

func quote(s string) string {
	return `"` + escaper.Replace(s) + `"`
}
