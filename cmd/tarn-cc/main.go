package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tarn-cc/tarn-cc/pkg/cabs"
	"github.com/tarn-cc/tarn-cc/pkg/diag"
	"github.com/tarn-cc/tarn-cc/pkg/lexer"
	"github.com/tarn-cc/tarn-cc/pkg/parser"
)

var version = "0.1.0"

// Debug flags for dumping front-end state
var (
	dTokens     bool
	dParse      bool
	dDirectives bool
	fDirectives string
)

func main() {
	os.Exit(run())
}

func run() int {
	rootCmd := newRootCmd(os.Stdout, os.Stderr)
	// Normalize compiler-style single-dash flags to double-dash for pflag compatibility
	rootCmd.SetArgs(normalizeFlags(os.Args[1:]))
	if err := rootCmd.Execute(); err != nil {
		return 1
	}
	return 0
}

// debugFlagNames lists the flags that accept single-dash spelling for
// compiler-driver compatibility.
var debugFlagNames = []string{"dtokens", "dparse", "ddirectives", "fdirectives"}

// normalizeFlags converts single-dash flags like -dparse to --dparse,
// including the -fdirectives=relaxed value form.
func normalizeFlags(args []string) []string {
	result := make([]string, len(args))
	for i, arg := range args {
		for _, flagName := range debugFlagNames {
			if arg == "-"+flagName {
				result[i] = "--" + flagName
				break
			}
			prefix := "-" + flagName + "="
			if len(arg) > len(prefix) && arg[:len(prefix)] == prefix {
				result[i] = "-" + arg
				break
			}
		}
		if result[i] == "" {
			result[i] = arg
		}
	}
	return result
}

func newRootCmd(out, errOut io.Writer) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "tarn-cc [file]",
		Short: "tarn-cc is a C front end for exercising parser behavior",
		Long: `tarn-cc parses C with GNU extensions and pragma-driven
directive syntax. It is built for inspecting front-end decisions:
token classification, declaration/expression disambiguation, error
recovery, and directive capture.`,
		Version:       version,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				cmd.Help()
				return nil
			}
			filename := args[0]

			if dTokens {
				return doTokens(filename, out, errOut)
			}
			if dDirectives {
				return doDirectives(filename, out, errOut)
			}
			if dParse {
				return doParse(filename, out, errOut)
			}

			fmt.Fprintf(errOut, "tarn-cc: parsing %s\n", filename)
			_, err := parseFile(filename, errOut)
			return err
		},
	}
	rootCmd.SetOut(out)
	rootCmd.SetErr(errOut)

	rootCmd.Flags().BoolVar(&dTokens, "dtokens", false, "Dump the token stream")
	rootCmd.Flags().BoolVar(&dParse, "dparse", false, "Dump the AST after parsing")
	rootCmd.Flags().BoolVar(&dDirectives, "ddirectives", false, "Dump captured directives")
	rootCmd.Flags().StringVar(&fDirectives, "fdirectives", "strict",
		"Directive dialect: strict or relaxed")

	return rootCmd
}

func dialectFromFlag(errOut io.Writer) (parser.Dialect, error) {
	switch fDirectives {
	case "strict":
		return parser.DialectStrict, nil
	case "relaxed":
		return parser.DialectRelaxed, nil
	}
	fmt.Fprintf(errOut, "tarn-cc: unknown directive dialect %q\n", fDirectives)
	return parser.DialectStrict, fmt.Errorf("unknown directive dialect %q", fDirectives)
}

// parseFile runs the parser over one file, printing diagnostics to
// errOut and failing when any error-severity diagnostic was produced.
func parseFile(filename string, errOut io.Writer) (*cabs.Program, error) {
	content, err := os.ReadFile(filename)
	if err != nil {
		fmt.Fprintf(errOut, "tarn-cc: %v\n", err)
		return nil, err
	}
	dialect, err := dialectFromFlag(errOut)
	if err != nil {
		return nil, err
	}

	collector := diag.NewCollector()
	p := parser.New(lexer.New(string(content)), collector)
	p.SetDialect(dialect)
	prog := p.ParseProgram()

	for _, d := range collector.All() {
		fmt.Fprintf(errOut, "%s: %s\n", filename, d)
	}
	if len(collector.Errors()) > 0 {
		return prog, fmt.Errorf("%d parse errors", len(collector.Errors()))
	}
	return prog, nil
}

// doTokens lexes the file and dumps one token per line
func doTokens(filename string, out, errOut io.Writer) error {
	content, err := os.ReadFile(filename)
	if err != nil {
		fmt.Fprintf(errOut, "tarn-cc: %v\n", err)
		return err
	}
	l := lexer.New(string(content))
	for {
		tok := l.NextToken()
		fmt.Fprintf(out, "%d:%d\t%s\t%q\n", tok.Pos.Line, tok.Pos.Column, tok.Type, tok.Literal)
		if tok.Type == lexer.TokenEOF {
			return nil
		}
	}
}

// doParse parses the file and prints the AST back as C, both to out and
// to a .parsed.c file next to the input
func doParse(filename string, out, errOut io.Writer) error {
	prog, err := parseFile(filename, errOut)
	if err != nil {
		return err
	}
	var buf strings.Builder
	cabs.NewPrinter(&buf).PrintProgram(prog)
	fmt.Fprint(out, buf.String())
	outFile := parsedOutputFilename(filename)
	if werr := os.WriteFile(outFile, []byte(buf.String()), 0644); werr != nil {
		fmt.Fprintf(errOut, "tarn-cc: %v\n", werr)
		return werr
	}
	return nil
}

// parsedOutputFilename maps input.c to input.parsed.c
func parsedOutputFilename(filename string) string {
	if strings.HasSuffix(filename, ".c") {
		return filename[:len(filename)-2] + ".parsed.c"
	}
	return filename + ".parsed.c"
}

// doDirectives parses the file and dumps every captured directive
func doDirectives(filename string, out, errOut io.Writer) error {
	prog, err := parseFile(filename, errOut)
	if prog == nil {
		return err
	}
	for _, decl := range prog.Decls {
		dumpDirectives(out, decl)
	}
	return err
}

func dumpDirectives(out io.Writer, node cabs.Node) {
	switch n := node.(type) {
	case cabs.PragmaStmt:
		printCapture(out, n.Capture)
		if n.Stmt != nil {
			dumpDirectives(out, n.Stmt)
		}
	case *cabs.Declaration:
		for _, c := range n.Directives {
			printCapture(out, c)
		}
	case cabs.DeclStmt:
		dumpDirectives(out, n.Decl)
	case *cabs.FunDef:
		dumpDirectives(out, *n.Body)
	case cabs.FunDef:
		dumpDirectives(out, *n.Body)
	case cabs.Block:
		for _, item := range n.Items {
			dumpDirectives(out, item)
		}
	case cabs.If:
		dumpDirectives(out, n.Then)
		if n.Else != nil {
			dumpDirectives(out, n.Else)
		}
	case cabs.While:
		dumpDirectives(out, n.Body)
	case cabs.DoWhile:
		dumpDirectives(out, n.Body)
	case cabs.For:
		dumpDirectives(out, n.Body)
	case cabs.Switch:
		dumpDirectives(out, n.Body)
	case cabs.CollapsedLoop:
		printCapture(out, n.Directive)
		fmt.Fprintf(out, "  collapse depth %d, %d levels\n", n.Depth, len(n.Levels))
		dumpDirectives(out, n.Body)
	}
}

func printCapture(out io.Writer, c *cabs.DirectiveCapture) {
	status := ""
	if c.Failed {
		status = " (failed)"
	}
	fmt.Fprintf(out, "line %d: %s %s%s:", c.Pos.Line, c.Kind, c.Name, status)
	for _, tok := range c.Tokens {
		fmt.Fprintf(out, " %s", tok.Literal)
	}
	fmt.Fprintln(out)
}
