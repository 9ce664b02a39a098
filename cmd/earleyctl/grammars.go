package main

import (
	"fmt"

	"github.com/dekarrin/earley/internal/earley/grammar"
	"github.com/dekarrin/earley/internal/earley/lexer"
)

// builtinGrammar is one demo grammar+lexer pair the REPL can open a parser
// against, named for selection on the command line.
type builtinGrammar struct {
	name string
	desc string
	// build constructs a fresh Grammar/Lexer pair. It is a func rather than
	// a pre-built value since grammar.Builder/lexer.Builder instances are
	// one-shot and must not be reused across sessions.
	build func() (*grammar.Grammar, lexer.Lexer)
}

var builtinGrammars = []builtinGrammar{
	{
		name:  "parens",
		desc:  "balanced parentheses: ( ( ( ) ) )",
		build: buildParensGrammar,
	},
	{
		name:  "digits",
		desc:  "one or more ASCII digits, captured as \"num\"",
		build: buildDigitsGrammar,
	},
	{
		name:  "greeting",
		desc:  `the literal phrase "hello" followed by "world" or "there"`,
		build: buildGreetingGrammar,
	},
	{
		name:  "nested",
		desc:  `"NAME=" followed by a nested-grammar value (try GENGRAMMAR)`,
		build: buildNestedGrammar,
	},
}

func findBuiltinGrammar(name string) (builtinGrammar, error) {
	for _, g := range builtinGrammars {
		if g.name == name {
			return g, nil
		}
	}
	return builtinGrammar{}, fmt.Errorf("no builtin grammar named %q (try -g list)", name)
}

// buildParensGrammar builds S -> ( S ) S | <empty>.
func buildParensGrammar() (*grammar.Grammar, lexer.Lexer) {
	lb := lexer.NewBuilder()
	const (
		lexOpen lexer.LexemeIdx = iota + 1
		lexClose
	)
	lb.Literal(lexOpen, "OPEN", []byte("("))
	lb.Literal(lexClose, "CLOSE", []byte(")"))
	lx := lb.Build()

	gb := grammar.NewBuilder(lx.Spec())
	s := gb.Nonterminal("S", grammar.Props{})
	open := gb.Terminal("(", lexOpen, grammar.Props{})
	closeSym := gb.Terminal(")", lexClose, grammar.Props{})

	gb.SetStart(s)
	gb.AddRule(s, []grammar.SymIdx{open, s, closeSym, s}, grammar.Flags{})
	gb.AddRule(s, nil, grammar.Flags{})

	return gb.Build(), lx
}

// buildDigitsGrammar builds S -> digits, with the matched run captured under
// the name "num".
func buildDigitsGrammar() (*grammar.Grammar, lexer.Lexer) {
	lb := lexer.NewBuilder()
	const lexDigits lexer.LexemeIdx = 1
	lb.ByteClass(lexDigits, "DIGITS", isASCIIDigit, 1)
	lx := lb.Build()

	gb := grammar.NewBuilder(lx.Spec())
	s := gb.Nonterminal("S", grammar.Props{})
	digits := gb.Terminal("digits", lexDigits, grammar.Props{CaptureName: "num"})

	gb.SetStart(s)
	gb.AddRule(s, []grammar.SymIdx{digits}, grammar.Flags{Capture: true})

	return gb.Build(), lx
}

func isASCIIDigit(b byte) bool {
	return b >= '0' && b <= '9'
}

// buildGreetingGrammar builds S -> "hello" (" world" | " there").
func buildGreetingGrammar() (*grammar.Grammar, lexer.Lexer) {
	lb := lexer.NewBuilder()
	const (
		lexHello lexer.LexemeIdx = iota + 1
		lexWorld
		lexThere
	)
	lb.Literal(lexHello, "HELLO", []byte("hello"))
	lb.Literal(lexWorld, "WORLD", []byte(" world"))
	lb.Literal(lexThere, "THERE", []byte(" there"))
	lx := lb.Build()

	gb := grammar.NewBuilder(lx.Spec())
	s := gb.Nonterminal("S", grammar.Props{})
	hello := gb.Terminal("hello", lexHello, grammar.Props{})
	world := gb.Terminal("world", lexWorld, grammar.Props{})
	there := gb.Terminal("there", lexThere, grammar.Props{})

	gb.SetStart(s)
	gb.AddRule(s, []grammar.SymIdx{hello, world}, grammar.Flags{})
	gb.AddRule(s, []grammar.SymIdx{hello, there}, grammar.Flags{})

	return gb.Build(), lx
}

// buildNestedGrammar builds S -> "NAME=" <value>, where <value> is a
// GenGrammarSymbol: its production is resolved outside the core entirely,
// by a caller (HTTPGetGenGrammar/HTTPScanGenGrammar over HTTP, or the
// GENGRAMMAR REPL command here) splicing in an externally-produced match
// via ScanGenGrammar rather than any rule of this grammar.
func buildNestedGrammar() (*grammar.Grammar, lexer.Lexer) {
	lb := lexer.NewBuilder()
	const lexPrefix lexer.LexemeIdx = 1
	lb.Literal(lexPrefix, "NAME_PREFIX", []byte("NAME="))
	lx := lb.Build()

	gb := grammar.NewBuilder(lx.Spec())
	s := gb.Nonterminal("S", grammar.Props{})
	prefix := gb.Terminal("name_prefix", lexPrefix, grammar.Props{})
	value := gb.GenGrammarSymbol("value", grammar.GenGrammarRef{Name: "name"}, grammar.Props{})

	gb.SetStart(s)
	gb.AddRule(s, []grammar.SymIdx{prefix, value}, grammar.Flags{})

	return gb.Build(), lx
}
