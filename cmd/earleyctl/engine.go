package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/dekarrin/earley/internal/earley"
	"github.com/dekarrin/earley/internal/earley/tokens"
	"github.com/dekarrin/earley/internal/input"
	"github.com/dekarrin/rosed"
	"golang.org/x/text/width"
)

// hasFoldPrefix reports whether s starts with prefix, ignoring case.
func hasFoldPrefix(s, prefix string) bool {
	return len(s) >= len(prefix) && strings.EqualFold(s[:len(prefix)], prefix)
}

const consoleOutputWidth = 80

// lineReader is the common surface DirectLineReader and InteractiveLineReader
// provide.
type lineReader interface {
	ReadLine() (string, error)
	AllowBlank(bool)
	Close() error
}

// engine drives one Parser instance from an interactive shell: every line
// typed is fed byte-by-byte as single-byte tokens, and the engine reports
// back whether the grammar still accepts, what it forces next, and any
// captures accumulated so far.
type engine struct {
	parser      *earley.Parser
	trie        *tokens.TokTrie
	in          lineReader
	out         *bufio.Writer
	forceDirect bool
	running     bool
}

// newEngine opens a parser for g/lx and wires up line input, using readline
// when attached to a real terminal and a direct reader otherwise.
func newEngine(p *earley.Parser, inputStream io.Reader, outputStream io.Writer, forceDirectInput bool) (*engine, error) {
	if inputStream == nil {
		inputStream = os.Stdin
	}
	if outputStream == nil {
		outputStream = os.Stdout
	}

	eng := &engine{
		parser:      p,
		trie:        tokens.NewByteVocab(),
		out:         bufio.NewWriter(outputStream),
		forceDirect: forceDirectInput,
	}

	useReadline := !forceDirectInput && inputStream == os.Stdin && outputStream == os.Stdout
	if useReadline {
		ilr, err := input.NewInteractiveReader()
		if err != nil {
			return nil, fmt.Errorf("initializing interactive-mode input reader: %w", err)
		}
		eng.in = ilr
	} else {
		eng.in = input.NewDirectReader(inputStream)
	}

	return eng, nil
}

// Close tears down the line reader. It is an error to Close a running
// engine.
func (eng *engine) Close() error {
	if eng.running {
		return fmt.Errorf("cannot close a running engine")
	}
	return eng.in.Close()
}

func (eng *engine) writeLine(format string, args ...interface{}) error {
	s := fmt.Sprintf(format, args...) + "\n"
	if _, err := eng.out.WriteString(s); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	return eng.out.Flush()
}

// RunUntilQuit reads lines until QUIT is typed or input is exhausted,
// feeding every other line's bytes (plus the trailing newline) to the
// parser and reporting status after each.
func (eng *engine) RunUntilQuit() error {
	intro := "earleyctl byte REPL\n"
	if eng.forceDirect {
		intro += "(direct input mode)\n"
	}
	intro += "===========================\n"
	intro += "type bytes to feed them to the parser; QUIT to exit, HELP for help\n"
	if err := eng.writeLine("%s", intro); err != nil {
		return err
	}

	eng.running = true
	defer func() { eng.running = false }()

	for eng.running {
		eng.in.AllowBlank(false)
		line, err := eng.in.ReadLine()
		if err != nil {
			if err == io.EOF {
				return nil
			}
			return fmt.Errorf("read line: %w", err)
		}

		trimmed := strings.TrimSpace(line)
		switch {
		case strings.EqualFold(trimmed, "QUIT"):
			eng.running = false
			continue
		case strings.EqualFold(trimmed, "HELP"):
			if err := eng.printHelp(); err != nil {
				return err
			}
			continue
		case strings.EqualFold(trimmed, "CAPTURES"):
			if err := eng.printCaptures(); err != nil {
				return err
			}
			continue
		case strings.EqualFold(trimmed, "GENGRAMMAR"), hasFoldPrefix(trimmed, "GENGRAMMAR "):
			arg := strings.TrimSpace(trimmed[len("GENGRAMMAR"):])
			if err := eng.handleGenGrammar(arg); err != nil {
				return err
			}
			continue
		}

		if err := eng.feed([]byte(line + "\n")); err != nil {
			return err
		}
		if err := eng.printStatus(); err != nil {
			return err
		}
	}

	return nil
}

// feed applies one token per byte of b to the parser.
func (eng *engine) feed(b []byte) error {
	toks := make([]earley.Token, len(b))
	for i := range b {
		toks[i] = earley.Token(b[i : i+1])
	}

	if err := eng.parser.ApplyTokens(eng.trie, toks, 0); err != nil {
		return eng.writeLine("REJECTED: %s", err.Error())
	}
	return nil
}

func (eng *engine) printStatus() error {
	bias := eng.parser.ComputeBias(eng.trie, nil)
	accepting := bias.Get(eng.trie.EOSTokenID())

	var forced strings.Builder
	for _, id := range bias.Bits() {
		if id == eng.trie.EOSTokenID() {
			forced.WriteString("<EOS>")
			continue
		}
		forced.WriteByte(byte(id))
	}

	msg := fmt.Sprintf("bytes fed: %d | accepting: %v | legal next: %q", len(eng.parser.GetBytes()), accepting, forced.String())
	return eng.writeLine("%s", rosed.Edit(msg).Wrap(consoleOutputWidth).String())
}

// displayWidth is the printed column width of s, counting East Asian
// wide/fullwidth runes as two cells; captured text can be arbitrary UTF-8,
// so a naive len(s)-based pad misaligns those columns.
func displayWidth(s string) int {
	w := 0
	for _, r := range s {
		switch width.LookupRune(r).Kind() {
		case width.EastAsianWide, width.EastAsianFullwidth:
			w += 2
		default:
			w++
		}
	}
	return w
}

func (eng *engine) printCaptures() error {
	captures := eng.parser.Captures()
	if len(captures) == 0 {
		return eng.writeLine("(no captures yet)")
	}

	nameCol := len("NAME")
	for _, c := range captures {
		if w := displayWidth(c.Name); w > nameCol {
			nameCol = w
		}
	}

	if err := eng.writeLine("%-*s  BYTES", nameCol, "NAME"); err != nil {
		return err
	}
	for _, c := range captures {
		pad := strings.Repeat(" ", nameCol-displayWidth(c.Name))
		if err := eng.writeLine("%s%s  %q", c.Name, pad, string(c.Bytes)); err != nil {
			return err
		}
	}
	return nil
}

// handleGenGrammar reports or resolves the current row's pending
// nested-grammar prediction. With no argument it just reports which
// nested grammar (if any) is predicted; with one, it splices arg's bytes
// in as that nested grammar's completed match via ScanGenGrammar.
func (eng *engine) handleGenGrammar(arg string) error {
	sym, ref, ok := eng.parser.PendingGenGrammar()
	if !ok {
		return eng.writeLine("(no unambiguous nested-grammar prediction pending)")
	}

	if arg == "" {
		return eng.writeLine("pending nested grammar %q (sym %d); GENGRAMMAR <text> to resolve it", ref.Name, sym)
	}

	if _, err := eng.parser.ScanGenGrammar(sym, []byte(arg)); err != nil {
		return eng.writeLine("REJECTED: %s", err.Error())
	}
	return eng.printStatus()
}

func (eng *engine) printHelp() error {
	help := "Type any text to feed it (plus a trailing newline) to the parser byte by " +
		"byte. QUIT exits. CAPTURES shows named captures accumulated so far. " +
		"GENGRAMMAR reports a pending nested-grammar prediction; GENGRAMMAR " +
		"<text> resolves it by splicing text in as that grammar's match."
	return eng.writeLine("%s", rosed.Edit(help).Wrap(consoleOutputWidth).String())
}
