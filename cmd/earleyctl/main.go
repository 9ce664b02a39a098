/*
Earleyctl starts an interactive byte-feeding session against one of the
built-in demo grammars.

Usage:

	earleyctl [flags]
	earleyctl -g list

Once started, earleyctl reads lines from stdin and feeds their bytes (plus a
trailing newline) to the parser one byte at a time, printing whether the
grammar still accepts, what bytes are legal to send next, and any named
captures. Type QUIT to exit, HELP for in-session help.

The flags are:

	-v, --version
		Give the current version of earleyctl and then exit.

	-g, --grammar NAME
		Use the named built-in grammar. Pass "list" to print the available
		grammars and exit. Defaults to "parens".

	-d, --direct
		Force reading directly from stdin instead of using readline-based
		line editing, even when attached to a real terminal.

	-c, --command TEXT
		Feed the given text immediately at startup, before reading any
		further lines.

	-f, --config PATH
		Load default flag values from the TOML config file at PATH. Flags
		given on the command line still take precedence over anything set
		in the file. If not given, defaults to the value of environment
		variable EARLEYCTL_CONFIG.
*/
package main

import (
	"fmt"
	"os"

	"github.com/dekarrin/earley/internal/earley"
	"github.com/dekarrin/earley/internal/version"
	"github.com/spf13/pflag"
)

const (
	exitSuccess = iota
	exitUsageError
	exitInitError
	exitRunError
)

const EnvConfig = "EARLEYCTL_CONFIG"

var (
	flagVersion = pflag.BoolP("version", "v", false, "Give the current version of earleyctl and then exit.")
	flagGrammar = pflag.StringP("grammar", "g", "parens", `Use the named built-in grammar, or "list" to list them.`)
	flagDirect  = pflag.BoolP("direct", "d", false, "Force reading directly from stdin instead of using readline.")
	flagCommand = pflag.StringP("command", "c", "", "Feed the given text immediately at startup.")
	flagConfig  = pflag.StringP("config", "f", "", "Load default flag values from the TOML config file at this path.")
)

func main() {
	os.Exit(run())
}

func run() int {
	pflag.Parse()

	if *flagVersion {
		fmt.Printf("earleyctl (earley v%s)\n", version.Current)
		return exitSuccess
	}

	cfg, err := resolveConfigFile()
	if err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: %s\n", err.Error())
		return exitUsageError
	}
	applyConfigDefaults(cfg)

	if *flagGrammar == "list" {
		for _, g := range builtinGrammars {
			fmt.Printf("%-10s %s\n", g.name, g.desc)
		}
		return exitSuccess
	}

	if len(pflag.Args()) > 0 {
		fmt.Fprintf(os.Stderr, "Too many arguments\nDo -h for help.\n")
		return exitUsageError
	}

	bg, err := findBuiltinGrammar(*flagGrammar)
	if err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: %s\n", err.Error())
		return exitUsageError
	}

	g, lx := bg.build()
	p, err := earley.New(g, lx, earley.Options{})
	if err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: could not construct parser: %s\n", err.Error())
		return exitInitError
	}

	eng, err := newEngine(p, os.Stdin, os.Stdout, *flagDirect)
	if err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: %s\n", err.Error())
		return exitInitError
	}
	defer eng.Close()

	if *flagCommand != "" {
		if err := eng.feed([]byte(*flagCommand)); err != nil {
			fmt.Fprintf(os.Stderr, "ERROR: %s\n", err.Error())
			return exitRunError
		}
		if err := eng.printStatus(); err != nil {
			fmt.Fprintf(os.Stderr, "ERROR: %s\n", err.Error())
			return exitRunError
		}
	}

	if err := eng.RunUntilQuit(); err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: %s\n", err.Error())
		return exitRunError
	}

	return exitSuccess
}
