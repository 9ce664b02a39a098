// Package input provides line-oriented readers for feeding raw text to the
// earleyctl REPL a line at a time.
package input

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/chzyer/readline"
)

// DirectLineReader implements LineReader and reads lines from any generic
// input stream directly. It can be used with any io.Reader but does not
// sanitize the input of control and escape sequences.
//
// DirectLineReader should not be used directly; instead, create one with
// [NewDirectReader].
type DirectLineReader struct {
	r             *bufio.Reader
	blanksAllowed bool
}

// InteractiveLineReader implements LineReader and reads lines from stdin
// using a Go implementation of the GNU Readline library. This keeps input
// clear of typing and editing escape sequences and enables line history. It
// should generally only be used when directly connected to a TTY.
//
// InteractiveLineReader should not be used directly; instead, create one
// with [NewInteractiveReader].
type InteractiveLineReader struct {
	rl            *readline.Instance
	blanksAllowed bool
	prompt        string
}

// NewDirectReader creates a new DirectLineReader with a buffered reader on r.
// The returned reader must have Close called on it before disposal.
func NewDirectReader(r io.Reader) *DirectLineReader {
	return &DirectLineReader{
		r: bufio.NewReader(r),
	}
}

// NewInteractiveReader creates a new InteractiveLineReader and initializes
// readline. The returned reader must have Close called on it before
// disposal to properly tear down readline resources.
func NewInteractiveReader() (*InteractiveLineReader, error) {
	rl, err := readline.NewEx(&readline.Config{
		Prompt: "bytes> ",
	})
	if err != nil {
		return nil, fmt.Errorf("create readline config: %w", err)
	}

	return &InteractiveLineReader{
		rl:     rl,
		prompt: "bytes> ",
	}, nil
}

// Close cleans up resources associated with the DirectLineReader. For now it
// does nothing, since DirectLineReader creates no resources of its own, but
// callers should treat it as though it must be closed.
func (dlr *DirectLineReader) Close() error {
	return nil
}

// Close cleans up readline resources associated with the InteractiveLineReader.
func (ilr *InteractiveLineReader) Close() error {
	return ilr.rl.Close()
}

// ReadLine reads the next line from the underlying stream. The returned
// string is only empty if there is an error reading input, otherwise this
// blocks until a line containing non-space characters is read (unless blank
// lines have been allowed with AllowBlank).
//
// At end of input, the returned string is empty and error is io.EOF. Any
// other error is returned as-is, with an empty string.
func (dlr *DirectLineReader) ReadLine() (string, error) {
	var line string
	var err error

	for line == "" {
		line, err = dlr.r.ReadString('\n')
		if err != nil && (err != io.EOF || line == "") {
			return "", err
		}

		line = strings.TrimSpace(line)

		if line == "" && dlr.blanksAllowed {
			return line, nil
		}
	}

	return line, nil
}

// ReadLine reads the next line from stdin via readline. Semantics match
// DirectLineReader.ReadLine.
func (ilr *InteractiveLineReader) ReadLine() (string, error) {
	var line string
	var err error

	for line == "" {
		line, err = ilr.rl.Readline()
		if err != nil && (err != io.EOF || line == "") {
			return "", err
		}

		line = strings.TrimSpace(line)

		if line == "" && ilr.blanksAllowed {
			return line, nil
		}
	}

	return line, nil
}

// AllowBlank sets whether blank lines are returned as-is rather than being
// skipped. By default blank lines are skipped.
func (dlr *DirectLineReader) AllowBlank(allow bool) {
	dlr.blanksAllowed = allow
}

// AllowBlank sets whether blank lines are returned as-is rather than being
// skipped. By default blank lines are skipped.
func (ilr *InteractiveLineReader) AllowBlank(allow bool) {
	ilr.blanksAllowed = allow
}

// SetPrompt updates the prompt text shown before each line.
func (ilr *InteractiveLineReader) SetPrompt(p string) {
	ilr.prompt = p
	ilr.rl.SetPrompt(p)
}

// GetPrompt returns the current prompt text.
func (ilr *InteractiveLineReader) GetPrompt() string {
	return ilr.prompt
}
