package uci

import (
	"bufio"
	"io"
	"os"
	"strings"

	"github.com/kestrelchess/engine/internal/engine"
)

// Drive chooses the protocol by peeking the first non-blank line from
// stdin: "uci" switches to UCI, "xboard" to Winboard/XBoard, anything else
// falls back to the interactive console REPL. The peeked line is replayed
// into whichever handler is chosen, so no input is lost.
func Drive(eng *engine.Engine) {
	scanner := bufio.NewScanner(os.Stdin)

	var first string
	for scanner.Scan() {
		first = scanner.Text()
		if first != "" {
			break
		}
	}

	switch strings.TrimSpace(first) {
	case "uci":
		u := New(eng)
		u.RunLine(first)
		u.Run(scanner2Reader(scanner))
	case "xboard":
		x := NewXBoard(eng)
		x.RunLine(first)
		x.Run(scanner2Reader(scanner))
	default:
		c := NewConsole(eng)
		if first != "" {
			c.RunLine(first)
		}
		c.Run(scanner2Reader(scanner))
	}
}

// scanner2Reader adapts an already-partially-consumed bufio.Scanner back
// into an io.Reader of its remaining lines, so the chosen protocol handler
// can keep reading from the same stdin stream with its own scanner.
func scanner2Reader(scanner *bufio.Scanner) *scannerReader {
	return &scannerReader{scanner: scanner}
}

type scannerReader struct {
	scanner *bufio.Scanner
	buf     []byte
}

func (r *scannerReader) Read(p []byte) (int, error) {
	for len(r.buf) == 0 {
		if !r.scanner.Scan() {
			if err := r.scanner.Err(); err != nil {
				return 0, err
			}
			return 0, io.EOF
		}
		r.buf = append(r.scanner.Bytes(), '\n')
	}
	n := copy(p, r.buf)
	r.buf = r.buf[n:]
	return n, nil
}
