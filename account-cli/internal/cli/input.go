package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// GetSimpleText prints prompt to w and reads one trimmed line. A partial line
// before EOF is returned as is.
func GetSimpleText(reader *bufio.Reader, prompt string, w io.Writer) (string, error) {
	if _, err := fmt.Fprint(w, prompt+": "); err != nil {
		return "", err
	}
	line, err := reader.ReadString('\n')
	if err != nil {
		if errors.Is(err, io.EOF) && len(line) > 0 {
			return strings.TrimSpace(line), nil
		}
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// PasswordReader reads a secret after the prompt has been printed.
type PasswordReader func() ([]byte, error)

// TerminalPassword reads from the terminal without echo when stdin is a
// terminal and falls back to a plain line read otherwise.
func TerminalPassword(reader *bufio.Reader, w io.Writer) PasswordReader {
	return func() ([]byte, error) {
		fd := int(os.Stdin.Fd())
		if !term.IsTerminal(fd) {
			line, err := reader.ReadString('\n')
			if err != nil && !(errors.Is(err, io.EOF) && len(line) > 0) {
				return nil, err
			}
			return []byte(strings.TrimRight(line, "\r\n")), nil
		}
		pw, err := term.ReadPassword(fd)
		fmt.Fprintln(w)
		return pw, err
	}
}

func wipe(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
