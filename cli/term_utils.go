package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/ije/gox/term"
	xterm "golang.org/x/term"
)

func init() {
	// no colors when the output is piped
	if !xterm.IsTerminal(int(os.Stdout.Fd())) {
		os.Setenv("NO_COLOR", "1")
	}
}

func printError(err error) {
	fmt.Fprintln(os.Stderr, term.Red("[error]"), err.Error())
}

func printWarnings(warnings []string) {
	for _, warning := range warnings {
		fmt.Fprintln(os.Stderr, term.Yellow("[warn]"), warning)
	}
}

// warningTarget returns the path quoted with backticks in a warning.
func warningTarget(warning string) string {
	_, rest, ok := strings.Cut(warning, "`")
	if !ok {
		return ""
	}
	target, _, _ := strings.Cut(rest, "`")
	return target
}

// termConfirm asks a yes/no question, non-interactive sessions answer no.
func termConfirm(prompt string) (value bool) {
	if !xterm.IsTerminal(int(os.Stdin.Fd())) {
		return false
	}
	fmt.Print(term.Cyan("? "))
	fmt.Print(prompt + " ")
	fmt.Print(term.Dim("(y/N)"))
	defer func() {
		term.ClearLine()
		fmt.Print("\r")
	}()
	for {
		key, err := getRawInput()
		if err != nil {
			return false
		}
		switch key {
		case 3, 27: // Ctrl+C, Escape
			fmt.Print("\n")
			fmt.Print(term.Dim("Aborted."))
			fmt.Print("\n")
			os.Exit(0)
		case 13, 32: // Enter, Space
			return false
		case 'y':
			return true
		case 'n':
			return false
		}
	}
}

// Read raw input from the terminal.
func getRawInput() (byte, error) {
	oldState, err := xterm.MakeRaw(int(os.Stdin.Fd()))
	if err != nil {
		return 0, err
	}
	defer xterm.Restore(int(os.Stdin.Fd()), oldState)

	buf := make([]byte, 3)
	n, err := os.Stdin.Read(buf)
	if err != nil {
		return 0, err
	}

	// The third byte is the key specific value we are looking for.
	// See: https://en.wikipedia.org/wiki/ANSI_escape_code
	if n == 3 {
		return buf[2], nil
	}
	return buf[0], nil
}
