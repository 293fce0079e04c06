// Package main provides the abacus command-line calculator.
//
// Usage:
//
//	abacus eval "<keys>"      - Press keys on a cleared calculator and print the display
//	abacus repl               - Interactive calculator, one line of keys at a time
//	abacus keypad             - Show the keypad layout
//	abacus version            - Show version
package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/ternarybob/abacus"
	"github.com/ternarybob/abacus/pkg/calc"
	"github.com/ternarybob/abacus/pkg/keypad"
)

// version is set via -ldflags at build time
var version = "dev"

func main() {
	if len(os.Args) < 2 {
		printUsage(os.Stderr)
		os.Exit(1)
	}

	cmd := os.Args[1]
	args := os.Args[2:]

	var err error
	switch cmd {
	case "eval", "e":
		err = cmdEval(os.Stdout, args)
	case "repl":
		err = cmdREPL(os.Stdin, os.Stdout)
	case "keypad":
		cmdKeypad(os.Stdout)
	case "version", "-v", "--version":
		fmt.Printf("abacus version %s\n", version)
	case "help", "-h", "--help":
		printUsage(os.Stdout)
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n", cmd)
		printUsage(os.Stderr)
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, `abacus - Four-function calculator with exact decimal arithmetic

Usage:
  abacus <command> [arguments]

Commands:
  eval <keys>   Press keys on a cleared calculator and print the display
  repl          Interactive calculator (state carries across lines)
  keypad        Show the keypad layout
  version       Show version information
  help          Show this help

Keys:
  0-9 .  digits and decimal point
  + - × ÷ =     operators (* x / also accepted)
  %             percent of the active number
  neg +/-       sign flip
  ac c clear    all clear

Examples:
  abacus eval "0.1 + 0.2 ="       prints 0.3
  abacus eval "2 ÷ 3 ="           prints 0.666666666666666
  abacus eval 5 neg x 4 =         arguments are joined`)
}

// cmdEval joins args into one key sequence and prints the display.
func cmdEval(w io.Writer, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: abacus eval \"<keys>\"")
	}

	display, err := abacus.Evaluate(strings.Join(args, " "))
	if err != nil {
		return err
	}
	fmt.Fprintln(w, display)
	return nil
}

// cmdREPL reads key sequences line by line and prints the display after
// each. State carries across lines until "ac" or "quit".
func cmdREPL(r io.Reader, w io.Writer) error {
	state := calc.Initial()
	scanner := bufio.NewScanner(r)

	fmt.Fprintln(w, "abacus - type keys, 'keypad' for help, 'quit' to exit")
	for {
		fmt.Fprint(w, "> ")
		if !scanner.Scan() {
			fmt.Fprintln(w)
			return scanner.Err()
		}

		line := strings.TrimSpace(scanner.Text())
		switch strings.ToLower(line) {
		case "":
			continue
		case "quit", "exit", "q":
			return nil
		case "keypad", "help", "?":
			cmdKeypad(w)
			continue
		}

		next, err := abacus.Run(state, line)
		if err != nil {
			fmt.Fprintf(w, "error: %v\n", err)
			continue
		}
		state = next
		fmt.Fprintln(w, calc.Display(state))
	}
}

func cmdKeypad(w io.Writer) {
	fmt.Fprint(w, keypad.Text(keypad.Layout()))
}
