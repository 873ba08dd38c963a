package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/dmitrijs2005/notekeeper/internal/client/validate"
)

// printlnFn is a test seam for user-facing output. In tests, replace it with a stub.
var printlnFn = fmt.Println

// command is one REPL verb.
type command struct {
	name    string
	aliases []string
	usage   string
	help    string
	// auth commands are only offered to a signed-in user.
	auth bool
	// minArgs is the least number of arguments the command accepts.
	minArgs int
	run     func(ctx context.Context, args []string) error
}

// runREPL starts a simple read-eval-print loop for the notekeeper CLI.
//
// It reads a line from reader, parses the first token as the command, and
// dispatches to the matching entry of cmds with the remaining tokens as
// arguments. Unknown commands are reported back to the user. The loop exits
// on EOF, when ctx ends, or when the user types "exit" or "quit".
//
// The prompt shows the current status (from statusFn). "help" lists the
// commands available in the current authentication state.
//
// Errors returned by handlers are printed and the loop carries on; failures
// of requests have already been toasted by the state holders.
func runREPL(ctx context.Context, cmds []command, loggedIn func() bool, statusFn func() string, reader *bufio.Reader) {
	index := make(map[string]command, len(cmds))
	for _, c := range cmds {
		index[c.name] = c
		for _, al := range c.aliases {
			index[al] = c
		}
	}

	for {
		if ctx.Err() != nil {
			return
		}
		printlnFn(fmt.Sprintf("notes %s> ", statusFn()))
		line, err := reader.ReadString('\n')
		if err != nil && line == "" {
			return
		}
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		name, args := parts[0], parts[1:]

		switch name {
		case "help":
			printlnFn(helpText(cmds, loggedIn()))
			continue
		case "exit", "quit":
			printlnFn("Bye!")
			return
		}

		c, ok := index[name]
		if !ok {
			printlnFn("Unknown command:", name)
			continue
		}
		if c.auth && !loggedIn() {
			printlnFn("Please log in first")
			continue
		}
		if len(args) < c.minArgs {
			printlnFn("Usage:", c.usage)
			continue
		}
		if err := c.run(ctx, args); err != nil {
			printError(err)
		}
	}
}

func helpText(cmds []command, loggedIn bool) string {
	var lines []string
	for _, c := range cmds {
		if c.auth != loggedIn {
			continue
		}
		lines = append(lines, fmt.Sprintf("  %-28s %s", c.usage, c.help))
	}
	lines = append(lines, fmt.Sprintf("  %-28s %s", "exit", "leave the program"))
	return "Available commands:\n" + strings.Join(lines, "\n")
}

// printError shows validation failures field by field.
func printError(err error) {
	var verr validate.Errors
	if errors.As(err, &verr) {
		fields := make([]string, 0, len(verr))
		for f := range verr {
			fields = append(fields, f)
		}
		sort.Strings(fields)
		for _, f := range fields {
			printlnFn(fmt.Sprintf("  %s: %s", f, verr[f]))
		}
		return
	}
	printlnFn("Error:", err)
}
