package commands

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"unicode"

	"github.com/spf13/cobra"
)

// CommandSet builds a fresh copy of the commands available in a session
type CommandSet func(app *AppContext) []*cobra.Command

// InteractiveCmd creates the interactive command. With the memory store this is the only
// way to generate, edit, publish and export in one go, since state lives in the process.
func InteractiveCmd(app *AppContext, commands CommandSet) *cobra.Command {
	return &cobra.Command{
		Use:   "interactive",
		Short: "Start a session that keeps the store and Google login between commands",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Println("\n🚀 Starting interactive session...")
			fmt.Println("Type 'help' for available commands, 'exit' or 'quit' to leave")

			session := &session{app: app, commands: commands, out: os.Stdout}
			scanner := bufio.NewScanner(os.Stdin)
			for {
				fmt.Print("> ")
				if !scanner.Scan() {
					break
				}
				if session.run(scanner.Text()) {
					fmt.Println("👋 Goodbye!")
					return nil
				}
			}

			if err := scanner.Err(); err != nil {
				return fmt.Errorf("error reading input: %w", err)
			}
			return nil
		},
	}
}

type session struct {
	app      *AppContext
	commands CommandSet
	out      io.Writer
}

// run executes one line and reports whether the session should end
func (s *session) run(line string) bool {
	parts, err := parseCommandLine(strings.TrimSpace(line))
	if err != nil {
		fmt.Fprintf(s.out, "❌ Error parsing command: %v\n\n", err)
		return false
	}
	if len(parts) == 0 {
		return false
	}

	name, args := parts[0], parts[1:]
	switch name {
	case "exit", "quit":
		return true
	case "help":
		s.printHelp()
		return false
	}

	// Fresh commands per line, so flags from the previous line never leak
	var target *cobra.Command
	for _, c := range s.commands(s.app) {
		if c.Name() == name {
			target = c
			break
		}
	}
	if target == nil {
		fmt.Fprintf(s.out, "❌ Unknown command: %s (type 'help' for available commands)\n\n", name)
		return false
	}

	if err := target.ParseFlags(args); err != nil {
		fmt.Fprintf(s.out, "❌ Error parsing flags: %v\n\n", err)
		return false
	}
	args = target.Flags().Args()
	if target.Args != nil {
		if err := target.Args(target, args); err != nil {
			fmt.Fprintf(s.out, "❌ Error: %v\n\n", err)
			return false
		}
	}

	if err := target.RunE(target, args); err != nil {
		var exitErr *ExitError
		if errors.As(err, &exitErr) {
			fmt.Fprintf(s.out, "⚠️  %v\n\n", err)
		} else {
			fmt.Fprintf(s.out, "❌ Error: %v\n\n", err)
		}
	}
	return false
}

func (s *session) printHelp() {
	fmt.Fprintln(s.out, "\nAvailable commands:")

	cmds := s.commands(s.app)
	sort.Slice(cmds, func(i, j int) bool { return cmds[i].Name() < cmds[j].Name() })
	for _, c := range cmds {
		fmt.Fprintf(s.out, "  %-34s %s\n", c.Use, c.Short)
	}

	fmt.Fprintln(s.out, "\n  help                               Show this help message")
	fmt.Fprintln(s.out, "  exit, quit                         Exit the interactive session")
}

// parseCommandLine splits a command line into arguments, respecting single and double quotes
func parseCommandLine(line string) ([]string, error) {
	var args []string
	var current strings.Builder
	var inQuote rune

	for _, r := range line {
		switch {
		case inQuote != 0:
			if r == inQuote {
				inQuote = 0
			} else {
				current.WriteRune(r)
			}
		case r == '"' || r == '\'':
			inQuote = r
		case unicode.IsSpace(r):
			if current.Len() > 0 {
				args = append(args, current.String())
				current.Reset()
			}
		default:
			current.WriteRune(r)
		}
	}
	if inQuote != 0 {
		return nil, fmt.Errorf("unclosed quote: %c", inQuote)
	}

	if current.Len() > 0 {
		args = append(args, current.String())
	}
	return args, nil
}
