package repl

import (
	"sort"
	"strings"
)

// Completer suggests command paths for a typed prefix.
type Completer struct {
	commands []string
}

// NewCompleter creates a Completer over command paths such as
// "child list". Builtins are added.
func NewCompleter(commands ...string) *Completer {
	seen := make(map[string]bool)
	all := make([]string, 0, len(commands)+len(builtins))
	for _, cmd := range append(commands, builtins...) {
		if cmd != "" && !seen[cmd] {
			seen[cmd] = true
			all = append(all, cmd)
		}
	}
	sort.Strings(all)
	return &Completer{commands: all}
}

// Complete returns completion suggestions for the given prefix. An empty
// prefix suggests nothing.
func (c *Completer) Complete(prefix string) []string {
	prefix = strings.TrimLeft(prefix, " \t")
	if prefix == "" {
		return nil
	}
	var suggestions []string
	for _, cmd := range c.commands {
		if strings.HasPrefix(cmd, prefix) {
			suggestions = append(suggestions, cmd)
		}
	}
	return suggestions
}
