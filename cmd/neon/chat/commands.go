package chat

import "strings"

// CommandKind classifies a line of user input.
type CommandKind int

const (
	CommandEmpty CommandKind = iota
	CommandExit
	CommandQuery
)

// Command is a parsed input line.
type Command struct {
	Kind  CommandKind
	Query string
}

// exitWords end the session, compared case-insensitively after trimming.
var exitWords = []string{"exit", "quit"}

// ParseCommand classifies raw input.
func ParseCommand(line string) Command {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" {
		return Command{Kind: CommandEmpty}
	}
	for _, w := range exitWords {
		if strings.EqualFold(trimmed, w) {
			return Command{Kind: CommandExit}
		}
	}
	return Command{Kind: CommandQuery, Query: trimmed}
}
