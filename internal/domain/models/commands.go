package models

import "strings"

// CommandType enumerates the commands staff can send over WhatsApp.
type CommandType string

const (
	CommandBatch   CommandType = "lote"
	CommandBatches CommandType = "lotes"
	CommandHelp    CommandType = "ajuda"
	CommandUnknown CommandType = "unknown"
)

// Command represents a parsed staff instruction extracted from WhatsApp text.
type Command struct {
	Type CommandType
	Raw  string
	Args []string
}

// ParseCommand derives a Command from a free-form text message. Only the
// command word is case-insensitive; arguments keep their original case since
// batch codes are matched exactly.
func ParseCommand(message string) Command {
	cmd := Command{Raw: message}

	tokens := strings.Fields(message)
	if len(tokens) == 0 {
		cmd.Type = CommandUnknown
		return cmd
	}

	head := strings.ToLower(strings.TrimPrefix(tokens[0], "/"))
	switch CommandType(head) {
	case CommandBatch, CommandBatches, CommandHelp:
		cmd.Type = CommandType(head)
	case "help":
		cmd.Type = CommandHelp
	default:
		cmd.Type = CommandUnknown
	}

	if len(tokens) > 1 {
		cmd.Args = tokens[1:]
	}

	return cmd
}
