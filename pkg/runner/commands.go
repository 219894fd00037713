package runner

import (
	"errors"
	"fmt"
	"strings"
)

// CommandKind identifies what a line of input asks for.
type CommandKind string

const (
	CommandNext     CommandKind = "next"
	CommandPrevious CommandKind = "previous"
	CommandAnswer   CommandKind = "answer"
	CommandSave     CommandKind = "save"
	CommandReload   CommandKind = "reload"
	CommandCancel   CommandKind = "cancel"
	CommandComplete CommandKind = "complete"
	CommandQuit     CommandKind = "quit"
	CommandHelp     CommandKind = "help"
)

// ErrUnknownCommand is returned for input that matches no command.
var ErrUnknownCommand = errors.New("unknown command")

// Command is one parsed line of input.
type Command struct {
	Kind  CommandKind `json:"command" mapstructure:"command"`
	Name  string      `json:"name,omitempty" mapstructure:"name"`
	Value string      `json:"value,omitempty" mapstructure:"value"`
}

// Help lists the accepted commands.
const Help = `commands:
  n, next              go to the next step (enter does the same)
  p, prev              go back one step
  name=value           answer a prompt
  answer name value    answer a prompt
  s, save              write answers into the document
  r, reload            re-read the document
  cancel               close the session and clean the document
  done, complete       finish on the last step
  q, quit              leave; the session stays open`

var aliases = map[string]CommandKind{
	"":         CommandNext,
	"n":        CommandNext,
	"next":     CommandNext,
	"p":        CommandPrevious,
	"prev":     CommandPrevious,
	"previous": CommandPrevious,
	"s":        CommandSave,
	"save":     CommandSave,
	"r":        CommandReload,
	"reload":   CommandReload,
	"cancel":   CommandCancel,
	"done":     CommandComplete,
	"complete": CommandComplete,
	"q":        CommandQuit,
	"quit":     CommandQuit,
	"exit":     CommandQuit,
	"h":        CommandHelp,
	"help":     CommandHelp,
	"?":        CommandHelp,
}

// ParseCommand reads one line of input.
func ParseCommand(input string) (Command, error) {
	text := strings.TrimSpace(input)
	if kind, ok := aliases[strings.ToLower(text)]; ok {
		return Command{Kind: kind}, nil
	}

	if rest, ok := strings.CutPrefix(text, "answer "); ok {
		name, value, _ := strings.Cut(strings.TrimSpace(rest), " ")
		if name == "" {
			return Command{}, fmt.Errorf("%w: answer needs a prompt name", ErrUnknownCommand)
		}
		return Command{Kind: CommandAnswer, Name: name, Value: strings.TrimSpace(value)}, nil
	}

	if name, value, ok := strings.Cut(text, "="); ok {
		name = strings.TrimSpace(name)
		if name != "" && !strings.ContainsAny(name, " \t") {
			return Command{Kind: CommandAnswer, Name: name, Value: strings.TrimSpace(value)}, nil
		}
	}

	return Command{}, fmt.Errorf("%w: %q", ErrUnknownCommand, text)
}

// String renders the command back into input form.
func (c Command) String() string {
	if c.Kind == CommandAnswer {
		return c.Name + "=" + c.Value
	}
	return string(c.Kind)
}
