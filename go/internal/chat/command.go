// Package chat turns raw chat messages into game commands and provides the
// Twitch provider that produces them.
package chat

import "strings"

// Message is one chat line from a provider.
type Message struct {
	Login   string
	UserID  string
	Channel string
	Text    string
}

// CommandKind classifies a parsed chat message.
type CommandKind int

const (
	CommandUnknown CommandKind = iota
	CommandAnswer
	CommandUseCard
	CommandBuy
)

// Command is the game-relevant content of a chat message.
type Command struct {
	Kind  CommandKind
	// Choice is the option letter for CommandAnswer.
	Choice string
	// CardQuery is the free-form card name for CommandUseCard and
	// CommandBuy.
	CardQuery string
}

// ParseCommand interprets a chat line. A single letter is an answer, "use
// <name>" is a card vote, "buy <name>" is a store purchase, anything else is
// ignored.
func ParseCommand(text string) Command {
	msg := strings.ToLower(strings.TrimSpace(text))

	if len(msg) == 1 && msg[0] >= 'a' && msg[0] <= 'z' {
		return Command{Kind: CommandAnswer, Choice: msg}
	}

	if name, ok := strings.CutPrefix(msg, "use "); ok {
		name = strings.TrimSpace(name)
		if name != "" {
			return Command{Kind: CommandUseCard, CardQuery: name}
		}
	}

	if name, ok := strings.CutPrefix(msg, "buy "); ok {
		name = strings.TrimSpace(name)
		if name != "" {
			return Command{Kind: CommandBuy, CardQuery: name}
		}
	}

	return Command{Kind: CommandUnknown}
}
