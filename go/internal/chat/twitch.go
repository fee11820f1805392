package chat

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

// DefaultTwitchURL is Twitch's IRC-over-WebSocket endpoint.
const DefaultTwitchURL = "wss://irc-ws.chat.twitch.tv:443"

const writeTimeout = 10 * time.Second

// TwitchConfig configures the anonymous read-only Twitch provider.
type TwitchConfig struct {
	ServerURL string
	Channel   string
	// Nick overrides the generated justinfan nick; used in tests.
	Nick string
}

// TwitchProvider reads a Twitch channel's chat anonymously. Anonymous
// justinfan sessions need no token and cannot send messages.
type TwitchProvider struct {
	cfg      TwitchConfig
	conn     *websocket.Conn
	messages chan Message
}

// NewTwitchProvider creates a provider; Connect must be called before Run.
func NewTwitchProvider(cfg TwitchConfig) *TwitchProvider {
	if cfg.ServerURL == "" {
		cfg.ServerURL = DefaultTwitchURL
	}
	if cfg.Nick == "" {
		cfg.Nick = fmt.Sprintf("justinfan%d", rand.Intn(1_000_000))
	}
	return &TwitchProvider{
		cfg:      cfg,
		messages: make(chan Message, 256),
	}
}

// Connect dials the server, performs the anonymous handshake and joins the
// configured channel.
func (p *TwitchProvider) Connect(ctx context.Context) error {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, p.cfg.ServerURL, nil)
	if err != nil {
		return fmt.Errorf("dial twitch irc: %w", err)
	}
	p.conn = conn

	// Tags carry the stable user-id; logins can be renamed.
	for _, cmd := range []string{
		"CAP REQ :twitch.tv/tags twitch.tv/commands",
		"NICK " + p.cfg.Nick,
		"JOIN #" + strings.TrimPrefix(p.cfg.Channel, "#"),
	} {
		if err := p.write(cmd); err != nil {
			conn.Close()
			return err
		}
	}

	log.Info().
		Str("nick", p.cfg.Nick).
		Str("channel", p.cfg.Channel).
		Msg("connected to twitch irc")
	return nil
}

// Messages returns the stream of parsed chat messages.
func (p *TwitchProvider) Messages() <-chan Message {
	return p.messages
}

// Run reads frames until the context is cancelled or the connection drops.
// PINGs are answered inline; PRIVMSG lines are parsed onto the message
// channel.
func (p *TwitchProvider) Run(ctx context.Context) error {
	defer close(p.messages)

	for {
		_, data, err := p.conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("read twitch irc: %w", err)
		}
		for _, line := range strings.Split(string(data), "\r\n") {
			line = strings.TrimSpace(line)
			if line == "" {
				continue
			}
			if strings.HasPrefix(line, "PING") {
				if err := p.write(strings.Replace(line, "PING", "PONG", 1)); err != nil {
					return err
				}
				continue
			}
			msg, ok := parseLine(line)
			if !ok {
				log.Trace().Str("line", line).Msg("irc line ignored")
				continue
			}
			select {
			case p.messages <- msg:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}
}

// Close tears down the connection; a running Run loop returns afterwards.
func (p *TwitchProvider) Close() error {
	if p.conn == nil {
		return nil
	}
	return p.conn.Close()
}

func (p *TwitchProvider) write(cmd string) error {
	p.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	if err := p.conn.WriteMessage(websocket.TextMessage, []byte(cmd+"\r\n")); err != nil {
		return fmt.Errorf("write %q: %w", strings.Fields(cmd)[0], err)
	}
	return nil
}

// parseLine extracts a Message from a PRIVMSG line, with or without a
// leading tags section:
//
//	@badges=;user-id=123 :login!login@login.tmi.twitch.tv PRIVMSG #chan :text
func parseLine(line string) (Message, bool) {
	var msg Message

	if strings.HasPrefix(line, "@") {
		tags, rest, ok := strings.Cut(line[1:], " ")
		if !ok {
			return Message{}, false
		}
		for _, tag := range strings.Split(tags, ";") {
			if key, value, ok := strings.Cut(tag, "="); ok && key == "user-id" && value != "" {
				msg.UserID = value
			}
		}
		line = rest
	}

	rest, ok := strings.CutPrefix(line, ":")
	if !ok {
		return Message{}, false
	}
	login, rest, ok := strings.Cut(rest, "!")
	if !ok {
		return Message{}, false
	}
	msg.Login = login

	_, rest, ok = strings.Cut(rest, " PRIVMSG ")
	if !ok {
		return Message{}, false
	}
	channel, text, ok := strings.Cut(rest, " :")
	if !ok {
		return Message{}, false
	}
	msg.Channel = channel
	msg.Text = text
	return msg, true
}

// ParticipantID returns the identity used for consensus and votes: the
// stable user-id when tags provided one, the login otherwise.
func (m Message) ParticipantID() string {
	if m.UserID != "" {
		return m.UserID
	}
	return m.Login
}
