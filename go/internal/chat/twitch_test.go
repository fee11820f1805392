package chat

import "testing"

func TestParseLineSimple(t *testing.T) {
	line := ":testuser!testuser@testuser.tmi.twitch.tv PRIVMSG #testchannel :hello world"
	msg, ok := parseLine(line)
	if !ok {
		t.Fatal("expected a parsed message")
	}
	if msg.Login != "testuser" || msg.Channel != "#testchannel" || msg.Text != "hello world" {
		t.Fatalf("parseLine = %+v", msg)
	}
	if msg.UserID != "" {
		t.Fatalf("UserID = %q, want empty without tags", msg.UserID)
	}
	if msg.ParticipantID() != "testuser" {
		t.Fatalf("ParticipantID = %q, want login fallback", msg.ParticipantID())
	}
}

func TestParseLineWithTags(t *testing.T) {
	line := "@badge-info=;badges=;color=#FF0000;user-id=12345;turbo=0 :someone!someone@someone.tmi.twitch.tv PRIVMSG #chan :use snap poll"
	msg, ok := parseLine(line)
	if !ok {
		t.Fatal("expected a parsed message")
	}
	if msg.UserID != "12345" || msg.Login != "someone" || msg.Text != "use snap poll" {
		t.Fatalf("parseLine = %+v", msg)
	}
	if msg.ParticipantID() != "12345" {
		t.Fatalf("ParticipantID = %q, want the tagged user-id", msg.ParticipantID())
	}
}

func TestParseLineColonInText(t *testing.T) {
	line := ":u!u@u.tmi.twitch.tv PRIVMSG #c :note: answer is a"
	msg, ok := parseLine(line)
	if !ok || msg.Text != "note: answer is a" {
		t.Fatalf("parseLine = %+v, %v", msg, ok)
	}
}

func TestParseLineRejectsNonPrivmsg(t *testing.T) {
	lines := []string{
		":tmi.twitch.tv 001 justinfan123 :Welcome, GLHF!",
		"PING :tmi.twitch.tv",
		":justinfan123.tmi.twitch.tv 353 justinfan123 = #chan :justinfan123",
		"",
	}
	for _, line := range lines {
		if msg, ok := parseLine(line); ok {
			t.Errorf("parseLine(%q) = %+v, want rejection", line, msg)
		}
	}
}
