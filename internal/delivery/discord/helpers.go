package discord

import (
	"bytes"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"heimdall/internal/models"

	"github.com/bwmarrin/discordgo"
)

func newByteReader(data []byte) io.Reader {
	return bytes.NewReader(data)
}

func optionMap(i *discordgo.Interaction) map[string]*discordgo.ApplicationCommandInteractionDataOption {
	options := i.ApplicationCommandData().Options
	m := make(map[string]*discordgo.ApplicationCommandInteractionDataOption, len(options))
	for _, opt := range options {
		m[opt.Name] = opt
	}
	return m
}

func stringOption(m map[string]*discordgo.ApplicationCommandInteractionDataOption, name string) string {
	if opt, ok := m[name]; ok {
		return opt.StringValue()
	}
	return ""
}

func boolOption(m map[string]*discordgo.ApplicationCommandInteractionDataOption, name string) bool {
	if opt, ok := m[name]; ok {
		return opt.BoolValue()
	}
	return false
}

// parseBanDuration reads operator shorthand like "45s", "30m", "12h", "7d".
// Empty input means permanent and returns nil.
func parseBanDuration(input string) (*time.Duration, error) {
	input = strings.TrimSpace(strings.ToLower(input))
	if input == "" || input == "permanent" {
		return nil, nil
	}

	unit := input[len(input)-1]
	value, err := strconv.Atoi(input[:len(input)-1])
	if err != nil || value <= 0 {
		return nil, fmt.Errorf("invalid duration %q, use forms like 30m or 7d", input)
	}

	var d time.Duration
	switch unit {
	case 's':
		d = time.Duration(value) * time.Second
	case 'm':
		d = time.Duration(value) * time.Minute
	case 'h':
		d = time.Duration(value) * time.Hour
	case 'd':
		d = time.Duration(value) * 24 * time.Hour
	default:
		return nil, fmt.Errorf("invalid duration unit %q, use s, m, h or d", string(unit))
	}
	return &d, nil
}

func describeActor(actor models.Actor) string {
	switch actor.Kind {
	case models.ActorConsole:
		return "console"
	case models.ActorSystem:
		return "system"
	default:
		return actor.ID.String()
	}
}

// truncate caps a message at the Discord limit without splitting a rune;
// list lines interpolate player-supplied text that is rarely plain ASCII.
func truncate(text string) string {
	if len(text) <= maxMessageLength {
		return text
	}
	cut := maxMessageLength - 3
	for cut > 0 && !utf8.RuneStart(text[cut]) {
		cut--
	}
	return text[:cut] + "..."
}
