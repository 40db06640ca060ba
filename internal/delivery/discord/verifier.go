package discord

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"heimdall/internal/application"

	"github.com/bwmarrin/discordgo"
)

// SessionVerifier implements application.Verifier on top of the bot session.
// Contexts bound the underlying REST calls via discordgo request options.
type SessionVerifier struct {
	session *discordgo.Session
	guildID string
}

func NewSessionVerifier(session *discordgo.Session, guildID string) *SessionVerifier {
	return &SessionVerifier{session: session, guildID: guildID}
}

func (v *SessionVerifier) FindAccountByName(ctx context.Context, name string) (*application.ExternalAccount, error) {
	members, err := v.session.GuildMembersSearch(v.guildID, name, 10, discordgo.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("guild member search failed: %w", err)
	}

	for _, m := range members {
		if strings.EqualFold(m.User.Username, name) || strings.EqualFold(m.Nick, name) {
			return &application.ExternalAccount{ID: m.User.ID, Name: m.User.Username}, nil
		}
	}
	return nil, nil
}

func (v *SessionVerifier) IsMember(ctx context.Context, accountID string) (bool, error) {
	_, err := v.session.GuildMember(v.guildID, accountID, discordgo.WithContext(ctx))
	if err != nil {
		if isUnknownMember(err) {
			return false, nil
		}
		return false, fmt.Errorf("guild member lookup failed: %w", err)
	}
	return true, nil
}

func (v *SessionVerifier) HasRole(ctx context.Context, accountID, roleID string) (bool, error) {
	member, err := v.session.GuildMember(v.guildID, accountID, discordgo.WithContext(ctx))
	if err != nil {
		if isUnknownMember(err) {
			return false, nil
		}
		return false, fmt.Errorf("guild member lookup failed: %w", err)
	}
	for _, r := range member.Roles {
		if r == roleID {
			return true, nil
		}
	}
	return false, nil
}

func (v *SessionVerifier) SendDirectMessage(ctx context.Context, accountID, text string) error {
	channel, err := v.session.UserChannelCreate(accountID, discordgo.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("failed to open DM channel: %w", err)
	}
	if _, err := v.session.ChannelMessageSend(channel.ID, text, discordgo.WithContext(ctx)); err != nil {
		return fmt.Errorf("failed to send DM: %w", err)
	}
	return nil
}

func isUnknownMember(err error) bool {
	var restErr *discordgo.RESTError
	if errors.As(err, &restErr) && restErr.Message != nil {
		return restErr.Message.Code == discordgo.ErrCodeUnknownMember
	}
	return false
}
