package discord

import (
	"context"
	"strings"

	"heimdall/internal/application"
	"heimdall/pkg/config"

	"github.com/bwmarrin/discordgo"
)

type Bot struct {
	session  *discordgo.Session
	services *application.Service
	logger   application.Logger

	adminIDs map[string]struct{}
	guildID  string
}

// NewBot builds the session without services: the link coordinator needs the
// session-backed verifier, so services are attached once they exist.
func NewBot(cfg *config.Config, logger application.Logger) *Bot {
	s, _ := discordgo.New("Bot " + cfg.DiscordToken)
	s.Identify.Intents = discordgo.IntentsGuilds | discordgo.IntentsGuildMembers | discordgo.IntentsDirectMessages

	admins := make(map[string]struct{})
	for _, id := range cfg.AdminUserIDs {
		cleanID := strings.TrimSpace(id)
		if cleanID != "" {
			admins[cleanID] = struct{}{}
		}
	}

	return &Bot{
		session:  s,
		logger:   logger,
		adminIDs: admins,
		guildID:  cfg.GuildID,
	}
}

func (b *Bot) Attach(services *application.Service) {
	b.services = services
}

var commands = []*discordgo.ApplicationCommand{
	{
		Name:        "whois",
		Description: "Show the whitelist entry for a player UUID",
		Options: []*discordgo.ApplicationCommandOption{
			{Type: discordgo.ApplicationCommandOptionString, Name: "uuid", Description: "Player UUID", Required: true},
		},
	},

	{
		Name:        "admit",
		Description: "Add a player to the whitelist (admins only)",
		Options: []*discordgo.ApplicationCommandOption{
			{Type: discordgo.ApplicationCommandOptionString, Name: "uuid", Description: "Player UUID", Required: true},
			{Type: discordgo.ApplicationCommandOptionString, Name: "name", Description: "Player name", Required: true},
			{Type: discordgo.ApplicationCommandOptionString, Name: "reason", Description: "Why this player is admitted", Required: false},
		},
	},
	{
		Name:        "revoke",
		Description: "Remove a player from the whitelist (admins only)",
		Options: []*discordgo.ApplicationCommandOption{
			{Type: discordgo.ApplicationCommandOptionString, Name: "uuid", Description: "Player UUID", Required: true},
		},
	},
	{
		Name:        "whitelist",
		Description: "Turn whitelist enforcement on or off (admins only)",
		Options: []*discordgo.ApplicationCommandOption{
			{
				Type: discordgo.ApplicationCommandOptionString, Name: "state", Description: "on or off", Required: true,
				Choices: []*discordgo.ApplicationCommandOptionChoice{
					{Name: "on", Value: "on"},
					{Name: "off", Value: "off"},
				},
			},
		},
	},
	{
		Name:        "ban",
		Description: "Exclude a player (admins only)",
		Options: []*discordgo.ApplicationCommandOption{
			{Type: discordgo.ApplicationCommandOptionString, Name: "uuid", Description: "Player UUID", Required: true},
			{Type: discordgo.ApplicationCommandOptionString, Name: "name", Description: "Player name", Required: true},
			{Type: discordgo.ApplicationCommandOptionString, Name: "reason", Description: "Reason", Required: true},
			{Type: discordgo.ApplicationCommandOptionString, Name: "duration", Description: "e.g. 30m, 12h, 7d; empty = permanent", Required: false},
			{Type: discordgo.ApplicationCommandOptionBoolean, Name: "revoke", Description: "Also remove from whitelist", Required: false},
		},
	},
	{
		Name:        "unban",
		Description: "Lift a player's exclusion (admins only)",
		Options: []*discordgo.ApplicationCommandOption{
			{Type: discordgo.ApplicationCommandOptionString, Name: "uuid", Description: "Player UUID", Required: true},
		},
	},
	{Name: "bans", Description: "List active exclusions (admins only)"},
	{Name: "members", Description: "List whitelisted players (admins only)"},
	{Name: "requests", Description: "List pending join attempts (admins only)"},
	{
		Name:        "dismiss",
		Description: "Dismiss a join attempt (admins only)",
		Options: []*discordgo.ApplicationCommandOption{
			{Type: discordgo.ApplicationCommandOptionString, Name: "uuid", Description: "Player UUID", Required: true},
		},
	},
	{
		Name:        "relink",
		Description: "Clear a player's pending verification so they can relink (admins only)",
		Options: []*discordgo.ApplicationCommandOption{
			{Type: discordgo.ApplicationCommandOptionString, Name: "uuid", Description: "Player UUID", Required: true},
		},
	},
	{
		Name:        "unlink",
		Description: "Detach a player's Discord link (admins only)",
		Options: []*discordgo.ApplicationCommandOption{
			{Type: discordgo.ApplicationCommandOptionString, Name: "uuid", Description: "Player UUID", Required: true},
		},
	},
	{Name: "export", Description: "Export roster, bans and join attempts as Excel (admins only)"},
	{Name: "sync_sheet", Description: "Publish the roster to the shared Google Sheet (admins only)"},
}

func (b *Bot) Init() error {
	b.session.AddHandler(b.onInteraction)
	return nil
}

func (b *Bot) Run(ctx context.Context) {
	if err := b.session.Open(); err != nil {
		b.logger.Error("failed to open discord session: %v", err)
		return
	}

	b.logger.Info("Discord bot started, registering slash commands")

	_, err := b.session.ApplicationCommandBulkOverwrite(b.session.State.User.ID, b.guildID, commands)
	if err != nil {
		b.logger.Error("failed to register commands: %v", err)
	} else {
		b.logger.Info("slash commands registered")
	}

	<-ctx.Done()
}

func (b *Bot) Stop() {
	b.session.Close()
}

// Verifier returns the application-facing Discord client backed by this
// bot's session.
func (b *Bot) Verifier() *SessionVerifier {
	return &SessionVerifier{session: b.session, guildID: b.guildID}
}

func (b *Bot) onInteraction(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if i.Type != discordgo.InteractionApplicationCommand {
		return
	}

	name := i.ApplicationCommandData().Name

	switch name {
	case "whois":
		b.handleWhois(s, i.Interaction)
		return
	}

	if !b.isAdmin(interactionUserID(i.Interaction)) {
		b.respondMessage(s, i.Interaction, "You are not allowed to do that.", true)
		return
	}

	switch name {
	case "admit":
		b.handleAdmit(s, i.Interaction)
	case "revoke":
		b.handleRevoke(s, i.Interaction)
	case "whitelist":
		b.handleWhitelistToggle(s, i.Interaction)
	case "ban":
		b.handleBan(s, i.Interaction)
	case "unban":
		b.handleUnban(s, i.Interaction)
	case "bans":
		b.handleBanList(s, i.Interaction)
	case "members":
		b.handleMemberList(s, i.Interaction)
	case "requests":
		b.handleJoinRequests(s, i.Interaction)
	case "dismiss":
		b.handleDismiss(s, i.Interaction)
	case "relink":
		b.handleRelink(s, i.Interaction)
	case "unlink":
		b.handleUnlink(s, i.Interaction)
	case "export":
		b.handleExport(s, i.Interaction)
	case "sync_sheet":
		b.handleSyncSheet(s, i.Interaction)
	}
}
