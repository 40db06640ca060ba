package discord

import (
	"fmt"
	"strings"
	"time"

	"heimdall/internal/application"
	"heimdall/internal/models"

	"github.com/bwmarrin/discordgo"
	"github.com/google/uuid"
)

// actorFor resolves the operator's audit identity: admins whose Discord
// account is verified against a member act as that member, everyone else is
// recorded as the console operator.
func (b *Bot) actorFor(i *discordgo.Interaction) models.Actor {
	if member := b.services.Membership.FindByExternalID(interactionUserID(i)); member != nil {
		return models.PlayerActor(member.ID)
	}
	return models.ConsoleActor()
}

func (b *Bot) playerID(s *discordgo.Session, i *discordgo.Interaction, raw string) (uuid.UUID, bool) {
	id, err := uuid.Parse(strings.TrimSpace(raw))
	if err != nil {
		b.respondMessage(s, i, "That is not a valid player UUID.", true)
		return uuid.Nil, false
	}
	return id, true
}

func (b *Bot) handleWhois(s *discordgo.Session, i *discordgo.Interaction) {
	opts := optionMap(i)
	id, ok := b.playerID(s, i, stringOption(opts, "uuid"))
	if !ok {
		return
	}

	member := b.services.Membership.Get(id)
	if member == nil {
		b.respondMessage(s, i, "No whitelist entry for that UUID.", true)
		return
	}

	linkLine := "not linked"
	if member.Link != nil {
		state := "unverified"
		if member.Link.Verified {
			state = "verified"
		}
		linkLine = fmt.Sprintf("%s (%s)", member.Link.ExternalName, state)
	}

	color := colorGreen
	banLine := "none"
	if entry := b.services.Exclusions.ActiveExclusion(id); entry != nil {
		color = colorRed
		expiry := "permanent"
		if entry.ExpiresAt != nil {
			expiry = "until " + entry.ExpiresAt.Format(time.RFC1123)
		}
		banLine = fmt.Sprintf("%s (%s)", entry.Reason, expiry)
	}

	embed := &discordgo.MessageEmbed{
		Title: member.Name,
		Color: color,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "UUID", Value: member.ID.String()},
			{Name: "Admitted", Value: fmt.Sprintf("%s by %s", member.AddedAt.Format("2006-01-02"), describeActor(member.AddedBy)), Inline: true},
			{Name: "Discord", Value: linkLine, Inline: true},
			{Name: "Exclusion", Value: banLine},
		},
	}
	s.InteractionRespond(i, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{Embeds: []*discordgo.MessageEmbed{embed}},
	})
}

func (b *Bot) handleAdmit(s *discordgo.Session, i *discordgo.Interaction) {
	opts := optionMap(i)
	id, ok := b.playerID(s, i, stringOption(opts, "uuid"))
	if !ok {
		return
	}
	name := stringOption(opts, "name")

	admitted, err := b.services.Membership.Admit(id, name, b.actorFor(i), stringOption(opts, "reason"))
	if err != nil {
		b.logger.Error("admit failed: %v", err)
		b.respondMessage(s, i, "Storage error, the player was not admitted.", true)
		return
	}
	if !admitted {
		b.respondMessage(s, i, fmt.Sprintf("**%s** is already whitelisted.", name), true)
		return
	}

	b.services.JoinAttempts.Remove(id)
	b.respondMessage(s, i, fmt.Sprintf("**%s** is now whitelisted.", name), false)
}

func (b *Bot) handleRevoke(s *discordgo.Session, i *discordgo.Interaction) {
	opts := optionMap(i)
	id, ok := b.playerID(s, i, stringOption(opts, "uuid"))
	if !ok {
		return
	}

	revoked, err := b.services.Membership.Revoke(id, b.actorFor(i))
	if err != nil {
		b.logger.Error("revoke failed: %v", err)
		b.respondMessage(s, i, "Storage error, the player was not removed.", true)
		return
	}
	if !revoked {
		b.respondMessage(s, i, "That UUID is not on the whitelist.", true)
		return
	}
	b.respondMessage(s, i, "Player removed from the whitelist.", false)
}

func (b *Bot) handleWhitelistToggle(s *discordgo.Session, i *discordgo.Interaction) {
	opts := optionMap(i)
	enabled := stringOption(opts, "state") == "on"

	if err := b.services.Membership.SetEnabled(enabled, b.actorFor(i)); err != nil {
		b.logger.Error("whitelist toggle failed: %v", err)
		b.respondMessage(s, i, "Storage error, the whitelist state is unchanged.", true)
		return
	}
	if enabled {
		b.respondMessage(s, i, "Whitelist enforcement is **on**.", false)
	} else {
		b.respondMessage(s, i, "Whitelist enforcement is **off**. Anyone not banned can join.", false)
	}
}

func (b *Bot) handleBan(s *discordgo.Session, i *discordgo.Interaction) {
	opts := optionMap(i)
	id, ok := b.playerID(s, i, stringOption(opts, "uuid"))
	if !ok {
		return
	}
	name := stringOption(opts, "name")
	reason := stringOption(opts, "reason")

	duration, err := parseBanDuration(stringOption(opts, "duration"))
	if err != nil {
		b.respondMessage(s, i, err.Error(), true)
		return
	}

	status, err := b.services.Exclusions.Exclude(id, name, b.actorFor(i), duration, reason, boolOption(opts, "revoke"))
	if err != nil {
		b.logger.Error("ban failed: %v", err)
		b.respondMessage(s, i, "Storage error, the ban was not recorded.", true)
		return
	}

	switch status {
	case application.ExcludeAlreadyExcluded:
		b.respondMessage(s, i, fmt.Sprintf("**%s** already has an active ban. Lift it first.", name), true)
	case application.ExcludeIssued:
		b.respondMessage(s, i, fmt.Sprintf("**%s** banned for %s: %s", name, application.DescribeDuration(duration), reason), false)
	}
}

func (b *Bot) handleUnban(s *discordgo.Session, i *discordgo.Interaction) {
	opts := optionMap(i)
	id, ok := b.playerID(s, i, stringOption(opts, "uuid"))
	if !ok {
		return
	}

	lifted, err := b.services.Exclusions.Lift(id, b.actorFor(i))
	if err != nil {
		b.logger.Error("unban failed: %v", err)
		b.respondMessage(s, i, "Storage error, the ban was not lifted.", true)
		return
	}
	if !lifted {
		b.respondMessage(s, i, "No ban on record for that UUID.", true)
		return
	}
	b.respondMessage(s, i, "Ban lifted.", false)
}

func (b *Bot) handleBanList(s *discordgo.Session, i *discordgo.Interaction) {
	entries := b.services.Exclusions.ListActive()
	if len(entries) == 0 {
		b.respondMessage(s, i, "No active bans.", true)
		return
	}

	var sb strings.Builder
	for n, e := range entries {
		if n == listEntryLimit {
			sb.WriteString(fmt.Sprintf("…and %d more\n", len(entries)-listEntryLimit))
			break
		}
		expiry := "permanent"
		if e.ExpiresAt != nil {
			expiry = "until " + e.ExpiresAt.Format("2006-01-02 15:04")
		}
		sb.WriteString(fmt.Sprintf("**%s** `%s` — %s (%s)\n", e.Name, e.ID, e.Reason, expiry))
	}
	b.respondMessage(s, i, truncate(sb.String()), false)
}

func (b *Bot) handleMemberList(s *discordgo.Session, i *discordgo.Interaction) {
	members := b.services.Membership.ListAll()
	if len(members) == 0 {
		b.respondMessage(s, i, "The whitelist is empty.", true)
		return
	}

	var sb strings.Builder
	for n, m := range members {
		if n == listEntryLimit {
			sb.WriteString(fmt.Sprintf("…and %d more\n", len(members)-listEntryLimit))
			break
		}
		link := ""
		if m.Link != nil && m.Link.Verified {
			link = " ↔ " + m.Link.ExternalName
		}
		sb.WriteString(fmt.Sprintf("**%s** `%s`%s\n", m.Name, m.ID, link))
	}
	b.respondMessage(s, i, truncate(sb.String()), false)
}

func (b *Bot) handleJoinRequests(s *discordgo.Session, i *discordgo.Interaction) {
	attempts := b.services.JoinAttempts.ListAll()
	if len(attempts) == 0 {
		b.respondMessage(s, i, "No pending join attempts.", true)
		return
	}

	var sb strings.Builder
	for n, a := range attempts {
		if n == listEntryLimit {
			sb.WriteString(fmt.Sprintf("…and %d more\n", len(attempts)-listEntryLimit))
			break
		}
		sb.WriteString(fmt.Sprintf("**%s** `%s` — %d tries, last %s", a.Name, a.ID, a.Count, a.LastSeen.Format("2006-01-02 15:04")))
		if a.Message != "" {
			sb.WriteString(fmt.Sprintf(" — “%s”", a.Message))
		}
		sb.WriteString("\n")
	}
	b.respondMessage(s, i, truncate(sb.String()), false)
}

func (b *Bot) handleDismiss(s *discordgo.Session, i *discordgo.Interaction) {
	opts := optionMap(i)
	id, ok := b.playerID(s, i, stringOption(opts, "uuid"))
	if !ok {
		return
	}

	if !b.services.JoinAttempts.Dismiss(id, b.actorFor(i)) {
		b.respondMessage(s, i, "No join attempt on record for that UUID.", true)
		return
	}
	b.respondMessage(s, i, "Join attempt dismissed.", false)
}

func (b *Bot) handleRelink(s *discordgo.Session, i *discordgo.Interaction) {
	opts := optionMap(i)
	id, ok := b.playerID(s, i, stringOption(opts, "uuid"))
	if !ok {
		return
	}

	if b.services.Links.ResetPending(id, b.actorFor(i)) {
		b.respondMessage(s, i, "Pending verification cleared. The player can request a new code.", false)
	} else {
		b.respondMessage(s, i, "No pending verification for that UUID.", true)
	}
}

func (b *Bot) handleUnlink(s *discordgo.Session, i *discordgo.Interaction) {
	opts := optionMap(i)
	id, ok := b.playerID(s, i, stringOption(opts, "uuid"))
	if !ok {
		return
	}

	actor := b.actorFor(i)
	b.services.Links.ResetPending(id, actor)

	cleared, err := b.services.Membership.ClearLink(id, actor)
	if err != nil {
		b.logger.Error("unlink failed: %v", err)
		b.respondMessage(s, i, "Storage error, the link was not removed.", true)
		return
	}
	if !cleared {
		b.respondMessage(s, i, "That player has no Discord link.", true)
		return
	}
	b.respondMessage(s, i, "Discord link removed.", false)
}

func (b *Bot) handleExport(s *discordgo.Session, i *discordgo.Interaction) {
	report, err := b.services.Reports.ExcelReport()
	if err != nil {
		b.logger.Error("excel export failed: %v", err)
		b.respondMessage(s, i, "Export failed.", true)
		return
	}
	b.respondFile(s, i, fmt.Sprintf("roster-%s.xlsx", time.Now().Format("2006-01-02")), report)
}

func (b *Bot) handleSyncSheet(s *discordgo.Session, i *discordgo.Interaction) {
	url, err := b.services.Reports.SyncToGoogleSheet()
	if err != nil {
		b.logger.Error("sheet sync failed: %v", err)
		b.respondMessage(s, i, "Sheet sync failed: "+err.Error(), true)
		return
	}
	b.respondMessage(s, i, "Roster published: "+url, false)
}
