// Package discord owns the gateway session and the deals slash command.
package discord

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog"
)

const commandTimeout = 2 * time.Minute

// Bot wraps a gateway session. Ready is closed after the first READY event
// once the command is registered.
type Bot struct {
	session   *discordgo.Session
	handler   *CommandHandler
	guildID   string
	ready     chan struct{}
	readyOnce sync.Once
	log       zerolog.Logger
}

func New(token, guildID string, handler *CommandHandler, log zerolog.Logger) (*Bot, error) {
	session, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("failed to create discord session: %w", err)
	}
	session.Identify.Intents = discordgo.IntentsGuilds

	b := &Bot{
		session: session,
		handler: handler,
		guildID: guildID,
		ready:   make(chan struct{}),
		log:     log,
	}
	session.AddHandler(b.onReady)
	session.AddHandler(b.onInteraction)
	return b, nil
}

func (b *Bot) Ready() <-chan struct{} {
	return b.ready
}

func (b *Bot) Open() error {
	if err := b.session.Open(); err != nil {
		return fmt.Errorf("failed to open discord gateway: %w", err)
	}
	return nil
}

// Close releases the gateway session. Errors are logged, not returned.
func (b *Bot) Close() {
	if err := b.session.Close(); err != nil {
		b.log.Error().Err(err).Msg("Failed to close discord session")
		return
	}
	b.log.Info().Msg("Discord session closed")
}

func (b *Bot) onReady(s *discordgo.Session, r *discordgo.Ready) {
	b.log.Info().Str("user", r.User.Username).Str("user_id", r.User.ID).Msg("Bot logged in")

	cmd, err := s.ApplicationCommandCreate(r.User.ID, b.guildID, b.handler.Definition())
	switch {
	case err != nil:
		b.log.Error().Err(err).Str("guild_id", b.guildID).Msg("Failed to register command")
	case b.guildID != "":
		b.log.Info().Str("command", cmd.Name).Str("guild_id", b.guildID).Msg("Synced guild command")
	default:
		b.log.Info().Str("command", cmd.Name).Msg("Synced global command")
	}

	b.readyOnce.Do(func() { close(b.ready) })
}

func (b *Bot) onInteraction(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if i.Type != discordgo.InteractionApplicationCommand {
		return
	}
	data := i.ApplicationCommandData()
	if data.Name != CommandName {
		return
	}

	limit := optionLimit(data)
	b.log.Info().Str("user_id", interactionUserID(i.Interaction)).Str("guild_id", i.GuildID).Int("limit", limit).Msg("Command received")

	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredChannelMessageWithSource,
	})
	if err != nil {
		b.log.Error().Err(err).Msg("Failed to acknowledge command")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()

	for n, reply := range b.handler.Replies(ctx, limit) {
		if n == 0 {
			edit := &discordgo.WebhookEdit{}
			if reply.Content != "" {
				edit.Content = &reply.Content
			}
			if len(reply.Embeds) > 0 {
				edit.Embeds = &reply.Embeds
			}
			_, err = s.InteractionResponseEdit(i.Interaction, edit)
		} else {
			_, err = s.FollowupMessageCreate(i.Interaction, true, &discordgo.WebhookParams{
				Content: reply.Content,
				Embeds:  reply.Embeds,
			})
		}
		if err != nil {
			b.log.Error().Err(err).Int("message", n+1).Msg("Failed to send command reply")
			return
		}
	}
}

func interactionUserID(i *discordgo.Interaction) string {
	switch {
	case i.Member != nil && i.Member.User != nil:
		return i.Member.User.ID
	case i.User != nil:
		return i.User.ID
	default:
		return ""
	}
}
