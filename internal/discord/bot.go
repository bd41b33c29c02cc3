// Package discord exposes the bot commands as guild slash commands.
package discord

import (
	"context"
	"fmt"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/yegors/hamsearch/internal/config"
	"github.com/yegors/hamsearch/internal/lookup"
	"github.com/yegors/hamsearch/internal/outcome"
	"github.com/yegors/hamsearch/internal/render"
	"github.com/yegors/hamsearch/pkg/logger"
)

// interactionTimeout bounds one command. Upstream requests carry their own
// shorter timeouts.
const interactionTimeout = 30 * time.Second

// Executor runs a named bot command
type Executor interface {
	Execute(ctx context.Context, inv lookup.Invocation, command string, args []string) outcome.Outcome
}

// responder is the part of *discordgo.Session used to answer interactions
type responder interface {
	InteractionRespond(interaction *discordgo.Interaction, resp *discordgo.InteractionResponse, options ...discordgo.RequestOption) error
	InteractionResponseEdit(interaction *discordgo.Interaction, newresp *discordgo.WebhookEdit, options ...discordgo.RequestOption) (*discordgo.Message, error)
	InteractionResponseDelete(interaction *discordgo.Interaction, options ...discordgo.RequestOption) error
	FollowupMessageCreate(interaction *discordgo.Interaction, wait bool, data *discordgo.WebhookParams, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

// Bot connects the command service to a Discord guild
type Bot struct {
	session *discordgo.Session
	service Executor
	config  config.DiscordConfig
	logger  *logger.Logger
}

// NewBot creates a bot. The gateway connection is opened by Run.
func NewBot(cfg config.DiscordConfig, service Executor, logger *logger.Logger) (*Bot, error) {
	session, err := discordgo.New("Bot " + cfg.Token)
	if err != nil {
		return nil, fmt.Errorf("failed to create discord session: %w", err)
	}
	session.Identify.Intents = discordgo.IntentsGuilds

	return &Bot{
		session: session,
		service: service,
		config:  cfg,
		logger:  logger.Named("discord-bot"),
	}, nil
}

// Run opens the gateway session, registers the guild commands and serves
// interactions until ctx is cancelled.
func (b *Bot) Run(ctx context.Context) error {
	b.session.AddHandler(func(s *discordgo.Session, r *discordgo.Ready) {
		b.logger.Info("Logged in", logger.String("user", r.User.String()))
	})
	b.session.AddHandler(func(s *discordgo.Session, i *discordgo.InteractionCreate) {
		b.handle(ctx, s, i)
	})

	if err := b.session.Open(); err != nil {
		return fmt.Errorf("failed to open discord session: %w", err)
	}
	defer func() {
		if err := b.session.Close(); err != nil {
			b.logger.Warn("Failed to close discord session", logger.Error(err))
		}
	}()

	registered, err := b.session.ApplicationCommandBulkOverwrite(b.session.State.User.ID, b.config.GuildID, Definitions())
	if err != nil {
		return fmt.Errorf("failed to register commands in guild %s: %w", b.config.GuildID, err)
	}
	b.logger.Info("Registered slash commands",
		logger.String("guild_id", b.config.GuildID),
		logger.Int("count", len(registered)),
	)

	<-ctx.Done()
	b.logger.Info("Shutting down discord bot")
	return nil
}

// handle answers one interaction. Discord wants an acknowledgement within
// three seconds, so the interaction is deferred before the command runs.
// Successes replace the deferred reply with an embed visible to the channel;
// failures delete it and send an ephemeral follow-up visible only to the caller.
func (b *Bot) handle(ctx context.Context, r responder, i *discordgo.InteractionCreate) {
	if i.Type != discordgo.InteractionApplicationCommand {
		return
	}

	data := i.ApplicationCommandData()
	cmd, ok := findCommand(data.Name)
	if !ok {
		b.logger.Warn("Unknown slash command", logger.String("name", data.Name))
		return
	}

	inv := lookup.Invocation{User: userName(i), Source: "discord"}
	log := b.logger.With(
		logger.String("command", data.Name),
		logger.String("user", inv.User),
	)

	err := r.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredChannelMessageWithSource,
	})
	if err != nil {
		log.Error("Failed to acknowledge interaction", logger.Error(err))
		return
	}

	ctx, cancel := context.WithTimeout(ctx, interactionTimeout)
	defer cancel()

	out := b.service.Execute(ctx, inv, cmd.command, arguments(cmd, data))

	if embed, ok := successEmbed(out); ok {
		embeds := []*discordgo.MessageEmbed{embed}
		if _, err := r.InteractionResponseEdit(i.Interaction, &discordgo.WebhookEdit{Embeds: &embeds}); err != nil {
			log.Error("Failed to send command result", logger.Error(err))
		}
		return
	}

	message := outcome.GenericFailureMessage
	if !out.OK() {
		message = out.Failure.UserMessage
	}
	if err := r.InteractionResponseDelete(i.Interaction); err != nil {
		log.Warn("Failed to delete deferred reply", logger.Error(err))
	}
	_, err = r.FollowupMessageCreate(i.Interaction, true, &discordgo.WebhookParams{
		Content: message,
		Flags:   discordgo.MessageFlagsEphemeral,
	})
	if err != nil {
		log.Error("Failed to send failure message", logger.Error(err))
	}
}

// successEmbed renders a successful outcome. It reports false for failures
// and for payloads with no renderer.
func successEmbed(out outcome.Outcome) (*discordgo.MessageEmbed, bool) {
	if !out.OK() {
		return nil, false
	}
	card, ok := render.Payload(out.Payload)
	if !ok {
		return nil, false
	}
	return Embed(card), true
}

// userName is the audit identity: the guild member's user, or the DM user
func userName(i *discordgo.InteractionCreate) string {
	switch {
	case i.Member != nil && i.Member.User != nil:
		return i.Member.User.Username
	case i.User != nil:
		return i.User.Username
	}
	return "unknown"
}
