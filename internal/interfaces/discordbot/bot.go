package discordbot

import (
	"context"
	"fmt"
	"strings"

	"github.com/bwmarrin/discordgo"
	"github.com/riskibarqy/rando-league/internal/platform/logging"
)

type Config struct {
	Token string
	// GuildID scopes command registration; empty registers global commands.
	GuildID string
}

// Bot owns the gateway session and routes interactions to the handler.
type Bot struct {
	session  *discordgo.Session
	handler  *Handler
	guildID  string
	logger   *logging.Logger
	baseCtx  context.Context
	removers []func()
}

// NewSession creates an unopened gateway session.
func NewSession(token string) (*discordgo.Session, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, fmt.Errorf("discord token is required")
	}
	session, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("create discord session: %w", err)
	}
	session.Identify.Intents = discordgo.IntentsGuilds
	return session, nil
}

func New(session *discordgo.Session, handler *Handler, cfg Config, logger *logging.Logger) *Bot {
	if logger == nil {
		logger = logging.Default()
	}
	return &Bot{
		session: session,
		handler: handler,
		guildID: strings.TrimSpace(cfg.GuildID),
		logger:  logger.Named("discord"),
		baseCtx: context.Background(),
	}
}

// Start opens the gateway and registers the slash commands. Interactions are
// handled with ctx as their parent context.
func (b *Bot) Start(ctx context.Context) error {
	b.baseCtx = ctx
	b.removers = append(b.removers,
		b.session.AddHandler(b.onInteraction),
		b.session.AddHandler(func(_ *discordgo.Session, r *discordgo.Ready) {
			b.logger.InfoContext(ctx, "discord session ready", "user", r.User.Username, "guilds", len(r.Guilds))
		}),
	)

	if err := b.session.Open(); err != nil {
		return fmt.Errorf("open discord session: %w", err)
	}

	registered, err := b.session.ApplicationCommandBulkOverwrite(b.session.State.User.ID, b.guildID, commandDefinitions(), discordgo.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("register slash commands: %w", err)
	}
	b.logger.InfoContext(ctx, "slash commands registered", "count", len(registered), "guild_id", b.guildID)
	return nil
}

func (b *Bot) Stop() error {
	for _, remove := range b.removers {
		remove()
	}
	b.removers = nil
	if err := b.session.Close(); err != nil {
		return fmt.Errorf("close discord session: %w", err)
	}
	return nil
}

func (b *Bot) onInteraction(s *discordgo.Session, ic *discordgo.InteractionCreate) {
	b.handler.Handle(b.baseCtx, sessionResponder{session: s}, ic.Interaction)
}
