package discordbot

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/go-playground/validator/v10"
	"github.com/riskibarqy/rando-league/internal/domain/leaguesettings"
	"github.com/riskibarqy/rando-league/internal/platform/logging"
	"github.com/riskibarqy/rando-league/internal/usecase"
	"go.opentelemetry.io/otel/attribute"
)

const defaultCommandTimeout = 90 * time.Second

type submitRequest struct {
	Runner string `option:"runner" validate:"required,max=100"`
	Timer  string `option:"timer" validate:"required,max=32"`
	VOD    string `option:"vod" validate:"required,max=512"`
}

type weekRequest struct {
	Date string `option:"date" validate:"omitempty,datetime=2006-01-02"`
}

type seedRequest struct {
	SeedName   string `option:"seed_name" validate:"max=64"`
	RelicCount int    `option:"relic_count" validate:"omitempty,min=1,max=11"`
}

type HandlerConfig struct {
	CommandTimeout time.Duration
}

// Handler executes slash commands against the league services.
type Handler struct {
	settings   *usecase.SettingsService
	seeds      *usecase.SeedService
	league     *usecase.LeagueService
	authorizer Authorizer
	validator  *validator.Validate
	timeout    time.Duration
	logger     *logging.Logger
}

func NewHandler(
	settings *usecase.SettingsService,
	seeds *usecase.SeedService,
	league *usecase.LeagueService,
	authorizer Authorizer,
	cfg HandlerConfig,
	logger *logging.Logger,
) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	if cfg.CommandTimeout <= 0 {
		cfg.CommandTimeout = defaultCommandTimeout
	}

	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		if name := f.Tag.Get("option"); name != "" {
			return name
		}
		return f.Name
	})

	return &Handler{
		settings:   settings,
		seeds:      seeds,
		league:     league,
		authorizer: authorizer,
		validator:  v,
		timeout:    cfg.CommandTimeout,
		logger:     logger.Named("discord"),
	}
}

type commandFunc func(ctx context.Context) (Reply, error)

// Handle dispatches one interaction. Every command is deferred first so slow
// dependencies do not hit Discord's acknowledgement deadline.
func (h *Handler) Handle(ctx context.Context, r Responder, i *discordgo.Interaction) {
	if i == nil || i.Type != discordgo.InteractionApplicationCommand {
		return
	}
	data := i.ApplicationCommandData()
	actor := actorFromInteraction(i)

	ctx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()

	switch data.Name {
	case commandLeague:
		if len(data.Options) == 0 {
			return
		}
		sub := data.Options[0]
		h.handleLeague(ctx, r, i, actor, sub.Name, newOptionSet(sub.Options))
	case commandSeed:
		opts := newOptionSet(data.Options)
		h.respond(ctx, r, i, commandSeed, false, msgSeedFailed, func(ctx context.Context) (Reply, error) {
			return h.generateSeed(ctx, opts)
		})
	case commandDaily:
		opts := newOptionSet(data.Options)
		h.respond(ctx, r, i, commandDaily, false, msgSeedFailed, func(ctx context.Context) (Reply, error) {
			return h.dailySeed(ctx, opts)
		})
	default:
		h.logger.WarnContext(ctx, "unknown command", "command", data.Name)
	}
}

func (h *Handler) handleLeague(ctx context.Context, r Responder, i *discordgo.Interaction, actor Actor, sub string, opts optionSet) {
	name := commandLeague + " " + sub
	switch sub {
	case subcommandSet:
		h.respond(ctx, r, i, name, true, msgInternalError, h.admin(actor, func(ctx context.Context) (Reply, error) {
			return h.setSettings(ctx, opts)
		}))
	case subcommandView:
		h.respond(ctx, r, i, name, true, msgInternalError, h.admin(actor, func(ctx context.Context) (Reply, error) {
			return h.viewSettings(ctx, opts)
		}))
	case subcommandClear:
		h.respond(ctx, r, i, name, true, msgInternalError, h.admin(actor, func(ctx context.Context) (Reply, error) {
			return h.clearSettings(ctx, opts)
		}))
	case subcommandSubmit:
		h.respond(ctx, r, i, name, true, msgInternalError, func(ctx context.Context) (Reply, error) {
			return h.submit(ctx, actor, opts)
		})
	case subcommandSeed:
		h.respond(ctx, r, i, name, true, msgSeedFailed, h.leagueSeed)
	default:
		h.logger.WarnContext(ctx, "unknown league subcommand", "subcommand", sub)
	}
}

func (h *Handler) admin(actor Actor, next commandFunc) commandFunc {
	return func(ctx context.Context) (Reply, error) {
		if h.authorizer == nil || !h.authorizer.CanAdminister(ctx, actor) {
			h.logger.InfoContext(ctx, "admin command denied", "user_id", actor.UserID)
			return Reply{}, fmt.Errorf("%w: league admin required", usecase.ErrUnauthorized)
		}
		return next(ctx)
	}
}

func (h *Handler) respond(
	ctx context.Context,
	r Responder,
	i *discordgo.Interaction,
	command string,
	ephemeral bool,
	fallback string,
	fn commandFunc,
) {
	ctx, span := startSpan(ctx, "discordbot.Handler."+strings.ReplaceAll(command, " ", "."))
	defer span.End()
	span.SetAttributes(attribute.String("discord.command", command), attribute.String("discord.guild_id", i.GuildID))

	if err := r.Defer(i, ephemeral); err != nil {
		h.logger.WarnContext(ctx, "defer interaction failed", "command", command, "error", err)
		return
	}

	started := time.Now()
	reply, err := fn(ctx)
	if err != nil {
		span.RecordError(err)
		if usecase.IsUserError(err) || errors.Is(err, usecase.ErrNotReady) {
			h.logger.InfoContext(ctx, "command rejected", "command", command, "reason", err.Error())
		} else {
			h.logger.ErrorContext(ctx, "command failed", "command", command, "error", err)
		}
		reply = Reply{Content: userMessage(err, fallback)}
	} else {
		h.logger.InfoContext(ctx, "command handled", "command", command, "duration_ms", time.Since(started).Milliseconds())
	}

	if err := r.Reply(i, reply); err != nil {
		h.logger.WarnContext(ctx, "send interaction reply failed", "command", command, "error", err)
	}
}

func (h *Handler) validate(ctx context.Context, payload any) error {
	if err := h.validator.StructCtx(ctx, payload); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return fmt.Errorf("%w: %s failed %q", usecase.ErrInvalidInput, fe.Field(), fe.Tag())
		}
		return fmt.Errorf("%w: validation failed: %v", usecase.ErrInvalidInput, err)
	}
	return nil
}

func (h *Handler) setSettings(ctx context.Context, opts optionSet) (Reply, error) {
	relics, _ := opts.Int(optionRelicCount)
	if err := h.validate(ctx, seedRequest{SeedName: opts.String(leaguesettings.NameSeedName), RelicCount: relics}); err != nil {
		return Reply{}, err
	}
	if err := h.validate(ctx, weekRequest{Date: opts.String(optionDate)}); err != nil {
		return Reply{}, err
	}

	change, err := h.settings.Set(ctx, opts.String(optionDate), opts.settingEntries())
	if err != nil {
		return Reply{}, err
	}
	return Reply{Content: fmt.Sprintf("League settings for week %s have successfully been updated!", change.Week) + reprovisionNote(change)}, nil
}

func (h *Handler) viewSettings(ctx context.Context, opts optionSet) (Reply, error) {
	if err := h.validate(ctx, weekRequest{Date: opts.String(optionDate)}); err != nil {
		return Reply{}, err
	}
	week, settings, err := h.settings.View(ctx, opts.String(optionDate))
	if err != nil {
		return Reply{}, err
	}
	return Reply{Content: formatSettings(week, settings)}, nil
}

func (h *Handler) clearSettings(ctx context.Context, opts optionSet) (Reply, error) {
	if err := h.validate(ctx, weekRequest{Date: opts.String(optionDate)}); err != nil {
		return Reply{}, err
	}
	change, err := h.settings.Clear(ctx, opts.String(optionDate))
	if err != nil {
		return Reply{}, err
	}
	return Reply{Content: fmt.Sprintf("League settings for week %s have been cleared (%d removed)", change.Week, change.Removed) + reprovisionNote(change)}, nil
}

func reprovisionNote(change usecase.SettingsChange) string {
	switch {
	case change.ReprovisionErr != nil:
		return "\nThe league seed could not be regenerated, the previous seed is still live. Re-run the command to try again."
	case change.Reprovisioned:
		return "\nThe league seed has been regenerated."
	}
	return ""
}

func (h *Handler) submit(ctx context.Context, actor Actor, opts optionSet) (Reply, error) {
	req := submitRequest{
		Runner: actor.DisplayName,
		Timer:  opts.String(optionTimer),
		VOD:    opts.String(optionVOD),
	}
	if err := h.validate(ctx, req); err != nil {
		return Reply{}, err
	}

	res, err := h.league.Submit(ctx, usecase.SubmitInput{Runner: req.Runner, Timer: req.Timer, VOD: req.VOD})
	if err != nil {
		return Reply{}, err
	}
	return Reply{Content: formatSubmission(res)}, nil
}

func (h *Handler) leagueSeed(ctx context.Context) (Reply, error) {
	st, err := h.league.Seed(ctx)
	if err != nil {
		return Reply{}, err
	}
	artifact := st.Artifact
	return Reply{Content: formatLeagueSeed(artifact), File: &artifact}, nil
}

func (h *Handler) generateSeed(ctx context.Context, opts optionSet) (Reply, error) {
	req := opts.seedOptions()
	if err := h.validate(ctx, seedRequest{SeedName: req.SeedName, RelicCount: req.RelicCount}); err != nil {
		return Reply{}, err
	}
	artifact, err := h.seeds.Generate(ctx, req)
	if err != nil {
		return Reply{}, err
	}
	return Reply{Content: formatSeed(artifact), File: &artifact}, nil
}

func (h *Handler) dailySeed(ctx context.Context, opts optionSet) (Reply, error) {
	req := opts.seedOptions()
	if err := h.validate(ctx, seedRequest{RelicCount: req.RelicCount}); err != nil {
		return Reply{}, err
	}
	artifact, err := h.seeds.Daily(ctx, req)
	if err != nil {
		return Reply{}, err
	}
	return Reply{Content: formatSeed(artifact), File: &artifact}, nil
}
