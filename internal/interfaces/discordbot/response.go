package discordbot

import (
	"bytes"
	"errors"
	"strings"

	"github.com/bwmarrin/discordgo"
	"github.com/riskibarqy/rando-league/internal/domain/seed"
	"github.com/riskibarqy/rando-league/internal/usecase"
)

const (
	msgUnauthorized    = "You don't have the permissions to use this command"
	msgAlreadySubmit   = "You already have submitted this week!"
	msgNotReady        = "This week's league seed is still being prepared, please try again in a minute"
	msgSeedFailed      = "An error occurred while generating the seed"
	msgDependencyError = "The league service is unavailable right now, please try again later"
	msgInternalError   = "Something went wrong while processing this command"
)

// Reply is the content sent back for an interaction.
type Reply struct {
	Content string
	File    *seed.Artifact
}

// Responder acknowledges interactions and posts their replies.
type Responder interface {
	Defer(i *discordgo.Interaction, ephemeral bool) error
	Reply(i *discordgo.Interaction, reply Reply) error
}

type sessionResponder struct {
	session *discordgo.Session
}

func (r sessionResponder) Defer(i *discordgo.Interaction, ephemeral bool) error {
	resp := &discordgo.InteractionResponse{Type: discordgo.InteractionResponseDeferredChannelMessageWithSource}
	if ephemeral {
		resp.Data = &discordgo.InteractionResponseData{Flags: discordgo.MessageFlagsEphemeral}
	}
	return r.session.InteractionRespond(i, resp)
}

func (r sessionResponder) Reply(i *discordgo.Interaction, reply Reply) error {
	content := reply.Content
	edit := &discordgo.WebhookEdit{Content: &content}
	if reply.File != nil && len(reply.File.File) > 0 {
		edit.Files = []*discordgo.File{{
			Name:        seed.FileName,
			ContentType: "application/octet-stream",
			Reader:      bytes.NewReader(reply.File.File),
		}}
	}
	_, err := r.session.InteractionResponseEdit(i, edit)
	return err
}

// userMessage maps a usecase error to the text shown to the caller.
func userMessage(err error, fallback string) string {
	switch {
	case errors.Is(err, usecase.ErrUnauthorized):
		return msgUnauthorized
	case errors.Is(err, usecase.ErrAlreadySubmitted):
		return msgAlreadySubmit
	case errors.Is(err, usecase.ErrInvalidInput):
		return invalidInputMessage(err)
	case errors.Is(err, usecase.ErrNotReady):
		return msgNotReady
	case errors.Is(err, usecase.ErrSeedProvisioning):
		return msgSeedFailed
	case errors.Is(err, usecase.ErrDependencyUnavailable):
		return msgDependencyError
	default:
		return fallback
	}
}

func invalidInputMessage(err error) string {
	msg := strings.TrimPrefix(err.Error(), usecase.ErrInvalidInput.Error()+": ")
	return "Invalid input: " + msg
}
