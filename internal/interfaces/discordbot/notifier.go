package discordbot

import (
	"context"
	"fmt"
	"strings"

	"github.com/bwmarrin/discordgo"
	"github.com/riskibarqy/rando-league/internal/usecase"
)

// MessageSender is the part of *discordgo.Session used to post reminders.
type MessageSender interface {
	ChannelMessageSend(channelID string, content string, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

// ChannelNotifier posts reminders to the league channel.
type ChannelNotifier struct {
	sender    MessageSender
	channelID string
}

func NewChannelNotifier(sender MessageSender, channelID string) *ChannelNotifier {
	return &ChannelNotifier{sender: sender, channelID: strings.TrimSpace(channelID)}
}

func (n *ChannelNotifier) Notify(ctx context.Context, reminder usecase.Reminder) error {
	if n.channelID == "" {
		return fmt.Errorf("league channel is not configured")
	}
	if _, err := n.sender.ChannelMessageSend(n.channelID, formatReminder(reminder), discordgo.WithContext(ctx)); err != nil {
		return fmt.Errorf("post reminder channel=%s: %w", n.channelID, err)
	}
	return nil
}
