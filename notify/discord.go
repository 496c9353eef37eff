package notify

import (
	"context"

	"github.com/bwmarrin/discordgo"
	"github.com/use-agent/datewatch/config"
	"github.com/use-agent/datewatch/models"
)

// discordMaxLen is Discord's message content limit.
const discordMaxLen = 2000

// Discord posts channel messages over the REST API. No gateway websocket is
// opened; sending does not require one.
type Discord struct {
	session   *discordgo.Session
	channelID string
}

// NewDiscord creates a Discord gateway.
func NewDiscord(cfg config.DiscordConfig) (*Discord, error) {
	s, err := discordgo.New("Bot " + cfg.BotToken)
	if err != nil {
		return nil, err
	}
	return &Discord{session: s, channelID: cfg.ChannelID}, nil
}

func (d *Discord) Name() string { return "discord" }

func (d *Discord) Send(ctx context.Context, n Notification) error {
	_, err := d.session.ChannelMessageSend(d.channelID,
		models.Truncate(n.Text, discordMaxLen),
		discordgo.WithContext(ctx),
	)
	return err
}
