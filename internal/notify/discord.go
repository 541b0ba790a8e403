package notify

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/zulandar/spindle/internal/config"
)

// discordBackoff is the first wait after a Discord 429.
const discordBackoff = time.Second

// session abstracts the discordgo.Session methods we use, enabling test mocks.
type session interface {
	ChannelMessageSendEmbed(channelID string, embed *discordgo.MessageEmbed, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

// Discord posts events to a channel as embeds over the REST API. No
// gateway connection is opened.
type Discord struct {
	sess      session
	channelID string
	backoff   time.Duration
}

// NewDiscord creates a Discord sender. A nil sess uses the bot token from cfg.
func NewDiscord(cfg config.ChannelConfig, sess session) (*Discord, error) {
	if sess == nil {
		if cfg.BotToken == "" {
			return nil, fmt.Errorf("discord: bot token is required")
		}
		dg, err := discordgo.New("Bot " + cfg.BotToken)
		if err != nil {
			return nil, fmt.Errorf("discord: create session: %w", err)
		}
		sess = dg
	}
	if cfg.ChannelID == "" {
		return nil, fmt.Errorf("discord: channel id is required")
	}
	return &Discord{sess: sess, channelID: cfg.ChannelID, backoff: discordBackoff}, nil
}

func (d *Discord) Name() string { return "discord" }

func (d *Discord) Send(ctx context.Context, evt Event) error {
	embed := eventToEmbed(evt)
	for attempt := 0; ; attempt++ {
		_, err := d.sess.ChannelMessageSendEmbed(d.channelID, embed, discordgo.WithContext(ctx))
		if err == nil {
			return nil
		}
		restErr, ok := err.(*discordgo.RESTError)
		if !ok || restErr.Response == nil || restErr.Response.StatusCode != http.StatusTooManyRequests || attempt == maxRetries {
			return fmt.Errorf("discord: send embed: %w", err)
		}

		wait := time.Duration(math.Pow(2, float64(attempt))) * d.backoff
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
	}
}

// eventToEmbed converts an Event to a Discord embed.
func eventToEmbed(evt Event) *discordgo.MessageEmbed {
	embed := &discordgo.MessageEmbed{
		Title:       evt.Title,
		Description: evt.Body,
	}
	if evt.Color != "" {
		embed.Color = parseHexColor(evt.Color)
	}
	for _, f := range evt.Fields {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:   f.Name,
			Value:  f.Value,
			Inline: f.Short,
		})
	}
	return embed
}

// parseHexColor converts "#36a64f" to its integer value. Malformed input
// gives 0.
func parseHexColor(hex string) int {
	v, err := strconv.ParseInt(strings.TrimPrefix(hex, "#"), 16, 32)
	if err != nil {
		return 0
	}
	return int(v)
}
