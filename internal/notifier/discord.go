package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/pauljones0/steam-deals-bot/internal/metrics"
	"github.com/pauljones0/steam-deals-bot/internal/models"
)

const (
	DefaultAPIBase = "https://discord.com/api/v10"

	// MaxEmbedsPerMessage is Discord's per-message embed limit.
	MaxEmbedsPerMessage = 10

	colorDeal      = 0x1B2838
	colorHugeDeal  = 0x66C0F4
	hugeDealCutoff = 75

	maxRetries    = 3
	maxBackoff    = 30 * time.Second
	maxTitleRunes = 256
)

var ErrPublishFailed = errors.New("publish failed")

// Client posts offer embeds to a Discord channel through the REST API using
// the bot token.
type Client struct {
	apiBase     string
	token       string
	client      *http.Client
	rateLimiter *rate.Limiter
	baseBackoff time.Duration
	log         zerolog.Logger
}

func New(token string, log zerolog.Logger) *Client {
	return NewWithBaseURL(DefaultAPIBase, token, log)
}

// NewWithBaseURL is New against a custom API base, used by tests.
func NewWithBaseURL(apiBase, token string, log zerolog.Logger) *Client {
	return &Client{
		apiBase:     apiBase,
		token:       token,
		client:      &http.Client{Timeout: 10 * time.Second},
		rateLimiter: rate.NewLimiter(rate.Every(time.Second), 1), // Discord allows about 5 messages per 5s per channel
		baseBackoff: time.Second,
		log:         log,
	}
}

// Publish sends offers to channelID in rank order, at most
// MaxEmbedsPerMessage per message. It stops at the first failed message.
func (c *Client) Publish(ctx context.Context, channelID string, offers []models.Offer) error {
	chunks := ChunkOffers(offers, MaxEmbedsPerMessage)
	for i, chunk := range chunks {
		embeds := make([]*discordgo.MessageEmbed, len(chunk))
		for j, o := range chunk {
			embeds[j] = FormatOfferEmbed(o)
		}

		id, err := c.Send(ctx, channelID, embeds)
		if err != nil {
			return fmt.Errorf("message %d/%d: %w", i+1, len(chunks), err)
		}
		c.log.Debug().Str("channel_id", channelID).Str("message_id", id).Int("embeds", len(embeds)).Msg("Posted offers")
	}
	c.log.Info().Str("channel_id", channelID).Int("offers", len(offers)).Int("messages", len(chunks)).Msg("Published offers")
	return nil
}

type messagePayload struct {
	Content string                    `json:"content,omitempty"`
	Embeds  []*discordgo.MessageEmbed `json:"embeds"`
}

// Send posts one message and returns its ID.
func (c *Client) Send(ctx context.Context, channelID string, embeds []*discordgo.MessageEmbed) (string, error) {
	body, err := json.Marshal(messagePayload{Embeds: embeds})
	if err != nil {
		return "", fmt.Errorf("failed to encode message: %w", err)
	}
	endpoint := fmt.Sprintf("%s/channels/%s/messages", c.apiBase, channelID)

	for attempt := 0; ; attempt++ {
		if err := c.rateLimiter.Wait(ctx); err != nil {
			return "", err
		}

		start := time.Now()
		id, resp, err := c.post(ctx, endpoint, body)
		metrics.ObserveNetworkRequest("discord", start, err)
		if err == nil {
			return id, nil
		}

		wait := time.Duration(0)
		if resp != nil {
			wait = retryBackoff(resp, attempt, c.baseBackoff)
		}
		if wait == 0 || attempt >= maxRetries {
			return "", err
		}
		c.log.Warn().Err(err).Int("attempt", attempt+1).Dur("backoff", wait).Msg("Discord request failed, retrying")

		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(wait):
		}
	}
}

// post returns the response alongside any error so the caller can decide
// whether to retry. A nil response means the request never completed.
func (c *Client) post(ctx context.Context, endpoint string, body []byte) (string, *http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return "", nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bot "+c.token)

	resp, err := c.client.Do(req)
	if err != nil {
		return "", nil, fmt.Errorf("%w: %w", ErrPublishFailed, err)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", resp, fmt.Errorf("%w: discord status: %s, body: %s", ErrPublishFailed, resp.Status, string(respBody))
	}

	var msg discordgo.Message
	if err := json.Unmarshal(respBody, &msg); err != nil {
		return "", resp, fmt.Errorf("failed to decode discord response: %w", err)
	}
	return msg.ID, resp, nil
}

// retryBackoff returns how long to wait before retrying a failed response,
// or zero when the status is not retryable.
func retryBackoff(resp *http.Response, attempt int, base time.Duration) time.Duration {
	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		if secs, err := strconv.ParseFloat(resp.Header.Get("Retry-After"), 64); err == nil && secs > 0 {
			return min(time.Duration(secs*float64(time.Second)), maxBackoff)
		}
		return min(base<<attempt, maxBackoff)
	case resp.StatusCode >= 500:
		return min(base<<attempt, maxBackoff)
	default:
		return 0
	}
}

// ChunkOffers splits offers into consecutive groups of at most size,
// preserving order.
func ChunkOffers(offers []models.Offer, size int) [][]models.Offer {
	if size <= 0 {
		size = MaxEmbedsPerMessage
	}
	var chunks [][]models.Offer
	for start := 0; start < len(offers); start += size {
		chunks = append(chunks, offers[start:min(start+size, len(offers))])
	}
	return chunks
}

// FormatOfferEmbed renders one offer: title "<name> (-NN%)" linking to the
// store page, the header image, and price fields.
func FormatOfferEmbed(o models.Offer) *discordgo.MessageEmbed {
	title := fmt.Sprintf("%s (-%d%%)", o.Name, o.DiscountPercent)
	if r := []rune(title); len(r) > maxTitleRunes {
		title = string(r[:maxTitleRunes-1]) + "…"
	}

	embed := &discordgo.MessageEmbed{
		Title: title,
		URL:   o.DetailURL,
		Color: discountColor(o.DiscountPercent),
	}
	if o.ImageURL != "" {
		embed.Image = &discordgo.MessageEmbedImage{URL: o.ImageURL}
	}

	if o.OriginalPrice != "" {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{Name: "Original", Value: o.OriginalPrice, Inline: true})
	}
	embed.Fields = append(embed.Fields,
		&discordgo.MessageEmbedField{Name: "Price", Value: valueOr(o.FinalPrice, "?"), Inline: true},
		&discordgo.MessageEmbedField{Name: "Discount", Value: fmt.Sprintf("-%d%%", o.DiscountPercent), Inline: true},
	)
	return embed
}

func discountColor(percent int) int {
	if percent >= hugeDealCutoff {
		return colorHugeDeal
	}
	return colorDeal
}

func valueOr(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}
