package discord

import (
	"context"
	"errors"
	"fmt"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog"

	"github.com/pauljones0/steam-deals-bot/internal/deals"
	"github.com/pauljones0/steam-deals-bot/internal/models"
	"github.com/pauljones0/steam-deals-bot/internal/notifier"
)

const (
	CommandName = "deals_metroidvania"

	msgNoOffers = "No qualifying offers found (or the Steam store changed its format)."
)

type DealsGetter interface {
	Get(ctx context.Context, q models.Query) ([]models.Offer, error)
}

// Reply is one follow-up message: either text or a batch of embeds.
type Reply struct {
	Content string
	Embeds  []*discordgo.MessageEmbed
}

// CommandHandler renders the deals command independently of the gateway.
type CommandHandler struct {
	service  DealsGetter
	defaults deals.QueryDefaults
	log      zerolog.Logger
}

func NewCommandHandler(service DealsGetter, defaults deals.QueryDefaults, log zerolog.Logger) *CommandHandler {
	return &CommandHandler{service: service, defaults: defaults, log: log}
}

// Definition is the slash command registered with Discord.
func (h *CommandHandler) Definition() *discordgo.ApplicationCommand {
	minLimit := float64(deals.MinLimit)
	return &discordgo.ApplicationCommand{
		Name:        CommandName,
		Description: "Metroidvania games currently on sale on Steam",
		Options: []*discordgo.ApplicationCommandOption{
			{
				Type:        discordgo.ApplicationCommandOptionInteger,
				Name:        "limit",
				Description: fmt.Sprintf("Number of deals (%d-%d)", deals.MinLimit, deals.MaxLimit),
				MinValue:    &minLimit,
				MaxValue:    deals.MaxLimit,
			},
		},
	}
}

// Replies fetches offers and renders them as follow-up messages. A fetch
// failure and an empty result produce different texts.
func (h *CommandHandler) Replies(ctx context.Context, limit int) []Reply {
	q := h.defaults.Query(limit)
	offers, err := h.service.Get(ctx, q)
	if err != nil {
		h.log.Error().Err(err).Int("limit", q.Limit).Msg("Fetch deals failed")
		return []Reply{{Content: fetchFailedMessage(err)}}
	}

	if len(offers) == 0 {
		h.log.Warn().Str("key", q.CacheKey()).Msg("No deals returned for query")
		return []Reply{{Content: msgNoOffers}}
	}

	h.log.Info().Int("offers", len(offers)).Msg("Returning deals")
	chunks := notifier.ChunkOffers(offers, notifier.MaxEmbedsPerMessage)
	replies := make([]Reply, len(chunks))
	for i, chunk := range chunks {
		embeds := make([]*discordgo.MessageEmbed, len(chunk))
		for j, o := range chunk {
			embeds[j] = notifier.FormatOfferEmbed(o)
		}
		replies[i] = Reply{Embeds: embeds}
	}
	return replies
}

func fetchFailedMessage(err error) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return "Fetch failed: Steam took too long to respond."
	}
	return fmt.Sprintf("Fetch failed: `%v`", err)
}

// optionLimit reads the "limit" option, or 0 when absent.
func optionLimit(data discordgo.ApplicationCommandInteractionData) int {
	for _, opt := range data.Options {
		if opt.Name == "limit" && opt.Type == discordgo.ApplicationCommandOptionInteger {
			return int(opt.IntValue())
		}
	}
	return 0
}
