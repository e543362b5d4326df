package cogs

import (
	"log"

	"github.com/bwmarrin/discordgo"

	"rcb-go/utils"
)

// Services bundles everything the command handlers need. Wired once in main
// and passed in via Setup; handlers never construct their own storage.
type Services struct {
	Engine       *utils.PointsEngine
	Queue        *utils.IngestionQueue
	Catalog      *utils.GameRuleCatalog
	Leaderboards *utils.LeaderboardService
	Users        utils.UserDirectory
	Fetcher      utils.AchievementFetcher

	// Nil when not configured; handlers answer gracefully.
	Arcade *utils.ArcadeStore
	Shadow *utils.ShadowGame
	Moby   *utils.MobyClient
}

var svc *Services

// Setup installs the service bundle for all command handlers.
func Setup(s *Services) {
	svc = s
}

// isAdmin gates the maintenance commands on the Manage Server permission.
func isAdmin(i *discordgo.InteractionCreate) bool {
	if i.Member == nil {
		return false
	}
	return i.Member.Permissions&discordgo.PermissionManageServer != 0
}

// actorName identifies the invoking member for audit logs.
func actorName(i *discordgo.InteractionCreate) string {
	if i.Member != nil && i.Member.User != nil {
		return i.Member.User.Username
	}
	return "unknown"
}

// respondEmbed answers an interaction with a single embed.
func respondEmbed(s *discordgo.Session, i *discordgo.InteractionCreate, embed *discordgo.MessageEmbed) {
	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Embeds: []*discordgo.MessageEmbed{embed},
		},
	})
	if err != nil {
		log.Printf("cogs: failed to respond to %s: %v", i.ApplicationCommandData().Name, err)
	}
}

// respondText answers an interaction with an ephemeral text message.
func respondText(s *discordgo.Session, i *discordgo.InteractionCreate, content string) {
	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: content,
			Flags:   discordgo.MessageFlagsEphemeral,
		},
	})
	if err != nil {
		log.Printf("cogs: failed to respond to %s: %v", i.ApplicationCommandData().Name, err)
	}
}

// optionMap indexes an interaction's options by name.
func optionMap(i *discordgo.InteractionCreate) map[string]*discordgo.ApplicationCommandInteractionDataOption {
	options := i.ApplicationCommandData().Options
	m := make(map[string]*discordgo.ApplicationCommandInteractionDataOption, len(options))
	for _, opt := range options {
		m[opt.Name] = opt
	}
	return m
}
