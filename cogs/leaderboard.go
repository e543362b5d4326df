package cogs

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/bwmarrin/discordgo"

	"rcb-go/utils"
)

// RegisterLeaderboardCommand returns the /leaderboard command.
func RegisterLeaderboardCommand() *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{
		Name:        "leaderboard",
		Description: "View the challenge points leaderboard",
		Options: []*discordgo.ApplicationCommandOption{
			{
				Type:        discordgo.ApplicationCommandOptionString,
				Name:        "period",
				Description: "Which board to show",
				Required:    false,
				Choices: []*discordgo.ApplicationCommandOptionChoice{
					{Name: "month", Value: "month"},
					{Name: "year", Value: "year"},
				},
			},
		},
	}
}

// HandleLeaderboardCommand renders the monthly or yearly board.
func HandleLeaderboardCommand(s *discordgo.Session, i *discordgo.InteractionCreate) {
	period := "month"
	if opt, ok := optionMap(i)["period"]; ok {
		period = opt.StringValue()
	}

	now := time.Now()
	var (
		rows  []utils.LeaderboardRow
		title string
		err   error
	)

	switch period {
	case "year":
		title = fmt.Sprintf("%d Yearly Leaderboard", now.Year())
		rows, err = svc.Leaderboards.Yearly(context.Background(), now)
	default:
		title = fmt.Sprintf("%s %d Challenge Leaderboard", now.Month(), now.Year())
		rows, err = svc.Leaderboards.Monthly(context.Background(), now)
	}

	if err != nil {
		log.Printf("cogs: leaderboard query failed: %v", err)
		respondText(s, i, "❌ Error reading the leaderboard. Database may be unavailable.")
		return
	}

	respondEmbed(s, i, utils.CreateLeaderboardEmbed(title, rows))
}
