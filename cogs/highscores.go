package cogs

import (
	"context"
	"fmt"
	"log"

	"github.com/bwmarrin/discordgo"

	"rcb-go/utils"
)

// RegisterArcadeCommands returns the arcade board and game-info commands.
func RegisterArcadeCommands() []*discordgo.ApplicationCommand {
	return []*discordgo.ApplicationCommand{
		{
			Name:        "highscores",
			Description: "View an arcade high-score board",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "board",
					Description: "Board name (omit to list boards)",
					Required:    false,
				},
			},
		},
		{
			Name:        "setscore",
			Description: "Admin: record a member's arcade score",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "board",
					Description: "Board name",
					Required:    true,
				},
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "username",
					Description: "Member's RetroAchievements username",
					Required:    true,
				},
				{
					Type:        discordgo.ApplicationCommandOptionInteger,
					Name:        "score",
					Description: "Score",
					Required:    true,
				},
			},
		},
		{
			Name:        "gameinfo",
			Description: "Look up game details on MobyGames",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "title",
					Description: "Game title",
					Required:    true,
				},
			},
		},
	}
}

// HandleHighScoresCommand shows a board or lists available boards.
func HandleHighScoresCommand(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if svc.Arcade == nil {
		respondText(s, i, "❌ Arcade boards need the database; it is unavailable.")
		return
	}

	ctx := context.Background()
	opts := optionMap(i)

	if opt, ok := opts["board"]; ok {
		board := opt.StringValue()
		scores, err := svc.Arcade.TopScores(ctx, board, 10)
		if err != nil {
			log.Printf("cogs: highscores query failed for %s: %v", board, err)
			respondText(s, i, "❌ Error reading the board.")
			return
		}
		respondEmbed(s, i, utils.CreateHighScoreEmbed(board, scores))
		return
	}

	boards, err := svc.Arcade.Boards(ctx)
	if err != nil {
		log.Printf("cogs: board listing failed: %v", err)
		respondText(s, i, "❌ Error listing boards.")
		return
	}
	if len(boards) == 0 {
		respondText(s, i, "No arcade boards yet.")
		return
	}

	msg := "Available boards:\n"
	for _, board := range boards {
		msg += fmt.Sprintf("• %s\n", board)
	}
	respondText(s, i, msg)
}

// HandleSetScoreCommand records a member's score on a board. Only an
// improvement replaces an existing entry.
func HandleSetScoreCommand(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if !isAdmin(i) {
		respondText(s, i, "❌ Admin only.")
		return
	}
	if svc.Arcade == nil {
		respondText(s, i, "❌ Arcade boards need the database; it is unavailable.")
		return
	}

	opts := optionMap(i)
	board := opts["board"].StringValue()
	username := opts["username"].StringValue()
	score := opts["score"].IntValue()

	improved, err := svc.Arcade.SubmitScore(context.Background(), board, username, score)
	if err != nil {
		log.Printf("cogs: setscore failed: %v", err)
		respondText(s, i, "❌ Error recording the score.")
		return
	}
	if !improved {
		respondText(s, i, "Existing score is higher; nothing changed.")
		return
	}

	log.Printf("arcade: %s set %s's score on %s to %d", actorName(i), username, board, score)
	respondText(s, i, fmt.Sprintf("✅ Recorded **%d** for **%s** on %s.", score, username, board))
}

// HandleGameInfoCommand looks a title up on MobyGames.
func HandleGameInfoCommand(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if svc.Moby == nil {
		respondText(s, i, "❌ MobyGames lookups are not configured.")
		return
	}

	title := optionMap(i)["title"].StringValue()
	game, err := svc.Moby.SearchGame(context.Background(), title)
	if err != nil {
		respondText(s, i, fmt.Sprintf("❌ No MobyGames result for %q.", title))
		return
	}

	respondEmbed(s, i, utils.CreateGameInfoEmbed(game))
}
