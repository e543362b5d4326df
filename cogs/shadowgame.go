package cogs

import (
	"fmt"

	"github.com/bwmarrin/discordgo"

	"rcb-go/utils"
)

// RegisterShadowCommand returns the /shadow easter-egg command.
func RegisterShadowCommand() *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{
		Name:        "shadow",
		Description: "Something stirs in the shadows...",
		Options: []*discordgo.ApplicationCommandOption{
			{
				Type:        discordgo.ApplicationCommandOptionString,
				Name:        "guess",
				Description: "Your answer to the current riddle",
				Required:    false,
			},
		},
	}
}

// HandleShadowCommand shows the current riddle or checks a guess. The whole
// community shares one puzzle sequence; solving the last riddle reveals the
// shadow challenge.
func HandleShadowCommand(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if svc.Shadow == nil {
		respondText(s, i, "The shadows are quiet right now.")
		return
	}

	opts := optionMap(i)
	guessOpt, hasGuess := opts["guess"]

	if !hasGuess {
		clue, active := svc.Shadow.CurrentClue()
		if !active {
			respondText(s, i, "The shadow has already been revealed. Check the challenge list.")
			return
		}
		step, total, _ := svc.Shadow.Progress()
		respondText(s, i, fmt.Sprintf("%s\n\n**Riddle %d of %d:** %s", svc.Shadow.Intro(), step+1, total, clue))
		return
	}

	switch svc.Shadow.Guess(guessOpt.StringValue()) {
	case utils.GuessSolved:
		respondText(s, i, "🌘 **The final seal breaks.** The shadow challenge is revealed to all!")
	case utils.GuessAdvanced:
		clue, _ := svc.Shadow.CurrentClue()
		step, total, _ := svc.Shadow.Progress()
		respondText(s, i, fmt.Sprintf("✅ Correct! **Riddle %d of %d:** %s", step+1, total, clue))
	default:
		respondText(s, i, "❌ The shadows do not answer. Try again.")
	}
}
