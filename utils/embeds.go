package utils

import (
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"

	"rcb-go/models"
)

// Embed colors per award kind, plus the default brand color.
const (
	ColorDefault       = 0x5865F2
	ColorParticipation = 0x22A7F0
	ColorBeaten        = 0xFFD700
	ColorMastery       = 0x9B59B6
)

func awardColor(kind models.AwardKind) int {
	switch kind {
	case models.AwardParticipation:
		return ColorParticipation
	case models.AwardBeaten:
		return ColorBeaten
	case models.AwardMastery:
		return ColorMastery
	}
	return ColorDefault
}

func awardIcon(kind models.AwardKind) string {
	switch kind {
	case models.AwardParticipation:
		return "🎮"
	case models.AwardBeaten:
		return "⭐"
	case models.AwardMastery:
		return "✨"
	}
	return "🏆"
}

// CreateAwardEmbed builds the announcement embed for a newly granted award.
func CreateAwardEmbed(username string, kind models.AwardKind, points int, gameName string) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Title:       fmt.Sprintf("%s %s", awardIcon(kind), models.AwardTitle(gameName, kind)),
		Description: fmt.Sprintf("**%s** earned **%d** point(s)!", username, points),
		Color:       awardColor(kind),
		Timestamp:   time.Now().Format(time.RFC3339),
		Footer: &discordgo.MessageEmbedFooter{
			Text: "Challenge Points",
		},
	}
}

// CreateLeaderboardEmbed renders a points leaderboard.
func CreateLeaderboardEmbed(title string, rows []LeaderboardRow) *discordgo.MessageEmbed {
	var sb strings.Builder
	if len(rows) == 0 {
		sb.WriteString("No points earned yet.")
	}
	medals := []string{"🥇", "🥈", "🥉"}
	for i, row := range rows {
		rank := fmt.Sprintf("%d.", i+1)
		if i < len(medals) {
			rank = medals[i]
		}
		sb.WriteString(fmt.Sprintf("%s **%s** — %d pts\n", rank, row.Username, row.Points))
	}

	return &discordgo.MessageEmbed{
		Title:       fmt.Sprintf("🏆 %s", title),
		Description: sb.String(),
		Color:       ColorDefault,
		Timestamp:   time.Now().Format(time.RFC3339),
	}
}

// CreateProfileEmbed renders a user's yearly stats and award history.
func CreateProfileEmbed(stats models.UserYearlyStats, awards []models.AwardLedgerEntry) *discordgo.MessageEmbed {
	embed := &discordgo.MessageEmbed{
		Title: fmt.Sprintf("🕹️ %s — %d", stats.Username, stats.Year),
		Color: ColorDefault,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Total Points", Value: fmt.Sprintf("%d", stats.TotalPoints), Inline: true},
			{Name: "Games Beaten", Value: fmt.Sprintf("%d", stats.GamesBeaten), Inline: true},
			{Name: "Games Mastered", Value: fmt.Sprintf("%d", stats.GamesMastered), Inline: true},
			{Name: "Participations", Value: fmt.Sprintf("%d", stats.MonthlyParticipations), Inline: true},
		},
		Timestamp: time.Now().Format(time.RFC3339),
	}

	if len(awards) > 0 {
		var sb strings.Builder
		// Discord field limit; show the most recent awards only.
		start := 0
		if len(awards) > 10 {
			start = len(awards) - 10
		}
		for _, a := range awards[start:] {
			sb.WriteString(fmt.Sprintf("%s %s (+%d)\n", awardIcon(a.Kind), a.GameID, a.Points))
		}
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:   "Recent Awards",
			Value:  sb.String(),
			Inline: false,
		})
	}

	return embed
}

// CreateHighScoreEmbed renders an arcade board.
func CreateHighScoreEmbed(board string, scores []ArcadeScore) *discordgo.MessageEmbed {
	var sb strings.Builder
	if len(scores) == 0 {
		sb.WriteString("No scores submitted yet.")
	}
	medals := []string{"🥇", "🥈", "🥉"}
	for i, sc := range scores {
		rank := fmt.Sprintf("%d.", i+1)
		if i < len(medals) {
			rank = medals[i]
		}
		sb.WriteString(fmt.Sprintf("%s **%s** — %d\n", rank, sc.Username, sc.Score))
	}

	return &discordgo.MessageEmbed{
		Title:       fmt.Sprintf("👾 %s High Scores", board),
		Description: sb.String(),
		Color:       ColorDefault,
		Timestamp:   time.Now().Format(time.RFC3339),
	}
}

// CreateGameInfoEmbed renders MobyGames metadata.
func CreateGameInfoEmbed(game *MobyGame) *discordgo.MessageEmbed {
	platforms := make([]string, 0, len(game.Platforms))
	for _, p := range game.Platforms {
		platforms = append(platforms, p.PlatformName)
	}

	embed := &discordgo.MessageEmbed{
		Title: fmt.Sprintf("🎮 %s", game.Title),
		Color: ColorDefault,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Moby Score", Value: fmt.Sprintf("%.1f", game.MobyScore), Inline: true},
		},
	}
	if len(platforms) > 0 {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name: "Platforms", Value: strings.Join(platforms, ", "), Inline: true,
		})
	}
	if game.Description != "" {
		desc := game.Description
		if len(desc) > 400 {
			desc = desc[:400] + "…"
		}
		embed.Description = desc
	}
	return embed
}
