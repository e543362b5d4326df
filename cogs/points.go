package cogs

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"time"

	"github.com/bwmarrin/discordgo"

	"rcb-go/models"
	"rcb-go/utils"
)

// RegisterPointsCommands returns the profile, registration, and admin
// maintenance commands.
func RegisterPointsCommands() []*discordgo.ApplicationCommand {
	kindChoices := []*discordgo.ApplicationCommandOptionChoice{
		{Name: "participation", Value: string(models.AwardParticipation)},
		{Name: "beaten", Value: string(models.AwardBeaten)},
		{Name: "mastery", Value: string(models.AwardMastery)},
	}

	return []*discordgo.ApplicationCommand{
		{
			Name:        "register",
			Description: "Link your RetroAchievements username",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "username",
					Description: "Your RetroAchievements username",
					Required:    true,
				},
			},
		},
		{
			Name:        "profile",
			Description: "View your challenge points and awards for the year",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "username",
					Description: "RetroAchievements username (defaults to your registration)",
					Required:    false,
				},
			},
		},
		{
			Name:        "award",
			Description: "Admin: fetch a user's progress on a game and process awards now",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "username",
					Description: "RetroAchievements username",
					Required:    true,
				},
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "game",
					Description: "Game id",
					Required:    true,
				},
			},
		},
		{
			Name:        "removeaward",
			Description: "Admin: remove a ledger entry and rebuild the user's stats",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "username",
					Description: "RetroAchievements username",
					Required:    true,
				},
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "game",
					Description: "Game id",
					Required:    true,
				},
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "kind",
					Description: "Award kind",
					Required:    true,
					Choices:     kindChoices,
				},
				{
					Type:        discordgo.ApplicationCommandOptionInteger,
					Name:        "year",
					Description: "Award year",
					Required:    true,
				},
				{
					Type:        discordgo.ApplicationCommandOptionInteger,
					Name:        "month",
					Description: "Award month (omit for mastery)",
					Required:    false,
				},
			},
		},
		{
			Name:        "rebuildstats",
			Description: "Admin: recompute a user's yearly stats from the award ledger",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "username",
					Description: "RetroAchievements username",
					Required:    true,
				},
				{
					Type:        discordgo.ApplicationCommandOptionInteger,
					Name:        "year",
					Description: "Year to rebuild (defaults to current)",
					Required:    false,
				},
			},
		},
	}
}

// HandleRegisterCommand links a Discord member to an RA username.
func HandleRegisterCommand(s *discordgo.Session, i *discordgo.InteractionCreate) {
	opts := optionMap(i)
	username := opts["username"].StringValue()

	discordID, err := strconv.ParseInt(i.Member.User.ID, 10, 64)
	if err != nil {
		respondText(s, i, "❌ Could not read your Discord id.")
		return
	}

	if err := svc.Users.Register(context.Background(), discordID, username); err != nil {
		log.Printf("cogs: register failed for %s: %v", username, err)
		respondText(s, i, "❌ Registration failed. Try again later.")
		return
	}

	respondText(s, i, fmt.Sprintf("✅ Linked to RetroAchievements user **%s**. Your progress on the challenge games will be tracked.", models.NormalizeUsername(username)))
}

// HandleProfileCommand shows a user's yearly stats and recent awards.
func HandleProfileCommand(s *discordgo.Session, i *discordgo.InteractionCreate) {
	ctx := context.Background()
	opts := optionMap(i)

	var username string
	if opt, ok := opts["username"]; ok {
		username = opt.StringValue()
	} else {
		discordID, err := strconv.ParseInt(i.Member.User.ID, 10, 64)
		if err == nil {
			if linked, found, err := svc.Users.Lookup(ctx, discordID); err == nil && found {
				username = linked
			}
		}
	}
	if username == "" {
		respondText(s, i, "No linked username. Use `/register` first or pass `username`.")
		return
	}

	year := time.Now().Year()
	stats, err := svc.Engine.GetStats(ctx, username, year)
	if err != nil {
		log.Printf("cogs: profile stats failed for %s: %v", username, err)
		respondText(s, i, "❌ Error reading stats. Database may be unavailable.")
		return
	}
	awards, err := svc.Engine.GetAwardsForUser(ctx, username, year)
	if err != nil {
		log.Printf("cogs: profile awards failed for %s: %v", username, err)
		respondText(s, i, "❌ Error reading awards. Database may be unavailable.")
		return
	}

	respondEmbed(s, i, utils.CreateProfileEmbed(stats, awards))
}

// HandleAwardCommand fetches a user's live progress on one game and runs it
// through the points engine immediately, bypassing the poll interval. The
// ledger's uniqueness constraint makes this safe alongside the poller.
func HandleAwardCommand(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if !isAdmin(i) {
		respondText(s, i, "❌ Admin only.")
		return
	}

	opts := optionMap(i)
	username := opts["username"].StringValue()
	gameID := opts["game"].StringValue()

	ctx := context.Background()
	records, err := svc.Fetcher.FetchAchievements(ctx, username, gameID)
	if err != nil {
		respondText(s, i, fmt.Sprintf("❌ Fetch failed, nothing awarded: %v", err))
		return
	}

	granted, err := svc.Engine.ProcessAchievements(ctx, username, gameID, records, time.Now())
	if err != nil {
		log.Printf("cogs: manual award failed for %s/%s: %v", username, gameID, err)
		respondText(s, i, "❌ Processing failed; see logs.")
		return
	}

	if len(granted) == 0 {
		respondText(s, i, "No new awards. Everything eligible is already on the ledger.")
		return
	}

	svc.Leaderboards.Invalidate(time.Now())
	respondText(s, i, fmt.Sprintf("✅ Granted %d new award(s): %v", len(granted), granted))
}

// HandleRemoveAwardCommand deletes a ledger entry and rebuilds stats.
func HandleRemoveAwardCommand(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if !isAdmin(i) {
		respondText(s, i, "❌ Admin only.")
		return
	}

	opts := optionMap(i)
	username := opts["username"].StringValue()
	gameID := opts["game"].StringValue()
	kind := models.AwardKind(opts["kind"].StringValue())
	year := int(opts["year"].IntValue())

	month := 0
	if opt, ok := opts["month"]; ok {
		month = int(opt.IntValue())
	}
	if !kind.MonthScoped() {
		month = 0
	} else if month == 0 {
		respondText(s, i, "❌ participation/beaten awards are month-scoped; pass `month`.")
		return
	}

	removed, err := svc.Engine.RemoveAward(context.Background(), actorName(i), username, gameID, kind, year, month)
	if err != nil {
		log.Printf("cogs: removeaward failed: %v", err)
		respondText(s, i, "❌ Removal failed; see logs.")
		return
	}
	if !removed {
		respondText(s, i, "No matching ledger entry.")
		return
	}

	svc.Leaderboards.Invalidate(time.Now())
	respondText(s, i, fmt.Sprintf("✅ Removed %s award for **%s** on game %s and rebuilt %d stats.", kind, models.NormalizeUsername(username), gameID, year))
}

// HandleRebuildStatsCommand recomputes a user-year aggregate from the ledger
// and reports the exact resulting counts.
func HandleRebuildStatsCommand(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if !isAdmin(i) {
		respondText(s, i, "❌ Admin only.")
		return
	}

	opts := optionMap(i)
	username := opts["username"].StringValue()
	year := time.Now().Year()
	if opt, ok := opts["year"]; ok {
		year = int(opt.IntValue())
	}

	stats, err := svc.Engine.RebuildStats(context.Background(), username, year)
	if err != nil {
		log.Printf("cogs: rebuildstats failed for %s/%d: %v", username, year, err)
		respondText(s, i, "❌ Rebuild failed; see logs.")
		return
	}

	svc.Leaderboards.Invalidate(time.Now())
	respondText(s, i, fmt.Sprintf(
		"✅ Rebuilt %d stats for **%s**: %d points, %d beaten, %d mastered, %d participations.",
		year, stats.Username, stats.TotalPoints, stats.GamesBeaten, stats.GamesMastered, stats.MonthlyParticipations))
}
