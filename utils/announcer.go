package utils

import (
	"log"

	"github.com/bwmarrin/discordgo"

	"rcb-go/models"
)

// DiscordAnnouncer posts new awards to the community announcement channel.
// Announcements are fire-and-forget: a Discord failure is logged and never
// rolls back the already-persisted award.
type DiscordAnnouncer struct {
	session   *discordgo.Session
	channelID string
}

func NewDiscordAnnouncer(session *discordgo.Session, channelID string) *DiscordAnnouncer {
	return &DiscordAnnouncer{session: session, channelID: channelID}
}

func (a *DiscordAnnouncer) NotifyNewAward(username string, kind models.AwardKind, points int, gameName string) {
	if a.session == nil || a.channelID == "" {
		return
	}

	embed := CreateAwardEmbed(username, kind, points, gameName)
	if _, err := a.session.ChannelMessageSendEmbed(a.channelID, embed); err != nil {
		log.Printf("announcer: failed to post %s award for %s: %v", kind, username, err)
	}
}
