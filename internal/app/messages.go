// internal/app/messages.go
package app

import "fmt"

func kickoffMessage(displayName string, leadDays int) string {
	return fmt.Sprintf("🎉 **Birthday Card Coordination Started!**\n\n"+
		"We're planning a surprise birthday card for **%s**!\n"+
		"🗓️ Their birthday is in **%d days**.\n\n"+
		"**What happens next:**\n"+
		"1. ✍️ Use this channel to plan the card and collect messages\n"+
		"2. 🎂 The surprise will be revealed on their birthday!\n\n"+
		"**Important:** Keep this channel secret from **%s**! 🤫\n"+
		"This channel will be automatically deleted after the card is revealed.",
		displayName, leadDays, displayName)
}

func celebrationMessage(subjectID string) string {
	return fmt.Sprintf("🎉 **SURPRISE <@%s>!** 🎉\n\n"+
		"🎂 **Happy Birthday!!!** 🎂\n\n"+
		"Your friends have been secretly working on a special birthday surprise for you!\n"+
		"Hope your day is absolutely wonderful! 🌟", subjectID)
}

const channelDeleteReason = "Birthday card revealed - cleaning up coordination channel"
