package utils

import "strings"

// Channel prefixes in user ids. A user id is "<channel>:<recipient>", so
// the same session logic serves every chat surface.
const (
	ChannelTelegram = "tg"
	ChannelWhatsApp = "wa"
	ChannelCLI      = "cli"
)

// UserID builds a channel-qualified user id.
func UserID(channel, recipient string) string {
	return channel + ":" + recipient
}

// SplitUserID separates the channel prefix from the channel-native
// recipient. Ids without a prefix come back with an empty channel.
func SplitUserID(userID string) (channel, recipient string) {
	if i := strings.Index(userID, ":"); i >= 0 {
		return userID[:i], userID[i+1:]
	}
	return "", userID
}
