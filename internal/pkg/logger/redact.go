package logger

import "strings"

// RedactChatID masks a WhatsApp chat id or phone number for safe logging.
// "5511999999999@c.us" → "5511***@c.us"
// "5511999999999-1602123456@g.us" → "5511***@g.us"
// Short ids (≤4 digits) are fully masked. Plain numbers keep their first
// four digits: "5511999999999" → "5511***".
func RedactChatID(id string) string {
	local, suffix, found := strings.Cut(id, "@")
	if found {
		suffix = "@" + suffix
	}
	if len(local) > 4 {
		return local[:4] + "***" + suffix
	}
	return "***" + suffix
}
