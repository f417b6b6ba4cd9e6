package ai

// DefaultBot is used for any model missing from the bot table.
const DefaultBot = "GPT-4o"

var botNames = map[string]string{
	"gpt-4o":            "GPT-4o",
	"gpt-4":             "GPT-4",
	"gpt-3.5-turbo":     "ChatGPT",
	"claude-3.5-sonnet": "Claude-3.5-Sonnet",
	"claude-3-opus":     "Claude-3-Opus",
	"claude-3-sonnet":   "Claude-3-Sonnet",
	"claude-3-haiku":    "Claude-3-Haiku",
	"gemini-pro":        "Gemini-Pro",
	"dall-e-3":          "DALL-E-3",
	"sora-2":            "Sora-2",
	"veo-3.1":           "Veo-3.1",
	"runway-gen3":       "Runway-Gen3",
}

// BotName maps a public model name to the upstream bot that serves it.
func BotName(model string) string {
	if bot, ok := botNames[model]; ok {
		return bot
	}
	return DefaultBot
}
