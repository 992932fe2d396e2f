package prompt

import "fmt"

const sentimentSystem = `You are a sentiment classifier for short social media captions.
Captions may be written in Arabic, English or a mix of both and may contain hashtags, mentions and emoji.
Reply with a single JSON object and nothing else:
{"label": "positive" | "negative" | "neutral", "confidence": <number between 0 and 1>}`

// GetSentimentSystemPrompt returns the classifier instructions.
func GetSentimentSystemPrompt() string {
	return sentimentSystem
}

func GetSentimentUserPrompt(text string) string {
	return fmt.Sprintf("Caption:\n%s", text)
}
