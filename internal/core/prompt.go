package core

import "fmt"

const narrativePromptFormat = `
You are a cybersecurity expert assistant.
Analyze this email and the phishing score (0-1, where 1 is high risk).

Phishing Score: %.2f

Email:
From: %s
Subject: %s
Body: %s

Provide a concise, user-friendly explanation of the risk.
If the score is high, explain why (e.g., suspicious sender, urgency, number of links).
If low, check again if it looks safe by measuring suspicious metrics (sender address way too long, many URLs, emotional manipulation, etc.)
Do not use markdown formatting.
`

// BuildNarrativePrompt renders the prompt sent to the text generator
func BuildNarrativePrompt(email *EmailData, body string, score float64) string {
	return fmt.Sprintf(narrativePromptFormat, score, email.Sender, email.Subject, body)
}
