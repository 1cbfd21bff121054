package llm

import (
	"strconv"
	"strings"
)

const (
	// maxContextChars bounds the document text embedded in one prompt.
	maxContextChars = 10000
	// historyKeep is how many trailing conversation turns the prompt carries.
	historyKeep = 10
	// maxSummaryInput bounds the document text sent for summarization.
	maxSummaryInput = 15000
)

// Turn is one prior conversation exchange included in the prompt.
type Turn struct {
	Role    string
	Content string
}

var languageInstructions = map[string]string{
	"en-US": "Please respond in English.",
	"es-ES": "Por favor responde en español.",
	"fr-FR": "Veuillez répondre en français.",
	"de-DE": "Bitte antworten Sie auf Deutsch.",
	"it-IT": "Si prega di rispondere in italiano.",
	"pt-BR": "Por favor, responda em português.",
	"ru-RU": "Пожалуйста, отвечайте на русском языке.",
	"ja-JP": "日本語で回答してください。",
	"ko-KR": "한국어로 답변해 주세요.",
	"zh-CN": "请用中文回答。",
	"ar-SA": "يرجى الرد باللغة العربية.",
	"hi-IN": "कृपया हिंदी में उत्तर दें।",
}

func languageInstruction(language string) string {
	if s, ok := languageInstructions[language]; ok {
		return s
	}
	return "Please respond in English."
}

const formattingRules = `- Format your responses clearly with proper paragraphs
- Use **bold** for important terms and *italics* for emphasis
- Use bullet points with - when listing items
- Highlight numbers and percentages for better readability
- Structure longer responses with clear sections`

// buildChatPrompt assembles the full prompt: system instruction with the
// (truncated) document context, the trailing history, then the new message.
func buildChatPrompt(message, docContext, language string, history []Turn) string {
	var parts []string

	if docContext != "" {
		if cut, ok := truncateRunes(docContext, maxContextChars); ok {
			docContext = cut + "\n\n[Document truncated for length...]"
		}
		parts = append(parts, `You are an AI assistant helping users understand and discuss a document.
`+languageInstruction(language)+`

Here is the document content for reference:

`+docContext+`

Instructions:
- Answer questions based on the document content when possible
- If information isn't in the document, clearly state that
- Be helpful, accurate, and conversational
- Provide specific references to document sections when relevant
- If asked about topics not in the document, provide general helpful information but note it's not from the document
`+formattingRules)
	} else {
		parts = append(parts, `You are a helpful AI assistant.
`+languageInstruction(language)+`

Instructions:
- Provide helpful and accurate responses
- Be conversational and friendly
- If you don't know something, admit it honestly
`+formattingRules)
	}

	if len(history) > 0 {
		keep := history
		if len(keep) > historyKeep {
			keep = keep[len(keep)-historyKeep:]
		}
		parts = append(parts, "\nPrevious conversation:")
		for _, t := range keep {
			role := "Assistant"
			if t.Role == "user" {
				role = "Human"
			}
			parts = append(parts, role+": "+t.Content)
		}
	}

	parts = append(parts, "\nHuman: "+message)
	parts = append(parts, "Assistant:")
	return strings.Join(parts, "\n")
}

// truncateRunes caps s at n characters; the prompt limits count characters,
// not bytes, so a multi-byte rune is never split.
func truncateRunes(s string, n int) (string, bool) {
	runes := []rune(s)
	if len(runes) <= n {
		return s, false
	}
	return string(runes[:n]), true
}

func buildSummaryPrompt(text string, maxWords int) string {
	if maxWords <= 0 {
		maxWords = 300
	}
	if cut, ok := truncateRunes(text, maxSummaryInput); ok {
		text = cut + "..."
	}
	return strings.Join([]string{
		"Please provide a concise summary of the following document.",
		"Focus on the main topics, key points, and overall content structure.",
		"Keep the summary under " + strconv.Itoa(maxWords) + " words.",
		"",
		"Document content:",
		text,
		"",
		"Summary:",
	}, "\n")
}
