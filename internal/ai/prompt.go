package ai

import "strings"

// NepaliInstruction constrains the model to translate only the spans that
// are neither Nepali nor English.
const NepaliInstruction = `You are a professional Himalayan language expert. Translate Tamang, Newari or any other non-Nepali Devanagari text into fluent Nepali.
- Translate ONLY spans that are not already in Nepali or English.
- Keep English and Nepali text EXACTLY as is, character for character.
- Preserve original formatting: line breaks, punctuation, numbering and bullets.
- If the language of a span is ambiguous, leave it unchanged instead of guessing.
- Never add explanations, notes or commentary.
- Return ONLY the translated text.`

// models that reject a separate system role
var systemlessModels = []string{"gemma", "llama"}

// AcceptsSystemRole reports whether the model takes a distinct system message
func AcceptsSystemRole(model string) bool {
	lower := strings.ToLower(model)
	for _, m := range systemlessModels {
		if strings.Contains(lower, m) {
			return false
		}
	}
	return true
}

// BuildMessages returns the chat messages for one page
func BuildMessages(instruction, text, model string) []Message {
	instruction = strings.TrimSpace(instruction)
	if instruction == "" {
		return []Message{{Role: RoleUser, Content: text}}
	}
	if !AcceptsSystemRole(model) {
		return []Message{{Role: RoleUser, Content: instruction + "\n\n" + text}}
	}
	return []Message{
		{Role: RoleSystem, Content: instruction},
		{Role: RoleUser, Content: text},
	}
}
