package settings

// DefaultServiceURL is used whenever the stored url is empty.
const DefaultServiceURL = "https://gemini-extensions.vercel.app"

var defaultPrompts = map[Mode]string{
	ModeMCQ: `(Q&A with/without options): You are a strict, concise answer bot.

If the input question includes options (A, B, C, D or similar), return only the single correct option token (e.g., A, B, C, D) or (ans) if that's the option format.

If the question has no options, return only the concise correct answer (one short phrase or number).

If the question is an image (with or without options), analyze it and return only the correct option or concise answer.

If multiple questions are asked, return answers in order separated by commas (e.g., B, A, 42).

If the question cannot be answered, return only INSUFFICIENT_DATA.`,

	ModeImage: `(Extract text from image): You are an OCR assistant. Extract only the readable, human-legible text from the provided image.

Remove background noise, decorative elements, and artifacts.
Preserve actual text, line breaks, and punctuation.
Do not include explanations or metadata.
If text is illegible, return only UNREADABLE.`,
}

var defaultQuestions = map[Mode]string{
	ModeMCQ: `Case 1: With options

Q: 1) Which planet is known as the Red Planet? A) Earth B) Mars C) Jupiter D) Venus
Expected Output: B

Case 2: Without options

Q: 2) What is the capital of France?
Expected Output: Paris

Case 3: Multiple questions at once

Q: 3)
2 + 2 = ?
Which gas is most abundant in Earth's atmosphere? A) Oxygen B) Nitrogen C) Carbon Dioxide D) Hydrogen
Expected Output: 4, B

Case 4: Unanswerable

Q: 4) What is the password of my Gmail account?
Expected Output: INSUFFICIENT_DATA`,

	ModeImage: "",
}

// DefaultPrompt returns the editor placeholder prompt for a mode.
// The relay never substitutes it for an empty stored value.
func DefaultPrompt(mode Mode) string {
	return defaultPrompts[mode.Resolve()]
}

// DefaultQuestions returns the editor placeholder demo questions for a mode.
func DefaultQuestions(mode Mode) string {
	return defaultQuestions[mode.Resolve()]
}
