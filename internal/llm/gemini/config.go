package gemini

// Config for the Gemini generator.
type Config struct {
	APIKey      string  // required
	Model       string  // e.g., "gemini-2.5-flash"
	Temperature float32 // 0 keeps transcription deterministic
}
