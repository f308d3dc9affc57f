package types

// Config represents the whisper client configuration.
type Config struct {
	// Schema reference (for editor support)
	Schema string `json:"$schema,omitempty" yaml:"$schema,omitempty"`

	// Server is the base URL of the AIWhisperer backend.
	Server string `json:"server,omitempty" yaml:"server,omitempty"`

	// LogLevel is the minimum log level (DEBUG|INFO|WARN|ERROR).
	LogLevel string `json:"logLevel,omitempty" yaml:"logLevel,omitempty"`

	// Visibility controls which channels are rendered.
	Visibility VisibilityPreferences `json:"visibility,omitempty" yaml:"visibility,omitempty"`

	// Save controls how file writes are routed.
	Save SaveConfig `json:"save,omitempty" yaml:"save,omitempty"`
}

// SaveConfig controls the file save path decision.
type SaveConfig struct {
	// ForceDirect always routes saves through the direct write RPC,
	// bypassing the agent conversation channel.
	ForceDirect bool `json:"forceDirect,omitempty" yaml:"forceDirect,omitempty"`

	// ForceDirectPatterns lists doublestar globs; a path matching any of
	// them is saved as if ForceDirect were set.
	ForceDirectPatterns []string `json:"forceDirectPatterns,omitempty" yaml:"forceDirectPatterns,omitempty"`
}
