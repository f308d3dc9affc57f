package channel

import "github.com/DeanoC/AIWhisperer-sub003/pkg/types"

// FilterResult is the visible subset of channel messages plus per-channel
// counts over the full unfiltered set. Counts back the badge numbers shown
// even when a channel is hidden.
type FilterResult struct {
	Visible []types.ChannelMessage
	Counts  map[types.Channel]int
}

// Filter maps (messages, preferences) to the visible subset. Final-channel
// messages are included unconditionally; analysis and commentary follow
// their preference flags. Pure function, safe to call on every render.
func Filter(msgs []types.ChannelMessage, prefs types.VisibilityPreferences) FilterResult {
	result := FilterResult{
		Visible: make([]types.ChannelMessage, 0, len(msgs)),
		Counts:  make(map[types.Channel]int),
	}

	for _, msg := range msgs {
		result.Counts[msg.Channel]++

		switch msg.Channel {
		case types.ChannelFinal:
			result.Visible = append(result.Visible, msg)
		case types.ChannelAnalysis:
			if prefs.ShowAnalysis {
				result.Visible = append(result.Visible, msg)
			}
		case types.ChannelCommentary:
			if prefs.ShowCommentary {
				result.Visible = append(result.Visible, msg)
			}
		}
	}

	return result
}
