package ai

import (
	"fmt"
	"strings"

	"github.com/v0xg/ytmark/internal/youtube"
)

const summarySystemPrompt = `You are a YouTube video summarizer. Your task is to turn a video's transcript into a summary a reader can scan in under a minute.

You will receive:
1. Video metadata (title, channel, URL)
2. The video's transcript, or its description when no transcript exists

Write the summary as:
- One opening sentence stating what the video is about
- 3-7 bullet points covering the main points, in the order the video makes them
- One closing line starting with "Takeaway:" giving the single most useful point

Guidelines:
- Stay under 250 words
- Use plain text with "-" bullets, no markdown headers
- Summarize only what the source text supports, never invent details
- When the transcript is cut off, summarize what is there without mentioning the cut
- When only a description is available, note that in the opening sentence

Respond ONLY with the summary, no preamble or explanation.`

// maxTranscriptChars bounds what a prompt carries. Long videos produce
// transcripts far past any useful summarization payoff.
const maxTranscriptChars = 24000

func buildSummaryPrompt(video *youtube.VideoMeta, transcript, extra string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Video: %s\n", video.Title)
	if video.Channel != "" {
		fmt.Fprintf(&b, "Channel: %s\n", video.Channel)
	}
	fmt.Fprintf(&b, "URL: %s\n", video.URL)

	if transcript != "" {
		b.WriteString("\nTranscript:\n")
		b.WriteString(truncateTranscript(transcript))
		b.WriteString("\n")
	} else if video.Description != "" {
		b.WriteString("\nNo transcript available. Description:\n")
		b.WriteString(video.Description)
		b.WriteString("\n")
	}

	if extra != "" {
		b.WriteString("\nAdditional instruction: ")
		b.WriteString(extra)
		b.WriteString("\n")
	}

	return b.String()
}

func truncateTranscript(t string) string {
	if len(t) <= maxTranscriptChars {
		return t
	}
	return t[:maxTranscriptChars]
}
