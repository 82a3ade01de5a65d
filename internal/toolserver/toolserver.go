// Package toolserver exposes the summarizer and the mark-as-watched
// flow as MCP tools so agent frontends can drive them over stdio.
package toolserver

import (
	"context"
	"fmt"
	"sync"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/v0xg/ytmark/internal/ai"
	"github.com/v0xg/ytmark/internal/browser"
	"github.com/v0xg/ytmark/internal/config"
	"github.com/v0xg/ytmark/internal/dom"
	"github.com/v0xg/ytmark/internal/youtube"
)

// Options carries what the tool handlers need: browser launch options,
// the selector tables, and the default AI provider.
type Options struct {
	Config   *config.Config
	Browser  browser.Options
	Provider string
	Model    string
	Log      dom.Logger
}

type SummarizeInput struct {
	URL      string `json:"url" jsonschema:"YouTube video URL or bare 11-character video id"`
	Prompt   string `json:"prompt,omitempty" jsonschema:"extra instruction for the summary"`
	Provider string `json:"provider,omitempty" jsonschema:"AI provider override: claude or openai"`
	Model    string `json:"model,omitempty" jsonschema:"model override for the chosen provider"`
}

type SummarizeOutput struct {
	VideoID string `json:"video_id"`
	Title   string `json:"title"`
	Channel string `json:"channel,omitempty"`
	Summary string `json:"summary"`
}

type MarkWatchedInput struct {
	URL  string `json:"url" jsonschema:"YouTube video URL or bare 11-character video id"`
	Page string `json:"page,omitempty" jsonschema:"listing page to mark the video on, defaults to the YouTube home page"`
}

type MarkWatchedOutput struct {
	VideoID string `json:"video_id"`
	Marked  bool   `json:"marked"`
}

// Register wires both tools into server.
func Register(server *mcp.Server, opts Options) {
	if opts.Log == nil {
		opts.Log = dom.NopLogger()
	}

	// The feedback flow mutates YouTube state through a dedicated
	// browser; overlapping runs are rejected rather than queued.
	var markMu sync.Mutex

	mcp.AddTool(server, &mcp.Tool{
		Name:        "summarize_video",
		Description: "Summarize a YouTube video from its transcript, falling back to its description when no transcript exists.",
		Annotations: &mcp.ToolAnnotations{ReadOnlyHint: true},
	}, func(ctx context.Context, req *mcp.CallToolRequest, input SummarizeInput) (*mcp.CallToolResult, SummarizeOutput, error) {
		out, err := summarize(ctx, opts, input)
		if err != nil {
			return nil, SummarizeOutput{}, err
		}
		return nil, *out, nil
	})

	mcp.AddTool(server, &mcp.Tool{
		Name:        "mark_watched",
		Description: "Mark a YouTube video as already watched by driving the 'Not interested' feedback flow on a listing page. Requires a signed-in browser profile.",
	}, func(ctx context.Context, req *mcp.CallToolRequest, input MarkWatchedInput) (*mcp.CallToolResult, MarkWatchedOutput, error) {
		if !markMu.TryLock() {
			return nil, MarkWatchedOutput{}, youtube.ErrBusy
		}
		defer markMu.Unlock()

		out, err := markWatched(ctx, opts, input)
		if err != nil {
			return nil, MarkWatchedOutput{}, err
		}
		return nil, *out, nil
	})
}

func summarize(ctx context.Context, opts Options, input SummarizeInput) (*SummarizeOutput, error) {
	id, err := youtube.ParseVideoID(input.URL)
	if err != nil {
		return nil, err
	}

	providerName := input.Provider
	if providerName == "" {
		providerName = opts.Provider
	}
	model := input.Model
	if model == "" {
		model = opts.Model
	}
	provider, err := ai.NewProvider(providerName, model)
	if err != nil {
		return nil, err
	}

	b, err := browser.Launch(opts.Browser)
	if err != nil {
		return nil, err
	}
	defer b.Close()

	page, err := b.Open(ctx, youtube.WatchURL(id))
	if err != nil {
		return nil, err
	}
	defer page.Close()

	wp := youtube.NewWatchPage(page, opts.Config, opts.Log)
	wp.DismissConsent(ctx)

	meta, err := wp.Metadata(ctx, id)
	if err != nil {
		return nil, err
	}

	transcript, err := wp.Transcript(ctx)
	if err != nil {
		opts.Log.Logf("transcript unavailable: %v", err)
		meta.Description = wp.Description(ctx)
		if meta.Description == "" {
			return nil, fmt.Errorf("video has neither transcript nor description to summarize")
		}
	}

	summary, err := provider.Summarize(ctx, meta, transcript, input.Prompt)
	if err != nil {
		return nil, err
	}

	return &SummarizeOutput{
		VideoID: id,
		Title:   meta.Title,
		Channel: meta.Channel,
		Summary: summary,
	}, nil
}

func markWatched(ctx context.Context, opts Options, input MarkWatchedInput) (*MarkWatchedOutput, error) {
	id, err := youtube.ParseVideoID(input.URL)
	if err != nil {
		return nil, err
	}

	b, err := browser.Launch(opts.Browser)
	if err != nil {
		return nil, err
	}
	defer b.Close()

	listURL := input.Page
	if listURL == "" {
		listURL = youtube.HomeURL
	}
	page, err := b.Open(ctx, listURL)
	if err != nil {
		return nil, err
	}
	defer page.Close()

	marker := youtube.NewMarker(page, opts.Config, opts.Log)
	marker.DismissConsent(ctx)

	if err := marker.MarkWatched(ctx, id); err != nil {
		return nil, err
	}
	return &MarkWatchedOutput{VideoID: id, Marked: true}, nil
}
