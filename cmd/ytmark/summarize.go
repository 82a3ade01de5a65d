package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/v0xg/ytmark/internal/ai"
	"github.com/v0xg/ytmark/internal/browser"
	"github.com/v0xg/ytmark/internal/youtube"
)

var (
	extraPrompt string
	alsoMark    bool
)

var summarizeCmd = &cobra.Command{
	Use:   "summarize <url|video-id>",
	Short: "Summarize a YouTube video from its transcript",
	Args:  cobra.ExactArgs(1),
	RunE:  runSummarize,
}

func runSummarize(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	id, err := youtube.ParseVideoID(args[0])
	if err != nil {
		return err
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	name := selectedProvider()
	logVerbose("Provider: %s", name)
	aiProvider, err := ai.NewProvider(name, model)
	if err != nil {
		return fmt.Errorf("AI provider init failed: %w", err)
	}

	fmt.Printf("→ Opening %s... ", youtube.WatchURL(id))
	b, err := browser.Launch(browserOptions())
	if err != nil {
		fmt.Println("failed")
		return fmt.Errorf("browser launch failed: %w", err)
	}
	defer b.Close()

	page, err := b.Open(ctx, youtube.WatchURL(id))
	if err != nil {
		fmt.Println("failed")
		return fmt.Errorf("open watch page: %w", err)
	}
	fmt.Println("done")

	wp := youtube.NewWatchPage(page, cfg, stepLogger{})
	wp.DismissConsent(ctx)

	fmt.Printf("→ Reading video metadata... ")
	meta, err := wp.Metadata(ctx, id)
	if err != nil {
		fmt.Println("failed")
		return err
	}
	fmt.Printf("done (%s)\n", meta.Title)

	fmt.Printf("→ Collecting transcript... ")
	transcript, err := wp.Transcript(ctx)
	if err != nil {
		fmt.Println("unavailable, falling back to description")
		logVerbose("  transcript: %v", err)
		meta.Description = wp.Description(ctx)
		if meta.Description == "" {
			return fmt.Errorf("video has neither transcript nor description to summarize")
		}
	} else {
		fmt.Printf("done (%d chars)\n", len(transcript))
	}

	fmt.Printf("→ Summarizing via %s... ", name)
	summary, err := aiProvider.Summarize(ctx, meta, transcript, extraPrompt)
	if err != nil {
		fmt.Println("failed")
		return fmt.Errorf("summarization failed: %w", err)
	}
	fmt.Println("done")

	fmt.Println()
	fmt.Println(summary)

	if alsoMark {
		fmt.Println()
		if err := markOnPage(ctx, b, cfg, id, ""); err != nil {
			// The summary already landed; marking is best effort here.
			fmt.Printf("⚠ mark as watched failed: %v\n", err)
		}
	}
	return nil
}
