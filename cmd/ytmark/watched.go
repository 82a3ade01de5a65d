package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/v0xg/ytmark/internal/browser"
	"github.com/v0xg/ytmark/internal/config"
	"github.com/v0xg/ytmark/internal/youtube"
)

var (
	listURL  string
	failShot string
)

var watchedCmd = &cobra.Command{
	Use:   "watched <url|video-id>",
	Short: "Mark a YouTube video as already watched",
	Long: `watched opens a YouTube listing page, finds the video's tile, and walks
the Not interested feedback flow to mark it as already watched. The
flow only exists for signed-in accounts, so point --profile at a
Chrome/Chromium profile that is logged in to YouTube.`,
	Args: cobra.ExactArgs(1),
	RunE: runWatched,
}

func runWatched(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	fmt.Printf("→ Launching browser... ")
	b, err := browser.Launch(browserOptions())
	if err != nil {
		fmt.Println("failed")
		return fmt.Errorf("browser launch failed: %w", err)
	}
	defer b.Close()
	fmt.Println("done")

	return markOnPage(cmd.Context(), b, cfg, args[0], listURL)
}

// markOnPage opens the listing page and drives the feedback flow there.
// summarize --mark reuses it with the browser it already launched.
func markOnPage(ctx context.Context, b *browser.Browser, cfg *config.Config, videoRef, pageURL string) error {
	if pageURL == "" {
		pageURL = youtube.HomeURL
	}

	fmt.Printf("→ Opening %s... ", pageURL)
	page, err := b.Open(ctx, pageURL)
	if err != nil {
		fmt.Println("failed")
		return fmt.Errorf("open listing page: %w", err)
	}
	defer page.Close()
	fmt.Println("done")

	marker := youtube.NewMarker(page, cfg, stepLogger{})
	marker.DismissConsent(ctx)

	fmt.Printf("→ Marking as already watched... ")
	if err := marker.MarkWatched(ctx, videoRef); err != nil {
		fmt.Println("failed")
		if failShot != "" {
			if shotErr := page.Screenshot(ctx, failShot, 900); shotErr == nil {
				fmt.Printf("  wrote %s\n", failShot)
			}
		}
		return err
	}
	fmt.Println("done")

	if n, err := page.ClearMarks(ctx); err == nil && n > 0 {
		logVerbose("  cleared %d element marks", n)
	}

	fmt.Println("✓ Video marked as already watched")
	return nil
}
