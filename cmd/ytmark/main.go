package main

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/v0xg/ytmark/internal/browser"
	"github.com/v0xg/ytmark/internal/config"
)

// version is stamped by the release build.
var version = "dev"

var (
	configPath  string
	provider    string
	model       string
	headless    bool
	profile     string
	width       int
	height      int
	loadTimeout time.Duration
	verbose     bool
)

var rootCmd = &cobra.Command{
	Use:   "ytmark",
	Short: "Summarize YouTube videos and mark them as already watched",
	Long: `ytmark drives a real browser against YouTube. It can summarize a video
from its transcript via an AI provider, and it can mark a video as
"already watched" by walking the Not interested feedback flow on a
listing page.

Example:
  ytmark summarize https://www.youtube.com/watch?v=dQw4w9WgXcQ
  ytmark watched dQw4w9WgXcQ --profile ~/.config/chromium
  ytmark serve`,
	SilenceUsage: true,
	Version:      version,
}

func main() {
	// Load .env file if present (silently ignore if not found)
	_ = godotenv.Load()

	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Selector/timing config JSON (default: built-in tables)")
	rootCmd.PersistentFlags().StringVar(&provider, "provider", "", "AI provider: claude, openai (default: from env or claude)")
	rootCmd.PersistentFlags().StringVar(&model, "model", "", "Specific model override")
	rootCmd.PersistentFlags().BoolVar(&headless, "headless", true, "Run the browser headless")
	rootCmd.PersistentFlags().StringVar(&profile, "profile", "", "Chrome/Chromium profile directory for authenticated sessions (close browser first)")
	rootCmd.PersistentFlags().IntVar(&width, "width", 1280, "Viewport width")
	rootCmd.PersistentFlags().IntVar(&height, "height", 720, "Viewport height")
	rootCmd.PersistentFlags().DurationVar(&loadTimeout, "timeout", 30*time.Second, "Page load timeout")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Show detailed progress")

	summarizeCmd.Flags().StringVar(&extraPrompt, "prompt", "", "Extra instruction for the summary")
	summarizeCmd.Flags().BoolVar(&alsoMark, "mark-watched", false, "Also mark the video as already watched afterwards")

	watchedCmd.Flags().StringVar(&listURL, "on", "", "Listing page to locate the video on (default: YouTube home)")
	watchedCmd.Flags().StringVar(&failShot, "screenshot-on-failure", "", "Write a screenshot to this path when the flow fails")

	rootCmd.AddCommand(summarizeCmd, watchedCmd, serveCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// selectedProvider resolves the provider flag against the environment.
func selectedProvider() string {
	if provider != "" {
		return provider
	}
	if p := os.Getenv("YTMARK_DEFAULT_PROVIDER"); p != "" {
		return p
	}
	return "claude"
}

func loadConfig() (*config.Config, error) {
	if configPath == "" {
		return config.Default(), nil
	}
	return config.Load(configPath)
}

func browserOptions() browser.Options {
	return browser.Options{
		Width:      width,
		Height:     height,
		Headless:   headless,
		ProfileDir: profile,
		Timeout:    loadTimeout,
	}
}

// stepLogger routes engine progress lines through the verbose switch.
type stepLogger struct{}

func (stepLogger) Logf(format string, args ...interface{}) {
	if verbose {
		fmt.Printf("  "+format+"\n", args...)
	}
}

func logVerbose(format string, args ...interface{}) {
	if verbose {
		fmt.Printf(format+"\n", args...)
	}
}
