package config

import "github.com/v0xg/ytmark/internal/dom"

// Every selector and text pattern aimed at YouTube's DOM lives in this
// file. YouTube reworks its markup often; adapting to a change should
// only ever touch these tables, never the engine.

func defaultTargets() Targets {
	return Targets{
		ConsentDismiss: Target{
			Selectors: dom.SelectorSet{
				`button[aria-label*="Reject"]`,
				`button[aria-label*="Accept all"]`,
				`ytd-consent-bump-v2-lightbox button`,
				`tp-yt-paper-button`,
			},
			TextPatterns: dom.TextPatternSet{"reject all", "accept all", "i agree"},
		},
		NotInterested: Target{
			Selectors: dom.SelectorSet{
				`ytd-menu-service-item-renderer`,
				`tp-yt-paper-item`,
				`ytd-menu-navigation-item-renderer`,
			},
			TextPatterns: dom.TextPatternSet{"not interested"},
		},
		TellUsWhy: Target{
			Selectors: dom.SelectorSet{
				`ytd-notification-multi-action-renderer button`,
				`yt-button-renderer button`,
				`tp-yt-paper-button`,
			},
			TextPatterns: dom.TextPatternSet{"tell us why"},
		},
		AlreadyWatched: Target{
			Selectors: dom.SelectorSet{
				`ytd-dismissal-reason-text-renderer tp-yt-paper-checkbox`,
				`tp-yt-paper-checkbox`,
				`tp-yt-paper-radio-button`,
			},
			TextPatterns: dom.TextPatternSet{"already watched", "watched the video"},
		},
		Submit: Target{
			Selectors: dom.SelectorSet{
				`ytd-button-renderer#submit-button button`,
				`#submit-button button`,
				`tp-yt-paper-button#submit-button`,
			},
			TextPatterns: dom.TextPatternSet{"submit"},
		},
		DescriptionMore: Target{
			Selectors: dom.SelectorSet{
				`tp-yt-paper-button#expand`,
				`#description-inline-expander tp-yt-paper-button`,
				`#expand`,
			},
			TextPatterns: dom.TextPatternSet{"more"},
		},
		DescriptionText: Target{
			Selectors: dom.SelectorSet{
				`#description-inline-expander yt-attributed-string`,
				`#description yt-formatted-string`,
				`ytd-expandable-video-description-body-renderer`,
			},
		},
		ShowTranscript: Target{
			Selectors: dom.SelectorSet{
				`ytd-video-description-transcript-section-renderer button`,
				`button[aria-label="Show transcript"]`,
			},
			TextPatterns: dom.TextPatternSet{"show transcript", "transcript"},
		},
		TranscriptSegment: Target{
			Selectors: dom.SelectorSet{
				`ytd-transcript-segment-renderer .segment-text`,
				`ytd-transcript-segment-renderer yt-formatted-string`,
			},
		},
		VideoTitle: Target{
			Selectors: dom.SelectorSet{
				`h1.ytd-watch-metadata yt-formatted-string`,
				`#title h1 yt-formatted-string`,
				`h1.title`,
			},
		},
		ChannelName: Target{
			Selectors: dom.SelectorSet{
				`ytd-channel-name#channel-name a`,
				`#owner #channel-name a`,
				`ytd-video-owner-renderer a`,
			},
		},
	}
}

func defaultContainers() Containers {
	return Containers{
		// One tag per listing surface: home grid, search results,
		// sidebar recommendations, channel grids, playlists.
		Tags: []string{
			"ytd-rich-item-renderer",
			"ytd-video-renderer",
			"ytd-compact-video-renderer",
			"ytd-grid-video-renderer",
			"ytd-rich-grid-media",
			"ytd-playlist-video-renderer",
		},
		MenuButtons: map[string]dom.SelectorSet{
			"ytd-rich-item-renderer": {
				`#details #menu yt-icon-button button`,
				`#menu button[aria-label]`,
			},
			"ytd-video-renderer": {
				`#menu yt-icon-button button`,
				`ytd-menu-renderer yt-icon-button button`,
			},
			"ytd-compact-video-renderer": {
				`#menu yt-icon-button button`,
			},
			"ytd-grid-video-renderer": {
				`#menu #button button`,
				`ytd-menu-renderer yt-icon-button button`,
			},
			"ytd-rich-grid-media": {
				`#menu yt-icon-button button`,
			},
			"ytd-playlist-video-renderer": {
				`#menu yt-icon-button button`,
			},
		},
		UniversalMenu: dom.SelectorSet{
			`ytd-menu-renderer yt-icon-button button`,
			`yt-icon-button#button button`,
			`button[aria-label*="More actions"]`,
			`button[aria-label*="Action menu"]`,
			`#menu button`,
		},
		MenuLabels: dom.TextPatternSet{
			"more actions",
			"action menu",
			"more options",
			"options",
			"menu",
		},
		MaxAncestorDepth: 15,
	}
}
