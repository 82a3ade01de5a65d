// Package youtube knows YouTube's surfaces: video ids and URLs, the
// container tiles of listing pages, the watch page, and the menu flow
// that marks a video as already watched.
package youtube

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

// HomeURL is the default listing page for mark-as-watched runs.
const HomeURL = "https://www.youtube.com/"

// idPattern is the canonical 11-character video id alphabet.
var idPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{11}$`)

// ParseVideoID extracts the video id from any of the URL shapes
// YouTube hands out (watch?v=, watch/, /v/, embed/, shorts/, live/,
// youtu.be/) or returns the input unchanged when it already is a bare
// id.
func ParseVideoID(raw string) (string, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return "", fmt.Errorf("empty video reference")
	}
	if idPattern.MatchString(s) {
		return s, nil
	}
	if id := IDFromLink(s); idPattern.MatchString(id) {
		return id, nil
	}
	return "", fmt.Errorf("no video id in %q", raw)
}

// IDFromLink pulls the id token out of a watch-style link, absolute or
// relative. It does not insist on the canonical id shape; comparing
// the token against a requested id is the caller's business.
func IDFromLink(href string) string {
	href = strings.TrimSpace(href)
	if href == "" {
		return ""
	}
	u, err := url.Parse(href)
	if err != nil {
		return ""
	}

	if v := u.Query().Get("v"); v != "" {
		return v
	}

	host := strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
	segs := strings.Split(strings.Trim(u.Path, "/"), "/")

	if host == "youtu.be" && len(segs) > 0 && segs[0] != "" {
		return segs[0]
	}

	for i, seg := range segs {
		switch seg {
		case "watch", "v", "embed", "shorts", "live":
			if i+1 < len(segs) && segs[i+1] != "" {
				return segs[i+1]
			}
		}
	}
	return ""
}

// WatchURL builds the canonical watch page URL for id.
func WatchURL(id string) string {
	return "https://www.youtube.com/watch?v=" + url.QueryEscape(id)
}

// ResultsURL builds a search results page URL for query. Handy as a
// listing page when the video is not on the home feed.
func ResultsURL(query string) string {
	return "https://www.youtube.com/results?search_query=" + url.QueryEscape(query)
}
