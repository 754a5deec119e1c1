package services

import (
	"net/url"
	"regexp"
	"strings"
)

const MaxVideoLinks = 3

var (
	youtubeIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{11}$`)
	vimeoIDPattern   = regexp.MustCompile(`^[0-9]+$`)
)

// NormalizeVideoLink converts a YouTube or Vimeo link to its embeddable URL.
func NormalizeVideoLink(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if !strings.Contains(raw, "://") {
		raw = "https://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return "", invalid("unsupported video link %q", raw)
	}

	host := strings.ToLower(u.Hostname())
	host = strings.TrimPrefix(host, "www.")
	host = strings.TrimPrefix(host, "m.")
	segments := strings.Split(strings.Trim(u.Path, "/"), "/")

	switch host {
	case "youtube.com":
		var id string
		switch {
		case u.Path == "/watch":
			id = u.Query().Get("v")
		case len(segments) == 2 && segments[0] == "embed":
			id = segments[1]
		}
		if youtubeIDPattern.MatchString(id) {
			return "https://www.youtube.com/embed/" + id, nil
		}
	case "youtu.be":
		if len(segments) == 1 && youtubeIDPattern.MatchString(segments[0]) {
			return "https://www.youtube.com/embed/" + segments[0], nil
		}
	case "vimeo.com":
		if len(segments) >= 1 && vimeoIDPattern.MatchString(segments[0]) {
			return "https://player.vimeo.com/video/" + segments[0], nil
		}
	case "player.vimeo.com":
		if len(segments) == 2 && segments[0] == "video" && vimeoIDPattern.MatchString(segments[1]) {
			return "https://player.vimeo.com/video/" + segments[1], nil
		}
	}
	return "", invalid("unsupported video link %q", raw)
}

// NormalizeVideoLinks normalizes every non-blank link, drops duplicates and
// enforces MaxVideoLinks.
func NormalizeVideoLinks(links []string) ([]string, error) {
	out := make([]string, 0, len(links))
	seen := make(map[string]bool, len(links))
	for _, link := range links {
		if strings.TrimSpace(link) == "" {
			continue
		}
		embed, err := NormalizeVideoLink(link)
		if err != nil {
			return nil, err
		}
		if seen[embed] {
			continue
		}
		seen[embed] = true
		out = append(out, embed)
	}
	if len(out) > MaxVideoLinks {
		return nil, invalid("at most %d video links are allowed", MaxVideoLinks)
	}
	return out, nil
}
