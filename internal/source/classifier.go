// Package source classifies user-submitted URLs into a platform and a
// normalized reference the extractor can be pointed at.
package source

import (
	"errors"
	"net/url"
	"strings"

	"videotranscriber/internal/model"
)

// ErrInvalidURL is returned for anything that is not an absolute http(s) URL
// with a well-formed host.
var ErrInvalidURL = errors.New("invalid or unsupported URL")

const youTubeShortHost = "youtu.be"

type signature struct {
	platform model.Platform
	hosts    []string
}

// signatures is checked in order; the first match wins.
var signatures = []signature{
	{model.PlatformYouTube, []string{"youtube.com", "youtu.be", "youtube-nocookie.com"}},
	{model.PlatformTikTok, []string{"tiktok.com"}},
	{model.PlatformInstagram, []string{"instagram.com", "instagr.am"}},
	{model.PlatformTwitter, []string{"twitter.com", "x.com", "t.co"}},
	{model.PlatformFacebook, []string{"facebook.com", "fb.watch", "fb.com"}},
	{model.PlatformReddit, []string{"reddit.com", "redd.it"}},
	{model.PlatformTwitch, []string{"twitch.tv"}},
	{model.PlatformVimeo, []string{"vimeo.com"}},
	{model.PlatformDailymotion, []string{"dailymotion.com", "dai.ly"}},
	{model.PlatformSoundCloud, []string{"soundcloud.com"}},
	{model.PlatformBilibili, []string{"bilibili.com", "b23.tv"}},
}

// Classify parses raw as an absolute http(s) URL and tags it with a platform.
// Unknown hosts classify as model.PlatformOther.
func Classify(raw string) (model.SourceReference, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return model.SourceReference{}, ErrInvalidURL
	}

	scheme := strings.ToLower(u.Scheme)
	if scheme != "http" && scheme != "https" {
		return model.SourceReference{}, ErrInvalidURL
	}
	if u.Opaque != "" || !validHostname(u.Hostname()) {
		return model.SourceReference{}, ErrInvalidURL
	}

	host := strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")

	u.Scheme = scheme
	u.Host = strings.ToLower(u.Host)
	u.Fragment = ""
	u.RawFragment = ""

	ref := model.SourceReference{
		Platform: platformFor(host),
		URL:      u.String(),
	}
	if ref.Platform == model.PlatformYouTube {
		ref.VideoID = youTubeVideoID(host, u)
	}
	return ref, nil
}

func platformFor(host string) model.Platform {
	for _, sig := range signatures {
		for _, h := range sig.hosts {
			if host == h || strings.HasSuffix(host, "."+h) {
				return sig.platform
			}
		}
	}
	return model.PlatformOther
}

func youTubeVideoID(host string, u *url.URL) string {
	segments := pathSegments(u.Path)
	if host == youTubeShortHost {
		if len(segments) == 0 {
			return ""
		}
		return segments[0]
	}
	if v := u.Query().Get("v"); v != "" {
		return v
	}
	if len(segments) == 0 {
		return ""
	}
	return segments[len(segments)-1]
}

func pathSegments(p string) []string {
	var out []string
	for _, s := range strings.Split(p, "/") {
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}

// validHostname accepts DNS names, IPv4 and bracket-stripped IPv6 literals.
func validHostname(h string) bool {
	if h == "" || len(h) > 253 {
		return false
	}
	if strings.Contains(h, ":") {
		// url.Parse already validated the bracketed literal
		return true
	}
	for _, label := range strings.Split(strings.TrimSuffix(h, "."), ".") {
		if label == "" || len(label) > 63 {
			return false
		}
		if label[0] == '-' || label[len(label)-1] == '-' {
			return false
		}
		for _, r := range label {
			switch {
			case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			case r > 127:
				// internationalized names pass through to the extractor
			default:
				return false
			}
		}
	}
	return true
}
