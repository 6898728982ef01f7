package reposter

import (
	"context"
	"strings"

	"github.com/pkg/errors"
	"mvdan.cc/xurls/v2"
)

const maxURLsPerMessage = 3

var (
	// ErrNoMedia is returned when a post was found but carries nothing to repost
	ErrNoMedia = errors.New("post has no media")
	// ErrUnsupported is returned for posts a platform recognises but cannot handle (nsfw, galleries)
	ErrUnsupported = errors.New("post is not supported")
)

// Platform resolves links of one site into downloadable media
type Platform interface {
	Name() string
	Match(url string) bool
	Fetch(ctx context.Context, url string) (*Media, error)
}

type MediaKind string

const (
	MediaVideo MediaKind = "video"
	MediaImage MediaKind = "image"
)

type MediaFile struct {
	URL  string
	Kind MediaKind
	Ext  string
}

// Media is everything needed to repost a single post
type Media struct {
	Platform  string
	ID        string
	URL       string
	Title     string
	Author    string
	AuthorURL string
	Thumbnail string
	Files     []MediaFile

	Views    int64
	Likes    int64
	Comments int64
}

// DefaultPlatforms returns every platform pointed at its public endpoint
func DefaultPlatforms() []Platform {
	return []Platform{
		NewTikTok(tikwmEndpoint),
		NewTwitter(fxtwitterEndpoint),
		NewInstagram(instagramMirror()),
		NewYouTube(youtubeOEmbedEndpoint),
		NewReddit(redditEndpoint),
	}
}

// PlatformNames lists the names of $platforms
func PlatformNames(platforms []Platform) (names []string) {
	for _, platform := range platforms {
		names = append(names, platform.Name())
	}
	return names
}

// ExtractURLs returns up to $limit distinct links of $content, links wrapped in <> are skipped
func ExtractURLs(content string, limit int) (urls []string) {
	seen := make(map[string]bool)
	for _, loc := range xurls.Strict().FindAllStringIndex(content, -1) {
		if len(urls) >= limit {
			break
		}
		start, end := loc[0], loc[1]
		if start > 0 && content[start-1] == '<' && end < len(content) && content[end] == '>' {
			continue
		}

		link := strings.TrimRight(content[start:end], ".,!?)")
		if seen[link] {
			continue
		}
		seen[link] = true
		urls = append(urls, link)
	}
	return urls
}

func platformFor(platforms []Platform, url string) Platform {
	for _, platform := range platforms {
		if platform.Match(url) {
			return platform
		}
	}
	return nil
}

func extForKind(kind MediaKind) string {
	if kind == MediaVideo {
		return ".mp4"
	}
	return ".jpg"
}
