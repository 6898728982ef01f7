package reposter

import (
	"bytes"
	"context"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/pkg/errors"
	"github.com/pretend-bot/pretend/helpers"
)

var instagramRegex = regexp.MustCompile(`^https?://(?:www\.)?instagram\.com/(p|reels?|tv)/([A-Za-z0-9_-]+)`)

func instagramMirror() string {
	return helpers.ConfigString("reposter.instagram_mirror", "https://www.ddinstagram.com")
}

// Instagram scrapes the og: meta tags of an embed mirror, instagram itself requires a login
type Instagram struct {
	mirror string
}

func NewInstagram(mirror string) *Instagram {
	return &Instagram{mirror: strings.TrimRight(mirror, "/")}
}

func (i *Instagram) Name() string {
	return "instagram"
}

func (i *Instagram) Match(link string) bool {
	return instagramRegex.MatchString(link)
}

func (i *Instagram) Fetch(ctx context.Context, link string) (*Media, error) {
	parts := instagramRegex.FindStringSubmatch(link)
	if len(parts) < 3 {
		return nil, ErrUnsupported
	}

	kind := parts[1]
	if strings.HasPrefix(kind, "reel") {
		kind = "reel"
	}

	// mirrors only render the embed tags for crawlers
	data, err := helpers.NetGetContext(ctx, i.mirror+"/"+kind+"/"+parts[2]+"/", "Mozilla/5.0 (compatible; Discordbot/2.0; +https://discordapp.com)", 15*time.Second, nil)
	if err != nil {
		return nil, errors.Wrap(err, "instagram mirror request failed")
	}

	media, err := ParseOpenGraph(data)
	if err != nil {
		return nil, err
	}
	media.Platform = i.Name()
	media.ID = parts[2]
	media.URL = link
	return media, nil
}

// ParseOpenGraph reads og: video and image tags of an html page
func ParseOpenGraph(page []byte) (*Media, error) {
	document, err := goquery.NewDocumentFromReader(bytes.NewReader(page))
	if err != nil {
		return nil, errors.Wrap(err, "parsing html failed")
	}

	meta := func(property string) string {
		value, _ := document.Find(`meta[property="` + property + `"]`).First().Attr("content")
		if value == "" {
			value, _ = document.Find(`meta[name="` + property + `"]`).First().Attr("content")
		}
		return strings.TrimSpace(value)
	}

	media := &Media{
		Title:     meta("og:description"),
		Author:    meta("og:title"),
		Thumbnail: meta("og:image"),
	}
	if media.Title == "" {
		media.Title = meta("twitter:description")
	}

	if video := meta("og:video"); video != "" {
		media.Files = append(media.Files, MediaFile{URL: video, Kind: MediaVideo, Ext: ".mp4"})
	} else if image := meta("og:image"); image != "" {
		media.Files = append(media.Files, MediaFile{URL: image, Kind: MediaImage, Ext: ".jpg"})
	}

	if len(media.Files) <= 0 {
		return nil, ErrNoMedia
	}
	return media, nil
}
