package reposter

import (
	"context"
	"net/url"
	"regexp"

	"github.com/pkg/errors"
	"github.com/pretend-bot/pretend/helpers"
)

var (
	youtubeOEmbedEndpoint = "https://www.youtube.com/oembed"
	youtubeRegex          = regexp.MustCompile(`^https?://(?:(?:www\.|m\.)?youtube\.com/shorts/|youtu\.be/)([A-Za-z0-9_-]{11})`)
)

// YouTube only resolves metadata, shorts are linked with their thumbnail
type YouTube struct {
	endpoint string
}

func NewYouTube(endpoint string) *YouTube {
	return &YouTube{endpoint: endpoint}
}

func (y *YouTube) Name() string {
	return "youtube"
}

func (y *YouTube) Match(link string) bool {
	return youtubeRegex.MatchString(link)
}

func (y *YouTube) Fetch(ctx context.Context, link string) (*Media, error) {
	parts := youtubeRegex.FindStringSubmatch(link)
	if len(parts) < 2 {
		return nil, ErrUnsupported
	}

	canonical := "https://www.youtube.com/shorts/" + parts[1]
	result, err := helpers.GetJSON(ctx, y.endpoint+"?format=json&url="+url.QueryEscape(canonical), nil)
	if err != nil {
		if errors.Cause(err) == helpers.ErrNotFound {
			return nil, ErrNoMedia
		}
		return nil, errors.Wrap(err, "youtube oembed request failed")
	}

	media := &Media{Platform: y.Name(), ID: parts[1], URL: canonical}
	media.Title, _ = result.Path("title").Data().(string)
	media.Author, _ = result.Path("author_name").Data().(string)
	media.AuthorURL, _ = result.Path("author_url").Data().(string)
	media.Thumbnail, _ = result.Path("thumbnail_url").Data().(string)
	return media, nil
}
