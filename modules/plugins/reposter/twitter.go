package reposter

import (
	"context"
	"regexp"
	"strings"

	"github.com/pkg/errors"
	"github.com/pretend-bot/pretend/helpers"
)

var (
	fxtwitterEndpoint = "https://api.fxtwitter.com"
	twitterRegex      = regexp.MustCompile(`^https?://(?:www\.|mobile\.)?(?:twitter|x)\.com/([A-Za-z0-9_]{1,15})/status/(\d+)`)
)

type Twitter struct {
	endpoint string
}

func NewTwitter(endpoint string) *Twitter {
	return &Twitter{endpoint: strings.TrimRight(endpoint, "/")}
}

func (t *Twitter) Name() string {
	return "twitter"
}

func (t *Twitter) Match(link string) bool {
	return twitterRegex.MatchString(link)
}

func (t *Twitter) Fetch(ctx context.Context, link string) (*Media, error) {
	parts := twitterRegex.FindStringSubmatch(link)
	if len(parts) < 3 {
		return nil, ErrUnsupported
	}

	result, err := helpers.GetJSON(ctx, t.endpoint+"/"+parts[1]+"/status/"+parts[2], nil)
	if err != nil {
		return nil, errors.Wrap(err, "fxtwitter request failed")
	}

	tweet := result.Path("tweet")
	if tweet.Data() == nil {
		return nil, ErrNoMedia
	}

	media := &Media{Platform: t.Name(), ID: parts[2], URL: link}
	media.Title, _ = tweet.Path("text").Data().(string)
	if screenName, ok := tweet.Path("author.screen_name").Data().(string); ok {
		media.Author = "@" + screenName
		media.AuthorURL = "https://x.com/" + screenName
	}
	media.Likes = toInt64(tweet.Path("likes").Data())
	media.Comments = toInt64(tweet.Path("replies").Data())
	media.Views = toInt64(tweet.Path("views").Data())

	items, _ := tweet.Path("media.all").Children()
	for _, item := range items {
		mediaURL, _ := item.Path("url").Data().(string)
		if mediaURL == "" {
			continue
		}
		kind := MediaImage
		if mediaType, _ := item.Path("type").Data().(string); mediaType == "video" || mediaType == "gif" {
			kind = MediaVideo
		}
		media.Files = append(media.Files, MediaFile{URL: mediaURL, Kind: kind, Ext: extForKind(kind)})
	}

	if len(media.Files) <= 0 {
		return nil, ErrNoMedia
	}
	return media, nil
}
