package reposter

import (
	"context"
	"net/url"
	"regexp"
	"strings"

	"github.com/pkg/errors"
	"github.com/pretend-bot/pretend/helpers"
)

var (
	tikwmEndpoint = "https://www.tikwm.com"
	tiktokRegex   = regexp.MustCompile(`^https?://(?:www\.|vm\.|vt\.|m\.)?tiktok\.com/`)
)

type TikTok struct {
	endpoint string
}

func NewTikTok(endpoint string) *TikTok {
	return &TikTok{endpoint: strings.TrimRight(endpoint, "/")}
}

func (t *TikTok) Name() string {
	return "tiktok"
}

func (t *TikTok) Match(link string) bool {
	return tiktokRegex.MatchString(link)
}

func (t *TikTok) Fetch(ctx context.Context, link string) (*Media, error) {
	result, err := helpers.GetJSON(ctx, t.endpoint+"/api/?hd=1&url="+url.QueryEscape(link), nil)
	if err != nil {
		return nil, errors.Wrap(err, "tikwm request failed")
	}

	if code, _ := result.Path("code").Data().(float64); code != 0 {
		message, _ := result.Path("msg").Data().(string)
		return nil, errors.New("tikwm returned error: " + message)
	}

	data := result.Path("data")
	media := &Media{Platform: t.Name(), URL: link}
	media.ID, _ = data.Path("id").Data().(string)
	media.Title, _ = data.Path("title").Data().(string)
	media.Thumbnail = t.absolute(data.Path("cover").Data())
	if username, ok := data.Path("author.unique_id").Data().(string); ok && username != "" {
		media.Author = "@" + username
		media.AuthorURL = "https://www.tiktok.com/@" + username
	}
	media.Views = toInt64(data.Path("play_count").Data())
	media.Likes = toInt64(data.Path("digg_count").Data())
	media.Comments = toInt64(data.Path("comment_count").Data())

	// slideshows carry images instead of a video
	if images, err := data.Path("images").Children(); err == nil && len(images) > 0 {
		for _, image := range images {
			if imageURL := t.absolute(image.Data()); imageURL != "" {
				media.Files = append(media.Files, MediaFile{URL: imageURL, Kind: MediaImage, Ext: ".jpg"})
			}
		}
	} else {
		video := t.absolute(data.Path("hdplay").Data())
		if video == "" {
			video = t.absolute(data.Path("play").Data())
		}
		if video != "" {
			media.Files = append(media.Files, MediaFile{URL: video, Kind: MediaVideo, Ext: ".mp4"})
		}
	}

	if len(media.Files) <= 0 {
		return nil, ErrNoMedia
	}
	return media, nil
}

// absolute resolves the relative paths tikwm sometimes returns
func (t *TikTok) absolute(value interface{}) string {
	link, _ := value.(string)
	if strings.HasPrefix(link, "/") {
		return t.endpoint + link
	}
	return link
}

func toInt64(value interface{}) int64 {
	switch v := value.(type) {
	case float64:
		return int64(v)
	case int64:
		return v
	case int:
		return int64(v)
	}
	return 0
}
