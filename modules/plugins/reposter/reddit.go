package reposter

import (
	"context"
	"html"
	"net/url"
	"regexp"
	"strings"

	"github.com/pkg/errors"
	"github.com/pretend-bot/pretend/helpers"
)

var (
	redditEndpoint = "https://www.reddit.com"
	redditRegex    = regexp.MustCompile(`^https?://(?:www\.|old\.|new\.)?reddit\.com(/r/[A-Za-z0-9_]+/comments/([a-z0-9]+))`)
)

type Reddit struct {
	endpoint string
}

func NewReddit(endpoint string) *Reddit {
	return &Reddit{endpoint: strings.TrimRight(endpoint, "/")}
}

func (r *Reddit) Name() string {
	return "reddit"
}

func (r *Reddit) Match(link string) bool {
	return redditRegex.MatchString(link)
}

func (r *Reddit) Fetch(ctx context.Context, link string) (*Media, error) {
	parts := redditRegex.FindStringSubmatch(link)
	if len(parts) < 3 {
		return nil, ErrUnsupported
	}

	result, err := helpers.GetJSON(ctx, r.endpoint+parts[1]+".json?raw_json=1", nil)
	if err != nil {
		return nil, errors.Wrap(err, "reddit request failed")
	}

	listings, err := result.Children()
	if err != nil || len(listings) <= 0 {
		return nil, ErrNoMedia
	}
	posts, err := listings[0].Path("data.children").Children()
	if err != nil || len(posts) <= 0 {
		return nil, ErrNoMedia
	}
	post := posts[0].Path("data")

	if over18, _ := post.Path("over_18").Data().(bool); over18 {
		return nil, ErrUnsupported
	}

	media := &Media{Platform: r.Name(), ID: parts[2], URL: link}
	title, _ := post.Path("title").Data().(string)
	media.Title = html.UnescapeString(title)
	if author, ok := post.Path("author").Data().(string); ok {
		media.Author = "u/" + author
		media.AuthorURL = "https://www.reddit.com/user/" + url.PathEscape(author)
	}
	media.Likes = toInt64(post.Path("score").Data())
	media.Comments = toInt64(post.Path("num_comments").Data())

	if isVideo, _ := post.Path("is_video").Data().(bool); isVideo {
		video, _ := post.Path("media.reddit_video.fallback_url").Data().(string)
		if video != "" {
			media.Files = append(media.Files, MediaFile{URL: video, Kind: MediaVideo, Ext: ".mp4"})
		}
	} else if destination, _ := post.Path("url").Data().(string); isImageLink(destination) {
		media.Files = append(media.Files, MediaFile{URL: destination, Kind: MediaImage, Ext: imageExt(destination)})
	}

	if len(media.Files) <= 0 {
		return nil, ErrNoMedia
	}
	return media, nil
}

func isImageLink(link string) bool {
	return imageExt(link) != ""
}

func imageExt(link string) string {
	parsed, err := url.Parse(link)
	if err != nil {
		return ""
	}
	path := strings.ToLower(parsed.Path)
	for _, ext := range []string{".jpg", ".jpeg", ".png", ".gif", ".webp"} {
		if strings.HasSuffix(path, ext) {
			return ext
		}
	}
	return ""
}
