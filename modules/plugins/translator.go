package plugins

import (
	"context"
	"net/url"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"
	jsoniter "github.com/json-iterator/go"
	"github.com/pkg/errors"
	"github.com/pretend-bot/pretend/helpers"
	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

type Translator struct{}

const (
	googleTranslateHexColor = "#4285f4"
)

var googleTranslateEndpoint = "https://translate.googleapis.com/translate_a/single"

var json = jsoniter.ConfigCompatibleWithStandardLibrary

func (t *Translator) Commands() []string {
	return []string{
		"translator",
		"translate",
		"tr",
	}
}

func (t *Translator) Init(session *discordgo.Session) {

}

func (t *Translator) Action(command string, content string, msg *discordgo.Message, session *discordgo.Session) {
	// Assumed format: <lang_out> <text>
	parts := strings.Fields(content)
	if len(parts) < 2 {
		helpers.SendWarn(msg, helpers.GetText("plugins.translator.check_format"))
		return
	}

	target, err := language.Parse(parts[0])
	if err != nil {
		helpers.SendWarn(msg, helpers.GetTextF("plugins.translator.unknown_lang_specific", parts[0]))
		return
	}

	text := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(content), parts[0]))

	session.ChannelTyping(msg.ChannelID)

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	translated, source, err := Translate(ctx, googleTranslateEndpoint, target, text)
	helpers.Relax(err)

	sourceName := source
	if sourceTag, err := language.Parse(source); err == nil {
		sourceName = display.English.Tags().Name(sourceTag)
	}

	translateEmbed := &discordgo.MessageEmbed{
		Title: helpers.GetTextF("plugins.translator.translation-embed-title",
			sourceName, display.English.Tags().Name(target)),
		Footer:      &discordgo.MessageEmbedFooter{Text: helpers.GetText("plugins.translator.embed-footer")},
		Description: translated,
		Color:       helpers.GetDiscordColorFromHex(googleTranslateHexColor),
	}

	_, err = helpers.SendEmbed(msg.ChannelID, helpers.TruncateEmbed(translateEmbed))
	helpers.RelaxEmbed(err, msg.ChannelID, msg.ID)
}

// Translate translates $text into $target, the source language is detected
func Translate(ctx context.Context, endpoint string, target language.Tag, text string) (translated, source string, err error) {
	query := url.Values{}
	query.Set("client", "gtx")
	query.Set("sl", "auto")
	query.Set("tl", target.String())
	query.Set("dt", "t")
	query.Set("q", text)

	data, err := helpers.NetGetContext(ctx, endpoint+"?"+query.Encode(), helpers.DEFAULT_UA, 15*time.Second, nil)
	if err != nil {
		return "", "", errors.Wrap(err, "requesting translation failed")
	}

	return ParseGoogleTranslation(data)
}

// ParseGoogleTranslation reads the nested array response of the gtx endpoint
func ParseGoogleTranslation(data []byte) (translated, source string, err error) {
	var result []interface{}
	err = json.Unmarshal(data, &result)
	if err != nil {
		return "", "", errors.Wrap(err, "decoding translation failed")
	}
	if len(result) < 1 {
		return "", "", errors.New("empty translation response")
	}

	sentences, ok := result[0].([]interface{})
	if !ok {
		return "", "", errors.New("unexpected translation response")
	}

	var builder strings.Builder
	for _, sentence := range sentences {
		parts, ok := sentence.([]interface{})
		if !ok || len(parts) < 1 {
			continue
		}
		if piece, ok := parts[0].(string); ok {
			builder.WriteString(piece)
		}
	}

	if len(result) >= 3 {
		source, _ = result[2].(string)
	}

	return builder.String(), source, nil
}
