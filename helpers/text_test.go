package helpers

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/bwmarrin/discordgo"
)

func TestTruncate(t *testing.T) {
	cases := []struct {
		text     string
		limit    int
		expected string
	}{
		{"hello", 10, "hello"},
		{"hello", 5, "hello"},
		{"hello", 3, "he…"},
		{"hello", 1, "h"},
		{"hello", 0, ""},
		{"äöüäöü", 4, "äöü…"},
	}

	for _, c := range cases {
		if got := Truncate(c.text, c.limit); got != c.expected {
			t.Fatalf("helpers.Truncate(%q, %d) returned %q, expected %q", c.text, c.limit, got, c.expected)
		}
	}
}

func TestPagify(t *testing.T) {
	text := strings.Repeat("abcdefghi\n", 450)

	pages := Pagify(text, "\n")
	if len(pages) != 3 {
		t.Fatalf("helpers.Pagify() returned %d pages, expected 3", len(pages))
	}
	for _, page := range pages {
		if utf8.RuneCountInString(page) > MessageMaxLength {
			t.Fatalf("helpers.Pagify() returned a page with %d characters", utf8.RuneCountInString(page))
		}
		if !strings.HasSuffix(page, "\n") {
			t.Fatal("helpers.Pagify() did not cut at the delimiter")
		}
	}
	if strings.Join(pages, "") != text {
		t.Fatal("helpers.Pagify() lost text")
	}

	if pages = Pagify("short", "\n"); len(pages) != 1 || pages[0] != "short" {
		t.Fatalf("helpers.Pagify() split a short text: %v", pages)
	}
}

func TestTruncateEmbed(t *testing.T) {
	embed := &discordgo.MessageEmbed{
		Title: strings.Repeat("a", 300),
		Fields: []*discordgo.MessageEmbedField{
			{Name: "", Value: strings.Repeat("b", 2000)},
		},
	}
	for i := 0; i < 30; i++ {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{Name: "n", Value: "v"})
	}

	TruncateEmbed(embed)

	if utf8.RuneCountInString(embed.Title) != EmbedTitleMaxLength {
		t.Fatalf("helpers.TruncateEmbed() left a title of %d characters", utf8.RuneCountInString(embed.Title))
	}
	if len(embed.Fields) != EmbedMaxFields {
		t.Fatalf("helpers.TruncateEmbed() left %d fields", len(embed.Fields))
	}
	if embed.Fields[0].Name != ZERO_WIDTH_SPACE {
		t.Fatal("helpers.TruncateEmbed() did not fill the empty field name")
	}
	if utf8.RuneCountInString(embed.Fields[0].Value) != EmbedFieldValueMaxLength {
		t.Fatalf("helpers.TruncateEmbed() left a field value of %d characters", utf8.RuneCountInString(embed.Fields[0].Value))
	}

	if TruncateEmbed(nil) != nil {
		t.Fatal("helpers.TruncateEmbed() did not return nil for nil")
	}
}

func TestEscapeMarkdown(t *testing.T) {
	if got := EscapeMarkdown("*bold* _it_ `code` ||spoiler||"); got != "\\*bold\\* \\_it\\_ \\`code\\` \\|\\|spoiler\\|\\|" {
		t.Fatalf("helpers.EscapeMarkdown() returned %q", got)
	}
}
