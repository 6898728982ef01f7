package helpers

import "testing"

func TestExtractID(t *testing.T) {
	cases := []struct {
		text string
		kind string
		id   string
		ok   bool
	}{
		{"<@123456789012345678>", "user", "123456789012345678", true},
		{"<@!123456789012345678>", "user", "123456789012345678", true},
		{" 123456789012345678 ", "user", "123456789012345678", true},
		{"<@&223456789012345678>", "role", "223456789012345678", true},
		{"<#323456789012345678>", "channel", "323456789012345678", true},
		{"<@&223456789012345678>", "user", "", false},
		{"hello", "user", "", false},
		{"12345", "channel", "", false},
	}

	for _, c := range cases {
		regex := UserRegexStrict
		switch c.kind {
		case "role":
			regex = RoleRegexStrict
		case "channel":
			regex = ChannelRegexStrict
		}

		id, ok := ExtractID(c.text, regex)
		if id != c.id || ok != c.ok {
			t.Fatalf("helpers.ExtractID(%q, %s) returned (%q, %v), expected (%q, %v)", c.text, c.kind, id, ok, c.id, c.ok)
		}
	}
}
