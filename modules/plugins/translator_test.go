package plugins

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"golang.org/x/text/language"
)

const translationResponse = `[[["Hello ","Hallo ",null,null,10],["world","Welt",null,null,10]],null,"de",null,null,null,1]`

func TestParseGoogleTranslation(t *testing.T) {
	translated, source, err := ParseGoogleTranslation([]byte(translationResponse))
	if err != nil {
		t.Fatalf("plugins.ParseGoogleTranslation() returned an error: %s", err.Error())
	}
	if translated != "Hello world" {
		t.Fatalf("plugins.ParseGoogleTranslation() returned %q", translated)
	}
	if source != "de" {
		t.Fatalf("plugins.ParseGoogleTranslation() detected %q as source", source)
	}
}

func TestParseGoogleTranslationInvalid(t *testing.T) {
	for _, data := range []string{`{}`, `[]`, `["nope"]`, `not json`} {
		if _, _, err := ParseGoogleTranslation([]byte(data)); err == nil {
			t.Fatalf("plugins.ParseGoogleTranslation(%s) should fail", data)
		}
	}
}

func TestTranslate(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		query := r.URL.Query()
		if query.Get("tl") != "en" || query.Get("sl") != "auto" || query.Get("q") != "Hallo Welt" {
			t.Errorf("unexpected translation query: %s", r.URL.RawQuery)
		}
		w.Write([]byte(translationResponse))
	}))
	defer server.Close()

	translated, source, err := Translate(context.Background(), server.URL, language.English, "Hallo Welt")
	if err != nil {
		t.Fatalf("plugins.Translate() returned an error: %s", err.Error())
	}
	if translated != "Hello world" || source != "de" {
		t.Fatalf("plugins.Translate() returned %q from %q", translated, source)
	}
}
