package helpers

import (
	"fmt"
	"math/rand"
	"strings"

	"github.com/Jeffail/gabs"
	"github.com/pretend-bot/pretend/assets"
)

var translations *gabs.Container

func LoadTranslations() {
	json, err := gabs.ParseJSON(assets.I18n)
	Relax(err)

	translations = json
}

func GetText(id string) string {
	if translations == nil || !translations.ExistsP(id) {
		return id
	}

	item := translations.Path(id)

	// If this is an object return __
	if strings.HasPrefix(item.String(), "{") {
		item = item.Path("__")
	}

	// If this is an array return a random item
	if arr, ok := item.Data().([]interface{}); ok {
		if len(arr) == 0 {
			return id
		}
		if text, ok := arr[rand.Intn(len(arr))].(string); ok {
			return text
		}
		return id
	}

	text, ok := item.Data().(string)
	if !ok {
		return id
	}
	return text
}

func GetTextF(id string, replacements ...interface{}) string {
	return fmt.Sprintf(GetText(id), replacements...)
}
