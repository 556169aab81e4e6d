// Package i18n translates player-facing feedback. English is the default and
// prints catalog keys as-is; Simplified Chinese carries the original copy.
package i18n

import (
	"net/http"
	"strings"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"

	constants "github.com/CodeAndHammer/guessr/internal/constants"
	models "github.com/CodeAndHammer/guessr/internal/models"
	util "github.com/CodeAndHammer/guessr/internal/util"
)

var supportedTags = []language.Tag{
	language.English,
	language.SimplifiedChinese,
}

var tagMatcher = language.NewMatcher(supportedTags)

var zhMessages = map[string]string{
	constants.MsgInvalidInput: "请输入一个有效的数字！",
	constants.MsgTooLow:       "太低了！",
	constants.MsgTooHigh:      "太高了！",
	constants.MsgWon:          "恭喜，%s 猜中了数字 %d！您共用了 %d 次尝试。",
	constants.MsgLost:         "游戏结束！您已用尽所有机会。正确答案是 %d。",
	"easy":                    "简单",
	"medium":                  "中等",
	"hard":                    "困难",
}

var cat = buildCatalog()

func buildCatalog() *catalog.Builder {
	b := catalog.NewBuilder(catalog.Fallback(language.English))
	for key, msg := range zhMessages {
		if err := b.SetString(language.SimplifiedChinese, key, msg); err != nil {
			util.LogWarn("i18n: failed to register %q: %v", key, err)
		}
	}
	return b
}

func Supported() []language.Tag {
	tags := make([]language.Tag, len(supportedTags))
	copy(tags, supportedTags)
	return tags
}

func Default() language.Tag {
	return language.English
}

// Printer returns a message printer backed by the game catalog.
func Printer(tag language.Tag) *message.Printer {
	return message.NewPrinter(tag, message.Catalog(cat))
}

// Match maps an arbitrary language preference onto a supported tag.
func Match(tags ...language.Tag) language.Tag {
	if len(tags) == 0 {
		return Default()
	}
	_, idx, conf := tagMatcher.Match(tags...)
	if conf == language.No {
		return Default()
	}
	return supportedTags[idx]
}

// ResolveTag picks the request language from the lang query param, then the
// language cookie, then Accept-Language. The bool reports whether the query
// param selected it and should be persisted.
func ResolveTag(r *http.Request) (language.Tag, bool) {
	if r == nil {
		return Default(), false
	}
	if v := strings.TrimSpace(r.URL.Query().Get(constants.LangParam)); v != "" {
		if tag, err := language.Parse(v); err == nil {
			return Match(tag), true
		}
	}
	if c, err := r.Cookie(constants.LangCookieName); err == nil {
		if tag, err := language.Parse(c.Value); err == nil {
			return Match(tag), false
		}
	}
	if accept := strings.TrimSpace(r.Header.Get("Accept-Language")); accept != "" {
		if tags, _, err := language.ParseAcceptLanguage(accept); err == nil {
			return Match(tags...), false
		}
	}
	return Default(), false
}

func SetLanguageCookie(w http.ResponseWriter, tag language.Tag) {
	http.SetCookie(w, &http.Cookie{
		Name:     constants.LangCookieName,
		Value:    tag.String(),
		Path:     "/",
		MaxAge:   int((365 * 24 * time.Hour).Seconds()),
		SameSite: http.SameSiteLaxMode,
	})
}

// DifficultyLabel is the display name of d in the printer's language.
func DifficultyLabel(p *message.Printer, d models.Difficulty) string {
	return p.Sprintf(string(d))
}
