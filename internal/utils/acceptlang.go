package utils

import (
	"strings"

	"golang.org/x/text/language"
)

// DetermineLocale resolves the locale for a request. An explicit query value wins when it maps
// to a supported locale; otherwise the Accept-Language header is matched by q-value. Supported
// values are base languages such as "en" or "zh".
func DetermineLocale(queryLang, acceptLang string, supported []string, def string) string {
	if len(supported) == 0 {
		return "en"
	}
	tags := make([]language.Tag, 0, len(supported))
	for _, s := range supported {
		tags = append(tags, language.Make(strings.ToLower(s)))
	}
	matcher := language.NewMatcher(tags)

	if v, ok := pickLocale(matcher, supported, queryLang); ok {
		return v
	}
	if acceptLang != "" {
		if prefs, _, err := language.ParseAcceptLanguage(acceptLang); err == nil {
			for _, p := range prefs {
				if v, ok := pickLocale(matcher, supported, p.String()); ok {
					return v
				}
			}
		}
	}
	if v, ok := pickLocale(matcher, supported, def); ok {
		return v
	}
	return strings.ToLower(supported[0])
}

// pickLocale accepts lang only when it shares a base language with a supported locale.
func pickLocale(m language.Matcher, supported []string, lang string) (string, bool) {
	if lang == "" {
		return "", false
	}
	tag, err := language.Parse(lang)
	if err != nil {
		return "", false
	}
	_, idx, conf := m.Match(tag)
	if conf < language.High {
		return "", false
	}
	return strings.ToLower(supported[idx]), true
}
