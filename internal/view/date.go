package view

import (
	"time"

	"golang.org/x/text/language"
)

// isoDateLayout is used for locales without a dedicated layout
const isoDateLayout = "2006-01-02"

var dateLocales = []struct {
	tag    language.Tag
	layout string
}{
	{language.Und, isoDateLayout},
	{language.AmericanEnglish, "1/2/2006"},
	{language.BritishEnglish, "02/01/2006"},
	{language.French, "02/01/2006"},
	{language.Spanish, "02/01/2006"},
	{language.Italian, "02/01/2006"},
	{language.BrazilianPortuguese, "02/01/2006"},
	{language.German, "2.1.2006"},
	{language.Russian, "02.01.2006"},
	{language.Japanese, "2006/1/2"},
	{language.Chinese, "2006/1/2"},
	{language.Korean, "2006. 1. 2."},
}

var dateMatcher = func() language.Matcher {
	tags := make([]language.Tag, len(dateLocales))
	for i, l := range dateLocales {
		tags[i] = l.tag
	}
	return language.NewMatcher(tags)
}()

// DateLayout returns the short date layout for a BCP 47 locale
func DateLayout(locale string) string {
	tag, err := language.Parse(locale)
	if err != nil {
		return isoDateLayout
	}
	_, i, confidence := dateMatcher.Match(tag)
	if confidence == language.No {
		return isoDateLayout
	}
	return dateLocales[i].layout
}

// FormatDate formats t as a short date for the locale in loc
func FormatDate(t time.Time, locale string, loc *time.Location) string {
	if loc == nil {
		loc = time.Local
	}
	return t.In(loc).Format(DateLayout(locale))
}
