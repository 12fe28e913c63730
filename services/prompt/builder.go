// Package prompt turns a region and subject into generation and
// translation prompts. Everything here is pure and safe for concurrent use.
package prompt

import (
	"fmt"
	"strings"
)

// Build returns the generation prompt for a region and subject.
// The output is deterministic for a given input.
func Build(region, subject string) string {
	info := LookupRegion(region)
	angles := TopicAngles(subject)

	var b strings.Builder
	fmt.Fprintf(&b, "You are a professional news correspondent covering %s.\n", info.Group)
	fmt.Fprintf(&b, "Write a current %s briefing about %s, with attention to %s and the wider %s.\n",
		strings.ToLower(subject), info.Name, info.Capital, info.Group)
	b.WriteString("Angles to cover:\n")
	for _, angle := range angles {
		fmt.Fprintf(&b, "- %s\n", angle)
	}
	b.WriteString("\nUse exactly these sections, in this order:\n")
	b.WriteString("HEADLINE: one line\n")
	b.WriteString("SUMMARY: two or three sentences\n")
	b.WriteString("KEY DEVELOPMENTS: four bullet points, each starting with •\n")
	b.WriteString("CONTEXT: one short paragraph\n")
	b.WriteString("REGIONAL IMPACT: one short paragraph\n")
	b.WriteString("FUTURE OUTLOOK: one short paragraph\n")
	b.WriteString("\nWrite in English, in a neutral and factual tone, between 250 and 400 words. ")
	b.WriteString("Do not include links, markdown headings or commentary about these instructions.")
	return b.String()
}

var languageNames = map[string]string{
	"ar":  "Arabic",
	"ckb": "Central Kurdish (Sorani)",
	"ku":  "Kurdish (Kurmanji)",
	"fa":  "Persian",
	"he":  "Hebrew",
	"ur":  "Urdu",
	"tr":  "Turkish",
	"de":  "German",
	"sv":  "Swedish",
	"fr":  "French",
	"es":  "Spanish",
	"en":  "English",
}

// LanguageName returns the English name of a language code, or the code itself
func LanguageName(code string) string {
	if name, ok := languageNames[strings.ToLower(code)]; ok {
		return name
	}
	return code
}

// BuildTranslation returns the prompt asking a backend to translate text
func BuildTranslation(text, targetLanguage string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Translate the following news briefing into %s.\n", LanguageName(targetLanguage))
	b.WriteString("Keep the section structure and bullet points. Return only the translated text.\n\n")
	b.WriteString(text)
	return b.String()
}
