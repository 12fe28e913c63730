package models

import (
	"strings"
	"time"
)

// Request defaults applied when the caller omits a field
const (
	DefaultRegion   = "Global"
	DefaultSubject  = "Breaking News"
	DefaultLanguage = "en"

	// SourceLanguage is the language providers are asked to write in
	SourceLanguage = "en"

	// FallbackProvider identifies content produced by the offline generator
	FallbackProvider = "fallback"
)

// NewsRequest is the normalized, immutable form of an inbound news request
type NewsRequest struct {
	Region               string
	Subject              string
	Language             string
	TranslationRequested bool
}

// NewNewsRequest builds a NewsRequest, substituting defaults for blank fields
func NewNewsRequest(region, subject, language string, translate bool) NewsRequest {
	region = strings.TrimSpace(region)
	if region == "" {
		region = DefaultRegion
	}
	subject = strings.TrimSpace(subject)
	if subject == "" {
		subject = DefaultSubject
	}
	language = strings.ToLower(strings.TrimSpace(language))
	if language == "" {
		language = DefaultLanguage
	}
	return NewsRequest{
		Region:               region,
		Subject:              subject,
		Language:             language,
		TranslationRequested: translate,
	}
}

// WantsTranslation reports whether a translation pass applies to this request
func (r NewsRequest) WantsTranslation() bool {
	return r.TranslationRequested && r.Language != SourceLanguage
}

// GeneratedContent is the authoritative text produced for a request
type GeneratedContent struct {
	Text           string    `json:"text"`
	SourceProvider string    `json:"source_provider"`
	GeneratedAt    time.Time `json:"generated_at"`
}

// IsFallback reports whether the content came from the offline generator
func (c GeneratedContent) IsFallback() bool {
	return c.SourceProvider == FallbackProvider
}

// CacheEntry is a fingerprint-keyed cache record
type CacheEntry struct {
	Key       string           `json:"key"`
	Payload   GeneratedContent `json:"payload"`
	CreatedAt time.Time        `json:"created_at"`
	ExpiresAt time.Time        `json:"expires_at"`
}

// IsLive reports whether the entry is still fresh at the given instant
func (e *CacheEntry) IsLive(now time.Time) bool {
	return now.Before(e.ExpiresAt)
}

// NewsResponse is the assembled result returned to the caller
type NewsResponse struct {
	Description           string  `json:"description"`
	TranslatedDescription *string `json:"translated_description"`
	IsRightToLeft         bool    `json:"is_rtl"`
	Success               bool    `json:"success"`
	AIProvider            string  `json:"ai_provider"`
	Provider              string  `json:"provider"`
	Country               string  `json:"country"`
	Topic                 string  `json:"topic"`
	Language              string  `json:"language"`
	OriginalLanguage      string  `json:"original_language"`
	Cached                bool    `json:"cached"`
	RequestID             string  `json:"request_id,omitempty"`
}
