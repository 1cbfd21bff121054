package voice

import (
	"context"
	"log"
	"strings"
)

// SupportedLanguages is the set of language tags the product exposes.
var SupportedLanguages = []string{
	"en-US", "en-GB",
	"es-ES", "es-MX",
	"fr-FR", "de-DE", "it-IT", "pt-BR",
	"ja-JP", "ko-KR", "zh-CN",
	"hi-IN", "ar-SA", "nl-NL", "ru-RU",
}

// DefaultVoiceID is the known-good voice used when nothing better matches.
const DefaultVoiceID = "en-US-julia"

// fallbackVoices is the static catalog used when the remote voice list is
// unavailable or empty. Only the English entries carry confirmed provider
// voice ids; the remaining languages reuse the default English voice.
var fallbackVoices = []VoiceProfile{
	{VoiceID: "en-US-julia", Name: "Julia", Language: "en-US", Gender: "female", Accent: "American", Style: "Conversational", Description: "Ideal for business presentations, e-learning, and customer service"},
	{VoiceID: "en-US-adam", Name: "Adam", Language: "en-US", Gender: "male", Accent: "American", Style: "Professional", Description: "Perfect for corporate communications and executive presentations"},
	{VoiceID: "en-US-sarah", Name: "Sarah", Language: "en-US", Gender: "female", Accent: "American", Style: "Friendly", Description: "Warm and approachable for customer interactions"},
	{VoiceID: "en-GB-olivia", Name: "Olivia", Language: "en-GB", Gender: "female", Accent: "British", Style: "Elegant", Description: "Sophisticated British accent for luxury brands"},
	{VoiceID: "en-GB-william", Name: "William", Language: "en-GB", Gender: "male", Accent: "British", Style: "Distinguished", Description: "Classic British voice for educational content"},

	{VoiceID: DefaultVoiceID, Name: "Julia (English Fallback)", Language: "es-ES", Gender: "female", Accent: "American English", Style: "Professional", Fallback: true},
	{VoiceID: DefaultVoiceID, Name: "Julia (English Fallback)", Language: "fr-FR", Gender: "female", Accent: "American English", Style: "Professional", Fallback: true},
	{VoiceID: DefaultVoiceID, Name: "Julia (English Fallback)", Language: "de-DE", Gender: "female", Accent: "American English", Style: "Professional", Fallback: true},
	{VoiceID: DefaultVoiceID, Name: "Julia (English Fallback)", Language: "it-IT", Gender: "female", Accent: "American English", Style: "Professional", Fallback: true},
	{VoiceID: DefaultVoiceID, Name: "Julia (English Fallback)", Language: "pt-BR", Gender: "female", Accent: "American English", Style: "Professional", Fallback: true},
	{VoiceID: DefaultVoiceID, Name: "Julia (English Fallback)", Language: "ja-JP", Gender: "female", Accent: "American English", Style: "Professional", Fallback: true},
	{VoiceID: DefaultVoiceID, Name: "Julia (English Fallback)", Language: "ko-KR", Gender: "female", Accent: "American English", Style: "Professional", Fallback: true},
	{VoiceID: DefaultVoiceID, Name: "Julia (English Fallback)", Language: "zh-CN", Gender: "female", Accent: "American English", Style: "Professional", Fallback: true},
	{VoiceID: DefaultVoiceID, Name: "Julia (English Fallback)", Language: "hi-IN", Gender: "female", Accent: "American English", Style: "Professional", Fallback: true},
	{VoiceID: DefaultVoiceID, Name: "Julia (English Fallback)", Language: "ar-SA", Gender: "female", Accent: "American English", Style: "Professional", Fallback: true},
	{VoiceID: DefaultVoiceID, Name: "Julia (English Fallback)", Language: "nl-NL", Gender: "female", Accent: "American English", Style: "Professional", Fallback: true},
	{VoiceID: DefaultVoiceID, Name: "Julia (English Fallback)", Language: "ru-RU", Gender: "female", Accent: "American English", Style: "Professional", Fallback: true},
}

// languageSpeeds holds recommended playback speeds per language tag.
var languageSpeeds = map[string]float64{
	"en-US": 1.0,
	"en-GB": 0.9,
	"es-ES": 0.95,
	"es-MX": 1.0,
	"fr-FR": 0.9,
	"de-DE": 0.9,
	"it-IT": 1.0,
	"pt-BR": 1.0,
	"ja-JP": 0.95,
	"ko-KR": 0.95,
	"zh-CN": 0.9,
	"hi-IN": 0.95,
	"ar-SA": 0.9,
}

// SpeedForLanguage returns the recommended synthesis speed for a language.
func SpeedForLanguage(language string) float64 {
	if s, ok := languageSpeeds[language]; ok {
		return s
	}
	return 1.0
}

// Catalog serves voice profiles, preferring the remote provider list and
// falling back to the static table.
type Catalog struct {
	remote Lister

	// Default overrides the built-in fallback voice id when set.
	Default string
}

// NewCatalog creates a catalog. remote may be nil to serve fallback only.
func NewCatalog(remote Lister) *Catalog {
	return &Catalog{remote: remote}
}

// Voices returns the catalog, optionally filtered to one language tag. A tag
// with no listed voice still yields the profile Resolve would pick, so every
// supported language lists at least one voice.
func (c *Catalog) Voices(ctx context.Context, language string) []VoiceProfile {
	voices := c.all(ctx)
	if language == "" {
		return voices
	}
	out := make([]VoiceProfile, 0, len(voices))
	for _, v := range voices {
		if v.Language == language {
			out = append(out, v)
		}
	}
	if len(out) == 0 {
		out = append(out, c.resolveFrom(voices, language))
	}
	return out
}

func (c *Catalog) all(ctx context.Context) []VoiceProfile {
	if c.remote == nil {
		return fallbackVoices
	}
	voices, err := c.remote.ListVoices(ctx)
	if err != nil {
		log.Printf("voice: remote catalog unavailable, using fallback: %v", err)
		return fallbackVoices
	}
	if len(voices) == 0 {
		return fallbackVoices
	}
	return voices
}

// Resolve picks a voice for the requested language. Exact tag match wins,
// then a match on the primary subtag, then the cross-language fallback voice
// still labeled with the requested language. Never fails.
func (c *Catalog) Resolve(ctx context.Context, language string) VoiceProfile {
	if language == "" {
		language = "en-US"
	}
	return c.resolveFrom(c.all(ctx), language)
}

func (c *Catalog) resolveFrom(voices []VoiceProfile, language string) VoiceProfile {
	for _, v := range voices {
		if v.Language == language {
			return v
		}
	}
	primary := primarySubtag(language)
	for _, v := range voices {
		if primarySubtag(v.Language) == primary {
			match := v
			match.Language = language
			return match
		}
	}
	id := c.Default
	if id == "" {
		id = DefaultVoiceID
	}
	return VoiceProfile{
		VoiceID:  id,
		Name:     "Julia (English Fallback)",
		Language: language,
		Gender:   "female",
		Fallback: true,
	}
}

func primarySubtag(language string) string {
	if i := strings.IndexByte(language, '-'); i >= 0 {
		return language[:i]
	}
	return language
}
