package metadata

import (
	"fmt"
	"path/filepath"
	"strings"

	ptn "github.com/razsteinmetz/go-ptn"
	log "github.com/sirupsen/logrus"
)

// ReleaseInfo holds what can be guessed about a media file from its name.
type ReleaseInfo struct {
	FileName     string `json:"fileName"`
	Title        string `json:"title,omitempty"`
	Year         int    `json:"year,omitempty"`
	Season       int    `json:"season,omitempty"`
	Episode      int    `json:"episode,omitempty"`
	Resolution   string `json:"resolution,omitempty"` // e.g., "1080p", "720p"
	Source       string `json:"source,omitempty"`     // e.g., "BluRay", "WEB-DL"
	ReleaseGroup string `json:"releaseGroup,omitempty"`
}

// ParseRelease parses a release name such as "Movie.Title.2019.1080p.BluRay.x264-GRP.mkv".
// When the parser fails the dotted base name is used as the title.
func ParseRelease(path string) *ReleaseInfo {
	info := &ReleaseInfo{FileName: filepath.Base(path)}

	parsed, err := ptn.Parse(info.FileName)
	if err == nil && parsed.Title != "" {
		info.Title = parsed.Title
		info.Year = parsed.Year
		info.Season = parsed.Season
		info.Episode = parsed.Episode
		info.Resolution = parsed.Resolution
		info.Source = parsed.Quality
		info.ReleaseGroup = parsed.Group
		return info
	}
	if err != nil {
		log.Debugf("Failed to parse release name '%s': %v", info.FileName, err)
	}

	baseName := strings.TrimSuffix(info.FileName, filepath.Ext(info.FileName))
	info.Title = strings.TrimSpace(strings.ReplaceAll(baseName, ".", " "))
	return info
}

// Fields returns the non-empty parts of the release as logrus fields.
func (r *ReleaseInfo) Fields() log.Fields {
	fields := log.Fields{"title": r.Title}
	if r.Year > 0 {
		fields["year"] = r.Year
	}
	if r.Season > 0 || r.Episode > 0 {
		fields["season"] = r.Season
		fields["episode"] = r.Episode
	}
	if r.Resolution != "" {
		fields["resolution"] = r.Resolution
	}
	if r.Source != "" {
		fields["source"] = r.Source
	}
	if r.ReleaseGroup != "" {
		fields["group"] = r.ReleaseGroup
	}
	return fields
}

// LanguageInfo holds details for a specific language.
type LanguageInfo struct {
	SubLanguageID string // Code used by the XML-RPC SearchSubtitles call (e.g., "eng", "pob")
	Code2         string // ISO 639-1 Code (e.g., "en", "pt")
	Name          string // English name (e.g., "English", "Portuguese")
	Aliases       []string
}

// languagesDB maps lowercase codes, aliases and names to a language.
var languagesDB = map[string]LanguageInfo{}

func init() {
	languages := []LanguageInfo{
		{SubLanguageID: "eng", Code2: "en", Name: "English"},
		{SubLanguageID: "gre", Code2: "el", Name: "Greek", Aliases: []string{"ell"}},
		{SubLanguageID: "spa", Code2: "es", Name: "Spanish"},
		{SubLanguageID: "fre", Code2: "fr", Name: "French", Aliases: []string{"fra"}},
		{SubLanguageID: "ger", Code2: "de", Name: "German", Aliases: []string{"deu"}},
		{SubLanguageID: "ita", Code2: "it", Name: "Italian"},
		{SubLanguageID: "pob", Code2: "", Name: "Portuguese (Brazilian)", Aliases: []string{"pt-br", "pb"}},
		{SubLanguageID: "por", Code2: "pt", Name: "Portuguese", Aliases: []string{"pt-pt"}},
		{SubLanguageID: "chi", Code2: "zh", Name: "Chinese (simplified)", Aliases: []string{"zho", "zh-cn"}},
		{SubLanguageID: "zht", Code2: "", Name: "Chinese (traditional)", Aliases: []string{"zh-tw"}},
		{SubLanguageID: "afr", Code2: "af", Name: "Afrikaans"},
		{SubLanguageID: "alb", Code2: "sq", Name: "Albanian", Aliases: []string{"sqi"}},
		{SubLanguageID: "ara", Code2: "ar", Name: "Arabic"},
		{SubLanguageID: "arm", Code2: "hy", Name: "Armenian", Aliases: []string{"hye"}},
		{SubLanguageID: "baq", Code2: "eu", Name: "Basque", Aliases: []string{"eus"}},
		{SubLanguageID: "ben", Code2: "bn", Name: "Bengali"},
		{SubLanguageID: "bul", Code2: "bg", Name: "Bulgarian"},
		{SubLanguageID: "cat", Code2: "ca", Name: "Catalan"},
		{SubLanguageID: "hrv", Code2: "hr", Name: "Croatian"},
		{SubLanguageID: "cze", Code2: "cs", Name: "Czech", Aliases: []string{"ces"}},
		{SubLanguageID: "dan", Code2: "da", Name: "Danish"},
		{SubLanguageID: "dut", Code2: "nl", Name: "Dutch", Aliases: []string{"nld"}},
		{SubLanguageID: "fin", Code2: "fi", Name: "Finnish"},
		{SubLanguageID: "heb", Code2: "he", Name: "Hebrew"},
		{SubLanguageID: "hin", Code2: "hi", Name: "Hindi"},
		{SubLanguageID: "hun", Code2: "hu", Name: "Hungarian"},
		{SubLanguageID: "ind", Code2: "id", Name: "Indonesian"},
		{SubLanguageID: "jpn", Code2: "ja", Name: "Japanese"},
		{SubLanguageID: "kor", Code2: "ko", Name: "Korean"},
		{SubLanguageID: "lav", Code2: "lv", Name: "Latvian"},
		{SubLanguageID: "lit", Code2: "lt", Name: "Lithuanian"},
		{SubLanguageID: "mac", Code2: "mk", Name: "Macedonian", Aliases: []string{"mkd"}},
		{SubLanguageID: "may", Code2: "ms", Name: "Malay", Aliases: []string{"msa"}},
		{SubLanguageID: "nor", Code2: "no", Name: "Norwegian"},
		{SubLanguageID: "per", Code2: "fa", Name: "Persian", Aliases: []string{"fas"}},
		{SubLanguageID: "pol", Code2: "pl", Name: "Polish"},
		{SubLanguageID: "rum", Code2: "ro", Name: "Romanian", Aliases: []string{"ron"}},
		{SubLanguageID: "rus", Code2: "ru", Name: "Russian"},
		{SubLanguageID: "scc", Code2: "sr", Name: "Serbian", Aliases: []string{"srp"}},
		{SubLanguageID: "slo", Code2: "sk", Name: "Slovak", Aliases: []string{"slk"}},
		{SubLanguageID: "slv", Code2: "sl", Name: "Slovenian"},
		{SubLanguageID: "swe", Code2: "sv", Name: "Swedish"},
		{SubLanguageID: "tha", Code2: "th", Name: "Thai"},
		{SubLanguageID: "tur", Code2: "tr", Name: "Turkish"},
		{SubLanguageID: "ukr", Code2: "uk", Name: "Ukrainian"},
		{SubLanguageID: "vie", Code2: "vi", Name: "Vietnamese"},
	}

	for _, lang := range languages {
		keys := append([]string{lang.SubLanguageID, lang.Code2, lang.Name}, lang.Aliases...)
		for _, key := range keys {
			if key == "" {
				continue
			}
			languagesDB[strings.ToLower(key)] = lang
		}
	}
}

// NormalizeLanguage maps a language code or English name ("en", "eng", "English",
// "pt-br") to the sublanguageid expected by SearchSubtitles.
func NormalizeLanguage(code string) (string, error) {
	lang, ok := languagesDB[strings.ToLower(strings.TrimSpace(code))]
	if !ok {
		return "", fmt.Errorf("unknown subtitle language %q", code)
	}
	return lang.SubLanguageID, nil
}
