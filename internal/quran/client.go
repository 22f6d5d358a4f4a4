// Package quran fetches chapter text and translations from the quran.com
// API and builds recitation audio links.
package quran

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"
)

const (
	defaultBaseURL = "https://api.quran.com/api/v4"
	audioURLFormat = "https://cdn.islamic.network/quran/audio/128/ar.alafasy/%d.mp3"

	// TranslationSaheeh is the Saheeh International English translation.
	TranslationSaheeh = 131

	// Chapters is the number of surahs.
	Chapters = 114
)

// Chapter is a surah's metadata.
type Chapter struct {
	ID              int    `json:"id"`
	NameSimple      string `json:"name_simple"`
	NameArabic      string `json:"name_arabic"`
	RevelationPlace string `json:"revelation_place"`
	VersesCount     int    `json:"verses_count"`
	TranslatedName  struct {
		Name string `json:"name"`
	} `json:"translated_name"`
}

// Verse is one ayah with its first translation flattened to plain text.
type Verse struct {
	ID          int    `json:"id"`
	Key         string `json:"verse_key"`
	TextUthmani string `json:"text_uthmani"`
	Translation string `json:"translation"`
}

type verseResponse struct {
	ID           int    `json:"id"`
	VerseKey     string `json:"verse_key"`
	TextUthmani  string `json:"text_uthmani"`
	Translations []struct {
		ResourceID int    `json:"resource_id"`
		Text       string `json:"text"`
	} `json:"translations"`
}

// Client talks to the quran.com API.
type Client struct {
	httpClient *http.Client
	// BaseURL is exported for testing with httptest.
	BaseURL string
}

func NewClient() *Client {
	return &Client{
		httpClient: &http.Client{Timeout: 10 * time.Second},
		BaseURL:    defaultBaseURL,
	}
}

// ValidChapter reports whether id names a surah.
func ValidChapter(id int) bool {
	return id >= 1 && id <= Chapters
}

// AudioURL returns the full-surah recitation for chapter id.
func AudioURL(id int) string {
	return fmt.Sprintf(audioURLFormat, id)
}

// Chapter fetches a surah's metadata.
func (c *Client) Chapter(ctx context.Context, id int) (*Chapter, error) {
	if !ValidChapter(id) {
		return nil, fmt.Errorf("chapter %d out of range 1-%d", id, Chapters)
	}

	params := url.Values{}
	params.Set("language", "en")

	var resp struct {
		Chapter Chapter `json:"chapter"`
	}
	if err := c.get(ctx, fmt.Sprintf("/chapters/%d", id), params, &resp); err != nil {
		return nil, err
	}
	return &resp.Chapter, nil
}

// Verses fetches every verse of a surah in one page, with the Arabic text and
// the English translation.
func (c *Client) Verses(ctx context.Context, ch *Chapter) ([]Verse, error) {
	if ch == nil || !ValidChapter(ch.ID) {
		return nil, fmt.Errorf("verses: invalid chapter")
	}
	perPage := ch.VersesCount
	if perPage <= 0 {
		perPage = 500
	}

	params := url.Values{}
	params.Set("language", "en")
	params.Set("words", "false")
	params.Set("translations", strconv.Itoa(TranslationSaheeh))
	params.Set("fields", "text_uthmani")
	params.Set("per_page", strconv.Itoa(perPage))

	var resp struct {
		Verses []verseResponse `json:"verses"`
	}
	if err := c.get(ctx, fmt.Sprintf("/verses/by_chapter/%d", ch.ID), params, &resp); err != nil {
		return nil, err
	}

	out := make([]Verse, 0, len(resp.Verses))
	for _, v := range resp.Verses {
		verse := Verse{ID: v.ID, Key: v.VerseKey, TextUthmani: v.TextUthmani}
		if len(v.Translations) > 0 {
			verse.Translation = StripTags(v.Translations[0].Text)
		}
		out = append(out, verse)
	}
	return out, nil
}

func (c *Client) get(ctx context.Context, path string, params url.Values, v any) error {
	reqURL := c.BaseURL + path + "?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("quran API request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("quran API returned status %d: %s", resp.StatusCode, string(body))
	}

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("failed to decode quran API response: %w", err)
	}
	return nil
}

var footnoteRe = regexp.MustCompile(`<sup[^>]*>.*?</sup>`)
var tagRe = regexp.MustCompile(`<[^>]*>`)

// StripTags removes footnote markers and HTML tags from translation text.
func StripTags(s string) string {
	s = footnoteRe.ReplaceAllString(s, "")
	return strings.TrimSpace(tagRe.ReplaceAllString(s, ""))
}
