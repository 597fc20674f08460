package voice

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/buger/jsonparser"
	"github.com/jellydator/ttlcache/v3"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"
	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

const (
	voicesURLFormat = "https://%s.tts.speech.microsoft.com/cognitiveservices/voices/list"
	voicesFileName  = "voices.json"
	voicesCacheKey  = "voices"
)

//go:embed voices.json
var embeddedVoices []byte

type Language struct {
	Code           string `json:"code"`
	Family         string `json:"family"`
	Region         string `json:"region"`
	NameNative     string `json:"name_native"`
	NameEnglish    string `json:"name_english"`
	CountryEnglish string `json:"country_english"`
}

// VoiceInfo describes one voice in the voices.json layout.
type VoiceInfo struct {
	Key          string         `json:"key"`
	Name         string         `json:"name"`
	Language     Language       `json:"language"`
	Quality      string         `json:"quality"`
	NumSpeakers  int            `json:"num_speakers"`
	SpeakerIDMap map[string]int `json:"speaker_id_map"`
	Aliases      []string       `json:"aliases"`
}

// Catalog keeps the list of voices available in a region. A downloaded
// voices.json in dir takes precedence over the embedded list.
type Catalog struct {
	dir    string
	region string
	key    string
	url    string
	client *http.Client

	cache *ttlcache.Cache[string, map[string]VoiceInfo]
	group singleflight.Group
}

type CatalogOption func(*Catalog)

func WithVoicesURL(url string) CatalogOption {
	return func(c *Catalog) { c.url = url }
}

func WithCatalogHTTPClient(client *http.Client) CatalogOption {
	return func(c *Catalog) { c.client = client }
}

// WithCacheTTL sets how long a loaded list is reused. Zero keeps it forever.
func WithCacheTTL(ttl time.Duration) CatalogOption {
	return func(c *Catalog) {
		if ttl <= 0 {
			ttl = ttlcache.NoTTL
		}
		c.cache = ttlcache.New[string, map[string]VoiceInfo](
			ttlcache.WithTTL[string, map[string]VoiceInfo](ttl),
			ttlcache.WithDisableTouchOnHit[string, map[string]VoiceInfo](),
		)
	}
}

func NewCatalog(dir, region, key string, opts ...CatalogOption) *Catalog {
	c := &Catalog{
		dir:    dir,
		region: region,
		key:    key,
		url:    fmt.Sprintf(voicesURLFormat, region),
		client: &http.Client{Timeout: 30 * time.Second},
	}
	WithCacheTTL(time.Hour)(c)
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Update downloads the region's voice list into dir/voices.json.
func (c *Catalog) Update(ctx context.Context) error {
	if c.dir == "" {
		return errors.New("no download directory configured")
	}
	if err := os.MkdirAll(c.dir, 0755); err != nil {
		return &FilesystemError{Op: "create voices dir", Path: c.dir, Err: err}
	}

	target := filepath.Join(c.dir, voicesFileName)
	logrus.WithFields(logrus.Fields{"url": c.url, "path": target}).Debugln("downloading voice list")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return fmt.Errorf("failed to build voice list request; %w", err)
	}
	req.Header.Set(azureKeyHeader, c.key)

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to download voice list; %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("failed to download voice list: %s", resp.Status)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read voice list; %w", err)
	}

	voices, err := TransformVoices(body)
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(voices, "", "    ")
	if err != nil {
		return fmt.Errorf("failed to encode voice list; %w", err)
	}
	if err := os.WriteFile(target, data, 0644); err != nil {
		return &FilesystemError{Op: "write", Path: target, Err: err}
	}

	c.cache.Delete(voicesCacheKey)
	return nil
}

// Voices returns all known voices keyed by short name. When update is set the
// list is downloaded first; a failed download is logged and the previous list
// is used.
func (c *Catalog) Voices(ctx context.Context, update bool) (map[string]VoiceInfo, error) {
	if update {
		if err := c.Update(ctx); err != nil {
			logrus.WithError(err).Errorln("failed to update voices list")
		}
	}

	if item := c.cache.Get(voicesCacheKey); item != nil {
		return item.Value(), nil
	}

	v, err, _ := c.group.Do(voicesCacheKey, func() (interface{}, error) {
		voices, err := c.load()
		if err != nil {
			return nil, err
		}
		c.cache.Set(voicesCacheKey, voices, ttlcache.DefaultTTL)
		return voices, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(map[string]VoiceInfo), nil
}

func (c *Catalog) load() (map[string]VoiceInfo, error) {
	if c.dir != "" {
		downloaded := filepath.Join(c.dir, voicesFileName)
		if _, err := os.Stat(downloaded); err == nil {
			logrus.WithField("path", downloaded).Debugln("loading voices")
			voices, err := readVoicesFile(downloaded)
			if err == nil {
				return voices, nil
			}
			logrus.WithError(err).WithField("path", downloaded).Errorln("failed to load voices")
		}
	}

	logrus.Debugln("loading embedded voices")
	voices := make(map[string]VoiceInfo)
	if err := json.Unmarshal(embeddedVoices, &voices); err != nil {
		return nil, fmt.Errorf("failed to decode embedded voices; %w", err)
	}
	return voices, nil
}

func readVoicesFile(path string) (map[string]VoiceInfo, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	voices := make(map[string]VoiceInfo)
	if err := json.Unmarshal(data, &voices); err != nil {
		return nil, err
	}
	return voices, nil
}

// Find looks up a voice by its short name.
func (c *Catalog) Find(ctx context.Context, name string) (VoiceInfo, error) {
	voices, err := c.Voices(ctx, false)
	if err != nil {
		return VoiceInfo{}, err
	}
	info, ok := voices[name]
	if !ok {
		return VoiceInfo{}, &VoiceNotFoundError{Name: name}
	}
	return info, nil
}

// Sorted returns voices ordered by key, optionally restricted to a locale
// (en-US) or language family (en).
func Sorted(voices map[string]VoiceInfo, lang string) []VoiceInfo {
	out := make([]VoiceInfo, 0, len(voices))
	for _, v := range voices {
		if lang != "" &&
			!strings.EqualFold(v.Language.Code, lang) &&
			!strings.EqualFold(v.Language.Family, lang) {
			continue
		}
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}

// TransformVoices converts the service's voice list response into
// voices.json entries.
func TransformVoices(data []byte) (map[string]VoiceInfo, error) {
	voices := make(map[string]VoiceInfo)
	var parseErr error

	_, err := jsonparser.ArrayEach(data, func(entry []byte, dataType jsonparser.ValueType, _ int, err error) {
		if parseErr != nil {
			return
		}
		if err != nil {
			parseErr = err
			return
		}
		if dataType != jsonparser.Object {
			parseErr = fmt.Errorf("unexpected voice entry of type %s", dataType)
			return
		}

		shortName, err := jsonparser.GetString(entry, "ShortName")
		if err != nil {
			parseErr = fmt.Errorf("voice entry without ShortName; %w", err)
			return
		}
		locale, _ := jsonparser.GetString(entry, "Locale")
		localName, _ := jsonparser.GetString(entry, "LocalName")
		localeName, _ := jsonparser.GetString(entry, "LocaleName")
		voiceType, _ := jsonparser.GetString(entry, "VoiceType")

		family, region := splitLocale(locale)
		voices[shortName] = VoiceInfo{
			Key:  shortName,
			Name: localName,
			Language: Language{
				Code:           locale,
				Family:         family,
				Region:         region,
				NameNative:     localeName,
				NameEnglish:    localeName,
				CountryEnglish: countryName(region),
			},
			Quality:      voiceType,
			NumSpeakers:  1,
			SpeakerIDMap: map[string]int{},
			Aliases:      []string{},
		}
	})
	if err != nil {
		return nil, fmt.Errorf("failed to parse voice list; %w", err)
	}
	if parseErr != nil {
		return nil, fmt.Errorf("failed to parse voice list; %w", parseErr)
	}
	return voices, nil
}

// splitLocale returns the language family and the country code of a locale
// such as en-US or sr-Latn-RS.
func splitLocale(locale string) (string, string) {
	parts := strings.Split(locale, "-")
	family := parts[0]
	for _, p := range parts[1:] {
		if len(p) == 2 {
			return family, strings.ToUpper(p)
		}
	}
	if len(parts) > 1 {
		return family, parts[1]
	}
	return family, ""
}

func countryName(code string) string {
	region, err := language.ParseRegion(code)
	if err != nil {
		return ""
	}
	return display.English.Regions().Name(region)
}
