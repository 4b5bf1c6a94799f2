package user_agent

import (
	_ "embed"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"go.elara.ws/pcre"
	"gopkg.in/yaml.v3"
)

const Unknown = "Unknown"

type UserAgent struct {
	UserAgent string
	OS        string
	Browser   string
	Device    string
	Mobile    bool
	Tablet    bool
	Desktop   bool
	Bot       bool
}

//go:embed rules.yml
var rulesFile []byte

type ruleEntry struct {
	Regex   string `yaml:"regex"`
	Name    string `yaml:"name"`
	Version string `yaml:"version"`
}

type deviceEntry struct {
	Regex  string `yaml:"regex"`
	Device string `yaml:"device"`
}

type ruleSet struct {
	Bots     []ruleEntry   `yaml:"bots"`
	Browsers []ruleEntry   `yaml:"browsers"`
	OSs      []ruleEntry   `yaml:"oss"`
	Devices  []deviceEntry `yaml:"devices"`
}

// Compiled regex cache
type RegexCache struct {
	compiled map[string]*pcre.Regexp
	mutex    sync.RWMutex
}

func newRegexCache() *RegexCache {
	return &RegexCache{
		compiled: make(map[string]*pcre.Regexp),
	}
}

func (rc *RegexCache) get(pattern string) (*pcre.Regexp, error) {
	rc.mutex.RLock()
	if regex, exists := rc.compiled[pattern]; exists {
		rc.mutex.RUnlock()
		return regex, nil
	}
	rc.mutex.RUnlock()

	rc.mutex.Lock()
	defer rc.mutex.Unlock()

	if regex, exists := rc.compiled[pattern]; exists {
		return regex, nil
	}

	regex, err := pcre.Compile(pattern)
	if err != nil {
		return nil, err
	}
	rc.compiled[pattern] = regex
	return regex, nil
}

var (
	parser *Parser
	once   sync.Once
)

type Parser struct {
	rules      ruleSet
	regexCache *RegexCache
}

func getParser() *Parser {
	once.Do(func() {
		parser = &Parser{regexCache: newRegexCache()}
		if err := yaml.Unmarshal(rulesFile, &parser.rules); err != nil {
			slog.Default().Error("Failed to parse user agent rules", slog.Any("error", err))
		}
	})
	return parser
}

// match returns the first entry whose regex matches, with $n placeholders in
// its version filled from the capture groups.
func (p *Parser) match(entries []ruleEntry, userAgent string) (string, string) {
	for _, entry := range entries {
		regex, err := p.regexCache.get(entry.Regex)
		if err != nil {
			continue
		}
		matches := regex.FindStringSubmatch(userAgent)
		if len(matches) == 0 {
			continue
		}
		version := entry.Version
		for i, group := range matches[1:] {
			version = strings.ReplaceAll(version, fmt.Sprintf("$%d", i+1), group)
		}
		return entry.Name, version
	}
	return Unknown, ""
}

func (p *Parser) device(userAgent string) string {
	for _, entry := range p.rules.Devices {
		if regex, err := p.regexCache.get(entry.Regex); err == nil && regex.MatchString(userAgent) {
			return entry.Device
		}
	}
	return "desktop"
}

// ParseUserAgent classifies a raw User-Agent header. Bots are detected first
// and reported with their crawler name as the browser.
func ParseUserAgent(userAgent string) UserAgent {
	p := getParser()

	if strings.TrimSpace(userAgent) == "" {
		return UserAgent{OS: Unknown, Browser: Unknown, Device: Unknown}
	}

	if bot, _ := p.match(p.rules.Bots, userAgent); bot != Unknown {
		return UserAgent{
			UserAgent: userAgent,
			OS:        Unknown,
			Browser:   bot,
			Device:    "Bot",
			Bot:       true,
		}
	}

	browser, _ := p.match(p.rules.Browsers, userAgent)
	os, _ := p.match(p.rules.OSs, userAgent)
	device := p.device(userAgent)

	return UserAgent{
		UserAgent: userAgent,
		OS:        os,
		Browser:   browser,
		Device:    device,
		Mobile:    device == "smartphone",
		Tablet:    device == "tablet",
		Desktop:   device == "desktop",
	}
}
