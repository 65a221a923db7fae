package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// SourceDef describes a feed source used to seed an empty installation.
type SourceDef struct {
	Name        string `yaml:"name"`
	DisplayName string `yaml:"display_name"`
	URL         string `yaml:"url"`
	RSSURL      string `yaml:"rss_url"`
	Category    string `yaml:"category"`
}

type sourcesFile struct {
	Sources []SourceDef `yaml:"sources"`
}

// DefaultSources is the built-in seed list.
func DefaultSources() []SourceDef {
	return []SourceDef{
		{Name: "techcrunch", DisplayName: "TechCrunch", URL: "https://techcrunch.com", RSSURL: "https://techcrunch.com/feed/", Category: "technology"},
		{Name: "ai_news", DisplayName: "AI News", URL: "https://www.artificialintelligence-news.com", RSSURL: "https://www.artificialintelligence-news.com/feed/", Category: "ai"},
		{Name: "business_insider", DisplayName: "Business Insider", URL: "https://www.businessinsider.com", RSSURL: "https://feeds.businessinsider.com/custom/all", Category: "business"},
		{Name: "yahoo_finance", DisplayName: "Yahoo Finance", URL: "https://finance.yahoo.com", RSSURL: "https://finance.yahoo.com/rss/topstories", Category: "markets"},
		{Name: "cnbc_business", DisplayName: "CNBC Business", URL: "https://www.cnbc.com", RSSURL: "https://www.cnbc.com/id/10001147/device/rss/rss.html", Category: "business"},
	}
}

// LoadSources reads the seed list from a YAML file. An empty path yields the
// built-in defaults.
func LoadSources(path string) ([]SourceDef, error) {
	if path == "" {
		return DefaultSources(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading sources file: %w", err)
	}

	var f sourcesFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing sources file: %w", err)
	}

	seen := make(map[string]bool, len(f.Sources))
	for i, s := range f.Sources {
		s.Name = strings.TrimSpace(s.Name)
		if s.Name == "" || s.RSSURL == "" {
			return nil, fmt.Errorf("source %d: name and rss_url are required", i)
		}
		if seen[s.Name] {
			return nil, fmt.Errorf("source %q listed twice", s.Name)
		}
		seen[s.Name] = true
		if s.DisplayName == "" {
			s.DisplayName = s.Name
		}
		if s.URL == "" {
			s.URL = s.RSSURL
		}
		if s.Category == "" {
			s.Category = "general"
		}
		f.Sources[i] = s
	}
	return f.Sources, nil
}
