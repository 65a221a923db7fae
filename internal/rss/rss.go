// Package rss renders the aggregated article list as an RSS 2.0 document.
package rss

import (
	"encoding/xml"
	"strings"
	"time"

	"newsflow/internal/database"
)

const atomNamespace = "http://www.w3.org/2005/Atom"

// RSS is the root element of an RSS feed.
type RSS struct {
	XMLName xml.Name `xml:"rss"`
	Version string   `xml:"version,attr"`
	AtomNS  string   `xml:"xmlns:atom,attr,omitempty"`
	Channel Channel  `xml:"channel"`
}

// Channel represents the channel element in an RSS feed.
type Channel struct {
	XMLName       xml.Name  `xml:"channel"`
	Title         string    `xml:"title"`
	Link          string    `xml:"link"`
	Description   string    `xml:"description"`
	Language      string    `xml:"language,omitempty"`
	LastBuildDate string    `xml:"lastBuildDate,omitempty"` // RFC1123Z
	SelfLink      *AtomLink `xml:"atom:link,omitempty"`
	Items         []Item    `xml:"item"`
}

type AtomLink struct {
	Href string `xml:"href,attr"`
	Rel  string `xml:"rel,attr"`
	Type string `xml:"type,attr"`
}

// Item represents an item element in an RSS feed.
type Item struct {
	XMLName     xml.Name `xml:"item"`
	Title       string   `xml:"title"`
	Link        string   `xml:"link"`
	Description string   `xml:"description,omitempty"`
	Category    string   `xml:"category,omitempty"`
	Source      *Source  `xml:"source,omitempty"`
	PubDate     string   `xml:"pubDate,omitempty"` // RFC1123Z
	GUID        GUID     `xml:"guid"`
}

type GUID struct {
	Value       string `xml:",chardata"`
	IsPermaLink bool   `xml:"isPermaLink,attr"`
}

// Source credits the originating feed.
type Source struct {
	Name string `xml:",chardata"`
	URL  string `xml:"url,attr"`
}

// ChannelInfo describes the aggregated feed itself.
type ChannelInfo struct {
	Title       string
	SiteURL     string
	Description string
}

// Build assembles the feed document for articles, newest first as given.
func Build(info ChannelInfo, articles []database.Article, now time.Time) RSS {
	site := strings.TrimSuffix(info.SiteURL, "/")
	doc := RSS{
		Version: "2.0",
		AtomNS:  atomNamespace,
		Channel: Channel{
			Title:         info.Title,
			Link:          site + "/",
			Description:   info.Description,
			Language:      "en-us",
			LastBuildDate: now.UTC().Format(time.RFC1123Z),
			SelfLink:      &AtomLink{Href: site + "/rss", Rel: "self", Type: "application/rss+xml"},
		},
	}
	for _, a := range articles {
		item := Item{
			Title:       a.Title,
			Link:        a.URL,
			Description: a.Summary,
			Category:    a.Category,
			GUID:        GUID{Value: a.URL, IsPermaLink: true},
		}
		if !a.PublishedAt.IsZero() {
			item.PubDate = a.PublishedAt.UTC().Format(time.RFC1123Z)
		}
		if a.Source != nil {
			item.Source = &Source{Name: a.Source.DisplayName, URL: a.Source.RSSURL}
		}
		doc.Channel.Items = append(doc.Channel.Items, item)
	}
	return doc
}

// Render marshals doc with the XML declaration prepended.
func Render(doc RSS) ([]byte, error) {
	out, err := xml.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, err
	}
	return append([]byte(xml.Header), out...), nil
}
