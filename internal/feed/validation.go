// internal/feed/validation.go
package feed

import (
	"context"
	"errors"
	"fmt"
	"time"
)

var (
	ErrInvalidURL = errors.New("invalid feed URL")
	ErrTimeout    = errors.New("feed fetch timeout")
	ErrNotAFeed   = errors.New("URL does not point to a valid feed")
)

type FeedValidationResult struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Link        string `json:"link,omitempty"`
	ItemCount   int    `json:"itemCount"`
	FeedType    string `json:"feedType,omitempty"` // rss, atom, json
	// Sample of the most recent item for preview
	SampleItemTitle string `json:"sampleItemTitle,omitempty"`
	SampleItemURL   string `json:"sampleItemURL,omitempty"`
}

// ValidateFeedURL fetches feedURL once, bypassing cached validators, and
// reports what it found.
func (f *Fetcher) ValidateFeedURL(ctx context.Context, feedURL string) (*FeedValidationResult, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	f.Forget(feedURL)
	feed, err := f.Fetch(ctx, feedURL)
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, ErrTimeout
		}
		if errors.Is(err, ErrInvalidURL) || errors.Is(err, ErrNotAFeed) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}

	result := &FeedValidationResult{
		Title:       feed.Title,
		Description: StripMarkup(feed.Description),
		Link:        feed.Link,
		ItemCount:   len(feed.Items),
		FeedType:    feed.FeedType,
	}
	if len(feed.Items) > 0 {
		result.SampleItemTitle = feed.Items[0].Title
		result.SampleItemURL = feed.Items[0].Link
	}
	return result, nil
}
