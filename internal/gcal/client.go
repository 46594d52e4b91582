// Package gcal wraps the Google Calendar API: OAuth credentials, calendar
// listing, upcoming-event fetches and stale-event deletion.
package gcal

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"

	appLog "github.com/stern1978/calendar/internal/log"
)

// Calendar-list pages get a bounded retry; exhaustion surfaces the error.
const (
	listRetries    = 3
	listRetryDelay = time.Second
)

// Client talks to the Google Calendar API for a single authorized user.
type Client struct {
	svc        *calendar.Service
	suffix     string // ownership predicate, e.g. "@gmail.com"
	maxResults int64
}

// NewClient reads the OAuth client secret, obtains a token (from the token
// file, or interactively on first run) and builds the API service. Any
// failure here is a credential failure and fatal to the caller.
func NewClient(ctx context.Context, credentialsPath, tokenPath, suffix string, maxResults int) (*Client, error) {
	b, err := os.ReadFile(credentialsPath)
	if err != nil {
		return nil, fmt.Errorf("read client secret %s: %w", credentialsPath, err)
	}
	conf, err := google.ConfigFromJSON(b, calendar.CalendarScope)
	if err != nil {
		return nil, fmt.Errorf("parse client secret: %w", err)
	}

	tok, err := tokenFromFile(tokenPath)
	if err != nil {
		tok, err = tokenFromWeb(ctx, conf)
		if err != nil {
			return nil, fmt.Errorf("authorize: %w", err)
		}
		if err := saveToken(tokenPath, tok); err != nil {
			// Not fatal; the user will just re-authorize next start.
			appLog.Error("token save failed", err, "path", tokenPath)
		}
	}

	svc, err := calendar.NewService(ctx, option.WithHTTPClient(conf.Client(ctx, tok)))
	if err != nil {
		return nil, fmt.Errorf("create calendar service: %w", err)
	}

	if maxResults <= 0 {
		maxResults = 10
	}
	return &Client{svc: svc, suffix: suffix, maxResults: int64(maxResults)}, nil
}

// ListCalendarIDs pages through the user's calendar list and returns the
// ids matching the ownership suffix, in provider order.
func (c *Client) ListCalendarIDs(ctx context.Context) ([]string, error) {
	var ids []string
	pageToken := ""
	for {
		list, err := c.listPage(ctx, pageToken)
		if err != nil {
			return nil, fmt.Errorf("list calendars: %w", err)
		}
		for _, item := range list.Items {
			if c.suffix == "" || strings.HasSuffix(item.Id, c.suffix) {
				ids = append(ids, item.Id)
			}
		}
		pageToken = list.NextPageToken
		if pageToken == "" {
			return ids, nil
		}
	}
}

func (c *Client) listPage(ctx context.Context, pageToken string) (*calendar.CalendarList, error) {
	var lastErr error
	for attempt := 1; attempt <= listRetries; attempt++ {
		if attempt > 1 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(listRetryDelay):
			}
		}
		call := c.svc.CalendarList.List().Context(ctx)
		if pageToken != "" {
			call = call.PageToken(pageToken)
		}
		list, err := call.Do()
		if err == nil {
			return list, nil
		}
		lastErr = err
		appLog.Error("calendar list page failed", err, "attempt", attempt)
	}
	return nil, lastErr
}

// FetchEvents returns the next events of one calendar starting at timeMin,
// recurrences pre-expanded and sorted by start time by the provider.
func (c *Client) FetchEvents(ctx context.Context, calendarID string, timeMin time.Time) ([]*calendar.Event, error) {
	events, err := c.svc.Events.List(calendarID).
		Context(ctx).
		SingleEvents(true).
		OrderBy("startTime").
		MaxResults(c.maxResults).
		TimeMin(timeMin.Format(time.RFC3339)).
		Do()
	if err != nil {
		return nil, fmt.Errorf("list events for %s: %w", calendarID, err)
	}
	return events.Items, nil
}

// DeleteEvent removes one event from the upstream store.
func (c *Client) DeleteEvent(ctx context.Context, calendarID, eventID string) error {
	if err := c.svc.Events.Delete(calendarID, eventID).Context(ctx).Do(); err != nil {
		return fmt.Errorf("delete event %s from %s: %w", eventID, calendarID, err)
	}
	return nil
}

func tokenFromFile(path string) (*oauth2.Token, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	tok := &oauth2.Token{}
	if err := json.NewDecoder(f).Decode(tok); err != nil {
		return nil, err
	}
	return tok, nil
}

// tokenFromWeb runs the manual authorization flow: print the consent URL,
// read the code from stdin, exchange it for a token.
func tokenFromWeb(ctx context.Context, conf *oauth2.Config) (*oauth2.Token, error) {
	authURL := conf.AuthCodeURL("state-token", oauth2.AccessTypeOffline)
	fmt.Printf("Open the following link in your browser, then paste the authorization code:\n%v\n", authURL)

	var code string
	if _, err := fmt.Scan(&code); err != nil {
		return nil, fmt.Errorf("read authorization code: %w", err)
	}
	tok, err := conf.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("exchange authorization code: %w", err)
	}
	return tok, nil
}

func saveToken(path string, tok *oauth2.Token) error {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return err
	}
	defer f.Close()
	return json.NewEncoder(f).Encode(tok)
}
