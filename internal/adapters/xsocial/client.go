// Package xsocial is the social collaborator backed by the X API v2.
package xsocial

import (
	"context"
	"fmt"
	"math"
	"net/url"
	"strings"

	"github.com/okian/talentradar/internal/adapters/httpfetch"
	"github.com/okian/talentradar/internal/domain/enrichment"
	"github.com/okian/talentradar/pkg/logger"
)

const (
	userFields    = "description,created_at,public_metrics,url,location,verified"
	recentTweets  = 20
	maxEngagement = 100
)

type publicMetrics struct {
	FollowersCount int `json:"followers_count"`
	LikeCount      int `json:"like_count"`
	RetweetCount   int `json:"retweet_count"`
	ReplyCount     int `json:"reply_count"`
	QuoteCount     int `json:"quote_count"`
}

type apiError struct {
	Title  string `json:"title"`
	Detail string `json:"detail"`
}

type userResponse struct {
	Data *struct {
		ID            string        `json:"id"`
		Name          string        `json:"name"`
		Username      string        `json:"username"`
		Description   string        `json:"description"`
		URL           string        `json:"url"`
		PublicMetrics publicMetrics `json:"public_metrics"`
	} `json:"data"`
	Errors []apiError `json:"errors"`
}

type tweetsResponse struct {
	Data []struct {
		PublicMetrics publicMetrics `json:"public_metrics"`
	} `json:"data"`
}

// Client implements enrichment.Social.
type Client struct {
	baseURL string
	fetch   *httpfetch.Fetcher
	log     logger.Logger
}

var _ enrichment.Social = (*Client)(nil)

// New creates a Client. The bearer token is required by the API but an
// empty one is allowed for tests.
func New(baseURL, bearerToken string, log logger.Logger, opts ...httpfetch.Option) *Client {
	if log == nil {
		log = logger.NewNop()
	}
	fetchOpts := []httpfetch.Option{httpfetch.WithLogger(log)}
	if bearerToken != "" {
		fetchOpts = append(fetchOpts, httpfetch.WithHeader("Authorization", "Bearer "+bearerToken))
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		fetch:   httpfetch.New(append(fetchOpts, opts...)...),
		log:     log,
	}
}

// Profile implements enrichment.Social.Profile. Engagement is the mean over
// recent tweets; it is 0 when tweets cannot be read.
func (c *Client) Profile(ctx context.Context, handle string) (*enrichment.SocialFacts, error) {
	var resp userResponse
	u := fmt.Sprintf("%s/2/users/by/username/%s?user.fields=%s", c.baseURL, url.PathEscape(handle), userFields)
	found, err := c.fetch.GetJSON(ctx, u, &resp)
	if err != nil {
		return nil, fmt.Errorf("x user %s: %w", handle, err)
	}
	if !found || resp.Data == nil {
		if len(resp.Errors) > 0 {
			c.log.Debug(ctx, "x user lookup failed",
				logger.String("handle", handle),
				logger.String("detail", resp.Errors[0].Detail))
		}
		return nil, nil
	}

	d := resp.Data
	facts := &enrichment.SocialFacts{
		Name:      d.Name,
		Username:  d.Username,
		Bio:       d.Description,
		URL:       d.URL,
		Followers: d.PublicMetrics.FollowersCount,
	}
	if d.ID != "" {
		facts.Engagement = c.engagement(ctx, d.ID, facts.Followers)
	}
	return facts, nil
}

func (c *Client) engagement(ctx context.Context, userID string, followers int) float64 {
	var resp tweetsResponse
	u := fmt.Sprintf("%s/2/users/%s/tweets?tweet.fields=public_metrics&max_results=%d", c.baseURL, url.PathEscape(userID), recentTweets)
	if _, err := c.fetch.GetJSON(ctx, u, &resp); err != nil {
		c.log.Warn(ctx, "x tweets unavailable", logger.String("user_id", userID), logger.Error(err))
		return 0
	}
	if len(resp.Data) == 0 {
		return 0
	}
	var sum float64
	for _, t := range resp.Data {
		sum += Engagement(t.PublicMetrics.LikeCount, t.PublicMetrics.RetweetCount,
			t.PublicMetrics.ReplyCount, t.PublicMetrics.QuoteCount, followers)
	}
	return sum / float64(len(resp.Data))
}

// Engagement scores one post relative to the author's audience, capped at 100.
func Engagement(likes, retweets, replies, quotes, followers int) float64 {
	raw := float64(likes) + 2*float64(retweets) + 1.5*float64(replies) + 2.5*float64(quotes)
	return math.Min(raw/float64(max(followers, 1))*100, maxEngagement)
}
