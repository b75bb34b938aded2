// Package twitter is a typed facade over the Twitter plugin of the native
// bridge.
//
// Every method performs exactly one dispatch of (PluginName, action, args) and
// does nothing else: no validation, no retry, no caching. Failures reported by
// the plugin come back as *client.RemoteError with the reason untouched.
package twitter

import (
	"context"
	"encoding/json"
	"fmt"
)

// Dispatcher forwards an action to the bridge and returns its raw result.
// *client.Client satisfies it.
type Dispatcher interface {
	Exec(ctx context.Context, plugin, action string, args ...any) (json.RawMessage, error)
}

// Client exposes the Twitter plugin's actions as Go methods.
type Client struct {
	bridge Dispatcher
	plugin string
}

// NewClient returns a facade dispatching through bridge to PluginName.
func NewClient(bridge Dispatcher) *Client {
	return &Client{bridge: bridge, plugin: PluginName}
}

// WithPlugin returns a copy of c addressing a differently named plugin.
func (c *Client) WithPlugin(name string) *Client {
	return &Client{bridge: c.bridge, plugin: name}
}

func (c *Client) exec(ctx context.Context, action string, args ...any) (json.RawMessage, error) {
	result, err := c.bridge.Exec(ctx, c.plugin, action, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", action, err)
	}
	return result, nil
}

// IsAvailable reports whether the native Twitter SDK is loaded.
func (c *Client) IsAvailable(ctx context.Context) (bool, error) {
	result, err := c.exec(ctx, ActionIsTwitterAvailable)
	if err != nil {
		return false, err
	}
	return decodeFlag(ActionIsTwitterAvailable, result)
}

// IsSetup reports whether the SDK can post with the given credentials.
func (c *Client) IsSetup(ctx context.Context, creds Credentials) (bool, error) {
	result, err := c.exec(ctx, ActionIsTwitterSetup,
		creds.ConsumerKey, creds.ConsumerSecret, creds.AccessToken, creds.AccessTokenSecret)
	if err != nil {
		return false, err
	}
	return decodeFlag(ActionIsTwitterSetup, result)
}

func newTweetOptions(text string, att *Attachments) tweetOptions {
	opts := tweetOptions{Text: text}
	if att != nil {
		opts.URLAttach = att.URL
		opts.ImageAttach = att.ImageURL
	}
	return opts
}

// ComposeTweet opens the native tweet composer prefilled with text and att.
// att may be nil.
func (c *Client) ComposeTweet(ctx context.Context, text string, att *Attachments) error {
	_, err := c.exec(ctx, ActionComposeTweet, newTweetOptions(text, att))
	return err
}

// SendTweet posts text directly, without the composer. att may be nil.
func (c *Client) SendTweet(ctx context.Context, text string, att *Attachments) error {
	_, err := c.exec(ctx, ActionSendTweet, newTweetOptions(text, att))
	return err
}

// PublicTimeline fetches the home timeline.
func (c *Client) PublicTimeline(ctx context.Context) ([]Tweet, error) {
	result, err := c.exec(ctx, ActionGetPublicTimeline)
	if err != nil {
		return nil, err
	}
	return decodeTweets(ActionGetPublicTimeline, result)
}

// SearchByHashtag searches recent tweets carrying tag.
func (c *Client) SearchByHashtag(ctx context.Context, tag string) ([]Tweet, error) {
	result, err := c.exec(ctx, ActionSearchByHashtag, searchOptions{Hashtag: tag})
	if err != nil {
		return nil, err
	}
	return decodeTweets(ActionSearchByHashtag, result)
}

// Mentions fetches tweets mentioning the signed-in user.
func (c *Client) Mentions(ctx context.Context) ([]Tweet, error) {
	result, err := c.exec(ctx, ActionGetMentions)
	if err != nil {
		return nil, err
	}
	return decodeTweets(ActionGetMentions, result)
}

// Username returns the signed-in user's screen name.
func (c *Client) Username(ctx context.Context) (string, error) {
	result, err := c.exec(ctx, ActionGetTwitterUsername)
	if err != nil {
		return "", err
	}
	var name string
	if err := json.Unmarshal(result, &name); err != nil {
		return "", fmt.Errorf("%s: decode result: %w", ActionGetTwitterUsername, err)
	}
	return name, nil
}

// Profile returns the signed-in user's profile.
func (c *Client) Profile(ctx context.Context) (*Profile, error) {
	result, err := c.exec(ctx, ActionGetTwitterProfile)
	if err != nil {
		return nil, err
	}
	var p Profile
	if err := json.Unmarshal(result, &p); err != nil {
		return nil, fmt.Errorf("%s: decode result: %w", ActionGetTwitterProfile, err)
	}
	return &p, nil
}

// Request calls an arbitrary API endpoint (e.g. "users/lookup.json") with
// params and returns the raw response. Param values must be plain JSON
// values (strings, numbers, bools). params and opts may be nil.
func (c *Client) Request(ctx context.Context, endpoint string, params map[string]any, opts *RequestOptions) (json.RawMessage, error) {
	req := requestOptions{URL: endpoint, Params: params}
	if req.Params == nil {
		req.Params = map[string]any{}
	}
	if opts != nil {
		req.RequestMethod = opts.Method
	}
	return c.exec(ctx, ActionGetTWRequest, req)
}

// Retweet retweets the tweet with the given id.
func (c *Client) Retweet(ctx context.Context, id string) error {
	_, err := c.exec(ctx, ActionReTweet, id)
	return err
}

// Favorite likes the tweet with the given id.
func (c *Client) Favorite(ctx context.Context, id string) error {
	_, err := c.exec(ctx, ActionAddFavorites, id)
	return err
}

// Unfavorite removes a like from the tweet with the given id.
func (c *Client) Unfavorite(ctx context.Context, id string) error {
	_, err := c.exec(ctx, ActionRmFavorites, id)
	return err
}
