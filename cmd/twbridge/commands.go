package main

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"twitter-bridge/twitter"
)

func availableCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "available",
		Short: "Check whether the Twitter SDK is loaded",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := a.context(cmd)
			defer cancel()
			ok, err := a.twitter.IsAvailable(ctx)
			if err != nil {
				return err
			}
			return a.print(ok)
		},
	}
}

func setupCmd(a *app) *cobra.Command {
	var creds twitter.Credentials
	cmd := &cobra.Command{
		Use:   "setup",
		Short: "Check whether the SDK can post with the given credentials",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := a.context(cmd)
			defer cancel()
			ok, err := a.twitter.IsSetup(ctx, creds)
			if err != nil {
				return err
			}
			return a.print(ok)
		},
	}
	f := cmd.Flags()
	f.StringVar(&creds.ConsumerKey, "consumer-key", "", "app consumer key")
	f.StringVar(&creds.ConsumerSecret, "consumer-secret", "", "app consumer secret")
	f.StringVar(&creds.AccessToken, "access-token", "", "user access token")
	f.StringVar(&creds.AccessTokenSecret, "access-token-secret", "", "user access token secret")
	return cmd
}

func tweetCmd(a *app) *cobra.Command {
	var (
		att  twitter.Attachments
		send bool
	)
	cmd := &cobra.Command{
		Use:   "tweet <text>",
		Short: "Compose a tweet, or post it directly with --send",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := a.context(cmd)
			defer cancel()

			var attachments *twitter.Attachments
			if att.URL != "" || att.ImageURL != "" {
				attachments = &att
			}
			post := a.twitter.ComposeTweet
			if send {
				post = a.twitter.SendTweet
			}
			if err := post(ctx, args[0], attachments); err != nil {
				return err
			}
			fmt.Fprintln(cmd.ErrOrStderr(), color.GreenString("tweet accepted"))
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&att.URL, "url", "", "URL to embed")
	f.StringVar(&att.ImageURL, "image", "", "image URL to embed")
	f.BoolVar(&send, "send", false, "post without opening the composer")
	return cmd
}

func tweetsCmd(a *app, use, short string, fetch func(cmd *cobra.Command, args []string) ([]twitter.Tweet, error), nargs cobra.PositionalArgs) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  nargs,
		RunE: func(cmd *cobra.Command, args []string) error {
			tweets, err := fetch(cmd, args)
			if err != nil {
				return err
			}
			return a.print(tweets)
		},
	}
}

func timelineCmd(a *app) *cobra.Command {
	return tweetsCmd(a, "timeline", "Fetch the public timeline",
		func(cmd *cobra.Command, args []string) ([]twitter.Tweet, error) {
			ctx, cancel := a.context(cmd)
			defer cancel()
			return a.twitter.PublicTimeline(ctx)
		}, cobra.NoArgs)
}

func searchCmd(a *app) *cobra.Command {
	return tweetsCmd(a, "search <hashtag>", "Search tweets by hashtag",
		func(cmd *cobra.Command, args []string) ([]twitter.Tweet, error) {
			ctx, cancel := a.context(cmd)
			defer cancel()
			return a.twitter.SearchByHashtag(ctx, strings.TrimPrefix(args[0], "#"))
		}, cobra.ExactArgs(1))
}

func mentionsCmd(a *app) *cobra.Command {
	return tweetsCmd(a, "mentions", "Fetch tweets mentioning the signed-in user",
		func(cmd *cobra.Command, args []string) ([]twitter.Tweet, error) {
			ctx, cancel := a.context(cmd)
			defer cancel()
			return a.twitter.Mentions(ctx)
		}, cobra.NoArgs)
}

func usernameCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "username",
		Short: "Print the signed-in user's screen name",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := a.context(cmd)
			defer cancel()
			name, err := a.twitter.Username(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintln(a.out, name)
			return nil
		},
	}
}

func profileCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "profile",
		Short: "Print the signed-in user's profile",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := a.context(cmd)
			defer cancel()
			p, err := a.twitter.Profile(ctx)
			if err != nil {
				return err
			}
			return a.print(p)
		},
	}
}

// paramValues turns numeric and boolean flag values into JSON numbers and
// bools. Everything else stays a string.
func paramValues(params map[string]string) map[string]any {
	values := make(map[string]any, len(params))
	for k, v := range params {
		values[k] = v
		dec := json.NewDecoder(strings.NewReader(v))
		dec.UseNumber()
		var parsed any
		if err := dec.Decode(&parsed); err != nil || dec.More() {
			continue
		}
		switch parsed.(type) {
		case json.Number, bool:
			values[k] = parsed
		}
	}
	return values
}

func requestCmd(a *app) *cobra.Command {
	var (
		params map[string]string
		method string
	)
	cmd := &cobra.Command{
		Use:   "request <endpoint>",
		Short: "Call an arbitrary API endpoint, e.g. users/lookup.json",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := a.context(cmd)
			defer cancel()
			var opts *twitter.RequestOptions
			if method != "" {
				opts = &twitter.RequestOptions{Method: strings.ToUpper(method)}
			}
			raw, err := a.twitter.Request(ctx, args[0], paramValues(params), opts)
			if err != nil {
				return err
			}
			return a.print(raw)
		},
	}
	cmd.Flags().StringToStringVarP(&params, "param", "p", nil, "request parameter key=value (repeatable); numbers and bools are sent unquoted")
	cmd.Flags().StringVarP(&method, "method", "X", "", "HTTP method")
	return cmd
}

func idCmd(a *app, use, short, done string, act func(*twitter.Client, context.Context, string) error) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <tweet-id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := a.context(cmd)
			defer cancel()
			if err := act(a.twitter, ctx, args[0]); err != nil {
				return err
			}
			fmt.Fprintln(cmd.ErrOrStderr(), color.GreenString(done))
			return nil
		},
	}
}

func retweetCmd(a *app) *cobra.Command {
	return idCmd(a, "retweet", "Retweet a tweet", "retweeted",
		(*twitter.Client).Retweet)
}

func favoriteCmd(a *app) *cobra.Command {
	return idCmd(a, "favorite", "Like a tweet", "favorited",
		(*twitter.Client).Favorite)
}

func unfavoriteCmd(a *app) *cobra.Command {
	return idCmd(a, "unfavorite", "Remove a like", "unfavorited",
		(*twitter.Client).Unfavorite)
}

// execCmd dispatches a raw action; each argument is parsed as JSON when it
// can be, and sent as a string otherwise.
func execCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "exec <action> [args...]",
		Short: "Dispatch a raw plugin action",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := a.context(cmd)
			defer cancel()
			positional := make([]any, 0, len(args)-1)
			for _, arg := range args[1:] {
				var v any
				if err := json.Unmarshal([]byte(arg), &v); err != nil {
					v = arg
				}
				positional = append(positional, v)
			}
			raw, err := a.bridge.Exec(ctx, a.cfg.Plugin, args[0], positional...)
			if err != nil {
				return err
			}
			return a.print(raw)
		},
	}
}
