package twitter

// Credentials are the app and user tokens checked by IsSetup.
type Credentials struct {
	ConsumerKey       string
	ConsumerSecret    string
	AccessToken       string
	AccessTokenSecret string
}

// Attachments are optional extras for a tweet.
type Attachments struct {
	URL      string // link embedded in the tweet
	ImageURL string // image embedded in the tweet
}

// RequestOptions tune a raw API request.
type RequestOptions struct {
	Method string // HTTP method, e.g. "POST"; empty lets the plugin choose
}

// User is a Twitter account as returned in tweets and profiles.
type User struct {
	ID              string `json:"id_str"`
	Name            string `json:"name"`
	ScreenName      string `json:"screen_name"`
	Description     string `json:"description,omitempty"`
	Location        string `json:"location,omitempty"`
	URL             string `json:"url,omitempty"`
	ProfileImageURL string `json:"profile_image_url_https,omitempty"`
	FollowersCount  int    `json:"followers_count"`
	FriendsCount    int    `json:"friends_count"`
	StatusesCount   int    `json:"statuses_count"`
	FavouritesCount int    `json:"favourites_count"`
	Verified        bool   `json:"verified"`
	Protected       bool   `json:"protected"`
	CreatedAt       string `json:"created_at,omitempty"`
}

// Profile is the authenticated user's profile.
type Profile = User

// Tweet is a status as the v1.1 REST API returns it.
type Tweet struct {
	ID                string `json:"id_str"`
	Text              string `json:"text"`
	CreatedAt         string `json:"created_at,omitempty"`
	User              *User  `json:"user,omitempty"`
	InReplyToStatusID string `json:"in_reply_to_status_id_str,omitempty"`
	InReplyToUserID   string `json:"in_reply_to_user_id_str,omitempty"`
	RetweetCount      int    `json:"retweet_count"`
	FavoriteCount     int    `json:"favorite_count"`
	Retweeted         bool   `json:"retweeted"`
	Favorited         bool   `json:"favorited"`
	Lang              string `json:"lang,omitempty"`
}

// tweetOptions is the single argument of composeTweet and sendTweet.
type tweetOptions struct {
	Text        string `json:"text"`
	URLAttach   string `json:"urlAttach,omitempty"`
	ImageAttach string `json:"imageAttach,omitempty"`
}

// searchOptions is the single argument of searchByHashtag.
type searchOptions struct {
	Hashtag string `json:"hashtag"`
}

// requestOptions is the single argument of getTWRequest.
type requestOptions struct {
	URL           string         `json:"url"`
	Params        map[string]any `json:"params"`
	RequestMethod string         `json:"requestMethod,omitempty"`
}
