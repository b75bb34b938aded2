package twitter

// PluginName identifies the Twitter plugin on the bridge.
const PluginName = "TwitterPlugin"

// Action names understood by the native Twitter plugin.
const (
	ActionIsTwitterAvailable = "isTwitterAvailable"
	ActionIsTwitterSetup     = "isTwitterSetup"
	ActionComposeTweet       = "composeTweet"
	ActionSendTweet          = "sendTweet"
	ActionGetPublicTimeline  = "getPublicTimeline"
	ActionSearchByHashtag    = "searchByHashtag"
	ActionGetMentions        = "getMentions"
	ActionGetTwitterUsername = "getTwitterUsername"
	ActionGetTwitterProfile  = "getTwitterProfile"
	ActionGetTWRequest       = "getTWRequest"
	ActionReTweet            = "reTweet"
	ActionAddFavorites       = "addFavorites"
	ActionRmFavorites        = "rmFavorites"
)
