package remote

// Wire types for the Teleplay backend. The backend is a black box: these
// mirror its JSON payloads and are passed through to the UI untouched.

type SearchResult struct {
	ID           int64  `json:"id"`
	Title        string `json:"title"`
	ChannelName  string `json:"channelName"`
	ThumbnailURL string `json:"thumbnailUrl"`
	Views        string `json:"views"`
	TimeAgo      string `json:"timeAgo"`
	Duration     string `json:"duration,omitempty"`
}

type VideoDetails struct {
	ID          int64  `json:"id"`
	Title       string `json:"title"`
	VideoURL    string `json:"videoUrl"`
	Description string `json:"description"`
	Language    string `json:"language"`
	Format      string `json:"format"`
}

type Channel struct {
	ID     int64  `json:"id"`
	Name   string `json:"name"`
	Bio    string `json:"bio"`
	Avatar string `json:"avatar"`
}

type ContentItem struct {
	ID           int64  `json:"id"`
	Title        string `json:"title"`
	ThumbnailURL string `json:"thumbnailUrl"`
	VideoURL     string `json:"videoUrl,omitempty"`
	TimeAgo      string `json:"timeAgo,omitempty"`
}

type subscriptionsResponse struct {
	Subscriptions []Channel `json:"subscriptions"`
}

type channelContentResponse struct {
	Content []ContentItem `json:"content"`
}

type streamLink struct {
	StreamURL string `json:"streamUrl"`
}

type streamResponse struct {
	StreamLinks []streamLink `json:"streamLinks"`
}

// loginResponse is the POST /user/login reply. The channel is the user's own
// channel; its id is what the subscription endpoints call userId.
type loginResponse struct {
	Token   string `json:"token"`
	Name    string `json:"name"`
	Channel struct {
		ID    int64  `json:"id"`
		Name  string `json:"name"`
		Email string `json:"email"`
	} `json:"channel"`
}

// registerResponse is the POST /user/register reply. No channel yet.
type registerResponse struct {
	Token string `json:"token"`
}

// Credentials is the stored identity. UserID is the login channel id; it is
// empty right after registration, before the first login.
type Credentials struct {
	Token  string `json:"token"`
	UserID string `json:"userId"`
	Name   string `json:"name,omitempty"`
	Email  string `json:"email,omitempty"`
}
