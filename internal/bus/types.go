package bus

// RelayRequest is one inbound chat message queued for the fact engine.
// It is created by the ingest dispatcher and consumed exactly once by the
// engine session; it is never persisted.
type RelayRequest struct {
	TraceID   string `json:"trace_id"`
	ChannelID string `json:"channel_id"`
	GuildID   string `json:"guild_id"`
	AuthorID  string `json:"author_id"`
	Username  string `json:"username"`
	Text      string `json:"text"`
	Mentioned bool   `json:"mentioned"`
}

// RelayResponse carries engine output back toward delivery. Same shape as
// RelayRequest so the egress gate can re-check the channel settings.
type RelayResponse struct {
	TraceID   string `json:"trace_id"`
	ChannelID string `json:"channel_id"`
	GuildID   string `json:"guild_id"`
	Username  string `json:"username"`
	Text      string `json:"text"`
	Mentioned bool   `json:"mentioned"`
}
