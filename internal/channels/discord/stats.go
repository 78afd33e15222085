package discord

// Presence counters over the gateway state cache. Channel implements
// presence.Source and presence.Setter.

func (c *Channel) GuildCount() int64 {
	c.session.State.RLock()
	defer c.session.State.RUnlock()
	return int64(len(c.session.State.Guilds))
}

func (c *Channel) MemberCount() int64 {
	c.session.State.RLock()
	defer c.session.State.RUnlock()
	var total int64
	for _, g := range c.session.State.Guilds {
		total += int64(g.MemberCount)
	}
	return total
}

func (c *Channel) ChannelCount() int64 {
	c.session.State.RLock()
	defer c.session.State.RUnlock()
	var total int64
	for _, g := range c.session.State.Guilds {
		total += int64(len(g.Channels))
	}
	return total
}

func (c *Channel) SentMessages() int64 {
	return c.sent.Load()
}

func (c *Channel) ReceivedMessages() int64 {
	return c.received.Load()
}

// SetPresence updates the bot's watching status line.
func (c *Channel) SetPresence(text string) error {
	return c.session.UpdateWatchStatus(0, text)
}
