package discord

import (
	"github.com/bwmarrin/discordgo"

	"github.com/nextlevelbuilder/factrelay/internal/relay"
)

// capabilities derives the actor's capability set from guild ownership and
// the permission bits of the roles shared between the actor and the guild.
// Pure over its inputs so it is testable without a gateway session.
func capabilities(ownerID, actorID string, actorRoles []string, guildRoles []*discordgo.Role) relay.Capabilities {
	caps := relay.Capabilities{GuildOwner: ownerID != "" && ownerID == actorID}

	for _, role := range guildRoles {
		for _, id := range actorRoles {
			if id != role.ID {
				continue
			}
			if role.Permissions&discordgo.PermissionManageMessages != 0 {
				caps.ManageMessages = true
			}
			if role.Permissions&discordgo.PermissionAdministrator != 0 {
				caps.Administrator = true
			}
		}
	}
	return caps
}
