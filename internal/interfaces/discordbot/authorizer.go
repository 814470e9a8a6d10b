package discordbot

import (
	"context"
	"slices"
	"strings"

	"github.com/bwmarrin/discordgo"
)

// Actor is the Discord member behind an interaction.
type Actor struct {
	UserID      string
	DisplayName string
	RoleIDs     []string
}

type Authorizer interface {
	CanAdminister(ctx context.Context, actor Actor) bool
}

// RoleAuthorizer grants admin to bot owners and holders of the league admin role.
type RoleAuthorizer struct {
	ownerIDs    map[string]struct{}
	adminRoleID string
}

func NewRoleAuthorizer(ownerIDs []string, adminRoleID string) *RoleAuthorizer {
	owners := make(map[string]struct{}, len(ownerIDs))
	for _, id := range ownerIDs {
		id = strings.TrimSpace(id)
		if id != "" {
			owners[id] = struct{}{}
		}
	}
	return &RoleAuthorizer{ownerIDs: owners, adminRoleID: strings.TrimSpace(adminRoleID)}
}

func (a *RoleAuthorizer) CanAdminister(_ context.Context, actor Actor) bool {
	if _, ok := a.ownerIDs[actor.UserID]; ok {
		return true
	}
	return a.adminRoleID != "" && slices.Contains(actor.RoleIDs, a.adminRoleID)
}

func actorFromInteraction(i *discordgo.Interaction) Actor {
	if i.Member != nil && i.Member.User != nil {
		name := i.Member.Nick
		if name == "" {
			name = userDisplayName(i.Member.User)
		}
		return Actor{
			UserID:      i.Member.User.ID,
			DisplayName: name,
			RoleIDs:     i.Member.Roles,
		}
	}
	if i.User != nil {
		return Actor{UserID: i.User.ID, DisplayName: userDisplayName(i.User)}
	}
	return Actor{}
}

func userDisplayName(u *discordgo.User) string {
	if u.GlobalName != "" {
		return u.GlobalName
	}
	return u.Username
}
