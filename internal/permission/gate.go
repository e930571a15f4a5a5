// Package permission is the channel ownership gate consulted by every
// channel-mutating operation. Ownership lives in the durable channel record
// (created_by), so the gate is enforced server-side rather than as a
// client-local advisory cache.
package permission

import "collabhub/pkg/types"

// Rules are evaluated in order:
//
//  1. the default "general" channel can never be renamed or deleted,
//  2. a viewer-role member can never rename or delete any channel,
//  3. otherwise rename requires the recorded creator; delete is granted to
//     the creator or to any admin-role member.

// CanRename reports whether the actor may rename the channel.
func CanRename(channel *types.Channel, actorID, role string) bool {
	if channel == nil || channel.Name == types.DefaultChannelName {
		return false
	}
	if role == types.RoleViewer {
		return false
	}
	return channel.CreatedBy == actorID
}

// CanDelete reports whether the actor may delete the channel.
func CanDelete(channel *types.Channel, actorID, role string) bool {
	if channel == nil || channel.Name == types.DefaultChannelName {
		return false
	}
	if role == types.RoleViewer {
		return false
	}
	return channel.CreatedBy == actorID || role == types.RoleAdmin
}
