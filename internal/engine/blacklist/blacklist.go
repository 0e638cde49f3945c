// Package blacklist holds the set of banned hosts in ban order.
package blacklist

import (
	"Go2NetSentry/internal/model"
	"time"
)

// Entry records when a host entered the blacklist.
type Entry struct {
	Host     model.HostID
	BannedAt time.Time
	Tick     uint64
}

// Blacklist is an insertion-ordered set of hosts. It is not safe for
// concurrent use.
type Blacklist struct {
	entries []Entry
	members map[model.HostID]struct{}
}

// New returns an empty blacklist.
func New() *Blacklist {
	return &Blacklist{members: make(map[model.HostID]struct{})}
}

// Ban adds host and reports whether it was added. Banning a member is a no-op.
func (b *Blacklist) Ban(host model.HostID, at time.Time, tick uint64) bool {
	if b.IsBanned(host) {
		return false
	}
	b.entries = append(b.entries, Entry{Host: host, BannedAt: at, Tick: tick})
	b.members[host] = struct{}{}
	return true
}

// Unban removes host and reports whether it was a member.
func (b *Blacklist) Unban(host model.HostID) bool {
	if !b.IsBanned(host) {
		return false
	}
	delete(b.members, host)
	for i, e := range b.entries {
		if e.Host == host {
			b.entries = append(b.entries[:i], b.entries[i+1:]...)
			break
		}
	}
	return true
}

// IsBanned reports membership.
func (b *Blacklist) IsBanned(host model.HostID) bool {
	_, ok := b.members[host]
	return ok
}

// Len returns the number of banned hosts.
func (b *Blacklist) Len() int {
	return len(b.entries)
}

// List returns the entries in ban order.
func (b *Blacklist) List() []Entry {
	out := make([]Entry, len(b.entries))
	copy(out, b.entries)
	return out
}
