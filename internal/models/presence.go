package models

import "time"

// SessionMeta is the display metadata captured when a presence entry is
// created, at login or first heartbeat.
type SessionMeta struct {
	Name     string `json:"name"`
	Role     string `json:"role"`
	ClientIP string `json:"client_ip"`
}

// OnlineUser is the read model returned by the presence directory. OnlineFor
// is derived at read time from the session start.
type OnlineUser struct {
	Identity   string    `json:"identity"`
	Name       string    `json:"name"`
	Role       string    `json:"role"`
	ClientIP   string    `json:"client_ip"`
	OnlineFor  int       `json:"online_for_minutes"`
	LastActive time.Time `json:"last_active"`
}
