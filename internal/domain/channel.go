package domain

import "time"

type ChannelType string

const (
	ChannelTeam    ChannelType = "team"
	ChannelProject ChannelType = "project"
	ChannelDirect  ChannelType = "direct"
)

type Channel struct {
	ID        string      `db:"id"`
	Name      string      `db:"name"`
	Type      ChannelType `db:"type"`
	IsPrivate bool        `db:"is_private"`
	ProjectID *string     `db:"project_id"`
	CreatedAt time.Time   `db:"created_at"`
}
