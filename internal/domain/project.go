package domain

import "time"

type Project struct {
	ID        string    `db:"id"`
	Name      string    `db:"name"`
	ManagerID string    `db:"manager_id"`
	CreatedAt time.Time `db:"created_at"`
}
