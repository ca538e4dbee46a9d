package entity

import "time"

// User is a minimal account record keyed by an external identity id. The
// identity provider owns credentials; this row only carries profile data.
type User struct {
	ID             int64     `json:"id" db:"id"`
	ExternalAuthID string    `json:"-" db:"external_auth_id"`
	Email          string    `json:"email" db:"email"`
	Subscription   string    `json:"subscription" db:"subscription"`
	CreatedAt      time.Time `json:"-" db:"created_at"`
}
