package domain

import "time"

type ID string

// Account is a registered board member. PasswordChangedAt bounds refresh
// tokens: tokens issued before it are no longer honored.
type Account struct {
	ID                ID
	Username          string
	Email             string
	Name              string
	PasswordHash      string
	CreatedAt         time.Time
	UpdatedAt         time.Time
	PasswordChangedAt time.Time
}

type Profile struct {
	ID        ID
	Username  string
	Email     string
	Name      string
	CreatedAt time.Time
}

func (a Account) Profile() Profile {
	return Profile{
		ID:        a.ID,
		Username:  a.Username,
		Email:     a.Email,
		Name:      a.Name,
		CreatedAt: a.CreatedAt,
	}
}
