package api

// UserRef is a minimal directory entry.
type UserRef struct {
	ID    string `json:"_id"`
	Email string `json:"email"`
}

// Project is a shared workspace. Users is the roster: the set of
// collaborators, keyed by id. The backend copy is the source of truth; the
// client refreshes the roster after a mutation instead of trusting optimistic
// local edits.
type Project struct {
	ID    string    `json:"_id"`
	Name  string    `json:"name"`
	Users []UserRef `json:"users"`
}

// HasUser reports whether id is already on the roster.
func (p *Project) HasUser(id string) bool {
	for _, u := range p.Users {
		if u.ID == id {
			return true
		}
	}
	return false
}
