package db

// User is a registered account. IDs are UUIDs, so they can never collide
// with the reserved "ai" sender identity used on the message channel.
type User struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Email        string `json:"email"`
	PasswordHash string `json:"-"`
	CreatedAt    int64  `json:"createdAt"`
}

// Project is a shared workspace. The admin is always a member.
type Project struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	AdminID   string   `json:"adminId"`
	MemberIDs []string `json:"memberIds"`
	FileTree  string   `json:"-"` // JSON-encoded file tree column
	CreatedAt int64    `json:"createdAt"`
}

// IsMember reports whether the given user belongs to the project.
func (p *Project) IsMember(userID string) bool {
	for _, id := range p.MemberIDs {
		if id == userID {
			return true
		}
	}
	return false
}
