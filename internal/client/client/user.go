package client

// User is the public profile returned by the server.
type User struct {
	ID          int64
	Email       string
	ProfileName string
	Role        string
	IsActive    bool
	CreatedAt   string
}

func userFromPayload(v any) User {
	m, _ := v.(map[string]any)
	var u User
	if id, ok := m["id"].(float64); ok {
		u.ID = int64(id)
	}
	u.Email, _ = m["email"].(string)
	u.ProfileName, _ = m["profile_name"].(string)
	u.Role, _ = m["role"].(string)
	u.IsActive, _ = m["is_active"].(bool)
	u.CreatedAt, _ = m["created_at"].(string)
	return u
}
