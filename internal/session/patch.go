package session

// ProfilePatch is a partial profile update. Nil fields are left alone. Role
// and permissions are not patchable.
type ProfilePatch struct {
	Username  *string `json:"username,omitempty"`
	Email     *string `json:"email,omitempty"`
	FirstName *string `json:"firstName,omitempty"`
	LastName  *string `json:"lastName,omitempty"`
}

// Empty reports whether the patch changes nothing.
func (p ProfilePatch) Empty() bool {
	return p.Username == nil && p.Email == nil && p.FirstName == nil && p.LastName == nil
}

// Fields returns the set fields keyed by their wire names.
func (p ProfilePatch) Fields() map[string]any {
	fields := make(map[string]any, 4)
	set := func(name string, v *string) {
		if v != nil {
			fields[name] = *v
		}
	}
	set("username", p.Username)
	set("email", p.Email)
	set("firstName", p.FirstName)
	set("lastName", p.LastName)
	return fields
}

func (p ProfilePatch) apply(u *User) {
	if p.Username != nil {
		u.Username = *p.Username
	}
	if p.Email != nil {
		u.Email = *p.Email
	}
	if p.FirstName != nil {
		u.FirstName = *p.FirstName
	}
	if p.LastName != nil {
		u.LastName = *p.LastName
	}
}

// String returns a pointer to s, for building patches.
func String(s string) *string { return &s }
