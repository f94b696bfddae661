// Package permission resolves a user's capability level within an organization.
package permission

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/daap14/retrospecs/internal/org"
)

// Level is an ordinal capability level. Higher values grant more.
type Level int

const (
	None Level = iota
	Member
	Admin
	Owner
)

var levelNames = [...]string{"none", "member", "admin", "owner"}

// Get derives the level of userID in o from the membership record m, which is
// nil when the user is not a member. The owner always gets Owner.
func Get(o *org.Organization, m *org.Member, userID uuid.UUID) Level {
	if o == nil {
		return None
	}
	if o.OwnerID == userID {
		return Owner
	}
	if m == nil || m.UserID != userID || m.OrgID != o.ID {
		return None
	}
	return FromRole(m.Role)
}

// FromRole maps a stored member role to a level. Unknown roles get Member.
func FromRole(role string) Level {
	if role == org.RoleAdmin {
		return Admin
	}
	return Member
}

// AtLeast reports whether l meets the threshold.
func (l Level) AtLeast(threshold Level) bool {
	return l >= threshold
}

func (l Level) String() string {
	if l < None || l > Owner {
		return fmt.Sprintf("level(%d)", int(l))
	}
	return levelNames[l]
}

// MarshalJSON encodes the level by name.
func (l Level) MarshalJSON() ([]byte, error) {
	return json.Marshal(l.String())
}

// UnmarshalJSON decodes a level name.
func (l *Level) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("decoding permission level: %w", err)
	}
	for i, name := range levelNames {
		if name == s {
			*l = Level(i)
			return nil
		}
	}
	return fmt.Errorf("unknown permission level %q", s)
}
