package identity

import "slices"

// Role is a User's permission level
type Role string

const (
	RoleAdmin     Role = "ADMIN"
	RoleModerator Role = "MODERATOR"
	RoleGuest     Role = "GUEST"
)

// AdminUsername is the protected account. Its role is fixed and it cannot be deleted.
const AdminUsername = "admin"

// Storage keys
const (
	UsersKey       = "droidfolio_users_v1"
	CurrentUserKey = "currentUser"
)

// Valid reports whether r is one of the known roles
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleModerator, RoleGuest:
		return true
	}
	return false
}

type User struct {
	Username string `json:"username"`
	Role     Role   `json:"role"`
	Name     string `json:"name"`
	Avatar   string `json:"avatar,omitempty"`
}

// HasRole reports whether the user holds any of roles
func (u User) HasRole(roles ...Role) bool {
	return slices.Contains(roles, u.Role)
}

// credential is the stored pairing of a password hash and its user
type credential struct {
	Password string `json:"password"`
	User     User   `json:"user"`
}

// UserUpdate carries the fields to change. Nil fields are left alone.
// Username may only be set to the user's current name.
type UserUpdate struct {
	Username *string `json:"username,omitempty"`
	Name     *string `json:"name,omitempty"`
	Avatar   *string `json:"avatar,omitempty"`
}

const avatarBase = "https://avataaars.io/?avatarStyle=Circle"

type seedAccount struct {
	password string
	user     User
}

var defaultAccounts = []seedAccount{
	{
		password: "admin123",
		user: User{
			Username: "admin",
			Role:     RoleAdmin,
			Name:     "System Administrator",
			Avatar:   avatarBase + "&topType=ShortHairShortFlat&accessoriesType=Sunglasses&hairColor=Black&facialHairType=BeardLight&clotheType=BlazerShirt&eyeType=Default&eyebrowType=Default&mouthType=Smile&skinColor=Light",
		},
	},
	{
		password: "mod123",
		user: User{
			Username: "mod",
			Role:     RoleModerator,
			Name:     "Content Moderator",
			Avatar:   avatarBase + "&topType=LongHairStraight&accessoriesType=Blank&hairColor=BrownDark&facialHairType=Blank&clotheType=BlazerSweater&eyeType=Default&eyebrowType=Default&mouthType=Smile&skinColor=Light",
		},
	},
	{
		password: "guest123",
		user: User{
			Username: "guest",
			Role:     RoleGuest,
			Name:     "Guest User",
			Avatar:   avatarBase + "&topType=WinterHat2&accessoriesType=Kurt&hairColor=Blonde&facialHairType=MoustacheMagnum&clotheType=Hoodie&eyeType=Surprised&eyebrowType=RaisedExcited&mouthType=Smile&skinColor=Pale",
		},
	},
}
