package api

// Role is the access level attached to a request by the auth layer in
// front of this service.
type Role string

const (
	// InternalRole is used for service-to-service calls.
	InternalRole Role = "internal"
	AdminRole    Role = "admin"
	EditorRole   Role = "editor"
	ViewerRole   Role = "viewer"
)

var roleLevel = map[Role]int{
	ViewerRole:   1,
	EditorRole:   2,
	AdminRole:    3,
	InternalRole: 4,
}

// HasAccess reports whether the role satisfies the given minimum role.
func (r Role) HasAccess(minRole Role) bool {
	return roleLevel[r] >= roleLevel[minRole]
}
