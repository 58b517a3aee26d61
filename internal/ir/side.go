package ir

// Side is the runtime a member is exposed on.
type Side string

const (
	SideCommon Side = "Common"
	SideServer Side = "Server"
	SideClient Side = "Client"
	SideMapper Side = "Mapper"
)

// OutputSides are the sides generators produce files for.
var OutputSides = []Side{SideServer, SideClient, SideMapper}

// ParseSide parses a side name as written in tags and on the command line.
func ParseSide(s string) (Side, bool) {
	switch Side(s) {
	case SideCommon, SideServer, SideClient, SideMapper:
		return Side(s), true
	}
	return "", false
}

// Includes reports whether output side s exposes a member tagged member.
// Common members apply everywhere; the mapper also carries client members.
func (s Side) Includes(member Side) bool {
	switch {
	case member == SideCommon:
		return true
	case member == s:
		return true
	case s == SideMapper && member == SideClient:
		return true
	}
	return false
}

// Access is a property access scope.
type Access string

const (
	AccessPrivateCommon        Access = "PrivateCommon"
	AccessPrivateClient        Access = "PrivateClient"
	AccessPrivateServer        Access = "PrivateServer"
	AccessPublic               Access = "Public"
	AccessPublicModifiable     Access = "PublicModifiable"
	AccessPublicFullModifiable Access = "PublicFullModifiable"
	AccessPublicStatic         Access = "PublicStatic"
	AccessProtected            Access = "Protected"
	AccessProtectedModifiable  Access = "ProtectedModifiable"
	AccessVirtualPrivateCommon Access = "VirtualPrivateCommon"
	AccessVirtualPrivateClient Access = "VirtualPrivateClient"
	AccessVirtualPrivateServer Access = "VirtualPrivateServer"
	AccessVirtualPublic        Access = "VirtualPublic"
	AccessVirtualProtected     Access = "VirtualProtected"
)

var accessScopes = map[Access]bool{
	AccessPrivateCommon: true, AccessPrivateClient: true, AccessPrivateServer: true,
	AccessPublic: true, AccessPublicModifiable: true, AccessPublicFullModifiable: true,
	AccessPublicStatic: true, AccessProtected: true, AccessProtectedModifiable: true,
	AccessVirtualPrivateCommon: true, AccessVirtualPrivateClient: true,
	AccessVirtualPrivateServer: true, AccessVirtualPublic: true, AccessVirtualProtected: true,
}

// ParseAccess validates an access scope name.
func ParseAccess(s string) (Access, bool) {
	a := Access(s)
	return a, accessScopes[a]
}

// Virtual reports whether the property has no storage of its own.
func (a Access) Virtual() bool {
	switch a {
	case AccessVirtualPrivateCommon, AccessVirtualPrivateClient, AccessVirtualPrivateServer,
		AccessVirtualPublic, AccessVirtualProtected:
		return true
	}
	return false
}

// VisibleOn reports whether a property with this scope is registered on side.
func (a Access) VisibleOn(side Side) bool {
	switch a {
	case AccessPrivateServer, AccessVirtualPrivateServer:
		if side != SideServer {
			return false
		}
	case AccessPrivateClient, AccessVirtualPrivateClient:
		if side != SideClient && side != SideMapper {
			return false
		}
	}
	if side == SideMapper && a.Virtual() {
		return false
	}
	return true
}
