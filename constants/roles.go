package constants

// Role is the kind of actor that triggers a booking transition.
type Role string

const (
	RoleCustomer  Role = "CUSTOMER"
	RoleOfficiant Role = "OFFICIANT"
	RoleLogistics Role = "LOGISTICS"
	RoleAdmin     Role = "ADMIN"
	RoleSystem    Role = "SYSTEM"
)

// SystemActorID identifies transitions made by the engine itself.
const SystemActorID = "system"

func (r Role) String() string {
	return string(r)
}

func (r Role) IsValid() bool {
	switch r {
	case RoleCustomer, RoleOfficiant, RoleLogistics, RoleAdmin, RoleSystem:
		return true
	default:
		return false
	}
}
