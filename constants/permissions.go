package constants

// Marketplace permissions carried in the identity token
const (
	PermAdminFull     = "puja-booking.admin.full-permit"
	PermLogisticsFull = "puja-booking.logistics.full-permit"
	PermOfficiantFull = "puja-booking.officiant.full-permit"
	PermCustomerFull  = "puja-booking.customer.full-permit"

	// Special permissions
	PermAny = "any"
)

// Permission groups for convenience
var (
	AdminPermissions = []string{
		PermAdminFull,
	}

	// RolePermissions resolves the acting role from token permissions,
	// highest privilege first.
	RolePermissions = []struct {
		Permission string
		Role       Role
	}{
		{PermAdminFull, RoleAdmin},
		{PermLogisticsFull, RoleLogistics},
		{PermOfficiantFull, RoleOfficiant},
		{PermCustomerFull, RoleCustomer},
	}
)
