package ledger

import (
	"github.com/rupaykg/exchange/internal/user"
)

// Operation names one externally invokable action on the core.
type Operation string

const (
	OpSubmit    Operation = "submit_waste"
	OpPickup    Operation = "pickup"
	OpReceipt   Operation = "receipt"
	OpFlag      Operation = "flag"
	OpMRVVerify Operation = "mrv_verify"
	OpPurchase  Operation = "purchase_credits"
	OpWallet    Operation = "get_wallet"
	OpHistory   Operation = "get_history"
	OpAuditLog  Operation = "get_audit_log"
	OpDashboard Operation = "dashboard"
)

// capabilities is the single role-to-operation table. Handlers must consult
// it through Allowed rather than keeping their own role lists.
var capabilities = map[Operation][]user.Role{
	OpSubmit:    {user.RoleCitizen, user.RoleFPO},
	OpPickup:    {user.RoleAggregator},
	OpReceipt:   {user.RoleProcessor},
	OpFlag:      {user.RoleRegulator},
	OpMRVVerify: {user.RoleRegulator, user.RoleStateAdmin},
	OpPurchase:  {user.RoleCSRPartner, user.RoleEPRPartner, user.RoleCarbonBuyer},
	OpWallet: {
		user.RoleCitizen, user.RoleFPO, user.RoleAggregator, user.RoleProcessor,
		user.RoleStateAdmin, user.RoleMunicipalAdmin, user.RoleSuperAdmin,
		user.RoleRegulator, user.RoleCSRPartner, user.RoleEPRPartner, user.RoleCarbonBuyer,
	},
	OpHistory: {
		user.RoleCitizen, user.RoleFPO, user.RoleAggregator, user.RoleProcessor,
		user.RoleStateAdmin, user.RoleMunicipalAdmin, user.RoleSuperAdmin,
		user.RoleRegulator, user.RoleCSRPartner, user.RoleEPRPartner, user.RoleCarbonBuyer,
	},
	OpAuditLog: {
		user.RoleRegulator, user.RoleStateAdmin, user.RoleSuperAdmin,
		user.RoleCSRPartner, user.RoleEPRPartner, user.RoleCarbonBuyer,
	},
	OpDashboard: {
		user.RoleRegulator, user.RoleStateAdmin, user.RoleMunicipalAdmin, user.RoleSuperAdmin,
	},
}

// allowedRoles is capabilities inverted into set form for O(1) checks.
var allowedRoles = func() map[Operation]map[user.Role]bool {
	out := make(map[Operation]map[user.Role]bool, len(capabilities))
	for op, roles := range capabilities {
		set := make(map[user.Role]bool, len(roles))
		for _, r := range roles {
			set[r] = true
		}
		out[op] = set
	}
	return out
}()

// Allowed reports whether a role may invoke an operation.
func Allowed(role user.Role, op Operation) bool {
	return allowedRoles[op][role]
}

// privilegedMRV lists the roles that see mrv fields unredacted in history.
var privilegedMRV = map[user.Role]bool{
	user.RoleRegulator:  true,
	user.RoleStateAdmin: true,
	user.RoleSuperAdmin: true,
}

// PrivilegedMRV reports whether a role may see mrv fields in record history.
func PrivilegedMRV(role user.Role) bool {
	return privilegedMRV[role]
}
