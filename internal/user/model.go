// Package user provides actor accounts for the exchange: citizens, supply
// chain operators, regulators, and credit-buying partners.
package user

import "time"

// Role identifies an actor's position in the supply chain. Roles form a fixed
// enumeration; operation permissions are resolved through the ledger
// capability table, never by ad-hoc per-endpoint role lists.
type Role string

const (
	RoleCitizen        Role = "citizen"
	RoleFPO            Role = "fpo"
	RoleAggregator     Role = "aggregator"
	RoleProcessor      Role = "processor"
	RoleRegulator      Role = "regulator"
	RoleStateAdmin     Role = "state_admin"
	RoleMunicipalAdmin Role = "municipal_admin"
	RoleSuperAdmin     Role = "super_admin"
	RoleCSRPartner     Role = "csr_partner"
	RoleEPRPartner     Role = "epr_partner"
	RoleCarbonBuyer    Role = "carbon_buyer"
)

// ValidRoles is the set of roles accepted at registration.
var ValidRoles = map[Role]bool{
	RoleCitizen:        true,
	RoleFPO:            true,
	RoleAggregator:     true,
	RoleProcessor:      true,
	RoleRegulator:      true,
	RoleStateAdmin:     true,
	RoleMunicipalAdmin: true,
	RoleSuperAdmin:     true,
	RoleCSRPartner:     true,
	RoleEPRPartner:     true,
	RoleCarbonBuyer:    true,
}

// User is an actor account. Wallet balances and carbon holdings live in the
// wallet ledger, not here; this is profile data only.
type User struct {
	ID       string `json:"id"`
	Phone    string `json:"phone"`
	Name     string `json:"name"`
	Role     Role   `json:"role"`
	District string `json:"district,omitempty"`
	State    string `json:"state,omitempty"`
	OrgName  string `json:"org_name,omitempty"`

	PasswordHash string `json:"-"`

	CreatedAt time.Time `json:"created_at"`
}
