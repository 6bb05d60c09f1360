package access

type AccessState string

const (
	AccessPro  AccessState = "pro"
	AccessFree AccessState = "free"
)

// Reason names the rule that granted pro access.
type Reason string

const (
	ReasonAdminGrant Reason = "admin_grant"
	ReasonPaid       Reason = "paid"
	ReasonTrial      Reason = "trial"
	ReasonNone       Reason = "none"
)

// Decision is the resolved entitlement for one record at one instant.
type Decision struct {
	HasPro bool
	Reason Reason
}

func (d Decision) State() AccessState {
	if d.HasPro {
		return AccessPro
	}
	return AccessFree
}
