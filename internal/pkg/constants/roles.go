package constants

// Roles a signed-in viewer can hold toward one organization, most privileged first.
const (
	SuperAdmin = "super_admin"
	OrgAdmin   = "org_admin"
	Member     = "member"
	Visitor    = "visitor"
)

// Audit target types.
const (
	TargetUser         = "user"
	TargetOrganization = "organization"
	TargetOrgRequest   = "org_request"
)
