package utils

const (
	OrganizationName                      = "TechCircle"
	OrganizationTeamEmail                 = "team@techcircle.ng"
	CORSLowSecurityAllowedOriginLocalhost = "http://localhost:*"

	// Home currency for payments whose provider payload omits one.
	DefaultCurrency = "NGN"

	// Members must always carry a name of at least this many characters.
	MinMemberNameLength  = 2
	FallbackCustomerName = "Customer"

	TestEmailDomain = "example.com"
)
