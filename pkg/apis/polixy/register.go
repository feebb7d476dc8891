package polixy

const (
	// GroupName is the API group under which the policy resources are served.
	GroupName = "polixy.olix0r.net"
)
