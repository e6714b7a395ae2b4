package domain

// Decision is the result of an access check. It is computed fresh from
// membership data on every call and must not be cached: membership can
// change between a join and a later send.
type Decision struct {
	Allowed bool
	Reason  string
}

func Allow(reason string) Decision {
	return Decision{Allowed: true, Reason: reason}
}

func Deny(reason string) Decision {
	return Decision{Allowed: false, Reason: reason}
}
