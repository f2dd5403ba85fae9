package dns

// Family identifies an IP address family.
type Family int

const (
	// FamilyIPv4 marks an IPv4 address.
	FamilyIPv4 Family = 4
	// FamilyIPv6 marks an IPv6 address.
	FamilyIPv6 Family = 6
)

// String returns the family name.
func (f Family) String() string {
	switch f {
	case FamilyIPv4:
		return "ipv4"
	case FamilyIPv6:
		return "ipv6"
	default:
		return "unknown"
	}
}

// FamilyPreference selects which address families a resolution may
// return and in which order they are queried.
type FamilyPreference int

const (
	// FamilyAny queries IPv4 first, then IPv6, and accepts both.
	FamilyAny FamilyPreference = iota

	// FamilyIPv4Only queries and accepts IPv4 addresses exclusively.
	FamilyIPv4Only

	// FamilyIPv6Only queries and accepts IPv6 addresses exclusively.
	FamilyIPv6Only
)

// String returns the preference name.
func (p FamilyPreference) String() string {
	switch p {
	case FamilyAny:
		return "any"
	case FamilyIPv4Only:
		return "ipv4-only"
	case FamilyIPv6Only:
		return "ipv6-only"
	default:
		return "unknown"
	}
}

// Families returns the query order for the preference. A family whose
// query yields no records is not fatal; the next family is consulted.
func (p FamilyPreference) Families() []Family {
	switch p {
	case FamilyIPv4Only:
		return []Family{FamilyIPv4}
	case FamilyIPv6Only:
		return []Family{FamilyIPv6}
	default:
		return []Family{FamilyIPv4, FamilyIPv6}
	}
}

// Accepts reports whether addresses of family f satisfy the preference.
func (p FamilyPreference) Accepts(f Family) bool {
	switch p {
	case FamilyIPv4Only:
		return f == FamilyIPv4
	case FamilyIPv6Only:
		return f == FamilyIPv6
	default:
		return true
	}
}
