package models

import "time"

// PairKey builds the role-pinned partition key for a connection row.
// partyA is always the initiator side; callers resolve the assignment first.
func PairKey(partyA, partyB string) string {
	return partyA + "#" + partyB
}

// UnorderedPairKey builds a direction-agnostic key for a user pair. Used by
// message requests, interests and conversation participant lookups, where
// either party may appear first.
func UnorderedPairKey(u1, u2 string) string {
	if u1 > u2 {
		u1, u2 = u2, u1
	}
	return u1 + "#" + u2
}

// NowTimestamp returns the canonical timestamp string stored on every entity.
func NowTimestamp() string {
	return time.Now().UTC().Format(time.RFC3339Nano)
}

// ParseTimestamp parses a stored timestamp. Ordering comparisons must parse
// rather than compare strings: fractional-second width varies.
func ParseTimestamp(s string) (time.Time, error) {
	return time.Parse(time.RFC3339Nano, s)
}
