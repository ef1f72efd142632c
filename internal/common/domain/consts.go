package domain

// DigestKind selects the cadence of a portfolio digest.
type DigestKind string

const (
	DigestDaily  DigestKind = "daily"
	DigestWeekly DigestKind = "weekly"
)

func (k DigestKind) Valid() bool {
	return k == DigestDaily || k == DigestWeekly
}

func (k DigestKind) String() string { return string(k) }
