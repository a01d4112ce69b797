package domain

const (
	DefaultListLimit = 50
	MaxListLimit     = 200
)

// Normalize applies defaults and clamps pagination values.
func (f *EvidenceFilter) Normalize() {
	if f.Limit <= 0 {
		f.Limit = DefaultListLimit
	}
	if f.Limit > MaxListLimit {
		f.Limit = MaxListLimit
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
}
