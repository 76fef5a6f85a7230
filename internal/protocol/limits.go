package protocol

// Limits constrains decode memory use. Declared lengths are checked against
// these ceilings before any buffer is sliced or allocated.
type Limits struct {
	MaxPacketBytes uint32
	MaxValueBytes  uint32
}

func DefaultLimits() Limits {
	return Limits{
		MaxPacketBytes: 16 * 1024 * 1024,
		MaxValueBytes:  16 * 1024 * 1024,
	}
}
