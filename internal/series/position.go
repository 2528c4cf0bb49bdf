package series

// Position is the tri-state market stance a signal rule produces.
type Position int8

const (
	Short Position = -1
	Flat  Position = 0
	Long  Position = 1
)

func (p Position) String() string {
	switch p {
	case Long:
		return "long"
	case Short:
		return "short"
	default:
		return "flat"
	}
}

// Float returns the position as a return multiplier.
func (p Position) Float() float64 {
	return float64(p)
}
