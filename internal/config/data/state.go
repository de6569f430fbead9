package data

// SourceState remembers where the user left a source.
type SourceState struct {
	Source   string `yaml:"source"`
	Selected int    `yaml:"selected"`
	Strategy string `yaml:"strategy,omitempty"`
}

// NewSourceState returns the state of a source never browsed before.
func NewSourceState(source string) *SourceState {
	return &SourceState{Source: source}
}

// Validate ensures the state has valid settings.
func (s *SourceState) Validate() {
	if s.Selected < 0 {
		s.Selected = 0
	}
	switch s.Strategy {
	case StrategySymmetric, StrategyAdaptive:
	default:
		s.Strategy = ""
	}
}

// Strategy names.
const (
	StrategySymmetric = "symmetric"
	StrategyAdaptive  = "adaptive"
)
