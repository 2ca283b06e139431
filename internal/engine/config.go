package engine

// Trigger policies, configured at recording start.
const (
	PolicySingleClick      = "single-click"
	PolicyMultiClickWindow = "multi-click-window"
	PolicyCtrlClick        = "ctrl-click"
)

// Config tunes the Smart Camera Engine. The zero value is unusable; start
// from DefaultConfig. The yaml tags let a tuning file override single
// fields the way scenario files override the renderer.
type Config struct {
	Policy string `yaml:"policy"`

	// Clustering.
	ClusterGapMs       int64 `yaml:"clusterGapMs"`
	MultiClickWindowMs int64 `yaml:"multiClickWindowMs"`
	MinClicksInWindow  int   `yaml:"minClicksInWindow"`

	// Semantic focus.
	SemanticPadRatio float64 `yaml:"semanticPadRatio"`
	MaxZoom          float64 `yaml:"maxZoom"`
	FallbackZoom     float64 `yaml:"fallbackZoom"`

	// State machine.
	MinZoomIntervalMs int64   `yaml:"minZoomIntervalMs"`
	PreRollMs         int64   `yaml:"preRollMs"`
	SlowdownPxPerS    float64 `yaml:"slowdownPxPerS"`
	ContainmentMargin float64 `yaml:"containmentMargin"`
	IdleTimeoutMs     int64   `yaml:"idleTimeoutMs"`

	// Scroll handling inside a locked segment.
	GlobalScrollTimeoutMs int64   `yaml:"globalScrollTimeoutMs"`
	ScrollTravelRatio     float64 `yaml:"scrollTravelRatio"`
	ScrollShiftRatio      float64 `yaml:"scrollShiftRatio"`
	ScrollIdleResetMs     int64   `yaml:"scrollIdleResetMs"`
}

// DefaultConfig is the stock trigger tuning.
func DefaultConfig() Config {
	return Config{
		Policy:                PolicySingleClick,
		ClusterGapMs:          300,
		MultiClickWindowMs:    3000,
		MinClicksInWindow:     2,
		SemanticPadRatio:      0.06,
		MaxZoom:               2.0,
		FallbackZoom:          2.0,
		MinZoomIntervalMs:     2000,
		PreRollMs:             400,
		SlowdownPxPerS:        300,
		ContainmentMargin:     0.1,
		IdleTimeoutMs:         2000,
		GlobalScrollTimeoutMs: 3000,
		ScrollTravelRatio:     1.5,
		ScrollShiftRatio:      0.10,
		ScrollIdleResetMs:     300,
	}
}
