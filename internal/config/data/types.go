// Package data provides configuration data types and helpers for the
// lazyrows configuration files.
package data

// Flags represents CLI command-line flags for the lazyrows application.
type Flags struct {
	RefreshRate  *float32  // Poll interval in seconds
	LogLevel     *string   // Log level (e.g., debug, info, warn, error)
	LogFile      *string   // Path to log file
	Kind         *string   // Source kind or alias
	Path         *string   // Database file of sql and bolt sources
	Table        *string   // SQL table or bolt bucket
	Bucket       *string   // S3 bucket
	Prefix       *string   // S3 key prefix
	ResourceType *string   // CloudFormation type listed through Cloud Control
	Columns      *[]string // Columns shown by the generic renderer
	PageSize     *int      // Records per remote call
	Adaptive     *bool     // Start with the adaptive cache strategy
	Profile      *string   // AWS profile to use
	Region       *string   // AWS region to use
	Churn        *string   // Interval of simulated changes in memory sources
}

// Logger represents logging configuration settings.
type Logger struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"`
}

// Cache sizes the window of rows kept around the viewport, in multiples of
// the displayed row count.
type Cache struct {
	MinFactor         float64 `yaml:"minFactor"`
	MaxFactor         float64 `yaml:"maxFactor"`
	Adaptive          bool    `yaml:"adaptive"`
	MaxAdaptiveFactor float64 `yaml:"maxAdaptiveFactor"`
	SlowFetch         string  `yaml:"slowFetch"`
}

// Retry bounds the exponential backoff of failed fetches.
type Retry struct {
	InitialInterval string `yaml:"initialInterval"`
	MaxElapsed      string `yaml:"maxElapsed"`
}

// RateLimit caps the calls made to a source. A zero rate is unlimited.
type RateLimit struct {
	PerSecond float64 `yaml:"perSecond"`
	Burst     int     `yaml:"burst"`
}

// Source locates the rows to browse.
type Source struct {
	Kind         string   `yaml:"kind"`
	Path         string   `yaml:"path,omitempty"`
	Table        string   `yaml:"table,omitempty"`
	OrderBy      string   `yaml:"orderBy,omitempty"`
	KeyColumn    string   `yaml:"keyColumn,omitempty"`
	Columns      []string `yaml:"columns,omitempty"`
	Bucket       string   `yaml:"bucket,omitempty"`
	Prefix       string   `yaml:"prefix,omitempty"`
	ResourceType string   `yaml:"resourceType,omitempty"`
	Profile      string   `yaml:"profile,omitempty"`
	Region       string   `yaml:"region,omitempty"`
	Seed         int      `yaml:"seed,omitempty"`
	Churn        string   `yaml:"churn,omitempty"`
}

// NewFlags creates a new Flags instance with all pointer fields initialized.
// All pointers are allocated but their values are not set.
func NewFlags() *Flags {
	return &Flags{
		RefreshRate:  new(float32),
		LogLevel:     new(string),
		LogFile:      new(string),
		Kind:         new(string),
		Path:         new(string),
		Table:        new(string),
		Bucket:       new(string),
		Prefix:       new(string),
		ResourceType: new(string),
		Columns:      new([]string),
		PageSize:     new(int),
		Adaptive:     new(bool),
		Profile:      new(string),
		Region:       new(string),
		Churn:        new(string),
	}
}
