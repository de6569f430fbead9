package aws

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/ini.v1"
)

const defaultProfile = "default"

type Profile struct {
	Name          string
	DefaultRegion string
	RoleARN       string
	SourceProfile string
}

// ProfileManager knows the profiles declared in the shared AWS config and
// credentials files.
type ProfileManager struct {
	profiles map[string]*Profile
}

// NewProfileManager loads profiles from the standard ~/.aws locations,
// honoring AWS_CONFIG_FILE and AWS_SHARED_CREDENTIALS_FILE.
func NewProfileManager() (*ProfileManager, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, err
	}
	configPath := filepath.Join(home, ".aws", "config")
	if p := os.Getenv("AWS_CONFIG_FILE"); p != "" {
		configPath = p
	}
	credsPath := filepath.Join(home, ".aws", "credentials")
	if p := os.Getenv("AWS_SHARED_CREDENTIALS_FILE"); p != "" {
		credsPath = p
	}

	return LoadProfiles(configPath, credsPath)
}

// LoadProfiles reads the given config and credentials files. Missing files
// are skipped.
func LoadProfiles(configPath, credsPath string) (*ProfileManager, error) {
	m := ProfileManager{profiles: make(map[string]*Profile)}

	creds, err := loadINI(credsPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load credentials file: %w", err)
	}
	if creds != nil {
		for _, s := range creds.Sections() {
			if s.Name() == ini.DefaultSection {
				continue
			}
			p := m.profile(s.Name())
			p.RoleARN = s.Key("role_arn").String()
			p.SourceProfile = s.Key("source_profile").String()
		}
	}

	cfg, err := loadINI(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config file: %w", err)
	}
	if cfg != nil {
		for _, s := range cfg.Sections() {
			name := strings.TrimPrefix(s.Name(), "profile ")
			switch {
			case s.Name() == ini.DefaultSection && len(s.Keys()) == 0:
				continue
			case s.Name() == ini.DefaultSection:
				name = defaultProfile
			}
			p := m.profile(name)
			if s.HasKey("region") {
				p.DefaultRegion = s.Key("region").String()
			}
			if p.RoleARN == "" {
				p.RoleARN = s.Key("role_arn").String()
			}
			if p.SourceProfile == "" {
				p.SourceProfile = s.Key("source_profile").String()
			}
		}
	}

	return &m, nil
}

func loadINI(path string) (*ini.File, error) {
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	return ini.Load(path)
}

func (m *ProfileManager) profile(name string) *Profile {
	p, ok := m.profiles[name]
	if !ok {
		p = &Profile{Name: name}
		m.profiles[name] = p
	}
	return p
}

// ProfileNames returns the known profile names sorted.
func (m *ProfileManager) ProfileNames() []string {
	nn := make([]string, 0, len(m.profiles))
	for n := range m.profiles {
		nn = append(nn, n)
	}
	sort.Strings(nn)
	return nn
}

// GetProfile retrieves a profile by name.
func (m *ProfileManager) GetProfile(name string) (Profile, error) {
	p, ok := m.profiles[name]
	if !ok {
		return Profile{}, fmt.Errorf("%w: %q, known profiles: %s", ErrInvalidProfile, name, strings.Join(m.ProfileNames(), ", "))
	}
	return *p, nil
}

// Resolve picks the profile and region to connect with. Explicit values win,
// then AWS_PROFILE and AWS_REGION, then the profile's configured region.
func (m *ProfileManager) Resolve(profile, region string) (string, string, error) {
	if profile == "" {
		profile = os.Getenv("AWS_PROFILE")
	}
	if profile == "" {
		profile = defaultProfile
	}
	p, err := m.GetProfile(profile)
	if err != nil && (profile != defaultProfile || len(m.profiles) > 0) {
		return "", "", err
	}

	if region == "" {
		region = os.Getenv("AWS_REGION")
	}
	if region == "" {
		region = p.DefaultRegion
	}
	if region == "" {
		region = DefaultRegion
	}

	return profile, region, nil
}
