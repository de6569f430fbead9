package aws

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestLoadProfiles(t *testing.T) {
	dir := t.TempDir()
	cfg, creds := filepath.Join(dir, "config"), filepath.Join(dir, "credentials")
	if err := os.WriteFile(cfg, []byte("[default]\nregion = eu-west-1\n\n[profile dev]\nregion = us-west-2\nrole_arn = arn:aws:iam::1:role/dev\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(creds, []byte("[default]\naws_access_key_id = x\n\n[ops]\naws_access_key_id = y\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	m, err := LoadProfiles(cfg, creds)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{"default", "dev", "ops"}, m.ProfileNames()); diff != "" {
		t.Errorf("profiles mismatch (-want +got):\n%s", diff)
	}

	p, err := m.GetProfile("dev")
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(Profile{Name: "dev", DefaultRegion: "us-west-2", RoleARN: "arn:aws:iam::1:role/dev"}, p); diff != "" {
		t.Errorf("profile mismatch (-want +got):\n%s", diff)
	}
}

func TestResolve(t *testing.T) {
	t.Setenv("AWS_PROFILE", "")
	t.Setenv("AWS_REGION", "")

	dir := t.TempDir()
	cfg := filepath.Join(dir, "config")
	if err := os.WriteFile(cfg, []byte("[profile dev]\nregion = us-west-2\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	m, err := LoadProfiles(cfg, filepath.Join(dir, "missing"))
	if err != nil {
		t.Fatal(err)
	}

	uu := map[string]struct {
		profile, region string
		wantP, wantR    string
		err             bool
	}{
		"profile":  {profile: "dev", wantP: "dev", wantR: "us-west-2"},
		"override": {profile: "dev", region: "ap-south-1", wantP: "dev", wantR: "ap-south-1"},
		"unknown":  {profile: "nope", err: true},
	}

	_, _, err = m.Resolve("nope", "")
	if !errors.Is(err, ErrInvalidProfile) || !strings.Contains(err.Error(), "known profiles: dev") {
		t.Errorf("got %v", err)
	}

	for k := range uu {
		u := uu[k]
		t.Run(k, func(t *testing.T) {
			p, r, err := m.Resolve(u.profile, u.region)
			if (err != nil) != u.err {
				t.Fatalf("error mismatch: got %v", err)
			}
			if p != u.wantP || r != u.wantR {
				t.Errorf("resolve mismatch: got %s/%s, want %s/%s", p, r, u.wantP, u.wantR)
			}
		})
	}
}

func TestRetryable(t *testing.T) {
	if Retryable(ErrAccessDenied) {
		t.Errorf("access denied must not be retried")
	}
	if !Retryable(ErrThrottled) {
		t.Errorf("throttling should be retried")
	}
}
