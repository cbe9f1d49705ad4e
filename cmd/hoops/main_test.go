package main

import (
	"bytes"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/artpar/hoops/adapters/random"
	"github.com/artpar/hoops/domain/oauth1"
)

// run executes the root command with args and returns its output.
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	credOwner, credKey, credSecret, credWithToken = "", "", "", false
	signClient, signMethod, signHeader = oauth1.Client{}, "GET", false

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(append([]string{"--env-file", ""}, args...))
	err := rootCmd.Execute()
	return out.String(), err
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "hoops.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestVersion(t *testing.T) {
	out, err := run(t, "version")
	if err != nil {
		t.Fatalf("version: %v", err)
	}
	if !strings.HasPrefix(out, "hoops dev\n") {
		t.Errorf("version output = %q", out)
	}
}

func TestValidate(t *testing.T) {
	dir := t.TempDir()
	good := writeConfig(t, "database:\n  dsn: \""+filepath.Join(dir, "v.db")+"\"\n")

	out, err := run(t, "validate", "--config", good, "--check-database")
	if err != nil {
		t.Fatalf("validate: %v\n%s", err, out)
	}
	if !strings.Contains(out, "Configuration is valid.") || !strings.Contains(out, "Auth: disabled") {
		t.Errorf("validate output = %q", out)
	}

	bad := writeConfig(t, "logging:\n  level: loud\n")
	if _, err := run(t, "validate", "--config", bad); err == nil {
		t.Error("invalid config passed validation")
	}
	if _, err := run(t, "validate", "--config", filepath.Join(dir, "missing.yaml")); err == nil {
		t.Error("missing config passed validation")
	}
}

func TestCredentialsLifecycle(t *testing.T) {
	dir := t.TempDir()
	cfg := writeConfig(t, "database:\n  dsn: \""+filepath.Join(dir, "c.db")+"\"\n")

	out, err := run(t, "--config", cfg, "credentials", "list")
	if err != nil || !strings.Contains(out, "No credentials found.") {
		t.Fatalf("empty list = %q, %v", out, err)
	}

	out, err = run(t, "--config", cfg, "credentials", "create", "--owner", "alice", "--key", "ck", "--secret", "cs", "--with-token")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if !strings.Contains(out, "consumer key:    ck") || !strings.Contains(out, "token secret:") {
		t.Errorf("create output = %q", out)
	}

	if _, err := run(t, "--config", cfg, "credentials", "create", "--owner", "bob", "--key", "ck"); err == nil {
		t.Error("duplicate consumer key accepted")
	}

	if _, err := run(t, "--config", cfg, "credentials", "disable", "ck"); err != nil {
		t.Fatalf("disable: %v", err)
	}
	out, err = run(t, "--config", cfg, "credentials", "list")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if !strings.Contains(out, "alice") || !strings.Contains(out, "disabled") {
		t.Errorf("list output = %q", out)
	}

	if _, err := run(t, "--config", cfg, "credentials", "enable", "ck"); err != nil {
		t.Errorf("enable: %v", err)
	}
	if _, err := run(t, "--config", cfg, "credentials", "enable", "missing"); err == nil {
		t.Error("enable of an unknown key succeeded")
	}
}

func TestMigrate_EnvFile(t *testing.T) {
	dir := t.TempDir()
	dsn := filepath.Join(dir, "env.db")
	env := filepath.Join(dir, "hoops.env")
	if err := os.WriteFile(env, []byte("HOOPS_DATABASE_DSN="+dsn+"\n"), 0644); err != nil {
		t.Fatalf("write env file: %v", err)
	}
	t.Cleanup(func() { os.Unsetenv("HOOPS_DATABASE_DSN") })

	out, err := run(t, "--config", filepath.Join(dir, "none.yaml"), "--env-file", env, "migrate")
	if err != nil {
		t.Fatalf("migrate: %v", err)
	}
	if !strings.Contains(out, dsn) {
		t.Errorf("migrate output = %q, want %s", out, dsn)
	}
	if _, err := os.Stat(dsn); err != nil {
		t.Errorf("database not created: %v", err)
	}

	if _, err := run(t, "--env-file", filepath.Join(dir, "absent.env"), "version"); err == nil {
		t.Error("explicit missing env file ignored")
	}
}

func TestSign(t *testing.T) {
	at := time.Unix(1_700_000_000, 0)
	prevNow, prevRandom := signNow, signRandom
	signNow = func() time.Time { return at }
	t.Cleanup(func() {
		signNow, signRandom = prevNow, prevRandom
	})

	// Fake yields 0102... on its first draw.
	signRandom = &random.Fake{}
	nonce, _ := random.Nonce(&random.Fake{})

	target := "http://localhost:8080/notes?title=x"
	u, _ := url.Parse(target)
	want := oauth1.Client{ConsumerKey: "ck", ConsumerSecret: "cs"}.SignedURL("GET", u, nonce, at).String()

	out, err := run(t, "sign", "--key", "ck", "--secret", "cs", target)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if strings.TrimSpace(out) != want {
		t.Errorf("signed url = %q, want %q", out, want)
	}

	signRandom = &random.Fake{}
	out, err = run(t, "sign", "--key", "ck", "--secret", "cs", "-X", "delete", "--header", target)
	if err != nil {
		t.Fatalf("sign --header: %v", err)
	}
	if !strings.HasPrefix(out, "Authorization: OAuth ") || !strings.Contains(out, `oauth_nonce="`+nonce+`"`) {
		t.Errorf("header output = %q", out)
	}

	if _, err := run(t, "sign", "--key", "ck", "--secret", "cs", "/relative"); err == nil {
		t.Error("relative url accepted")
	}
}
