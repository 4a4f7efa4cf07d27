package main

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
)

// TestCommandsRegistered tests that every subcommand is registered
func TestCommandsRegistered(t *testing.T) {
	root := newRootCmd()
	for _, name := range []string{"build", "config", "completion", "version"} {
		t.Run(name, func(t *testing.T) {
			cmd, _, err := root.Find([]string{name})
			if err != nil || cmd.Name() != name {
				t.Errorf("%s subcommand should exist", name)
			}
			if cmd.Short == "" {
				t.Errorf("%s command should have a short description", name)
			}
		})
	}
}

// TestRootCommandFlags tests that all global flags are present
func TestRootCommandFlags(t *testing.T) {
	root := newRootCmd()
	for _, name := range []string{
		"config", "jobs", "timeout", "retries", "repo", "overlay", "no-overlays",
		"arch", "accept-testing", "verbose", "quiet", "no-color", "log-file",
	} {
		if root.PersistentFlags().Lookup(name) == nil {
			t.Errorf("root command should have --%s flag", name)
		}
	}
}

// fixture is a package tree, an application config and an upstream server
type fixture struct {
	dir       string
	repo      string
	appConfig string
	server    *httptest.Server
}

func newFixture(t *testing.T, status int, body string) *fixture {
	t.Helper()
	dir := t.TempDir()

	repo := filepath.Join(dir, "repo")
	pkgDir := filepath.Join(repo, "app-misc", "dev-foo")
	if err := os.MkdirAll(pkgDir, 0755); err != nil {
		t.Fatal(err)
	}
	ebuild := "EAPI=8\nKEYWORDS=\"~amd64\"\n"
	if err := os.WriteFile(filepath.Join(pkgDir, "dev-foo-2.3.1.ebuild"), []byte(ebuild), 0644); err != nil {
		t.Fatal(err)
	}

	appConfig := filepath.Join(dir, "config.yaml")
	yaml := fmt.Sprintf("portage:\n  repositories: [%s]\nextract:\n  shell: /bin/sh\n", repo)
	if err := os.WriteFile(appConfig, []byte(yaml), 0644); err != nil {
		t.Fatal(err)
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
		fmt.Fprint(w, body)
	}))
	t.Cleanup(server.Close)

	return &fixture{dir: dir, repo: repo, appConfig: appConfig, server: server}
}

// writeList writes name.ini with one section for atom
func (f *fixture) writeList(t *testing.T, name, atom, command string) string {
	t.Helper()
	content := fmt.Sprintf("[%s]\nurl = %s\ncommand = %s\n", atom, f.server.URL, command)
	path := filepath.Join(f.dir, name+".ini")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func (f *fixture) run(ctx context.Context, args ...string) (int, string, string) {
	var stdout, stderr bytes.Buffer
	args = append([]string{"--config", f.appConfig, "--no-color"}, args...)
	code := execute(ctx, args, &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func TestCheckUpToDate(t *testing.T) {
	f := newFixture(t, http.StatusOK, "2.3.1\n")
	list := f.writeList(t, "misc", "app-misc/dev-foo", "cat")

	code, stdout, stderr := f.run(context.Background(), list)
	if code != exitOK {
		t.Fatalf("exit code = %d, stderr:\n%s", code, stderr)
	}

	for _, want := range []string{
		"<title>Version bump checker: misc</title>",
		">app-misc/dev-foo</a>",
		`<td bgcolor="green">Yes</td>`,
	} {
		if !strings.Contains(stdout, want) {
			t.Errorf("report missing %q", want)
		}
	}
	if !strings.Contains(stderr, "checkbump.probe.INFO: Fetching: app-misc/dev-foo") {
		t.Errorf("stderr missing fetch log:\n%s", stderr)
	}
}

func TestCheckOutdatedConcatenated(t *testing.T) {
	f := newFixture(t, http.StatusOK, "ignored")
	content := fmt.Sprintf("[app-misc/dev-foo]\nurl = %s\ncommand = echo 2.\n    echo 4\n", f.server.URL)
	list := filepath.Join(f.dir, "misc.ini")
	if err := os.WriteFile(list, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	code, stdout, stderr := f.run(context.Background(), list)
	if code != exitOK {
		t.Fatalf("exit code = %d, stderr:\n%s", code, stderr)
	}
	if !strings.Contains(stdout, "<td>2.4</td>") || !strings.Contains(stdout, `<td bgcolor="red">No</td>`) {
		t.Errorf("expected outdated row with upstream 2.4:\n%s", stdout)
	}
}

func TestCheckFetchFailure(t *testing.T) {
	f := newFixture(t, http.StatusNotFound, "gone")
	list := f.writeList(t, "misc", "app-misc/dev-foo", "cat")

	code, stdout, stderr := f.run(context.Background(), list)
	if code != exitOK {
		t.Fatalf("a fetch failure must not be fatal, exit code = %d", code)
	}
	if !strings.Contains(stdout, `<td colspan="3">Failed!</td>`) {
		t.Errorf("report missing Failed! row:\n%s", stdout)
	}
	if !strings.Contains(stderr, "WARNING: Fetch failed") {
		t.Errorf("stderr missing warning:\n%s", stderr)
	}
}

func TestCheckFatalErrors(t *testing.T) {
	tests := []struct {
		name    string
		atom    string
		command string
		wantLog string
	}{
		{"command fails", "app-misc/dev-foo", "false", "command failed"},
		{"package not found", "app-misc/missing", "cat", "package not found"},
		{"unknown extractor", "app-misc/dev-foo", "@nope x", "invalid url/command"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, http.StatusOK, "2.3.1\n")
			list := f.writeList(t, "misc", tt.atom, tt.command)

			code, stdout, stderr := f.run(context.Background(), list)
			if code != exitError {
				t.Errorf("exit code = %d, want %d", code, exitError)
			}
			if stdout != "" {
				t.Errorf("no report expected on failure, got:\n%s", stdout)
			}
			if !strings.Contains(stderr, "ERROR") || !strings.Contains(stderr, tt.wantLog) {
				t.Errorf("stderr should log %q at ERROR:\n%s", tt.wantLog, stderr)
			}
		})
	}
}

func TestCheckMissingFieldAbortsBeforeFetch(t *testing.T) {
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		fmt.Fprint(w, "2.3.1\n")
	}))
	defer server.Close()

	tests := []struct {
		name    string
		broken  string
		wantLog string
	}{
		{"missing url", "[app-misc/zzz]\ncommand = cat\n", "missing required field: url"},
		{"missing command", "[app-misc/zzz]\nurl = " + server.URL + "\n", "missing required field: command"},
		{"blank command", "[app-misc/zzz]\nurl = " + server.URL + "\ncommand =\n", "missing required field: command"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, http.StatusOK, "")
			// The valid section sorts first, so it would be fetched first
			content := fmt.Sprintf("[app-misc/dev-foo]\nurl = %s\ncommand = cat\n\n%s", server.URL, tt.broken)
			list := filepath.Join(f.dir, "misc.ini")
			if err := os.WriteFile(list, []byte(content), 0644); err != nil {
				t.Fatal(err)
			}

			hits.Store(0)
			code, stdout, stderr := f.run(context.Background(), list)
			if code != exitError {
				t.Errorf("exit code = %d, want %d", code, exitError)
			}
			if n := hits.Load(); n != 0 {
				t.Errorf("upstream fetched %d times, want 0", n)
			}
			if stdout != "" {
				t.Errorf("no report expected, got:\n%s", stdout)
			}
			if !strings.Contains(stderr, tt.wantLog) {
				t.Errorf("stderr should mention %q:\n%s", tt.wantLog, stderr)
			}
		})
	}
}

func TestCheckArguments(t *testing.T) {
	f := newFixture(t, http.StatusOK, "")

	for _, args := range [][]string{{}, {"a.ini", "b.ini"}} {
		code, stdout, stderr := f.run(context.Background(), args...)
		if code != exitError || stdout != "" {
			t.Errorf("args %v: exit code = %d, stdout = %q", args, code, stdout)
		}
		if !strings.Contains(stderr, "ERROR") {
			t.Errorf("args %v: expected an error log, got %q", args, stderr)
		}
	}

	code, _, stderr := f.run(context.Background(), filepath.Join(f.dir, "missing.ini"))
	if code != exitError || !strings.Contains(stderr, "failed to load config") {
		t.Errorf("missing list: exit code = %d, stderr = %q", code, stderr)
	}
}

func TestCheckInterrupted(t *testing.T) {
	f := newFixture(t, http.StatusOK, "2.3.1\n")
	list := f.writeList(t, "misc", "app-misc/dev-foo", "cat")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	code, stdout, stderr := f.run(ctx, list)
	if code != exitInterrupted {
		t.Errorf("exit code = %d, want %d", code, exitInterrupted)
	}
	if stdout != "" {
		t.Errorf("no report expected after an interrupt, got:\n%s", stdout)
	}
	if !strings.Contains(stderr, "INFO: Interrupted") {
		t.Errorf("stderr should log the interrupt:\n%s", stderr)
	}
}

func TestBuild(t *testing.T) {
	f := newFixture(t, http.StatusOK, "2.3.1\n")
	first := f.writeList(t, "misc", "app-misc/dev-foo", "cat")
	second := f.writeList(t, "other", "app-misc/dev-foo", "echo 3.0")
	out := filepath.Join(f.dir, "_build")

	if err := os.MkdirAll(out, 0755); err != nil {
		t.Fatal(err)
	}
	stale := filepath.Join(out, "stale.html")
	if err := os.WriteFile(stale, []byte("old"), 0644); err != nil {
		t.Fatal(err)
	}

	code, stdout, stderr := f.run(context.Background(), "build", "--verbose", "--out", out, "--clean", first, second)
	if code != exitOK {
		t.Fatalf("exit code = %d, stderr:\n%s", code, stderr)
	}

	misc, err := os.ReadFile(filepath.Join(out, "misc.html"))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(misc), `bgcolor="green">Yes`) {
		t.Error("misc.html should report dev-foo up to date")
	}
	other, err := os.ReadFile(filepath.Join(out, "other.html"))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(other), `bgcolor="red">No`) {
		t.Error("other.html should report dev-foo outdated")
	}
	if _, err := os.Stat(stale); !os.IsNotExist(err) {
		t.Error("--clean should remove stale reports")
	}
	for _, want := range []string{
		"→ Writing 2 reports to " + out,
		"  [up-to-date] app-misc/dev-foo",
		"  [outdated] app-misc/dev-foo",
		"Built 2 reports, 1 up to date, 1 outdated, 0 failed",
	} {
		if !strings.Contains(stdout, want) {
			t.Errorf("build output missing %q:\n%s", want, stdout)
		}
	}
}

func TestBuildReportsWarningsAndFailures(t *testing.T) {
	f := newFixture(t, http.StatusOK, "2.3.1\n")
	content := fmt.Sprintf("[app-misc/dev-foo]\nurl = %s\ncommand = cat\nhomepage = x\n", f.server.URL)
	warned := filepath.Join(f.dir, "warned.ini")
	if err := os.WriteFile(warned, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	broken := f.writeList(t, "broken", "app-misc/dev-foo", "false")
	out := filepath.Join(f.dir, "out")

	code, stdout, _ := f.run(context.Background(), "build", "--out", out, warned, broken)
	if code != exitError {
		t.Errorf("exit code = %d, want %d", code, exitError)
	}
	if !strings.Contains(stdout, "⚠ "+warned+": 1 unknown keys ignored") {
		t.Errorf("missing warning line:\n%s", stdout)
	}
	if !strings.Contains(stdout, "✗ "+broken+": ") {
		t.Errorf("missing failure line:\n%s", stdout)
	}
	if _, err := os.Stat(filepath.Join(out, "warned.html")); err != nil {
		t.Errorf("the list checked before the failure should be written: %v", err)
	}
	if _, err := os.Stat(filepath.Join(out, "broken.html")); !os.IsNotExist(err) {
		t.Error("no report should be written for the failed list")
	}
}

func TestBuildDuplicateNames(t *testing.T) {
	f := newFixture(t, http.StatusOK, "2.3.1\n")
	first := f.writeList(t, "misc", "app-misc/dev-foo", "cat")
	sub := filepath.Join(f.dir, "sub")
	if err := os.MkdirAll(sub, 0755); err != nil {
		t.Fatal(err)
	}
	second := filepath.Join(sub, "misc.ini")
	data, _ := os.ReadFile(first)
	if err := os.WriteFile(second, data, 0644); err != nil {
		t.Fatal(err)
	}

	code, _, stderr := f.run(context.Background(), "build", "--out", filepath.Join(f.dir, "out"), first, second)
	if code != exitError || !strings.Contains(stderr, "misc.html") {
		t.Errorf("exit code = %d, stderr = %q", code, stderr)
	}
}

func TestConfigCommand(t *testing.T) {
	f := newFixture(t, http.StatusOK, "")

	code, stdout, stderr := f.run(context.Background(), "config", "--jobs", "3", "--arch", "amd64")
	if code != exitOK {
		t.Fatalf("exit code = %d, stderr:\n%s", code, stderr)
	}
	for _, want := range []string{f.repo, "arch: amd64", "jobs: 3"} {
		if !strings.Contains(stdout, want) {
			t.Errorf("config output missing %q:\n%s", want, stdout)
		}
	}

	code, _, stderr = f.run(context.Background(), "config", "--jobs", "0")
	if code != exitError || !strings.Contains(stderr, "jobs must be at least 1") {
		t.Errorf("invalid jobs: exit code = %d, stderr = %q", code, stderr)
	}

	code, _, stderr = f.run(context.Background(), "config", "--jobs", "5", "--write")
	if code != exitOK {
		t.Fatalf("config --write exit code = %d, stderr:\n%s", code, stderr)
	}
	data, err := os.ReadFile(f.appConfig)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "jobs: 5") {
		t.Errorf("written config should contain the override:\n%s", data)
	}
}

func TestVersionCommand(t *testing.T) {
	f := newFixture(t, http.StatusOK, "")
	code, stdout, _ := f.run(context.Background(), "version")
	if code != exitOK || !strings.HasPrefix(stdout, "checkbump version") {
		t.Errorf("version: exit code = %d, stdout = %q", code, stdout)
	}
}

func TestConfigWriteDefaultPath(t *testing.T) {
	xdg := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", xdg)

	var stdout, stderr bytes.Buffer
	code := execute(context.Background(), []string{"config", "--no-color", "--arch", "arm64", "--write"}, &stdout, &stderr)
	if code != exitOK {
		t.Fatalf("exit code = %d, stderr:\n%s", code, stderr.String())
	}

	path := filepath.Join(xdg, "checkbump", "config.yaml")
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("config not written to %s: %v", path, err)
	}
	if !strings.Contains(string(data), "arch: arm64") {
		t.Errorf("written config should contain the override:\n%s", data)
	}
	if !strings.Contains(stdout.String(), "Config written to "+path) {
		t.Errorf("unexpected output: %q", stdout.String())
	}
}
