package main

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fatih/color"

	"github.com/kalambet/appsettings/internal/secure"
)

type cliEnv struct {
	dir        string
	configPath string
}

func newCLIEnv(t *testing.T) *cliEnv {
	t.Helper()
	if _, err := secure.CurrentIdentity(); err != nil {
		t.Skipf("no current user: %v", err)
	}
	for _, k := range []string{
		"APPSETTINGS_STORE_BACKEND", "APPSETTINGS_STORE_DATA_DIR",
		"APPSETTINGS_CRYPTO_KEY_SOURCE", "APPSETTINGS_CRYPTO_KEY_FILE",
		"APPSETTINGS_LOG_LEVEL",
	} {
		t.Setenv(k, "")
	}

	dir := t.TempDir()
	env := &cliEnv{dir: dir, configPath: filepath.Join(dir, "config.toml")}
	content := `[store]
backend = "yaml"
data_dir = "` + filepath.ToSlash(filepath.Join(dir, "data")) + `"

[crypto]
key_source = "file"
key_file = "` + filepath.ToSlash(filepath.Join(dir, "master.key")) + `"

[log]
level = "error"
`
	if err := os.WriteFile(env.configPath, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return env
}

func execute(t *testing.T, env *cliEnv, args ...string) (string, error) {
	t.Helper()
	resetCommandState()

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(io.Discard)
	rootCmd.SetArgs(append([]string{"--config", env.configPath, "--no-color"}, args...))
	defer func() {
		rootCmd.SetArgs(nil)
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
	}()

	err := run()
	return out.String(), err
}

func mustExecute(t *testing.T, env *cliEnv, args ...string) string {
	t.Helper()
	out, err := execute(t, env, args...)
	if err != nil {
		t.Fatalf("%v: %v", args, err)
	}
	return out
}

func TestSetGet_String(t *testing.T) {
	env := newCLIEnv(t)

	mustExecute(t, env, "set", "Ui.Language", "de-DE")
	out := mustExecute(t, env, "get", "Ui.Language")
	if strings.TrimSpace(out) != "de-DE" {
		t.Errorf("get = %q, want de-DE", out)
	}
}

func TestSetGet_TypedValues(t *testing.T) {
	env := newCLIEnv(t)

	mustExecute(t, env, "set", "Ui.IsDarkMode", "true", "--type", "bool")
	mustExecute(t, env, "set", "Window.Width", "1440", "--type", "float")

	if out := mustExecute(t, env, "get", "Ui.IsDarkMode", "--type", "bool"); strings.TrimSpace(out) != "true" {
		t.Errorf("bool get = %q", out)
	}
	if out := mustExecute(t, env, "get", "Window.Width", "--type", "float"); strings.TrimSpace(out) != "1440" {
		t.Errorf("float get = %q", out)
	}
}

func TestSet_RejectsUnparseableValue(t *testing.T) {
	env := newCLIEnv(t)
	if _, err := execute(t, env, "set", "Window.Width", "wide", "--type", "float"); err == nil {
		t.Fatal("expected error for unparseable float")
	}
	if _, err := execute(t, env, "set", "k", "v", "--type", "blob"); err == nil {
		t.Fatal("expected error for unknown type")
	}
}

func TestGet_DefaultAndExplain(t *testing.T) {
	env := newCLIEnv(t)

	out := mustExecute(t, env, "get", "Window.Height", "--type", "float", "--default", "800", "--explain")
	if !strings.HasPrefix(out, "800\n") {
		t.Errorf("output = %q, want default 800 first", out)
	}
	if !strings.Contains(out, "source: absent") {
		t.Errorf("output = %q, want source: absent", out)
	}
}

func TestGet_FallbackOnKindMismatch(t *testing.T) {
	env := newCLIEnv(t)

	mustExecute(t, env, "set", "Window.Width", "wide")
	out := mustExecute(t, env, "get", "Window.Width", "--type", "float", "--default", "1200", "--explain")
	if !strings.HasPrefix(out, "1200\n") {
		t.Errorf("output = %q, want fallback 1200", out)
	}
	if !strings.Contains(out, "source: fallback") || !strings.Contains(out, "error:") {
		t.Errorf("output = %q, want fallback source and error", out)
	}
}

func TestGet_InvalidKey(t *testing.T) {
	env := newCLIEnv(t)
	if _, err := execute(t, env, "get", "   "); err == nil {
		t.Fatal("expected error for blank key")
	}
}

func TestEncryptedRoundTrip(t *testing.T) {
	env := newCLIEnv(t)

	mustExecute(t, env, "set", "User.Token", "s3cret", "--encrypted")

	if out := mustExecute(t, env, "get", "User.Token", "--encrypted"); strings.TrimSpace(out) != "s3cret" {
		t.Errorf("decrypted get = %q, want s3cret", out)
	}
	if out := mustExecute(t, env, "get", "User.Token"); strings.Contains(out, "s3cret") {
		t.Errorf("plain get exposed the secret: %q", out)
	}

	data, err := os.ReadFile(filepath.Join(env.dir, "data", "settings.yaml"))
	if err != nil {
		t.Fatal(err)
	}
	if bytes.Contains(data, []byte("s3cret")) {
		t.Error("secret written to disk in plaintext")
	}
}

func TestRemove(t *testing.T) {
	env := newCLIEnv(t)

	mustExecute(t, env, "set", "Ui.Language", "fr-FR")
	mustExecute(t, env, "rm", "Ui.Language")
	out := mustExecute(t, env, "get", "Ui.Language", "--explain")
	if !strings.Contains(out, "source: absent") {
		t.Errorf("output = %q, want absent after rm", out)
	}

	// Removing again is not an error.
	mustExecute(t, env, "rm", "Ui.Language")
}

func TestClear_RequiresConfirm(t *testing.T) {
	env := newCLIEnv(t)

	mustExecute(t, env, "set", "Alpha.Key", "1")
	mustExecute(t, env, "clear")
	if out := mustExecute(t, env, "list"); !strings.Contains(out, "Alpha.Key") {
		t.Errorf("clear without --confirm removed data: %q", out)
	}

	mustExecute(t, env, "clear", "--confirm")
	if out := mustExecute(t, env, "list"); !strings.Contains(out, "No settings stored.") {
		t.Errorf("list after clear = %q", out)
	}
}

func TestList_MasksEncryptedProperties(t *testing.T) {
	env := newCLIEnv(t)

	mustExecute(t, env, "profile", "set", "Email", "a@b.com")
	mustExecute(t, env, "set", "Ui.Language", "en-GB")

	out := mustExecute(t, env, "list")
	if !strings.Contains(out, "User.Email") || !strings.Contains(out, maskedValue) {
		t.Errorf("list = %q, want masked User.Email", out)
	}
	if !strings.Contains(out, "Ui.Language  string  en-GB") {
		t.Errorf("list = %q, want Ui.Language row", out)
	}
}

func TestProfile_ShowSetReset(t *testing.T) {
	env := newCLIEnv(t)

	out := mustExecute(t, env, "profile", "show")
	if !strings.Contains(out, "en-US") || !strings.Contains(out, "(absent)") {
		t.Errorf("fresh profile = %q", out)
	}

	mustExecute(t, env, "profile", "set", "Username", "alice")
	mustExecute(t, env, "profile", "set", "Email", "a@b.com")

	out = mustExecute(t, env, "profile", "show")
	if !strings.Contains(out, "alice") {
		t.Errorf("profile = %q, want alice", out)
	}
	if strings.Contains(out, "a@b.com") {
		t.Errorf("profile show exposed email: %q", out)
	}
	if out := mustExecute(t, env, "profile", "show", "--reveal"); !strings.Contains(out, "a@b.com") {
		t.Errorf("profile show --reveal = %q", out)
	}

	// The facade key is visible through the generic commands.
	if out := mustExecute(t, env, "get", "User.Username"); strings.TrimSpace(out) != "alice" {
		t.Errorf("get User.Username = %q", out)
	}

	mustExecute(t, env, "set", "Plugin.Color", "red")
	mustExecute(t, env, "profile", "reset", "--confirm")
	if out := mustExecute(t, env, "profile", "show"); strings.Contains(out, "alice") {
		t.Errorf("profile after reset = %q", out)
	}
	if out := mustExecute(t, env, "get", "Plugin.Color"); strings.TrimSpace(out) != "red" {
		t.Errorf("reset removed foreign key: %q", out)
	}
}

func TestProfileSet_UnknownProperty(t *testing.T) {
	env := newCLIEnv(t)
	_, err := execute(t, env, "profile", "set", "Nickname", "x")
	if err == nil || !strings.Contains(err.Error(), "unknown property") {
		t.Fatalf("err = %v, want unknown property", err)
	}
}

func TestConfigShowAndSet(t *testing.T) {
	env := newCLIEnv(t)

	out := mustExecute(t, env, "config", "show")
	if !strings.Contains(out, "store.backend = yaml") {
		t.Errorf("config show = %q", out)
	}

	mustExecute(t, env, "config", "set", "log.level", "debug")
	out = mustExecute(t, env, "config", "show")
	if !strings.Contains(out, "log.level = debug") {
		t.Errorf("config show after set = %q", out)
	}
	if !strings.Contains(out, "store.backend = yaml") {
		t.Errorf("config set dropped other keys: %q", out)
	}

	if _, err := execute(t, env, "config", "set", "store.backend", "etcd"); err == nil {
		t.Error("expected error for invalid backend")
	}
}

func TestConfigSet_RepairsInvalidFile(t *testing.T) {
	env := newCLIEnv(t)

	data, err := os.ReadFile(env.configPath)
	if err != nil {
		t.Fatal(err)
	}
	broken := strings.Replace(string(data), `level = "error"`, `level = "loud"`, 1)
	if err := os.WriteFile(env.configPath, []byte(broken), 0o600); err != nil {
		t.Fatal(err)
	}

	if _, err := execute(t, env, "get", "Ui.Language"); err == nil {
		t.Fatal("expected get to fail on an invalid config")
	}
	if _, err := execute(t, env, "config", "show"); err == nil {
		t.Fatal("expected config show to report the invalid config")
	}

	mustExecute(t, env, "config", "set", "log.level", "error")
	mustExecute(t, env, "get", "Ui.Language")

	repaired, err := os.ReadFile(env.configPath)
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(string(repaired), "service") {
		t.Errorf("config set wrote defaults into the file:\n%s", repaired)
	}
}

func TestNoColorFlag(t *testing.T) {
	oldNoColor, oldGlobal := noColor, color.NoColor
	defer func() { noColor, color.NoColor = oldNoColor, oldGlobal }()
	color.NoColor = false

	noColor = true
	result := colorize(colorGreen, "test message")
	if strings.Contains(result, "\033[") {
		t.Errorf("colorize with noColor=true should not contain ANSI codes, got %q", result)
	}
	if result != "test message" {
		t.Errorf("result = %q, want %q", result, "test message")
	}

	noColor = false
	result = colorize(colorGreen, "test message")
	if !strings.Contains(result, "\033[") {
		t.Errorf("colorize with noColor=false should contain ANSI codes, got %q", result)
	}
}

func TestDisplay(t *testing.T) {
	if got := display("x", true, false); got != maskedValue {
		t.Errorf("secret not masked: %q", got)
	}
	if got := display("x", true, true); got != "x" {
		t.Errorf("reveal = %q", got)
	}
	if got := display("", true, false); got != "" {
		t.Errorf("empty secret = %q", got)
	}
}
