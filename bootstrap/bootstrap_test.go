package bootstrap

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/wyfcoding/quant/curve"
)

func TestInitializeDefaults(t *testing.T) {
	t.Chdir(t.TempDir())
	b := New("quant-test", "1.2.3")
	if err := b.Initialize(Options{}); err != nil {
		t.Fatal(err)
	}
	defer b.Close()

	if b.Config.Engine.ChunkSize != 1024 || b.Config.Version != "1.2.3" {
		t.Errorf("unexpected config %+v", b.Config)
	}
	if m, err := b.Interpolation(); err != nil || m != curve.LogLinear {
		t.Errorf("interpolation = %v, %v", m, err)
	}
	if b.Engine().Pool() == nil || b.Pool("sim").Size() < 1 {
		t.Errorf("engine and pool should be ready")
	}
	if b.Slog() == nil || b.Metrics == nil {
		t.Errorf("logger and metrics should be initialized")
	}
}

func TestInitializeFromFiles(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.toml")
	cfg := "version = \"v9\"\n[engine]\nchunk_size = 256\n[engine.curve]\ninterpolation = \"monotone_cubic\"\n"
	if err := os.WriteFile(cfgPath, []byte(cfg), 0o600); err != nil {
		t.Fatal(err)
	}
	envPath := filepath.Join(dir, "test.env")
	if err := os.WriteFile(envPath, []byte("APP_ENGINE_SEED=7\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { os.Unsetenv("APP_ENGINE_SEED") })

	b := New("quant-test", "dev")
	if err := b.Initialize(Options{ConfigPath: cfgPath, EnvFile: envPath, LogLevel: "debug"}); err != nil {
		t.Fatal(err)
	}
	defer b.Close()

	if b.Config.Engine.ChunkSize != 256 || b.Config.Engine.Seed != 7 || b.Config.Version != "v9" {
		t.Errorf("file and env overrides not applied: %+v", b.Config.Engine)
	}
	if b.Config.Log.Level != "debug" {
		t.Errorf("log level override not applied: %s", b.Config.Log.Level)
	}
	if m, _ := b.Interpolation(); m != curve.MonotoneCubic {
		t.Errorf("interpolation = %v", m)
	}
}

func TestMissingExplicitEnvFile(t *testing.T) {
	b := New("quant-test", "dev")
	if err := b.Initialize(Options{EnvFile: filepath.Join(t.TempDir(), "missing.env")}); err == nil {
		t.Errorf("expected error for missing env file")
	}
}
