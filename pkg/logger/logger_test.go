package logger

import (
	"testing"
)

func TestInitStdBackend(t *testing.T) {
	Init(Config{Env: EnvDev, Service: "realtime-service", Backend: BackendStd})
	if L() == nil {
		t.Fatal("L() returned nil after Init")
	}
}

func TestInitZapBackend(t *testing.T) {
	Init(Config{Env: EnvProd, Service: "realtime-service", Backend: BackendZap})
	if L() == nil {
		t.Fatal("L() returned nil after Init")
	}
	L().Info("zap backend smoke", "k", "v")
}

func TestDetectEnvDefault(t *testing.T) {
	t.Setenv("APP_ENV", "")
	if got := DetectEnv(); got != EnvDev {
		t.Fatalf("DetectEnv() = %q, want %q", got, EnvDev)
	}
	t.Setenv("APP_ENV", "production")
	if got := DetectEnv(); got != EnvProd {
		t.Fatalf("DetectEnv() = %q, want %q", got, EnvProd)
	}
}
