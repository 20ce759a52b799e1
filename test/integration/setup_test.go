//go:build integration

package integration

import (
	"context"
	"os"
	"testing"

	"github.com/joho/godotenv"
	"github.com/stretchr/testify/require"

	"github.com/agenthands/lineage/internal/config"
	"github.com/agenthands/lineage/internal/core"
	"github.com/agenthands/lineage/internal/core/model"
	"github.com/agenthands/lineage/internal/logger"
)

func loadConfig(t *testing.T) *config.Config {
	t.Helper()
	_ = godotenv.Load("../../.env")
	cfg, err := config.Load("../../config/config.toml")
	if err != nil {
		t.Logf("Config not found, using default: %v", err)
		cfg = config.Default()
	}
	cfg.ApplyEnv()
	return cfg
}

func requireEnv(t *testing.T, key string) string {
	t.Helper()
	v := os.Getenv(key)
	if v == "" {
		t.Skipf("%s not set", key)
	}
	return v
}

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	lg, err := logger.New("dev")
	require.NoError(t, err)
	return lg
}

// seedFamily creates three generations and returns them root first.
func seedFamily(t *testing.T, ctx context.Context, reg *core.Registry, suffix string) []*model.Member {
	t.Helper()
	grand, err := reg.CreateMember(ctx, &model.Member{Name: "Grandfather " + suffix, Gender: model.GenderMale}, "")
	require.NoError(t, err)
	father, err := reg.AddChild(ctx, grand.ID, &model.Member{Name: "Father " + suffix, Gender: model.GenderMale, IsAlive: true})
	require.NoError(t, err)
	son, err := reg.AddChild(ctx, father.ID, &model.Member{Name: "Son " + suffix, Gender: model.GenderMale, IsAlive: true})
	require.NoError(t, err)
	return []*model.Member{grand, father, son}
}
