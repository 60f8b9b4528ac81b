package observability

import (
	"context"
	"testing"

	"github.com/riskibarqy/predictions-league/internal/config"
	"github.com/riskibarqy/predictions-league/internal/platform/logging"
)

func TestInitUptrace_DisabledConfigurations(t *testing.T) {
	cases := []struct {
		name string
		cfg  config.Config
	}{
		{
			name: "toggle off",
			cfg: config.Config{
				UptraceEnabled: false,
				ServiceName:    "predictions-league-engine",
				ServiceVersion: "dev",
				AppEnv:         config.EnvDev,
			},
		},
		{
			name: "no dsn",
			cfg: config.Config{
				UptraceEnabled: true,
				UptraceDSN:     "   ",
				ServiceName:    "predictions-league-engine",
				ServiceVersion: "dev",
				AppEnv:         config.EnvDev,
			},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			shutdown, err := InitUptrace(tc.cfg, logging.NewNop())
			if err != nil {
				t.Fatalf("init uptrace: %v", err)
			}
			if err := shutdown(context.Background()); err != nil {
				t.Fatalf("shutdown uptrace: %v", err)
			}
		})
	}
}
