package e2e

import (
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	// Two gateways linked to the same relay node, e.g. ws://localhost:8080/ws
	GatewayAAddr string `envconfig:"GATEWAY_A_ADDR"`
	GatewayBAddr string `envconfig:"GATEWAY_B_ADDR"`
	// E2E_DEBUG_FRAMES allows dumping every frame sent and received
	DebugFrames bool `envconfig:"E2E_DEBUG_FRAMES" default:"false"`
	// E2E_COLOURS enables colorized output for better log readability
	Colours bool `envconfig:"E2E_COLOURS" default:"true"`
}

func LoadConfig() (Config, error) {
	var cfg Config
	err := envconfig.Process("", &cfg)
	return cfg, err
}
