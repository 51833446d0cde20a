package config

import "time"

// Config is read from the environment; a .env file in the working directory
// is loaded first when present.
type Config struct {
	RPC       RPCConfig
	Account   AccountConfig
	Chain     ChainConfig
	Log       LogConfig
	Simulator SimulatorConfig
}

func Load() Config {
	ensureEnvLoaded()
	return Config{
		RPC:       loadRPC(),
		Account:   loadAccount(),
		Chain:     loadChain(),
		Log:       loadLog(),
		Simulator: loadSimulator(),
	}
}

type LogConfig struct {
	Level string
	Env   string
}

func loadLog() LogConfig {
	return LogConfig{
		Level: getenv("LOG_LEVEL", "info"),
		Env:   getenv("APP_ENV", "development"),
	}
}

type SimulatorConfig struct {
	HTTPAddr string
	// DBDriver is "sqlite" or "postgres".
	DBDriver      string
	DBDSN         string
	ChainID       uint64
	PermissionTTL time.Duration
	// UpstreamURL receives JSON-RPC methods the simulator does not implement.
	// Empty disables forwarding.
	UpstreamURL string
	// AuthToken and JWTSecret enable bearer authentication on /rpc.
	AuthToken string
	JWTSecret string
}

func loadSimulator() SimulatorConfig {
	return SimulatorConfig{
		HTTPAddr:      getenv("SIM_HTTP_ADDR", ":8545"),
		DBDriver:      getenv("SIM_DB_DRIVER", "sqlite"),
		DBDSN:         getenv("SIM_DB_DSN", "./data/walletsim.db"),
		ChainID:       u64env("SIM_CHAIN_ID", 31337),
		PermissionTTL: durationEnvSeconds("SIM_PERMISSION_TTL", 24*time.Hour),
		UpstreamURL:   getenv("SIM_UPSTREAM_URL", ""),
		AuthToken:     getenv("SIM_AUTH_TOKEN", ""),
		JWTSecret:     getenv("SIM_JWT_SECRET", ""),
	}
}
