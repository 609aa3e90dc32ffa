// Package common provides the names and wire types shared by the ambiance
// player, its control server and the ctl client.
package common

// Environment variable names for configuration.
const (
	// RPCPortEnv is the environment variable for the JSON-RPC control port.
	RPCPortEnv = "AMBIANCE_RPC_PORT"

	// RPCSecretEnv is the environment variable for the JSON-RPC bearer token.
	RPCSecretEnv = "AMBIANCE_RPC_SECRET"

	// RPCURLEnv is the environment variable for the endpoint used by ctl.
	RPCURLEnv = "AMBIANCE_RPC_URL"

	// LogFormatEnv is the environment variable selecting the log format.
	LogFormatEnv = "AMBIANCE_LOG_FORMAT"

	// DebugEnv is the environment variable to enable debug logging.
	DebugEnv = "AMBIANCE_DEBUG"

	// TickRateEnv is the environment variable for the update rate in Hz.
	TickRateEnv = "AMBIANCE_TICK_RATE"
)
