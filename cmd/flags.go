package cmd

import (
	"io"

	"github.com/urfave/cli"

	"github.com/warpdl/ambiance/common"
	"github.com/warpdl/ambiance/pkg/logger"
)

var (
	logFormat string
	debugLog  bool

	rpcSecret string

	logFlags = []cli.Flag{
		cli.StringFlag{
			Name:        "log-format",
			Usage:       "log output: text, console or json",
			Value:       logger.FormatConsole,
			EnvVar:      common.LogFormatEnv,
			Destination: &logFormat,
		},
		cli.BoolFlag{
			Name:        "debug",
			Usage:       "enable debug logging (default: false)",
			EnvVar:      common.DebugEnv,
			Destination: &debugLog,
		},
	}

	rpcSecretFlag = cli.StringFlag{
		Name:        "rpc-secret",
		Usage:       "bearer token of the JSON-RPC control endpoint",
		EnvVar:      common.RPCSecretEnv,
		Destination: &rpcSecret,
	}
)

func newLogger(w io.Writer) (logger.Logger, error) {
	return logger.New(logFormat, w, debugLog)
}
