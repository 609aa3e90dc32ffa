package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/urfave/cli"

	cmdcommon "github.com/warpdl/ambiance/cmd/common"
	"github.com/warpdl/ambiance/common"
	"github.com/warpdl/ambiance/pkg/ambiance"
)

var (
	errUnknownCtl = errors.New("unknown ctl command")
	errNoLayer    = errors.New("no layer provided")
)

var (
	rpcURL string

	ctlFlags = []cli.Flag{
		cli.StringFlag{
			Name:        "url, u",
			Usage:       "JSON-RPC endpoint of the running player",
			Value:       fmt.Sprintf("http://127.0.0.1:%d/jsonrpc", DEF_RPC_PORT),
			EnvVar:      common.RPCURLEnv,
			Destination: &rpcURL,
		},
		rpcSecretFlag,
	}
)

// ctlCaller is the part of rpcClient used by the ctl subcommands.
type ctlCaller interface {
	Call(ctx context.Context, method string, params, result any) error
}

func ctl(ctx *cli.Context) error {
	sub := ctx.Args().First()
	if sub == "" || sub == "help" {
		return cli.ShowCommandHelp(ctx, ctx.Command.Name)
	}
	client := newRPCClient(rpcURL, rpcSecret)
	defer client.Close()

	c, cancel := context.WithTimeout(context.Background(), DEF_TIMEOUT)
	defer cancel()
	if err := runCtl(c, client, os.Stdout, sub, ctx.Args().Tail()); err != nil {
		cmdcommon.PrintRuntimeErr(ctx, "ctl", sub, err)
	}
	return nil
}

func runCtl(ctx context.Context, c ctlCaller, w io.Writer, sub string, args []string) error {
	switch sub {
	case "version":
		var v common.VersionResult
		if err := c.Call(ctx, common.MethodGetVersion, nil, &v); err != nil {
			return err
		}
		fmt.Fprintf(w, "%s-%s (%s)\n", v.Version, v.Type, v.Commit)
	case "status", "play", "stop":
		method := map[string]string{
			"status": common.MethodAmbianceStatus,
			"play":   common.MethodAmbiancePlay,
			"stop":   common.MethodAmbianceStop,
		}[sub]
		var st common.StatusResult
		if err := c.Call(ctx, method, nil, &st); err != nil {
			return err
		}
		printStatus(w, &st)
	case "list":
		var res common.LayerListResult
		if err := c.Call(ctx, common.MethodLayerList, nil, &res); err != nil {
			return err
		}
		printLayers(w, res.Layers)
	case "mute", "unmute", "solo", "unsolo":
		if len(args) == 0 {
			return errNoLayer
		}
		method, value := common.MethodLayerSetMute, sub == "mute"
		if sub == "solo" || sub == "unsolo" {
			method, value = common.MethodLayerSetSolo, sub == "solo"
		}
		params := common.LayerFlagParams{LayerRef: parseLayerRef(args[0]), Value: value}
		var st ambiance.LayerStatus
		if err := c.Call(ctx, method, params, &st); err != nil {
			return err
		}
		printLayers(w, []ambiance.LayerStatus{st})
	default:
		return fmt.Errorf("%w: %q", errUnknownCtl, sub)
	}
	return nil
}

// parseLayerRef reads a 1-based layer number or a layer name.
func parseLayerRef(s string) common.LayerRef {
	if n, err := strconv.Atoi(s); err == nil && n >= 1 {
		return common.LayerRef{Index: n - 1}
	}
	return common.LayerRef{Name: s}
}

func printStatus(w io.Writer, st *common.StatusResult) {
	state := "stopped"
	if st.Playing {
		state = "playing"
	}
	fmt.Fprintf(w, "%s: %s, %d layers\n", st.Name, state, st.Layers)
}

func printLayers(w io.Writer, layers []ambiance.LayerStatus) {
	if len(layers) == 0 {
		fmt.Fprintln(w, "ambiance: no layers")
		return
	}
	txt := "------------------------------------------------------------"
	txt += "\n|Num|       Name       |  Mode  |  State  | Flags | Fired  |"
	txt += "\n|---|------------------|--------|---------|-------|--------|"
	for _, l := range layers {
		state := l.State
		if l.Muted {
			state = "muted"
		}
		flags := ""
		if l.Mute {
			flags += "M"
		}
		if l.Solo {
			flags += "S"
		}
		fired := "-"
		if l.Mode == ambiance.ModeRandom {
			fired = strconv.FormatUint(l.Fired, 10)
		}
		txt += fmt.Sprintf("\n|%s|%s|%s|%s|%s|%s|",
			fitCell(strconv.Itoa(l.Index+1), 3),
			fitCell(l.Name, 18),
			fitCell(l.Mode.String(), 8),
			fitCell(state, 9),
			fitCell(flags, 7),
			fitCell(fired, 8),
		)
	}
	txt += "\n------------------------------------------------------------"
	fmt.Fprintln(w, txt)
}
