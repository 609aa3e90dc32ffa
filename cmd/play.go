package cmd

import (
	"context"
	"errors"
	"os"
	"time"

	"github.com/urfave/cli"

	cmdcommon "github.com/warpdl/ambiance/cmd/common"
	"github.com/warpdl/ambiance/common"
	"github.com/warpdl/ambiance/internal/daemon"
	"github.com/warpdl/ambiance/internal/output"
	"github.com/warpdl/ambiance/internal/scheduler"
	"github.com/warpdl/ambiance/internal/server"
	"github.com/warpdl/ambiance/pkg/ambiance"
	"github.com/warpdl/ambiance/pkg/logger"
)

var (
	playRate     int
	playSeed     uint64
	playCatchUp  bool
	sampleRate   int
	masterGain   float64
	rpcPort      int
	rpcListenAll bool
	noBars       bool
	noKeys       bool
	noSchedule   bool

	playFlags = append([]cli.Flag{
		cli.IntFlag{
			Name:        "tick-rate, t",
			Usage:       "layer updates per second",
			Value:       DEF_TICK_RATE,
			EnvVar:      common.TickRateEnv,
			Destination: &playRate,
		},
		cli.Uint64Flag{
			Name:        "seed",
			Usage:       "random seed, 0 picks one",
			Destination: &playSeed,
		},
		cli.BoolFlag{
			Name:        "catch-up",
			Usage:       "fire every overdue event on an update (default: false)",
			Destination: &playCatchUp,
		},
		cli.IntFlag{
			Name:        "sample-rate",
			Usage:       "output sample rate in Hz",
			Value:       output.DefaultSampleRate,
			Destination: &sampleRate,
		},
		cli.Float64Flag{
			Name:        "gain, g",
			Usage:       "master output gain",
			Value:       1,
			Destination: &masterGain,
		},
		cli.IntFlag{
			Name:        "rpc-port",
			Usage:       "port of the JSON-RPC control endpoint",
			Value:       DEF_RPC_PORT,
			EnvVar:      common.RPCPortEnv,
			Destination: &rpcPort,
		},
		cli.BoolFlag{
			Name:        "rpc-listen-all",
			Usage:       "serve the control endpoint on every interface (default: false)",
			Destination: &rpcListenAll,
		},
		rpcSecretFlag,
		cli.BoolFlag{
			Name:        "no-bars",
			Usage:       "do not render layer progress bars (default: false)",
			Destination: &noBars,
		},
		cli.BoolFlag{
			Name:        "no-keys",
			Usage:       "ignore key presses (default: false)",
			Destination: &noKeys,
		},
		cli.BoolFlag{
			Name:        "no-schedule",
			Usage:       "ignore the manifest schedule and play right away (default: false)",
			Destination: &noSchedule,
		},
	}, logFlags...)
)

// playOptions configures a playback session.
type playOptions struct {
	TickRate   int
	Seed       uint64
	CatchUp    bool
	SampleRate int
	MasterGain float64
	Schedule   bool
	Bars       bool
	Keys       bool
	// RPC enables the control endpoint when not nil.
	RPC *server.RPCConfig
}

func play(ctx *cli.Context) error {
	name := ctx.Args().First()
	if name == "help" {
		return cli.ShowCommandHelp(ctx, ctx.Command.Name)
	}
	if name == "" {
		return cmdcommon.PrintErrWithCmdHelp(ctx, errNoManifest)
	}
	l, err := newLogger(os.Stderr)
	if err != nil {
		return cmdcommon.PrintErrWithCmdHelp(ctx, err)
	}
	defer l.Close()

	sess, err := loadSession(validateFs, name, true)
	if err != nil {
		cmdcommon.PrintRuntimeErr(ctx, "play", "load", err)
		return nil
	}
	if missing := sess.missingClips(); len(missing) > 0 {
		l.Warning("clips not found: %v", missing)
	}

	opts := playOptions{
		TickRate:   playRate,
		Seed:       playSeed,
		CatchUp:    playCatchUp,
		SampleRate: sampleRate,
		MasterGain: masterGain,
		Schedule:   !noSchedule,
		Bars:       !noBars,
		Keys:       !noKeys,
	}
	if rpcSecret != "" {
		opts.RPC = &server.RPCConfig{
			Secret:    rpcSecret,
			ListenAll: rpcListenAll,
			Port:      rpcPort,
			Version:   buildInfo.Version,
			Commit:    buildInfo.Commit,
			BuildType: buildInfo.BuildType,
		}
	} else {
		l.Debug("no %s set, control endpoint disabled", common.RPCSecretEnv)
	}

	if err := runPlayer(context.Background(), sess, opts, l); err != nil {
		cmdcommon.PrintRuntimeErr(ctx, "play", "run", err)
	}
	return nil
}

// runPlayer plays sess on the default audio device until parent is done,
// a signal is received or the quit key is pressed.
func runPlayer(parent context.Context, sess *session, opts playOptions, l logger.Logger) error {
	mixer := output.NewMixer(opts.SampleRate, sess.lib, l)
	for bus, gain := range sess.manifest.Buses {
		mixer.SetBusGain(bus, gain)
	}
	mixer.SetMasterGain(opts.MasterGain)

	hostOpts := []ambiance.HostOption{
		ambiance.WithLogger(l),
		ambiance.WithHostCatchUp(opts.CatchUp),
	}
	if opts.Seed != 0 {
		hostOpts = append(hostOpts, ambiance.WithHostSeed(opts.Seed))
	}
	host, err := ambiance.NewHost(sess.amb, mixer.Factory(), hostOpts...)
	if err != nil {
		return err
	}
	defer host.Close()

	engine, err := output.NewEngine(mixer)
	if err != nil {
		return err
	}
	defer engine.Close()
	engine.Start()

	ctx, cancel := shutdownContext(parent)
	defer cancel()

	entries := sess.manifest.Schedule
	if !opts.Schedule {
		entries = nil
	}
	if err := startSchedule(ctx, host, entries, time.Now(), l); err != nil {
		return err
	}

	if opts.RPC != nil {
		srv := server.NewServer(opts.RPC, host, l)
		if err := srv.Listen(); err != nil {
			return err
		}
		l.Info("control endpoint listening on %s", srv.Addr())
		go func() {
			if err := srv.Start(ctx); err != nil {
				l.Error("control endpoint: %v", err)
			}
		}()
	}

	if opts.Bars {
		bars := newLayerBars(os.Stderr, host)
		go bars.run(ctx)
		defer bars.Close()
	}
	if opts.Keys {
		if restore := runTerminal(ctx, newKeyController(host), cancel); restore != nil {
			defer restore()
		}
	}

	runner := daemon.New(&daemon.Config{
		TickRate: opts.TickRate,
		MaxDelta: DEF_MAX_DELTA,
	}, host, nil)
	l.Info("playing %q with %d layers at %d updates/s", sess.amb.Name, len(sess.amb.Layers), runner.Config().TickRate)
	err = runner.Start(ctx)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// startSchedule puts the ambiance in the state its schedule implies at now
// and follows the schedule until ctx is done. Without entries the ambiance
// starts playing right away.
func startSchedule(ctx context.Context, h *ambiance.Host, entries []scheduler.Entry, now time.Time, l logger.Logger) error {
	if len(entries) == 0 {
		return h.Play()
	}
	events, err := scheduler.LoadSchedules(entries, now)
	if err != nil {
		return err
	}
	if action, ok := scheduler.Resolve(entries, now); ok {
		applyAction(h, action, l)
	} else {
		l.Info("schedule: waiting for the first entry")
	}
	s := scheduler.New(ctx, func(ev scheduler.ScheduleEvent) {
		applyAction(h, ev.Action, l)
	})
	for _, ev := range events {
		l.Debug("schedule: %s next at %s", ev.Action, ev.TriggerAt.Format(time.DateTime))
		s.Add(ev)
	}
	return nil
}

func applyAction(h *ambiance.Host, action string, l logger.Logger) {
	var err error
	switch action {
	case scheduler.ActionPlay:
		err = h.Play()
	case scheduler.ActionStop:
		err = h.Stop()
	default:
		l.Warning("schedule: unknown action %q", action)
		return
	}
	if err != nil {
		l.Error("schedule: %s: %v", action, err)
		return
	}
	l.Info("schedule: %s", action)
}
