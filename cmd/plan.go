package cmd

import (
	"errors"
	"fmt"
	"io"
	"math"
	"math/rand/v2"
	"os"

	"github.com/urfave/cli"

	cmdcommon "github.com/warpdl/ambiance/cmd/common"
	"github.com/warpdl/ambiance/common"
	"github.com/warpdl/ambiance/pkg/ambiance"
)

var errNothingToPlan = errors.New("ambiance has no random layer")

var (
	planSeed    uint64
	planPeriods int
	planRate    int
	planCatchUp bool

	planFlags = append([]cli.Flag{
		cli.Uint64Flag{
			Name:        "seed",
			Usage:       "random seed, 0 picks one",
			Destination: &planSeed,
		},
		cli.IntFlag{
			Name:        "periods, n",
			Usage:       "number of periods of the longest layer to simulate",
			Value:       DEF_PERIODS,
			Destination: &planPeriods,
		},
		cli.IntFlag{
			Name:        "tick-rate, t",
			Usage:       "simulated updates per second",
			Value:       DEF_TICK_RATE,
			EnvVar:      common.TickRateEnv,
			Destination: &planRate,
		},
		cli.BoolFlag{
			Name:        "catch-up",
			Usage:       "fire every overdue event on an update (default: false)",
			Destination: &planCatchUp,
		},
	}, logFlags...)
)

// planOptions configures a dry run.
type planOptions struct {
	Seed     uint64
	Periods  int
	TickRate int
	CatchUp  bool
}

func plan(ctx *cli.Context) error {
	name := ctx.Args().First()
	if name == "help" {
		return cli.ShowCommandHelp(ctx, ctx.Command.Name)
	}
	if name == "" {
		return cmdcommon.PrintErrWithCmdHelp(ctx, errNoManifest)
	}
	sess, err := loadSession(validateFs, name, false)
	if err != nil {
		cmdcommon.PrintRuntimeErr(ctx, "plan", "load", err)
		return nil
	}
	err = runPlan(os.Stdout, sess.amb, planOptions{
		Seed:     planSeed,
		Periods:  planPeriods,
		TickRate: planRate,
		CatchUp:  planCatchUp,
	})
	if err != nil {
		cmdcommon.PrintRuntimeErr(ctx, "plan", "run", err)
	}
	return nil
}

// runPlan plays amb on recording backends with a simulated clock and prints
// every trigger to w.
func runPlan(w io.Writer, amb *ambiance.Ambiance, opts planOptions) error {
	if opts.Seed == 0 {
		opts.Seed = rand.Uint64()
	}
	if opts.TickRate <= 0 {
		opts.TickRate = DEF_TICK_RATE
	}
	if opts.Periods <= 0 {
		opts.Periods = DEF_PERIODS
	}

	var longest float64
	width := 4
	for _, l := range amb.Layers {
		width = max(width, len(l.Name))
		if l.Mode == ambiance.ModeRandom {
			longest = max(longest, l.Period)
		}
	}
	if longest == 0 {
		return errNothingToPlan
	}

	host, err := ambiance.NewHost(amb, ambiance.RecorderFactory(nil),
		ambiance.WithHostSeed(opts.Seed),
		ambiance.WithHostCatchUp(opts.CatchUp),
	)
	if err != nil {
		return err
	}
	defer host.Close()

	var clock float64
	host.OnTrigger(func(tr ambiance.Trigger) {
		fmt.Fprintf(w, "%9.3fs  %-*s  %-16s vol %.2f  pitch %.2f  pan %+.2f\n",
			clock, width, tr.Name, tr.Sound, tr.Volume, tr.Pitch, tr.Pan)
	})

	span := float64(opts.Periods) * longest
	fmt.Fprintf(w, "Plan of %q over %.1fs, seed %d, %d updates/s\n\n", amb.Name, span, opts.Seed, opts.TickRate)
	for _, l := range amb.Layers {
		if l.Mode == ambiance.ModeLoop {
			fmt.Fprintf(w, "%9.3fs  %-*s  %-16s loop\n", 0.0, width, l.Name, l.Sounds[0].ID)
		}
	}

	if err := host.Play(); err != nil {
		return err
	}
	dt := 1 / float64(opts.TickRate)
	steps := int(math.Ceil(span * float64(opts.TickRate)))
	for step := range steps {
		clock = float64(step+1) * dt
		host.Update(dt)
	}

	fmt.Fprintln(w, "\nTriggers per layer:")
	for _, st := range host.Status() {
		if st.Mode == ambiance.ModeRandom {
			fmt.Fprintf(w, "  %-*s  %d\n", width, st.Name, st.Fired)
		}
	}
	return nil
}
