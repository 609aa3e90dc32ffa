package cmd

import (
	"fmt"
	"io"
	"os"
	"slices"
	"time"

	"github.com/spf13/afero"
	"github.com/urfave/cli"

	"github.com/warpdl/ambiance/cmd/common"
	"github.com/warpdl/ambiance/internal/scheduler"
	"github.com/warpdl/ambiance/pkg/ambiance"
)

var validateFs = afero.NewOsFs()

func validate(ctx *cli.Context) error {
	name := ctx.Args().First()
	if name == "help" {
		return cli.ShowCommandHelp(ctx, ctx.Command.Name)
	}
	if name == "" {
		return common.PrintErrWithCmdHelp(ctx, errNoManifest)
	}
	sess, err := loadSession(validateFs, name, false)
	if err != nil {
		common.PrintRuntimeErr(ctx, "validate", "load", err)
		return nil
	}
	printSession(os.Stdout, sess, time.Now())
	return nil
}

func printSession(w io.Writer, sess *session, now time.Time) {
	m := sess.manifest
	fmt.Fprintf(w, "Ambiance %q: %d layers, clips in %s\n", m.Name, len(sess.amb.Layers), m.ClipDir())

	txt := "\n---------------------------------------------------------------"
	txt += "\n|Num|       Name       |  Mode  | Sounds | Period | Count | Bus |"
	txt += "\n|---|------------------|--------|--------|--------|-------|-----|"
	for i, l := range sess.amb.Layers {
		period, count := "-", "loop"
		if l.Mode == ambiance.ModeRandom {
			period = fmt.Sprintf("%.1fs", l.Period)
			count = fmt.Sprintf("%d-%d", l.Count.Min, l.Count.Max)
		}
		bus := l.Routing
		if bus == "" {
			bus = "-"
		}
		txt += fmt.Sprintf("\n|%s|%s|%s|%s|%s|%s|%s|",
			fitCell(fmt.Sprint(i+1), 3),
			fitCell(l.Name, 18),
			fitCell(l.Mode.String(), 8),
			fitCell(fmt.Sprint(len(l.Sounds)), 8),
			fitCell(period, 8),
			fitCell(count, 7),
			fitCell(bus, 5),
		)
	}
	txt += "\n---------------------------------------------------------------"
	fmt.Fprintln(w, txt)

	if len(m.Buses) > 0 {
		buses := make([]string, 0, len(m.Buses))
		for bus := range m.Buses {
			buses = append(buses, bus)
		}
		slices.Sort(buses)
		fmt.Fprintln(w, "\nBuses:")
		for _, bus := range buses {
			fmt.Fprintf(w, "  %-12s gain %.2f\n", bus, m.Buses[bus])
		}
	}

	if len(m.Schedule) > 0 {
		fmt.Fprintln(w, "\nSchedule:")
		events, err := scheduler.LoadSchedules(m.Schedule, now)
		if err != nil {
			fmt.Fprintf(w, "  %s\n", err)
		}
		for _, ev := range events {
			fmt.Fprintf(w, "  %-5s %-16s next %s\n", ev.Action, ev.CronExpr, ev.TriggerAt.Format(time.DateTime))
		}
	}

	if sess.clipErr != nil {
		fmt.Fprintf(w, "\nwarning: %s\n", sess.clipErr)
	} else if missing := sess.missingClips(); len(missing) > 0 {
		fmt.Fprintf(w, "\nwarning: %d clips not found: %v\n", len(missing), missing)
	}
}
