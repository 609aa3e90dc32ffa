package cmd

import (
	"fmt"
	"runtime"

	"github.com/urfave/cli"

	"github.com/warpdl/ambiance/cmd/common"
)

type BuildArgs struct {
	Version   string
	BuildType string
	Date      string
	Commit    string
}

var buildInfo BuildArgs

func Execute(args []string, bArgs BuildArgs) error {
	buildInfo = bArgs
	app := cli.App{
		Name:                  "ambiance",
		HelpName:              "ambiance",
		Usage:                 "A randomized layered soundscape player.",
		Version:               fmt.Sprintf("%s-%s", bArgs.Version, bArgs.BuildType),
		UsageText:             "ambiance <command> [arguments...]",
		Description:           DESCRIPTION,
		CustomAppHelpTemplate: HELP_TEMPL,
		OnUsageError:          common.UsageErrorCallback,
		Commands: []cli.Command{
			{
				Name:                   "play",
				Aliases:                []string{"p"},
				Usage:                  "play an ambiance manifest",
				ArgsUsage:              "<manifest>",
				UsageText:              "[flags] <manifest>",
				Description:            PlayDescription,
				OnUsageError:           common.UsageErrorCallback,
				CustomHelpTemplate:     CMD_HELP_TEMPL,
				Action:                 play,
				Flags:                  playFlags,
				UseShortOptionHandling: true,
			},
			{
				Name:               "plan",
				Usage:              "print the triggers of an ambiance without playing it",
				UsageText:          "[flags] <manifest>",
				Description:        PlanDescription,
				OnUsageError:       common.UsageErrorCallback,
				CustomHelpTemplate: CMD_HELP_TEMPL,
				Action:             plan,
				Flags:              planFlags,
			},
			{
				Name:               "validate",
				Aliases:            []string{"check"},
				Usage:              "check a manifest and its clips",
				UsageText:          "<manifest>",
				Description:        ValidateDescription,
				OnUsageError:       common.UsageErrorCallback,
				CustomHelpTemplate: CMD_HELP_TEMPL,
				Action:             validate,
			},
			{
				Name:               "ctl",
				Usage:              "control a running player",
				UsageText:          "[flags] status|play|stop|list|version|mute|unmute|solo|unsolo [layer]",
				Description:        CtlDescription,
				OnUsageError:       common.UsageErrorCallback,
				CustomHelpTemplate: CMD_HELP_TEMPL,
				Action:             ctl,
				Flags:              ctlFlags,
			},
			{
				Name:    "help",
				Aliases: []string{"h"},
				Usage:   "prints the help message",
				Action:  common.Help,
			},
			{
				Name:               "version",
				Aliases:            []string{"v"},
				Usage:              "prints installed version of ambiance",
				UsageText:          " ",
				CustomHelpTemplate: CMD_HELP_TEMPL,
				Action:             common.GetVersion,
			},
		},
		Action:      common.Help,
		HideHelp:    true,
		HideVersion: true,
	}
	common.VersionCmdStr = fmt.Sprintf("%s %s (%s_%s)\nBuild: %s=%s\n",
		app.Name,
		app.Version,
		runtime.GOOS,
		runtime.GOARCH,
		bArgs.Date, bArgs.Commit,
	)
	return app.Run(args)
}
