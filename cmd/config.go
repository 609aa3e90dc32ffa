package cmd

import "time"

const (
	DEF_TICK_RATE   = 60
	DEF_RPC_PORT    = 6807
	DEF_MAX_DELTA   = 250 * time.Millisecond
	DEF_PERIODS     = 3
	DEF_BAR_REFRESH = 100 * time.Millisecond
	DEF_TIMEOUT     = time.Second * 10
)

const DESCRIPTION = `
Ambiance plays layered background soundscapes. Every layer either
loops one clip or scatters random one-shots over a fixed period,
with random volume, pitch and pan, so the result never sounds the
same twice.
`

const (
	PlayDescription = `The play command loads an ambiance manifest, decodes its
clips and starts playing every layer on the default audio
device until interrupted.

While playing in a terminal, press 1-9 to select a layer,
m to toggle its mute, s to toggle its solo, space to
start or stop playback and q to quit.

Example:
        ambiance play forest.json

`
	PlanDescription = `The plan command runs an ambiance without any audio device
and prints every sound trigger it would issue. A fixed
seed makes the output reproducible.

Example:
        ambiance plan --seed 42 --periods 5 forest.json

`
	ValidateDescription = `The validate command checks an ambiance manifest and its
clip directory and prints the resulting layers.

Example:
        ambiance validate forest.json

`
	CtlDescription = `The ctl command controls a running "ambiance play" through
its JSON-RPC endpoint. Layers are addressed by name or by
the number shown in "ambiance ctl list".

Example:
        ambiance ctl status
        ambiance ctl mute birds
        ambiance ctl solo 2
        ambiance ctl unsolo 2

`
)

const HELP_TEMPL = `Usage: {{if .UsageText}}{{.UsageText}}{{else}}{{.HelpName}} {{if .VisibleFlags}}[global options]{{end}}{{if .Commands}} command [command options]{{end}} {{if .ArgsUsage}}{{.ArgsUsage}}{{else}}[arguments...]{{end}}{{end}}
{{.Description}}{{if .VisibleCommands}}
Commands:{{range .VisibleCategories}}{{if .Name}}

{{.Name}}:{{range .VisibleCommands}}
  {{join .Names ", "}}{{"\t"}}{{.Usage}}{{end}}{{else}}{{range .VisibleCommands}}
{{"\t"}}{{index .Names 0}}{{"\t:\t"}}{{.Usage}}{{end}}{{end}}{{end}}{{end}}{{if .VisibleFlags}}{{end}}

Use "{{.HelpName}} help <command>" for more information about any command.

`

const CMD_HELP_TEMPL = `{{if .Description}}{{.Description}}{{else}}{{.HelpName}} - {{.Usage}}

{{end}}Usage:
        {{.HelpName}} {{if .UsageText}}{{.UsageText}}{{else}}[arguments...]{{end}}{{if .VisibleFlags}}

Supported Flags:{{range .VisibleFlags}}
  {{.}}{{end}}{{end}}

`
