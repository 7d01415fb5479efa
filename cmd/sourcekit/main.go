package main

import (
	"github.com/jessevdk/go-flags"
)

const iniFilename = "sourcekit.ini"

// Config is the top-level configuration shared by every sub-command.
var Config = new(struct {
	Log     LogConfig     `group:"Logging" namespace:"log" env-namespace:"LOG"`
	Metrics MetricsConfig `group:"Metrics" namespace:"metrics" env-namespace:"METRICS"`
})

func main() {
	var parser = flags.NewParser(Config, flags.Default)

	parser.LongDescription = `sourcekit classifies the files of a paper submission and repairs the
common problems found in them: archives are unpacked, broken Postscript headers
and embedded previews are fixed, stray build products are removed and line
endings are normalized.

A workspace is a directory whose src/ sub-directory holds the submitted files.
Files removed while checking are moved to its removed/ sub-directory.

Optionally configure sourcekit with a '` + iniFilename + `' file in the current
working directory, or with '~/.config/sourcekit/` + iniFilename + `'. Storage and
repair settings are read from BEAVER_SOURCEKIT_* environment variables. Use the
'print-config' sub-command to inspect the tool's current configuration.
`

	AddPrintConfigCmd(parser, iniFilename)

	_, err := parser.AddCommand("classify", "Classify files", `
Classify prints the type tag the classifier assigns to each file, along with
its display name, sub-format, size and checksum. Directories are walked.
`, &cmdClassify{})
	Must(err, "could not add classify subcommand")

	_, err = parser.AddCommand("check", "Check and repair a workspace", `
Check loads every file under the workspace's src/ directory, runs the repair
pipeline over them and prints the resulting files, the notices raised and the
source type of the submission.
`, &cmdCheck{})
	Must(err, "could not add check subcommand")

	_, err = parser.AddCommand("watch", "Check a workspace whenever it changes", `
Watch runs the check pipeline over the workspace, then waits for a file under
src/ to change and runs it again, until interrupted.
`, &cmdWatch{})
	Must(err, "could not add watch subcommand")

	MustParseConfig(parser, iniFilename)
}
