package main

import (
	"context"

	"pfetracker/cmd/pfetracker-cli/commands"
	"pfetracker/lib/telemetry"
)

func main() {
	telemetry.InitSlog(false)
	commands.ExecuteContext(context.Background())
}
