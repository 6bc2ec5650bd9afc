package flags

import (
	"os"

	cli "gopkg.in/urfave/cli.v1"
)

// NewApp builds the base CLI application for the pool daemon.
func NewApp() *cli.App {
	app := cli.NewApp()
	app.Name = "opera-pool"
	app.Usage = "Pooled-custody stake ledger daemon"
	app.Version = "0.1.0"
	app.Writer = os.Stdout
	return app
}
