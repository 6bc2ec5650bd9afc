package flags

import (
	cli "gopkg.in/urfave/cli.v1"
)

// PoolFlags holds knobs specific to the pool ledger itself (network rule
// set, operator identity, fee, persistence).
func PoolFlags() []cli.Flag {
	return []cli.Flag{
		cli.StringFlag{
			Name:  "network",
			Usage: "Rule set to run with (main|test|fake)",
			Value: "fake",
		},
		cli.StringFlag{
			Name:  "pool.operator",
			Usage: "Hex address of the delegated operator",
		},
		cli.StringFlag{
			Name:  "pool.self",
			Usage: "Hex address of the pool's custody account in the vault",
		},
		cli.Uint64Flag{
			Name:  "pool.fee",
			Usage: "Initial operator fee in basis points (bounded at 2000)",
			Value: 500,
		},
		cli.StringFlag{
			Name:  "store.path",
			Usage: "Override path to the ledger DB (defaults to <datadir>/pool.db)",
		},
		cli.BoolFlag{
			Name:  "store.disable",
			Usage: "Run without persistence (state is lost on exit)",
		},
	}
}
