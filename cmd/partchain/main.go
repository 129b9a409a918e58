package main

import (
	"context"

	"github.com/alecthomas/kong"
	"github.com/wolfeidau/partchain/cmd/partchain/internal/commands"
)

var (
	version = "dev"
	cli     struct {
		Chaincode commands.ChaincodeCmd `cmd:"" help:"Run the PartChain chaincode"`
		Invoke    commands.InvokeCmd    `cmd:"" help:"Invoke one operation against a development ledger"`
		Run       commands.RunCmd       `cmd:"" help:"Run a scenario file against a development ledger"`
		Migrate   commands.MigrateCmd   `cmd:"" help:"Migrate the PostgreSQL ledger schema"`
		Keygen    commands.KeygenCmd    `cmd:"" help:"Generate investigation keys"`
		Hash      commands.HashCmd      `cmd:"" help:"Print the ledger keys of a serial number"`
		Debug     bool                  `help:"Enable debug mode."`
		Version   kong.VersionFlag
	}
)

func main() {
	ctx := context.Background()
	cmd := kong.Parse(&cli,
		kong.Vars{
			"version": version,
		},
		kong.BindTo(ctx, (*context.Context)(nil)))
	err := cmd.Run(&commands.Globals{Debug: cli.Debug, Version: version})
	cmd.FatalIfErrorf(err)
}
