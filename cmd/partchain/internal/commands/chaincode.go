package commands

import (
	"context"
	"fmt"

	"github.com/hyperledger/fabric-chaincode-go/shim"
	"github.com/hyperledger/fabric-contract-api-go/contractapi"
	"github.com/wolfeidau/partchain/internal/contract"
	"github.com/wolfeidau/partchain/internal/logger"
)

type ChaincodeCmd struct {
	// Chaincode-as-a-service configuration, empty to be launched by the peer
	Address string `help:"listen address when running as an external chaincode service" default:"" env:"CHAINCODE_SERVER_ADDRESS"`
	ID      string `help:"chaincode package ID assigned by the peer" default:"" env:"CHAINCODE_ID"`

	Tracing     bool    `help:"enable tracing" default:"false" env:"PARTCHAIN_TRACING"`
	SampleRatio float64 `help:"fraction of root traces sampled" default:"1" env:"PARTCHAIN_TRACE_SAMPLE_RATIO"`
}

func (c *ChaincodeCmd) Run(ctx context.Context, globals *Globals) error {
	log := logger.Setup(globals.Debug)

	log.Info().Str("version", globals.Version).Bool("debug", globals.Debug).Msg("Starting chaincode")

	stop := startTelemetry(ctx, log, c.Tracing, "partchain-chaincode", globals.Version, c.SampleRatio)
	defer stop()

	cc, err := contractapi.NewChaincode(contract.NewSmartContract(contract.NewRouter(log)))
	if err != nil {
		return fmt.Errorf("failed to create chaincode: %w", err)
	}
	cc.Info.Title = contract.ContractName
	cc.Info.Version = globals.Version

	if c.Address == "" {
		log.Info().Msg("Connecting to peer")
		return cc.Start()
	}

	if c.ID == "" {
		return fmt.Errorf("chaincode ID is required when serving on %s (--id or CHAINCODE_ID)", c.Address)
	}

	server := &shim.ChaincodeServer{
		CCID:     c.ID,
		Address:  c.Address,
		CC:       cc,
		TLSProps: shim.TLSProperties{Disabled: true},
	}

	log.Info().Str("address", c.Address).Str("ccid", c.ID).Msg("Serving chaincode")

	return server.Start()
}
