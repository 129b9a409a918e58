package commands

import (
	"context"
	"fmt"

	"github.com/wolfeidau/partchain/internal/digest"
)

// HashCmd prints the ledger keys derived from a customer serial.
type HashCmd struct {
	Serial string `arg:"" help:"customer serial number"`
	Org    string `help:"MSP ID of the owning organisation" default:""`
}

func (c *HashCmd) Run(ctx context.Context) error {
	fmt.Printf("identityHash: %s\n", digest.IdentityHash(c.Serial))
	if c.Org != "" {
		fmt.Printf("ownerKey:     %s\n", digest.OwnerKey(c.Serial, c.Org))
	}
	return nil
}
