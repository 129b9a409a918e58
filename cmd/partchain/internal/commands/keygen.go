package commands

import (
	"context"
	"encoding/json"
	"os"

	"github.com/google/uuid"
	"github.com/wolfeidau/partchain/internal/aescbc"
)

// KeygenCmd prints fresh key material for CreateInvestigation.
type KeygenCmd struct{}

type investigationKeys struct {
	InvestigationID    string `json:"investigationID"`
	Secret1            string `json:"secret1"`
	Secret2            string `json:"secret2"`
	IV                 string `json:"iv"`
	Secret1Fingerprint string `json:"secret1Fingerprint"`
	Secret2Fingerprint string `json:"secret2Fingerprint"`
}

func (c *KeygenCmd) Run(ctx context.Context) error {
	keys, err := generateKeys()
	if err != nil {
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(keys)
}

func generateKeys() (*investigationKeys, error) {
	secret1, err := aescbc.GenerateKey()
	if err != nil {
		return nil, err
	}

	// secret1 and secret2 must differ
	secret2 := secret1
	for secret2 == secret1 {
		secret2, err = aescbc.GenerateKey()
		if err != nil {
			return nil, err
		}
	}

	iv, err := aescbc.GenerateIV()
	if err != nil {
		return nil, err
	}

	return &investigationKeys{
		InvestigationID:    uuid.NewString(),
		Secret1:            secret1,
		Secret2:            secret2,
		IV:                 iv,
		Secret1Fingerprint: aescbc.Fingerprint(secret1),
		Secret2Fingerprint: aescbc.Fingerprint(secret2),
	}, nil
}
