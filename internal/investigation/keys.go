package investigation

import (
	"context"

	"github.com/asaskevich/govalidator"
	"github.com/wolfeidau/partchain/internal/aescbc"
	"github.com/wolfeidau/partchain/internal/fault"
	"github.com/wolfeidau/partchain/internal/models"
	"github.com/wolfeidau/partchain/internal/store"
)

// keyring holds the ciphers an organization can build from its private half
// of an investigation. serials is nil while secret2 is withheld.
type keyring struct {
	private *models.InvestigationPrivate
	orgs    *aescbc.Cipher
	serials *aescbc.Cipher
}

func (k *keyring) hasSerialKey() bool { return k.serials != nil }

// loadKeyring reads the private half org holds for id. It reports false when
// org holds none.
func loadKeyring(ctx context.Context, s store.PrivateStore, org, id string) (*keyring, bool, error) {
	var priv models.InvestigationPrivate
	found, err := store.GetPrivateJSON(ctx, s, store.Partition(org), id, &priv)
	if err != nil || !found {
		return nil, false, err
	}

	k, err := newKeyring(&priv)
	if err != nil {
		return nil, false, fault.Internal(err, "stored keys of investigation %s held by %s are unusable", id, org)
	}
	return k, true, nil
}

func newKeyring(priv *models.InvestigationPrivate) (*keyring, error) {
	orgs, err := aescbc.New(priv.Secret1, priv.IV)
	if err != nil {
		return nil, err
	}

	k := &keyring{private: priv, orgs: orgs}
	if priv.Secret2 != "" {
		k.serials, err = aescbc.New(priv.Secret2, priv.IV)
		if err != nil {
			return nil, err
		}
	}
	return k, nil
}

// requireKeyring is loadKeyring for callers which must be participants.
func requireKeyring(ctx context.Context, s store.PrivateStore, org, id string) (*keyring, error) {
	k, found, err := loadKeyring(ctx, s, org, id)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, fault.PermissionDenied("%s holds no keys for investigation %s", org, id)
	}
	return k, nil
}

func validSecret(s string) bool {
	return len(s) == 2*aescbc.KeySize && govalidator.IsHexadecimal(s)
}

func validIV(s string) bool {
	return len(s) == 2*aescbc.IVSize && govalidator.IsHexadecimal(s)
}

func checkLength(name, v string) error {
	if !govalidator.StringLength(v, "0", maxFieldLength) {
		return fault.Validation("%s must be at most %s characters", name, maxFieldLength)
	}
	return nil
}

func requireID(id string) error {
	if id == "" {
		return fault.Validation("request is missing investigationID")
	}
	return checkLength("investigationID", id)
}

func requireSecret1(secret1, iv string) error {
	if !validSecret(secret1) {
		return fault.Validation("secret1 must be %d hex characters", 2*aescbc.KeySize)
	}
	if !validIV(iv) {
		return fault.Validation("iv must be %d hex characters", 2*aescbc.IVSize)
	}
	return nil
}
