package asset

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wolfeidau/partchain/internal/digest"
	"github.com/wolfeidau/partchain/internal/fault"
	"github.com/wolfeidau/partchain/internal/models"
	"github.com/wolfeidau/partchain/internal/registry"
	"github.com/wolfeidau/partchain/internal/relationship"
	"github.com/wolfeidau/partchain/internal/store"
	"github.com/wolfeidau/partchain/internal/store/memory"
)

type harness struct {
	t      *testing.T
	ledger *memory.Ledger
	clock  time.Time
	lastTx string
}

func newHarness(t *testing.T, orgs ...string) *harness {
	h := &harness{t: t, ledger: memory.NewLedger(), clock: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)}
	for _, org := range orgs {
		require.NoError(t, h.as(org, func(ctx context.Context, l store.Ledger, tx store.Tx) error {
			_, err := registry.Enroll(ctx, l, org)
			return err
		}))
	}
	return h
}

func (h *harness) as(caller string, fn func(ctx context.Context, l store.Ledger, tx store.Tx) error) error {
	h.clock = h.clock.Add(time.Second)
	h.lastTx = "tx-" + h.clock.Format("150405")
	tx := store.Tx{ID: h.lastTx, Caller: caller, Timestamp: h.clock}
	return h.ledger.Transact(context.Background(), tx, func(ctx context.Context, l store.Ledger) error {
		return fn(ctx, l, tx)
	})
}

// activate opens an ACTIVE relationship between a and b.
func (h *harness) activate(a, b string) {
	require.NoError(h.t, h.as(a, func(ctx context.Context, l store.Ledger, tx store.Tx) error {
		_, err := relationship.Create(ctx, l, tx, relationship.CreateInput{TargetOrg: b})
		return err
	}))
	require.NoError(h.t, h.as(b, func(ctx context.Context, l store.Ledger, tx store.Tx) error {
		_, err := relationship.Update(ctx, l, tx, relationship.UpdateInput{TargetOrg: a, Status: models.RelationshipActive})
		return err
	}))
}

func (h *harness) create(caller string, f models.AssetFields) (*models.Asset, error) {
	var a *models.Asset
	err := h.as(caller, func(ctx context.Context, l store.Ledger, tx store.Tx) error {
		var err error
		a, err = Create(ctx, l, tx, f)
		return err
	})
	return a, err
}

func (h *harness) private(org, key string) []byte {
	var b []byte
	require.NoError(h.t, h.as(org, func(ctx context.Context, l store.Ledger, tx store.Tx) error {
		var err error
		b, err = l.GetPrivate(ctx, store.Partition(org), key)
		return err
	}))
	return b
}

func part(serial string) models.AssetFields {
	return models.AssetFields{
		Manufacturer:           "Lion",
		PartNameManufacturer:   "Brake caliper",
		PartNumberManufacturer: "BC-7",
		SerialNumberCustomer:   serial,
		QualityStatus:          "OK",
		Status:                 "PRODUCED",
		ProductionDateGmt:      "2024-02-28T10:00:00Z",
		QualityDocuments:       []models.QualityDocument{{DocumentHash: "abc", DocumentURI: "https://docs.example/abc"}},
		CustomFields:           map[string]any{"batch": "B-12"},
	}
}

func TestValidateFields(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(f *models.AssetFields)
		wantErr bool
	}{
		{name: "valid", mutate: func(f *models.AssetFields) {}},
		{name: "missing serial", mutate: func(f *models.AssetFields) { f.SerialNumberCustomer = "" }, wantErr: true},
		{name: "serial at limit", mutate: func(f *models.AssetFields) { f.SerialNumberCustomer = strings.Repeat("s", 500) }},
		{name: "serial too long", mutate: func(f *models.AssetFields) { f.SerialNumberCustomer = strings.Repeat("s", 501) }, wantErr: true},
		{name: "manufacturer serial too long", mutate: func(f *models.AssetFields) { f.SerialNumberManufacturer = strings.Repeat("m", 501) }, wantErr: true},
		{name: "field at limit", mutate: func(f *models.AssetFields) { f.Manufacturer = strings.Repeat("x", 100) }},
		{name: "field too long", mutate: func(f *models.AssetFields) { f.QualityStatus = strings.Repeat("x", 101) }, wantErr: true},
		{name: "plant too long", mutate: func(f *models.AssetFields) { f.ManufacturerPlant = strings.Repeat("x", 101) }, wantErr: true},
		{name: "self component", mutate: func(f *models.AssetFields) { f.ComponentsSerialNumbers = []string{"C-1", f.SerialNumberCustomer} }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := part("SN-100")
			tt.mutate(&f)

			err := ValidateFields(f)
			if tt.wantErr {
				require.ErrorIs(t, err, fault.ErrValidation)
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestCreate(t *testing.T) {
	h := newHarness(t, "Lion")

	a, err := h.create("Lion", part("SN-100"))
	require.NoError(t, err)

	assert.Equal(t, models.DocTypeAsset, a.DocType)
	assert.Equal(t, "Lion", a.OwnerOrgID)
	assert.Equal(t, digest.OwnerKey("SN-100", "Lion"), a.OwnerKey)
	assert.Equal(t, digest.IdentityHash("SN-100"), a.SerialNumberCustomerHash)

	stored := h.private("Lion", a.OwnerKey)
	require.NotEmpty(t, stored)

	var env models.AssetEnvelope
	require.NoError(t, h.as("Antelope", func(ctx context.Context, l store.Ledger, tx store.Tx) error {
		e, err := GetPublic(ctx, l, "SN-100")
		if err != nil {
			return err
		}
		env = *e
		return nil
	}))

	assert.Equal(t, models.ActionCreate, env.Action)
	assert.Equal(t, "2024-03-01 12:00:02", env.Timestamp)
	assert.Equal(t, digest.FullHash(stored), env.FullHash)
	assert.Equal(t, a.SharedHash, env.SharedHash)
	assert.Equal(t, a.SerialNumberCustomerHash, env.IdentityHash)
	assert.Equal(t, "Lion", env.OrgID)
	assert.Equal(t, "tx-120002", env.TxID)

	t.Run("duplicate is a conflict", func(t *testing.T) {
		_, err := h.create("Lion", part("SN-100"))
		require.ErrorIs(t, err, fault.ErrConflict)
	})

	t.Run("invalid fields are rejected before any write", func(t *testing.T) {
		f := part("SN-200")
		f.ComponentsSerialNumbers = []string{"SN-200"}
		_, err := h.create("Lion", f)
		require.ErrorIs(t, err, fault.ErrValidation)
		require.Empty(t, h.private("Lion", digest.OwnerKey("SN-200", "Lion")))
	})
}

func TestUpdate(t *testing.T) {
	h := newHarness(t, "Lion")

	update := func(f models.AssetFields) (*models.Asset, error) {
		var a *models.Asset
		err := h.as("Lion", func(ctx context.Context, l store.Ledger, tx store.Tx) error {
			var err error
			a, err = Update(ctx, l, tx, f)
			return err
		})
		return a, err
	}

	_, err := update(part("SN-100"))
	require.ErrorIs(t, err, fault.ErrNotFound)

	created, err := h.create("Lion", part("SN-100"))
	require.NoError(t, err)

	f := part("SN-100")
	f.QualityStatus = "NOK"
	updated, err := update(f)
	require.NoError(t, err)
	require.NotEqual(t, created.SharedHash, updated.SharedHash)

	var history []models.AssetEnvelopeVersion
	require.NoError(t, h.as("Lion", func(ctx context.Context, l store.Ledger, tx store.Tx) error {
		history, err = History(ctx, l, "SN-100")
		return err
	}))

	require.Len(t, history, 2)
	require.Equal(t, models.ActionCreate, history[0].Value.Action)
	require.Equal(t, models.ActionUpdate, history[1].Value.Action)
	require.Equal(t, updated.SharedHash, history[1].Value.SharedHash)
	require.Equal(t, history[1].Value.Timestamp, history[1].Timestamp)
}

func TestHistoryNotFound(t *testing.T) {
	h := newHarness(t, "Lion")
	err := h.as("Lion", func(ctx context.Context, l store.Ledger, tx store.Tx) error {
		_, err := History(ctx, l, "SN-404")
		return err
	})
	require.ErrorIs(t, err, fault.ErrNotFound)
}

func TestRequest(t *testing.T) {
	request := func(h *harness, caller string, in RequestInput) (*models.AssetEvent, error) {
		var ev *models.AssetEvent
		err := h.as(caller, func(ctx context.Context, l store.Ledger, tx store.Tx) error {
			var err error
			ev, err = Request(ctx, l, tx, in)
			return err
		})
		return ev, err
	}

	in := RequestInput{
		AssetFields:        part("SN-100"),
		SupplierOrg:        "Lion",
		ChildSerialNumbers: []models.ChildSerial{{SerialNumberCustomer: "SN-100", Flagged: true}},
	}
	key := digest.OwnerKey("SN-100", "Lion")

	t.Run("without relationship", func(t *testing.T) {
		h := newHarness(t, "Lion", "Antelope")

		_, err := request(h, "Antelope", in)
		require.ErrorIs(t, err, fault.ErrPermissionDenied)
		require.Empty(t, h.private("Lion", key))
		require.Empty(t, h.ledger.Events())
	})

	t.Run("with active relationship", func(t *testing.T) {
		h := newHarness(t, "Lion", "Antelope")
		h.activate("Lion", "Antelope")

		ev, err := request(h, "Antelope", in)
		require.NoError(t, err)
		require.Equal(t, &models.AssetEvent{Key: key, OrgID: "Lion"}, ev)

		var shadow models.Asset
		require.NoError(t, json.Unmarshal(h.private("Lion", key), &shadow))
		require.Equal(t, "Antelope", shadow.OwnerOrgID)
		require.Equal(t, key, shadow.OwnerKey)
		require.Equal(t, in.ChildSerialNumbers, shadow.ChildSerialNumbers)

		events := h.ledger.Events()
		require.Len(t, events, 1)
		require.Equal(t, models.EventRequest, events[0].Name)
		require.JSONEq(t, `{"key":"`+key+`","orgId":"Lion"}`, string(events[0].Payload))
	})

	t.Run("same organisation emits only", func(t *testing.T) {
		h := newHarness(t, "Lion")

		ev, err := request(h, "Lion", in)
		require.NoError(t, err)
		require.Equal(t, "Lion", ev.OrgID)
		require.Empty(t, h.private("Lion", key))
		require.Len(t, h.ledger.Events(), 1)
	})

	t.Run("missing supplier", func(t *testing.T) {
		h := newHarness(t, "Lion")
		_, err := request(h, "Lion", RequestInput{AssetFields: part("SN-100")})
		require.ErrorIs(t, err, fault.ErrValidation)
	})
}

func TestExchange(t *testing.T) {
	exchange := func(h *harness, caller string, in ExchangeInput) error {
		return h.as(caller, func(ctx context.Context, l store.Ledger, tx store.Tx) error {
			_, err := Exchange(ctx, l, tx, in)
			return err
		})
	}

	in := ExchangeInput{SerialNumberCustomer: "SN-100", RequesterOrg: "Antelope"}
	key := digest.OwnerKey("SN-100", "Antelope")

	t.Run("unknown asset", func(t *testing.T) {
		h := newHarness(t, "Lion", "Antelope")
		h.activate("Lion", "Antelope")
		require.ErrorIs(t, exchange(h, "Lion", in), fault.ErrNotFound)
	})

	t.Run("inactive relationship", func(t *testing.T) {
		h := newHarness(t, "Lion", "Antelope")
		_, err := h.create("Lion", part("SN-100"))
		require.NoError(t, err)

		require.ErrorIs(t, exchange(h, "Lion", in), fault.ErrPermissionDenied)
		require.Empty(t, h.private("Antelope", key))
	})

	t.Run("active relationship", func(t *testing.T) {
		h := newHarness(t, "Lion", "Antelope")
		h.activate("Lion", "Antelope")
		owned, err := h.create("Lion", part("SN-100"))
		require.NoError(t, err)

		require.NoError(t, exchange(h, "Lion", in))
		exchangeTx := h.lastTx

		var received models.Asset
		require.NoError(t, json.Unmarshal(h.private("Antelope", key), &received))
		require.Equal(t, owned.AssetFields, received.AssetFields)
		require.Equal(t, owned.SharedHash, received.SharedHash)
		require.Equal(t, "Lion", received.OwnerOrgID)
		require.Equal(t, key, received.OwnerKey)

		// the requester reads it by the key carried in the event
		events, err := h.ledger.TxEvents(context.Background(), exchangeTx)
		require.NoError(t, err)
		require.Len(t, events, 1)
		require.Equal(t, models.EventExchange, events[0].Name)

		var ev models.AssetEvent
		require.NoError(t, json.Unmarshal(events[0].Payload, &ev))
		require.NoError(t, h.as("Antelope", func(ctx context.Context, l store.Ledger, tx store.Tx) error {
			got, err := GetByKey(ctx, l, tx, ev.Key)
			require.NoError(t, err)
			require.Equal(t, "SN-100", got.SerialNumberCustomer)
			return nil
		}))
	})

	t.Run("same organisation emits only", func(t *testing.T) {
		h := newHarness(t, "Lion")
		require.NoError(t, exchange(h, "Lion", ExchangeInput{SerialNumberCustomer: "SN-100", RequesterOrg: "Lion"}))
		require.Len(t, h.ledger.Events(), 1)
	})
}

func TestIsCurrentAndValidate(t *testing.T) {
	h := newHarness(t, "Lion", "Antelope")
	_, err := h.create("Lion", part("SN-100"))
	require.NoError(t, err)

	check := func(caller string, f models.AssetFields) (current, valid bool) {
		require.NoError(t, h.as(caller, func(ctx context.Context, l store.Ledger, tx store.Tx) error {
			var err error
			valid, err = Validate(ctx, l, f)
			require.NoError(t, err)
			if caller != "Lion" {
				return nil
			}
			current, err = IsCurrent(ctx, l, tx, f)
			return err
		}))
		return current, valid
	}

	current, valid := check("Lion", part("SN-100"))
	assert.True(t, current)
	assert.True(t, valid)

	changed := part("SN-100")
	changed.Status = "SHIPPED"
	current, valid = check("Lion", changed)
	assert.False(t, current)
	assert.False(t, valid)

	// any organisation can validate against the public envelope
	_, valid = check("Antelope", part("SN-100"))
	assert.True(t, valid)

	err = h.as("Antelope", func(ctx context.Context, l store.Ledger, tx store.Tx) error {
		_, err := IsCurrent(ctx, l, tx, part("SN-100"))
		return err
	})
	require.ErrorIs(t, err, fault.ErrNotFound)
}

func TestList(t *testing.T) {
	h := newHarness(t, "Lion")

	for _, serial := range []string{"SN-1", "SN-2", "SN-3"} {
		f := part(serial)
		if serial == "SN-2" {
			f.QualityStatus = "NOK"
		}
		_, err := h.create("Lion", f)
		require.NoError(t, err)
	}

	list := func(in ListInput) ([]*models.Asset, error) {
		var out []*models.Asset
		err := h.as("Lion", func(ctx context.Context, l store.Ledger, tx store.Tx) error {
			var err error
			out, err = List(ctx, l, tx, in)
			return err
		})
		return out, err
	}

	all, err := list(ListInput{})
	require.NoError(t, err)
	require.Len(t, all, 3)

	nok, err := list(ListInput{Selector: map[string]any{"qualityStatus": "NOK"}})
	require.NoError(t, err)
	require.Len(t, nok, 1)
	require.Equal(t, "SN-2", nok[0].SerialNumberCustomer)

	_, err = list(ListInput{Selector: map[string]any{"qualityStatus": map[string]any{"$ne": "OK"}}})
	require.ErrorIs(t, err, fault.ErrValidation)
}
