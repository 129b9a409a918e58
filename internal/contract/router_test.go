package contract

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wolfeidau/partchain/internal/digest"
	"github.com/wolfeidau/partchain/internal/fault"
	"github.com/wolfeidau/partchain/internal/models"
	"github.com/wolfeidau/partchain/internal/store"
	"github.com/wolfeidau/partchain/internal/store/memory"
)

type harness struct {
	t      *testing.T
	router *Router
	ledger *memory.Ledger
	clock  time.Time
}

func newHarness(t *testing.T) *harness {
	return &harness{
		t:      t,
		router: NewRouter(zerolog.Nop()),
		ledger: memory.NewLedger(),
		clock:  time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
	}
}

func (h *harness) tx(caller string, transient any) store.Tx {
	h.clock = h.clock.Add(time.Second)

	tx := store.Tx{
		ID:        "tx-" + h.clock.Format("150405"),
		Caller:    caller,
		Timestamp: h.clock,
	}
	if transient != nil {
		b, err := json.Marshal(transient)
		require.NoError(h.t, err)
		tx.Transient = map[string][]byte{TransientKey: b}
	}
	return tx
}

func (h *harness) invoke(caller, fn string, args any) (Response, []store.Event) {
	var payload []byte
	if args != nil {
		b, err := json.Marshal(args)
		require.NoError(h.t, err)
		payload = b
	}
	return h.router.Invoke(context.Background(), h.ledger, h.tx(caller, nil), fn, payload)
}

func (h *harness) invokeTransient(caller, fn string, in any) (Response, []store.Event) {
	return h.router.Invoke(context.Background(), h.ledger, h.tx(caller, in), fn, nil)
}

func (h *harness) must(resp Response, _ []store.Event) Response {
	require.Truef(h.t, resp.OK(), "unexpected failure: %s %s", resp.Kind, resp.Error)
	return resp
}

func TestFunctions(t *testing.T) {
	r := NewRouter(zerolog.Nop())

	fns := r.Functions()
	require.Len(t, fns, 28)
	assert.IsIncreasing(t, fns)

	assert.True(t, r.Transient("CreateAsset"))
	assert.True(t, r.Transient("ShareInvestigationKey"))
	assert.False(t, r.Transient("GetAssetDetail"))
	assert.False(t, r.Transient("CloseInvestigation"))
	assert.False(t, r.Transient("NoSuchFunction"))
}

func TestDispatchFailures(t *testing.T) {
	h := newHarness(t)
	h.must(h.invoke("Lion", "EnrollOrg", nil))

	tests := []struct {
		name   string
		caller string
		fn     string
		args   string
		status int
		kind   fault.Kind
	}{
		{name: "unknown function", caller: "Lion", fn: "DeleteEverything", status: http.StatusBadRequest, kind: fault.KindValidation},
		{name: "malformed args", caller: "Lion", fn: "CreateRequest", args: `{"targetOrg":`, status: http.StatusBadRequest, kind: fault.KindValidation},
		{name: "unknown field", caller: "Lion", fn: "CreateRequest", args: `{"targetOrg":"Antelope","priority":1}`, status: http.StatusBadRequest, kind: fault.KindValidation},
		{name: "missing field", caller: "Lion", fn: "CreateRequest", args: `{}`, status: http.StatusBadRequest, kind: fault.KindValidation},
		{name: "missing transient payload", caller: "Lion", fn: "CreateAsset", status: http.StatusBadRequest, kind: fault.KindValidation},
		{name: "not enrolled", caller: "Antelope", fn: "GetOrgDetails", status: http.StatusNotFound, kind: fault.KindNotFound},
		{name: "self relationship", caller: "Lion", fn: "CreateRequest", args: `{"targetOrg":"Lion"}`, status: http.StatusForbidden, kind: fault.KindPermissionDenied},
		{name: "enrolled twice", caller: "Lion", fn: "EnrollOrg", status: http.StatusConflict, kind: fault.KindConflict},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, events := h.router.Invoke(context.Background(), h.ledger, h.tx(tt.caller, nil), tt.fn, []byte(tt.args))
			assert.Equal(t, tt.status, resp.Status)
			assert.Equal(t, tt.kind, resp.Kind)
			assert.NotEmpty(t, resp.Error)
			assert.Nil(t, resp.Data)
			assert.Empty(t, events)
		})
	}
}

type brokenTransactor struct{}

func (brokenTransactor) Transact(ctx context.Context, tx store.Tx, fn func(ctx context.Context, l store.Ledger) error) error {
	return errors.New("connection reset by peer")
}

func (brokenTransactor) TxEvents(ctx context.Context, txID string) ([]store.Event, error) {
	return nil, nil
}

func TestInvokeCommitFailure(t *testing.T) {
	r := NewRouter(zerolog.Nop())

	resp, events := r.Invoke(context.Background(), brokenTransactor{}, store.Tx{ID: "tx1", Caller: "Lion"}, "EnrollOrg", nil)
	assert.Equal(t, http.StatusInternalServerError, resp.Status)
	assert.Equal(t, fault.KindInternal, resp.Kind)
	assert.Contains(t, resp.Error, "connection reset by peer")
	assert.Empty(t, events)
}

func TestInvokeDiscardsFailedWrites(t *testing.T) {
	h := newHarness(t)
	h.must(h.invoke("Lion", "EnrollOrg", nil))

	// the caller is enrolled but the target is not, so nothing may be written
	resp, _ := h.invoke("Lion", "CreateRequest", map[string]string{"targetOrg": "Antelope"})
	require.Equal(t, fault.KindNotFound, resp.Kind)

	resp = h.must(h.invoke("Lion", "GetOrgDetails", nil))
	org, ok := resp.Data.(*models.Organization)
	require.True(t, ok)
	assert.Empty(t, org.ACL)
}

func TestAssetFlow(t *testing.T) {
	h := newHarness(t)

	h.must(h.invoke("Lion", "EnrollOrg", nil))
	h.must(h.invoke("Antelope", "EnrollOrg", nil))
	h.must(h.invoke("Lion", "CreateRequest", map[string]string{"targetOrg": "Antelope", "comment": "supply"}))
	h.must(h.invoke("Antelope", "UpdateRequest", map[string]string{"targetOrg": "Lion", "status": "ACTIVE"}))

	part := models.AssetFields{
		Manufacturer:           "Lion",
		PartNameManufacturer:   "Brake caliper",
		PartNumberManufacturer: "BC-7",
		SerialNumberCustomer:   "SN-1",
		QualityStatus:          "OK",
		Status:                 "PRODUCED",
	}

	resp := h.must(h.invokeTransient("Lion", "CreateAsset", part))
	created, ok := resp.Data.(*models.Asset)
	require.True(t, ok)
	assert.Equal(t, digest.OwnerKey("SN-1", "Lion"), created.OwnerKey)

	resp = h.must(h.invokeTransient("Lion", "IsAssetCurrent", part))
	assert.Equal(t, map[string]bool{"isCurrent": true}, resp.Data)

	resp = h.must(h.invokeTransient("Antelope", "ValidateAsset", part))
	assert.Equal(t, map[string]bool{"valid": true}, resp.Data)

	tampered := part
	tampered.QualityStatus = "NOK"
	resp = h.must(h.invokeTransient("Antelope", "ValidateAsset", tampered))
	assert.Equal(t, map[string]bool{"valid": false}, resp.Data)

	t.Run("exchange emits event", func(t *testing.T) {
		resp, events := h.invokeTransient("Lion", "ExchangeAssetInfo", map[string]string{
			"serialNumberCustomer": "SN-1",
			"requesterOrg":         "Antelope",
		})
		require.True(t, resp.OK(), resp.Error)
		require.Len(t, events, 1)
		assert.Equal(t, models.EventExchange, events[0].Name)

		var ev models.AssetEvent
		require.NoError(t, json.Unmarshal(events[0].Payload, &ev))
		assert.Equal(t, digest.OwnerKey("SN-1", "Antelope"), ev.Key)
		assert.Equal(t, "Antelope", ev.OrgID)

		resp = h.must(h.invoke("Antelope", "GetAssetEventDetail", map[string]string{"key": ev.Key}))
		received, ok := resp.Data.(*models.Asset)
		require.True(t, ok)
		assert.Equal(t, "Lion", received.OwnerOrgID)
		assert.Equal(t, "BC-7", received.PartNumberManufacturer)
	})

	t.Run("public detail and history", func(t *testing.T) {
		resp := h.must(h.invoke("Antelope", "GetPublicAssetDetail", map[string]string{"serialNumberCustomer": "SN-1"}))
		env, ok := resp.Data.(*models.AssetEnvelope)
		require.True(t, ok)
		assert.Equal(t, "Lion", env.OrgID)
		assert.Equal(t, models.ActionCreate, env.Action)

		resp = h.must(h.invoke("Antelope", "GetAssetHistory", map[string]string{"serialNumberCustomer": "SN-1"}))
		versions, ok := resp.Data.([]models.AssetEnvelopeVersion)
		require.True(t, ok)
		assert.Len(t, versions, 1)
	})

	t.Run("list own assets", func(t *testing.T) {
		resp := h.must(h.invoke("Lion", "GetAssetList", map[string]any{"selector": map[string]any{"manufacturer": "Lion"}}))
		assets, ok := resp.Data.([]*models.Asset)
		require.True(t, ok)
		require.Len(t, assets, 1)
		assert.Equal(t, "SN-1", assets[0].SerialNumberCustomer)
	})
}

func TestInvestigationFlow(t *testing.T) {
	const (
		secret1 = "000102030405060708090a0b0c0d0e0f101112131415161718191a1b1c1d1e1f"
		secret2 = "1f1e1d1c1b1a191817161514131211100f0e0d0c0b0a09080706050403020100"
		iv      = "0f0e0d0c0b0a09080706050403020100"
	)

	h := newHarness(t)
	h.must(h.invoke("OEM1", "EnrollOrg", nil))
	h.must(h.invoke("Tier1", "EnrollOrg", nil))

	h.must(h.invokeTransient("OEM1", "CreateInvestigation", map[string]string{
		"investigationID": "INV-1",
		"message":         "brake noise",
		"type":            "quality",
		"secret1":         secret1,
		"secret2":         secret2,
		"iv":              iv,
	}))
	h.must(h.invokeTransient("OEM1", "AddOrganisationToInvestigation", map[string]string{
		"investigationID": "INV-1",
		"secret1":         secret1,
		"iv":              iv,
		"targetOrg":       "Tier1",
	}))

	resp, events := h.invokeTransient("Tier1", "UpdateOrgInvestigationStatus", map[string]string{
		"investigationID": "INV-1",
		"status":          "APPROVED",
	})
	require.True(t, resp.OK(), resp.Error)
	require.Len(t, events, 1)
	assert.Equal(t, models.EventRequest, events[0].Name)
	assert.JSONEq(t, `{"key":"INV-1","orgId":"OEM1"}`, string(events[0].Payload))

	// Tier1 holds only secret1 so it cannot use the data helpers yet
	resp, _ = h.invoke("Tier1", "EncryptDataForInvestigation", map[string]any{"investigationID": "INV-1", "type": "MSP", "data": []string{"Tier1"}})
	assert.Equal(t, fault.KindNotFound, resp.Kind)

	h.must(h.invokeTransient("OEM1", "ShareInvestigationKey", map[string]string{
		"investigationID": "INV-1",
		"secret1":         secret1,
		"secret2":         secret2,
		"iv":              iv,
		"targetOrg":       "Tier1",
	}))

	resp = h.must(h.invoke("Tier1", "EncryptDataForInvestigation", map[string]any{"investigationID": "INV-1", "type": "MSP", "data": []string{"Tier1"}}))
	enc, ok := resp.Data.([]string)
	require.True(t, ok)
	require.Len(t, enc, 1)

	resp = h.must(h.invoke("OEM1", "DecryptDataForInvestigation", map[string]any{"investigationID": "INV-1", "type": "MSP", "data": enc}))
	assert.Equal(t, []string{"Tier1"}, resp.Data)

	resp = h.must(h.invoke("Tier1", "GetPublicInvestigation", map[string]string{"investigationID": "INV-1"}))
	pub, ok := resp.Data.(*models.InvestigationPublic)
	require.True(t, ok)
	assert.Equal(t, "OEM1", pub.Creator)
	assert.Equal(t, models.ParticipantActive, pub.ParticipatingOrgs["Tier1"].Status)

	resp, _ = h.invoke("Tier1", "CloseInvestigation", map[string]string{"investigationID": "INV-1"})
	assert.Equal(t, fault.KindPermissionDenied, resp.Kind)

	resp = h.must(h.invoke("OEM1", "CloseInvestigation", map[string]string{"investigationID": "INV-1"}))
	closed, ok := resp.Data.(*models.InvestigationPublic)
	require.True(t, ok)
	assert.Equal(t, models.InvestigationComplete, closed.Status)
}
