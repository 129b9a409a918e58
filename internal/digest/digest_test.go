package digest

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/wolfeidau/partchain/internal/models"
)

func TestIdentityHash(t *testing.T) {
	require.Equal(t,
		"C7863EokOA0T+pJmy+ObA5nQ8OFmsERcBxC2lSEakdsec9DDYVJZk61vbeCsiMmAmM58+BdBjZkJNJEjco89Bg==",
		IdentityHash("SN-100"))
}

func TestOwnerKey(t *testing.T) {
	t.Run("known values", func(t *testing.T) {
		require.Equal(t,
			"xWWm+dD3MhFi1XSq5TOIn5nJFqNbEJsmesVAQV8gTTzFKNkVYXFDTARXcLBljqVwxrF5WcvDk6B0p7mkYn0a8Q==",
			OwnerKey("SN-100", "Lion"))
		require.Equal(t,
			"G2xdcj28Nq2YUG5vtJ166raQ14h6nq/tAjc3uOxmsowNrKEYefeNNrmJD07VYOfYPn+PE0qtfu/PKG3H12kydA==",
			OwnerKey("SN-100", "Antelope"))
	})

	t.Run("deterministic", func(t *testing.T) {
		require.Equal(t, OwnerKey("SN-7", "OEM1"), OwnerKey("SN-7", "OEM1"))
	})

	t.Run("owner scoped", func(t *testing.T) {
		serials := []string{"", "SN-100", "WBA-1234567890", "ünïcödé"}
		for _, serial := range serials {
			require.NotEqual(t, OwnerKey(serial, "Lion"), OwnerKey(serial, "Antelope"), serial)
		}
	})

	t.Run("differs from identity hash", func(t *testing.T) {
		require.NotEqual(t, IdentityHash("SN-100Lion"), OwnerKey("SN-100", "Lion"))
	})
}

func TestSharedHash(t *testing.T) {
	fields := models.AssetFields{
		Manufacturer:         "Lion",
		SerialNumberCustomer: "SN-100",
		Status:               "PRODUCED",
	}

	t.Run("known value", func(t *testing.T) {
		h, err := SharedHash(fields)
		require.NoError(t, err)
		require.Equal(t, "e90f847e982734fe8bc2d7386de3fee7", h)
	})

	t.Run("ignores components", func(t *testing.T) {
		withComponents := fields
		withComponents.ComponentsSerialNumbers = []string{"SN-101", "SN-102"}

		a, err := SharedHash(fields)
		require.NoError(t, err)
		b, err := SharedHash(withComponents)
		require.NoError(t, err)
		require.Equal(t, a, b)
	})

	t.Run("custom field order does not matter", func(t *testing.T) {
		a := fields
		a.CustomFields = map[string]any{"colour": "red", "weight": 12}
		b := fields
		b.CustomFields = map[string]any{"weight": 12, "colour": "red"}

		ha, err := SharedHash(a)
		require.NoError(t, err)
		hb, err := SharedHash(b)
		require.NoError(t, err)
		require.Equal(t, ha, hb)
	})

	t.Run("detects field change", func(t *testing.T) {
		changed := fields
		changed.QualityStatus = "NOK"

		a, err := SharedHash(fields)
		require.NoError(t, err)
		b, err := SharedHash(changed)
		require.NoError(t, err)
		require.NotEqual(t, a, b)
	})
}

func TestValidateShared(t *testing.T) {
	samples := []models.AssetFields{
		{},
		{SerialNumberCustomer: "SN-1", Manufacturer: "Lion", ManufacturerPlant: "Plant 7"},
		{
			SerialNumberCustomer: "SN-2",
			QualityDocuments:     []models.QualityDocument{{DocumentHash: "abc", DocumentURI: "https://docs/1"}},
			CustomFields:         map[string]any{"nested": map[string]any{"b": 1, "a": []any{"x", "y"}}},
		},
	}

	for _, f := range samples {
		h, err := SharedHash(f)
		require.NoError(t, err)

		ok, err := ValidateShared(h, f)
		require.NoError(t, err)
		require.True(t, ok)

		f.Status = f.Status + "-changed"
		ok, err = ValidateShared(h, f)
		require.NoError(t, err)
		require.False(t, ok)
	}
}
