package types

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAddressNormalizeAndValidate(t *testing.T) {
	blank := "  "
	addr := Address{Line1: " 1 Main St ", Line2: &blank, City: "Austin", State: "TX", PostalCode: "78701"}
	addr.Normalize()

	require.Equal(t, "1 Main St", addr.Line1)
	require.Nil(t, addr.Line2)
	require.Equal(t, "US", addr.Country)
	require.NoError(t, addr.Validate())
	require.Equal(t, PublicArea{City: "Austin", State: "TX"}, addr.PublicArea())
}

func TestAddressValidateMissingFields(t *testing.T) {
	require.ErrorContains(t, Address{City: "Austin"}.Validate(), "line1")
	require.ErrorContains(t, Address{Line1: "x", City: "Austin", State: "TX"}.Validate(), "postal_code")
}
