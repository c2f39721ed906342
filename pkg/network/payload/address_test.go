package payload

import (
	"net"
	"testing"
	"time"

	"github.com/neocorelabs/neo-core/internal/testserdes"
	"github.com/stretchr/testify/require"
)

func TestAddressAndTimeEncodeDecode(t *testing.T) {
	e, err := net.ResolveTCPAddr("tcp", "127.0.0.1:2000")
	require.NoError(t, err)

	addr := NewAddressAndTime(e, time.Now())
	require.Equal(t, "127.0.0.1:2000", addr.Address())

	testserdes.EncodeDecodeBinary(t, addr, new(AddressAndTime))
}

func TestAddressListEncodeDecode(t *testing.T) {
	const n = 4
	list := NewAddressList(n)
	for i := 0; i < n; i++ {
		e, err := net.ResolveTCPAddr("tcp", "127.0.0.1:2000")
		require.NoError(t, err)
		list.Addrs = append(list.Addrs, NewAddressAndTime(e, time.Now()))
	}

	testserdes.EncodeDecodeBinary(t, list, new(AddressList))
}

func TestAddressListEmpty(t *testing.T) {
	list := NewAddressList(0)
	data, err := testserdes.EncodeBinary(list)
	require.NoError(t, err)
	require.Error(t, testserdes.DecodeBinary(data, new(AddressList)))
}
