package payload

import (
	"errors"
	"net"
	"strconv"
	"time"

	"github.com/neocorelabs/neo-core/pkg/io"
	"github.com/neocorelabs/neo-core/pkg/network/capability"
)

// MaxAddrsCount is the maximum number of addresses a single AddressList
// payload may carry.
const MaxAddrsCount = 200

// AddressAndTime is a peer's address, the capabilities it was last seen
// advertising, and when it was last seen.
type AddressAndTime struct {
	Timestamp    uint32
	IP           [16]byte
	Capabilities capability.Capabilities
}

// NewAddressAndTime creates an AddressAndTime from a resolved TCP address
// and timestamp, advertising a TCPServer capability for its port.
func NewAddressAndTime(e *net.TCPAddr, ts time.Time) *AddressAndTime {
	aat := &AddressAndTime{
		Timestamp: uint32(ts.UTC().Unix()),
		Capabilities: capability.Capabilities{
			&capability.TCPServer{Port: uint16(e.Port)},
		},
	}
	copy(aat.IP[:], e.IP.To16())
	return aat
}

// Address returns the peer's address in "ip:port" form, as derived from
// its TCPServer/WSServer capability, if any.
func (p *AddressAndTime) Address() string {
	var port uint16
	for _, c := range p.Capabilities {
		switch v := c.(type) {
		case *capability.TCPServer:
			port = v.Port
		case *capability.WSServer:
			if port == 0 {
				port = v.Port
			}
		}
	}
	ip := net.IP(p.IP[:])
	return net.JoinHostPort(ip.String(), strconv.Itoa(int(port)))
}

// EncodeBinary implements the io.Serializable interface.
func (p *AddressAndTime) EncodeBinary(w *io.BinWriter) {
	w.WriteU32LE(p.Timestamp)
	w.WriteBytes(p.IP[:])
	p.Capabilities.EncodeBinary(w)
}

// DecodeBinary implements the io.Serializable interface.
func (p *AddressAndTime) DecodeBinary(r *io.BinReader) {
	p.Timestamp = r.ReadU32LE()
	r.ReadBytes(p.IP[:])
	if r.Err != nil {
		return
	}
	p.Capabilities.DecodeBinary(r)
}

// AddressList is a batch of known peer addresses, exchanged in response
// to GetAddr.
type AddressList struct {
	Addrs []*AddressAndTime
}

// NewAddressList creates an AddressList with capacity n.
func NewAddressList(n int) *AddressList {
	return &AddressList{Addrs: make([]*AddressAndTime, 0, n)}
}

// EncodeBinary implements the io.Serializable interface.
func (p *AddressList) EncodeBinary(w *io.BinWriter) {
	w.WriteArray(p.Addrs)
}

// DecodeBinary implements the io.Serializable interface.
func (p *AddressList) DecodeBinary(r *io.BinReader) {
	r.ReadArray(&p.Addrs, MaxAddrsCount)
	if r.Err != nil {
		return
	}
	if len(p.Addrs) == 0 {
		r.Err = errors.New("payload: empty address list")
	}
}
