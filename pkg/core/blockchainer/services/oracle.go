package services

import (
	"github.com/neocorelabs/neo-core/pkg/core/state"
	"github.com/neocorelabs/neo-core/pkg/crypto/keys"
)

// Oracle is the node's oracle service, notified of the current oracle node
// set and of newly persisted on-chain requests so it can fetch the
// requested URL and submit a signed response transaction back.
type Oracle interface {
	UpdateOracleNodes(pubs keys.PublicKeys)
	AddRequests(reqs map[uint64]*state.OracleRequest)
}
