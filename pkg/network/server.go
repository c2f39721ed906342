// Package network implements the peer-to-peer protocol: handshake,
// inventory relay and block synchronization between full nodes.
package network

import (
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/neocorelabs/neo-core/pkg/config"
	"github.com/neocorelabs/neo-core/pkg/config/netmode"
	"github.com/neocorelabs/neo-core/pkg/core/block"
	"github.com/neocorelabs/neo-core/pkg/core/blockchainer"
	"github.com/neocorelabs/neo-core/pkg/core/mempool"
	"github.com/neocorelabs/neo-core/pkg/core/transaction"
	"github.com/neocorelabs/neo-core/pkg/network/bqueue"
	"github.com/neocorelabs/neo-core/pkg/network/capability"
	"github.com/neocorelabs/neo-core/pkg/network/extpool"
	"github.com/neocorelabs/neo-core/pkg/network/payload"
	"github.com/neocorelabs/neo-core/pkg/util"
	"go.uber.org/zap"
)

// Errors returned while processing a peer's handshake.
var (
	errMagicMismatch    = errors.New("network: network magic mismatch")
	errIdenticalID      = errors.New("network: peer identifies as ourselves")
	errAlreadyConnected = errors.New("network: peer with this nonce is already connected")
)

// ServerConfig groups the settings a Server needs, distilled from the
// node's protocol and P2P configuration sections.
type ServerConfig struct {
	Magic             netmode.Magic
	UserAgent         string
	Addresses         []string
	SeedList          []string
	MinPeers          int
	MaxPeers          int
	AttemptConnPeers  int
	DialTimeout       time.Duration
	ProtoTickInterval time.Duration
	Relay             bool
}

// NewServerConfig distills a ServerConfig out of a node's protocol and
// application configuration.
func NewServerConfig(protoCfg config.ProtocolConfiguration, appCfg config.ApplicationConfiguration) ServerConfig {
	p2p := appCfg.P2P
	dialTimeout := p2p.DialTimeout
	if dialTimeout == 0 {
		dialTimeout = 5 * time.Second
	}
	tick := p2p.ProtoTickInterval
	if tick == 0 {
		tick = 2 * time.Second
	}
	minPeers := p2p.MinPeers
	if minPeers == 0 {
		minPeers = 5
	}
	maxPeers := p2p.MaxPeers
	if maxPeers == 0 {
		maxPeers = 100
	}
	attempt := p2p.AttemptConnPeers
	if attempt == 0 {
		attempt = minPeers
	}
	return ServerConfig{
		Magic:             protoCfg.Magic,
		UserAgent:         "/neocore:0.1.0/",
		Addresses:         p2p.Addresses,
		MinPeers:          minPeers,
		MaxPeers:          maxPeers,
		AttemptConnPeers:  attempt,
		DialTimeout:       dialTimeout,
		ProtoTickInterval: tick,
		Relay:             appCfg.Relay,
	}
}

// Peer is a handshaked (or handshaking) remote node a Server exchanges
// messages with.
type Peer interface {
	AddressablePeer
	Handshaked() bool
	SendVersion(*Message) error
	HandleVersion(*payload.Version) error
	SendVersionAck(*Message) error
	HandleVersionAck() error
	WriteMsg(*Message) error
	Disconnect(error)
}

// ConsensusService is the subset of the dBFT service the P2P layer needs
// in order to feed it extensible payloads gossiped under its category.
type ConsensusService interface {
	OnPayload(e *payload.Extensible)
}

// Server is a full node's P2P endpoint: it accepts and dials peer
// connections, drives their handshake, relays inventory, and feeds
// received blocks to the chain through a bqueue.Queue.
type Server struct {
	ServerConfig
	chain      blockchainer.Blockchainer
	transport  Transporter
	discovery  Discoverer
	bQueue     *bqueue.Queue
	extensible *extpool.Pool
	consensus  ConsensusService
	log        *zap.Logger

	id uint32

	lock  sync.RWMutex
	peers map[Peer]struct{}

	quit chan struct{}
}

// AddConsensusService registers the node's dBFT service so extensible
// payloads gossiped under its category are handed to it as they arrive.
func (s *Server) AddConsensusService(c ConsensusService) {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.consensus = c
}

// NewServer creates a Server for chain, wired to listen/dial according
// to cfg.
func NewServer(cfg ServerConfig, chain blockchainer.Blockchainer, log *zap.Logger) *Server {
	s := &Server{
		ServerConfig: cfg,
		chain:        chain,
		log:          log,
		id:           rand.Uint32(),
		peers:        make(map[Peer]struct{}),
		quit:         make(chan struct{}),
	}
	addr := ""
	if len(cfg.Addresses) > 0 {
		addr = cfg.Addresses[0]
	}
	s.transport = NewTCPTransport(s, addr, log)
	s.discovery = NewDefaultDiscovery(cfg.SeedList, cfg.DialTimeout, s.transport)
	s.bQueue = bqueue.New(chain, log, s.relayBlockIndex, nil)
	s.extensible = extpool.New(chain)
	return s
}

// Start spins up the accept loop, the block queue and the connection
// pool maintenance loop. It blocks until Shutdown is called.
func (s *Server) Start() {
	go s.transport.Accept()
	go s.bQueue.Run()
	s.run()
}

// Shutdown stops accepting connections and disconnects every peer.
func (s *Server) Shutdown() {
	close(s.quit)
	s.transport.Close()
	s.bQueue.Discard()
	s.lock.Lock()
	defer s.lock.Unlock()
	for p := range s.peers {
		p.Disconnect(nil)
	}
}

// PeerCount returns the number of currently tracked peers (handshaked
// or not).
func (s *Server) PeerCount() int {
	s.lock.RLock()
	defer s.lock.RUnlock()
	return len(s.peers)
}

// HandshakedPeersCount returns the number of peers that completed the
// handshake.
func (s *Server) HandshakedPeersCount() int {
	s.lock.RLock()
	defer s.lock.RUnlock()
	n := 0
	for p := range s.peers {
		if p.Handshaked() {
			n++
		}
	}
	return n
}

func (s *Server) run() {
	ticker := time.NewTicker(s.ProtoTickInterval)
	defer ticker.Stop()
	for {
		select {
		case <-s.quit:
			return
		case <-ticker.C:
			s.discovery.BackFill(s.discovery.UnconnectedPeers()...)
			if need := s.MinPeers - s.HandshakedPeersCount(); need > 0 {
				s.discovery.RequestRemote(max(need, s.discovery.GetFanOut()))
			}
		}
	}
}

// capabilities builds the capability list this node advertises in its
// Version payload.
func (s *Server) capabilities() capability.Capabilities {
	caps := capability.Capabilities{
		&capability.FullNode{StartHeight: s.chain.HeaderHeight()},
	}
	if t, ok := s.transport.(*TCPTransport); ok {
		if port, err := t.AnnouncedPort(); err == nil {
			caps = append(caps, &capability.TCPServer{Port: port})
		}
	}
	return caps
}

// handleConn drives a single peer connection from the moment its
// transport-level connection is established: it sends our Version,
// registers the peer, then dispatches every message it sends until the
// connection fails or is closed.
func (s *Server) handleConn(p Peer) {
	defer s.drop(p)

	s.lock.Lock()
	if len(s.peers) >= s.MaxPeers {
		s.lock.Unlock()
		p.Disconnect(errors.New("network: too many peers"))
		return
	}
	s.peers[p] = struct{}{}
	s.lock.Unlock()

	v := payload.NewVersion(s.Magic, s.id, s.UserAgent, s.capabilities())
	if err := p.SendVersion(NewMessage(CMDVersion, v)); err != nil {
		return
	}

	tp, ok := p.(*TCPPeer)
	if !ok {
		return
	}
	r := tp.reader()
	for {
		msg := &Message{}
		if err := msg.Decode(r); err != nil {
			return
		}
		if err := s.handleMessage(p, msg); err != nil {
			return
		}
	}
}

func (s *Server) drop(p Peer) {
	s.lock.Lock()
	delete(s.peers, p)
	s.lock.Unlock()
	s.discovery.UnregisterConnected(p, false)
	p.Disconnect(nil)
}

func (s *Server) handleMessage(p Peer, msg *Message) error {
	switch msg.Command {
	case CMDVersion:
		v, ok := msg.Payload.(*payload.Version)
		if !ok {
			return fmt.Errorf("network: malformed version payload")
		}
		return s.handleVersionCmd(p, v)
	case CMDVerack:
		if err := p.HandleVersionAck(); err != nil {
			return err
		}
		s.discovery.RegisterGood(p)
		return nil
	case CMDPing:
		pp, _ := msg.Payload.(*payload.Ping)
		if pp != nil {
			return p.WriteMsg(NewMessage(CMDPong, payload.NewPing(s.chain.HeaderHeight(), pp.Nonce)))
		}
		return nil
	case CMDPong:
		return nil
	case CMDGetAddr, CMDAddr:
		return nil
	case CMDInv:
		inv, ok := msg.Payload.(*payload.Inventory)
		if !ok {
			return fmt.Errorf("network: malformed inv payload")
		}
		return s.handleInvCmd(p, inv)
	case CMDGetData:
		inv, ok := msg.Payload.(*payload.Inventory)
		if !ok {
			return fmt.Errorf("network: malformed getdata payload")
		}
		return s.handleGetDataCmd(p, inv)
	case CMDBlock:
		b, ok := msg.Payload.(*block.Block)
		if !ok {
			return fmt.Errorf("network: malformed block payload")
		}
		return s.bQueue.PutBlock(b)
	case CMDTX:
		tx, ok := msg.Payload.(*transaction.Transaction)
		if !ok {
			return fmt.Errorf("network: malformed tx payload")
		}
		return s.chain.PoolTx(tx)
	case CMDExtensible:
		e, ok := msg.Payload.(*payload.Extensible)
		if !ok {
			return fmt.Errorf("network: malformed extensible payload")
		}
		return s.handleExtensibleCmd(e)
	case CMDGetBlockByIndex:
		return nil
	default:
		return fmt.Errorf("network: unhandled command %s", msg.Command)
	}
}

func (s *Server) handleVersionCmd(p Peer, v *payload.Version) error {
	if v.Magic != s.Magic {
		return errMagicMismatch
	}
	if v.Nonce == s.id {
		return errIdenticalID
	}
	s.lock.RLock()
	for peer := range s.peers {
		if peer == p {
			continue
		}
		if pv := peer.Version(); pv != nil && pv.Nonce == v.Nonce {
			s.lock.RUnlock()
			return errAlreadyConnected
		}
	}
	s.lock.RUnlock()

	if err := p.HandleVersion(v); err != nil {
		return err
	}
	return p.SendVersionAck(NewMessage(CMDVerack, &payload.Verack{}))
}

func (s *Server) handleInvCmd(p Peer, inv *payload.Inventory) error {
	var unknown []util.Uint256
	for _, h := range inv.Hashes {
		switch inv.Type {
		case payload.TXType:
			if !s.chain.HasTransaction(h) {
				unknown = append(unknown, h)
			}
		case payload.BlockType:
			if !s.chain.HasBlock(h) {
				unknown = append(unknown, h)
			}
		case payload.ExtensibleType:
			if s.extensible.Get(h) == nil {
				unknown = append(unknown, h)
			}
		}
	}
	if len(unknown) == 0 {
		return nil
	}
	return p.WriteMsg(NewMessage(CMDGetData, payload.NewInventory(inv.Type, unknown)))
}

func (s *Server) handleGetDataCmd(p Peer, inv *payload.Inventory) error {
	for _, h := range inv.Hashes {
		switch inv.Type {
		case payload.TXType:
			tx, _, err := s.chain.GetTransaction(h)
			if err != nil {
				continue
			}
			if err := p.WriteMsg(NewMessage(CMDTX, tx)); err != nil {
				return err
			}
		case payload.BlockType:
			b, err := s.chain.GetBlock(h)
			if err != nil {
				continue
			}
			if err := p.WriteMsg(NewMessage(CMDBlock, b)); err != nil {
				return err
			}
		case payload.ExtensibleType:
			if e := s.extensible.Get(h); e != nil {
				if err := p.WriteMsg(NewMessage(CMDExtensible, e)); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

func (s *Server) handleExtensibleCmd(e *payload.Extensible) error {
	ok, err := s.extensible.Add(e)
	if err != nil {
		return err
	}
	if !ok {
		return nil
	}
	s.broadcastInv(payload.ExtensibleType, []util.Uint256{e.Hash()})
	s.lock.RLock()
	consensus := s.consensus
	s.lock.RUnlock()
	if consensus != nil && e.Category == payload.ConsensusCategory {
		consensus.OnPayload(e)
	}
	return nil
}

// relayBlockIndex is given to the block queue as the hand-off callback:
// once a block is durably applied to the chain, announce it to peers.
func (s *Server) relayBlockIndex(index uint32) {
	h := s.chain.GetHeaderHash(int(index))
	if h.Equals(util.Uint256{}) {
		return
	}
	s.broadcastInv(payload.BlockType, []util.Uint256{h})
}

func (s *Server) broadcastInv(typ payload.InventoryType, hashes []util.Uint256) {
	if len(hashes) == 0 {
		return
	}
	msg := NewMessage(CMDInv, payload.NewInventory(typ, hashes))
	s.lock.RLock()
	defer s.lock.RUnlock()
	for p := range s.peers {
		if p.Handshaked() {
			_ = p.WriteMsg(msg)
		}
	}
}

// RelayExtensible adds e to the extensible pool and, once accepted,
// announces it to peers. It's the outbound half of the consensus gossip
// path: the dBFT service calls this to broadcast its own messages.
func (s *Server) RelayExtensible(e *payload.Extensible) error {
	ok, err := s.extensible.Add(e)
	if err != nil {
		return err
	}
	if ok {
		s.broadcastInv(payload.ExtensibleType, []util.Uint256{e.Hash()})
	}
	return nil
}

// RelayTxn pools t and, once accepted, announces it to peers.
func (s *Server) RelayTxn(t *transaction.Transaction) error {
	err := s.chain.PoolTx(t, s.chain.GetMemPool())
	if err != nil && !errors.Is(err, mempool.ErrDup) {
		return err
	}
	s.broadcastInv(payload.TXType, []util.Uint256{t.Hash()})
	return nil
}
