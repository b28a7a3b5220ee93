package core

import (
	"fmt"
	"math/big"
	"strings"

	ethcrypto "github.com/ethereum/go-ethereum/crypto"

	"nftmarket/config"
	"nftmarket/core/events"
	"nftmarket/native/assets"
	"nftmarket/native/auction"
	"nftmarket/native/collections"
	"nftmarket/native/common"
	"nftmarket/native/exchange"
	"nftmarket/native/market"
	"nftmarket/native/offers"
	"nftmarket/native/settlement"
	"nftmarket/state"
	"nftmarket/storage"
)

// Node wires the sale engines, the settlement ledger and the policy store
// over one persistent state manager. Engine identities are derived
// deterministically so ledger authorizations survive restarts.
type Node struct {
	owner [20]byte

	db       storage.Database
	state    *state.Manager
	ledger   *settlement.Ledger
	policy   *collections.Manager
	assets   *assets.Ledger
	switches *common.Switchboard

	market  *market.Engine
	auction *auction.Engine
	offers  *offers.Engine
}

func engineAddress(name string) [20]byte {
	var addr [20]byte
	copy(addr[:], ethcrypto.Keccak256([]byte("nftmarket/engine/" + name))[12:])
	return addr
}

// NewNode builds a node from configuration and restores every persisted
// record into the in-memory registries.
func NewNode(db storage.Database, cfg *config.Config, emitter events.Emitter) (*Node, error) {
	if db == nil {
		return nil, fmt.Errorf("core: database is required")
	}
	if cfg == nil {
		return nil, fmt.Errorf("core: config is required")
	}
	owner, err := cfg.OwnerAddress()
	if err != nil {
		return nil, err
	}
	vault, err := cfg.VaultAddress()
	if err != nil {
		return nil, err
	}

	manager := state.NewManager(db)
	ledger, err := settlement.NewLedger(owner, vault, cfg.AccountingCurrency)
	if err != nil {
		return nil, err
	}
	ledger.SetState(manager)
	ledger.SetEmitter(emitter)

	rates := make(map[string]exchange.Rate, len(cfg.ExchangeRates))
	for _, r := range cfg.ExchangeRates {
		num, ok := new(big.Int).SetString(strings.TrimSpace(r.Num), 10)
		if !ok {
			return nil, fmt.Errorf("core: malformed rate numerator %q for %s", r.Num, r.Pair)
		}
		den, ok := new(big.Int).SetString(strings.TrimSpace(r.Den), 10)
		if !ok {
			return nil, fmt.Errorf("core: malformed rate denominator %q for %s", r.Den, r.Pair)
		}
		rates[strings.ToUpper(strings.TrimSpace(r.Pair))] = exchange.Rate{Num: num, Den: den}
	}
	ledger.SetExchange(exchange.NewFixedRate(manager, rates))

	node := &Node{
		owner:    owner,
		db:       db,
		state:    manager,
		ledger:   ledger,
		policy:   collections.NewManager(owner),
		assets:   assets.NewLedger(),
		switches: common.NewSwitchboard(owner),
	}

	node.market = market.NewEngine(engineAddress("market"))
	node.auction = auction.NewEngine(engineAddress("auction"), cfg.AuctionMaxDays)
	node.offers = offers.NewEngine(engineAddress("offers"))

	for _, engine := range []interface {
		SetAssets(assets.Registry)
		SetPolicy(collections.View)
		SetPauses(common.PauseView)
	}{node.market, node.auction, node.offers} {
		engine.SetAssets(node.assets)
		engine.SetPolicy(node.policy)
		engine.SetPauses(node.switches)
	}
	node.market.SetState(manager)
	node.market.SetLedger(ledger)
	node.market.SetEmitter(emitter)
	node.auction.SetState(manager)
	node.auction.SetLedger(ledger)
	node.auction.SetEmitter(emitter)
	node.offers.SetState(manager)
	node.offers.SetLedger(ledger)
	node.offers.SetEmitter(emitter)

	for _, engine := range [][20]byte{node.market.Self(), node.auction.Self(), node.offers.Self()} {
		if err := ledger.AddAuthorizedCaller(owner, engine); err != nil {
			return nil, err
		}
	}
	// Admin mutations of the ledger settings are persisted; once a record
	// exists it is authoritative over the config defaults.
	storedTreasury, storedCurrencies, restored, err := manager.LedgerSettings()
	if err != nil {
		return nil, err
	}
	currencies := cfg.ApprovedCurrencies
	if restored {
		currencies = storedCurrencies
	}
	for _, currency := range currencies {
		if err := ledger.AddApprovedCurrency(owner, currency); err != nil {
			return nil, err
		}
	}
	if restored {
		if storedTreasury != ([20]byte{}) {
			if err := ledger.SetTreasury(owner, storedTreasury); err != nil {
				return nil, err
			}
		}
	} else if treasury, ok, err := cfg.TreasuryAddress(); err != nil {
		return nil, err
	} else if ok {
		if err := ledger.SetTreasury(owner, treasury); err != nil {
			return nil, err
		}
	}

	if err := node.restore(); err != nil {
		return nil, err
	}
	return node, nil
}

func (n *Node) restore() error {
	if err := n.state.Policies(func(p collections.Policy) error {
		return n.policy.Restore(p)
	}); err != nil {
		return fmt.Errorf("core: restore policies: %w", err)
	}
	if err := n.state.MarketItems(func(item *market.Item) error {
		return n.market.Restore(item)
	}); err != nil {
		return fmt.Errorf("core: restore market items: %w", err)
	}
	if err := n.state.AuctionItems(func(item *auction.Item) error {
		return n.auction.Restore(item)
	}); err != nil {
		return fmt.Errorf("core: restore auctions: %w", err)
	}
	if err := n.state.Offers(func(offer *offers.Offer) error {
		return n.offers.Restore(offer)
	}); err != nil {
		return fmt.Errorf("core: restore offers: %w", err)
	}
	return nil
}

// Owner returns the marketplace owner address.
func (n *Node) Owner() [20]byte { return n.owner }

// Market returns the fixed-price engine.
func (n *Node) Market() *market.Engine { return n.market }

// Auction returns the timed-bidding engine.
func (n *Node) Auction() *auction.Engine { return n.auction }

// Offers returns the standing-offer engine.
func (n *Node) Offers() *offers.Engine { return n.offers }

// Ledger returns the settlement ledger.
func (n *Node) Ledger() *settlement.Ledger { return n.ledger }

// Assets returns the asset custody ledger.
func (n *Node) Assets() *assets.Ledger { return n.assets }

// Policy returns the collection policy store.
func (n *Node) Policy() *collections.Manager { return n.policy }

// Switchboard returns the module pause switches.
func (n *Node) Switchboard() *common.Switchboard { return n.switches }

// State returns the persistence layer.
func (n *Node) State() *state.Manager { return n.state }

// SetWhitelisted flips a collection's whitelist bit and persists the policy.
func (n *Node) SetWhitelisted(caller, collection [20]byte, whitelisted bool) error {
	if err := n.policy.SetWhitelisted(caller, collection, whitelisted); err != nil {
		return err
	}
	return n.persistPolicy(collection)
}

// SetFeeBps updates a collection's fee rate and persists the policy.
func (n *Node) SetFeeBps(caller, collection [20]byte, feeBps uint32) error {
	if err := n.policy.SetFeeBps(caller, collection, feeBps); err != nil {
		return err
	}
	return n.persistPolicy(collection)
}

// SetFloorPrice updates a collection's floor price and persists the policy.
func (n *Node) SetFloorPrice(caller, collection [20]byte, floor *big.Int) error {
	if err := n.policy.SetFloorPrice(caller, collection, floor); err != nil {
		return err
	}
	return n.persistPolicy(collection)
}

// AddApprovedCurrency whitelists a payment currency and persists the set.
func (n *Node) AddApprovedCurrency(caller [20]byte, currency string) error {
	if err := n.ledger.AddApprovedCurrency(caller, currency); err != nil {
		return err
	}
	return n.persistLedgerSettings()
}

// RemoveApprovedCurrency delists a payment currency and persists the set.
func (n *Node) RemoveApprovedCurrency(caller [20]byte, currency string) error {
	if err := n.ledger.RemoveApprovedCurrency(caller, currency); err != nil {
		return err
	}
	return n.persistLedgerSettings()
}

// SetTreasury updates the fee recipient and persists it.
func (n *Node) SetTreasury(caller, treasury [20]byte) error {
	if err := n.ledger.SetTreasury(caller, treasury); err != nil {
		return err
	}
	return n.persistLedgerSettings()
}

func (n *Node) persistLedgerSettings() error {
	return n.state.LedgerSettingsPut(n.ledger.Treasury(), n.ledger.ApprovedCurrencies())
}

func (n *Node) persistPolicy(collection [20]byte) error {
	for _, p := range n.policy.Snapshot() {
		if p.Collection == collection {
			return n.state.PolicyPut(p)
		}
	}
	return nil
}

// Close releases the underlying database.
func (n *Node) Close() {
	if n != nil && n.db != nil {
		n.db.Close()
	}
}
