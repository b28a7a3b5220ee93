package state

import "encoding/binary"

// Key space layout. Every record lives under a short string prefix so one
// prefix walk rebuilds a whole module at boot.
var (
	prefixAccount = []byte("acct/")
	prefixRevenue = []byte("rev/")
	prefixMarket  = []byte("market/")
	prefixAuction = []byte("auction/")
	prefixOffer   = []byte("offer/")
	prefixPolicy  = []byte("policy/")

	keyLedgerSettings = []byte("ledger/settings")
)

func addrKey(prefix []byte, addr [20]byte) []byte {
	key := make([]byte, 0, len(prefix)+len(addr))
	key = append(key, prefix...)
	key = append(key, addr[:]...)
	return key
}

func assetKey(prefix []byte, collection [20]byte, assetID uint64) []byte {
	key := make([]byte, 0, len(prefix)+len(collection)+8)
	key = append(key, prefix...)
	key = append(key, collection[:]...)
	key = binary.BigEndian.AppendUint64(key, assetID)
	return key
}

func offerKey(collection [20]byte, assetID uint64, offeror [20]byte) []byte {
	key := assetKey(prefixOffer, collection, assetID)
	return append(key, offeror[:]...)
}
