package schema

var (
	// bucket
	TxJournalBucket     = "tx-journal-bucket"      // key: txHash, val: json(PendingTransaction)
	TxJournalOpenBucket = "tx-journal-open-bucket" // key: txHash, val: "0x01"; not yet confirmed or reverted
	ChainBucket         = "wallet-chain-bucket"    // key: chainId, val: json(NetworkDescriptor)
	ConstantsBucket     = "constants-bucket"       // key: ActiveChainKey...
)

const (
	ActiveChainKey = "active-chain"
)
