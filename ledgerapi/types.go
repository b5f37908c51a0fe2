package ledgerapi

import (
	"encoding/json"
	"strconv"
	"time"
)

// rippleEpoch is 2000-01-01T00:00:00Z, the origin of ledger timestamps.
const rippleEpoch = 946684800

// ServerInfo describes the server's state. XRP amounts are decimal strings.
type ServerInfo struct {
	BuildVersion     string          `json:"buildVersion"`
	CompleteLedgers  string          `json:"completeLedgers"`
	HostID           string          `json:"hostID"`
	IOLatencyMs      int             `json:"ioLatencyMs"`
	LastClose        LastClose       `json:"lastClose"`
	LoadFactor       float64         `json:"loadFactor"`
	Peers            int             `json:"peers"`
	PubkeyNode       string          `json:"pubkeyNode"`
	ServerState      string          `json:"serverState"`
	ValidatedLedger  ValidatedLedger `json:"validatedLedger"`
	ValidationQuorum int             `json:"validationQuorum"`
}

type LastClose struct {
	ConvergeTimeS float64 `json:"convergeTimeS"`
	Proposers     int     `json:"proposers"`
}

type ValidatedLedger struct {
	Age                 int    `json:"age"`
	BaseFeeXRP          string `json:"baseFeeXRP"`
	Hash                string `json:"hash"`
	ReserveBaseXRP      string `json:"reserveBaseXRP"`
	ReserveIncrementXRP string `json:"reserveIncrementXRP"`
	LedgerVersion       uint32 `json:"ledgerVersion"`
}

// LedgerOptions selects a ledger for GetLedger. A zero LedgerVersion means the most recent
// validated ledger.
type LedgerOptions struct {
	LedgerVersion       uint32
	IncludeTransactions bool
}

// Ledger is a ledger header, optionally with the hashes of its transactions.
type Ledger struct {
	StateHash           string   `json:"stateHash"`
	CloseTime           string   `json:"closeTime"`
	CloseTimeResolution int      `json:"closeTimeResolution"`
	CloseFlags          int      `json:"closeFlags"`
	LedgerHash          string   `json:"ledgerHash"`
	LedgerVersion       uint32   `json:"ledgerVersion"`
	ParentLedgerHash    string   `json:"parentLedgerHash"`
	ParentCloseTime     string   `json:"parentCloseTime"`
	TotalDrops          string   `json:"totalDrops"`
	TransactionHash     string   `json:"transactionHash"`
	TransactionHashes   []string `json:"transactionHashes,omitempty"`
}

// AccountInfo is the state of an account in the validated ledger.
type AccountInfo struct {
	Sequence                                  uint32 `json:"sequence"`
	XRPBalance                                string `json:"xrpBalance"`
	OwnerCount                                int    `json:"ownerCount"`
	PreviousAffectingTransactionID            string `json:"previousAffectingTransactionID"`
	PreviousAffectingTransactionLedgerVersion uint32 `json:"previousAffectingTransactionLedgerVersion"`
}

// Payment describes a payment to prepare, or a payment found by GetTransaction.
type Payment struct {
	Source      PaymentSource      `json:"source"`
	Destination PaymentDestination `json:"destination"`
}

type PaymentSource struct {
	Address   string `json:"address"`
	MaxAmount Amount `json:"maxAmount"`
}

type PaymentDestination struct {
	Address string `json:"address"`
	Amount  Amount `json:"amount"`
}

// Transaction is a transaction found by GetTransaction. Specification is only filled in for
// payments.
type Transaction struct {
	Type          string   `json:"type"`
	Address       string   `json:"address"`
	Sequence      uint32   `json:"sequence"`
	ID            string   `json:"id"`
	Specification *Payment `json:"specification,omitempty"`
	Outcome       Outcome  `json:"outcome"`
}

type Outcome struct {
	Result          string  `json:"result"`
	Fee             string  `json:"fee"`
	DeliveredAmount *Amount `json:"deliveredAmount,omitempty"`
	LedgerVersion   uint32  `json:"ledgerVersion"`
	IndexInLedger   int     `json:"indexInLedger"`
	Timestamp       string  `json:"timestamp,omitempty"`
}

// Instructions override what PreparePayment would otherwise look up. Fee is in XRP.
// MaxLedgerVersionOffset defaults to 3 and is ignored if MaxLedgerVersion is set.
type Instructions struct {
	Fee                    string  `json:"fee,omitempty"`
	Sequence               *uint32 `json:"sequence,omitempty"`
	MaxLedgerVersion       *uint32 `json:"maxLedgerVersion,omitempty"`
	MaxLedgerVersionOffset *uint32 `json:"maxLedgerVersionOffset,omitempty"`
}

// Prepared is an unsigned transaction. TxJSON is the transaction serialized as JSON text.
type Prepared struct {
	TxJSON       string               `json:"txJSON"`
	Instructions PreparedInstructions `json:"instructions"`
}

type PreparedInstructions struct {
	Fee              string `json:"fee"`
	Sequence         uint32 `json:"sequence"`
	MaxLedgerVersion uint32 `json:"maxLedgerVersion"`
}

// SubmitResult is the server's preliminary verdict on a submitted transaction, along with the
// transaction as the server decoded it.
type SubmitResult struct {
	ResultCode    string          `json:"resultCode"`
	ResultMessage string          `json:"resultMessage"`
	TxJSON        json.RawMessage `json:"tx_json,omitempty"`
}

// ledgerIndex accepts a ledger sequence written either as a number or as a string, since the
// server uses both.
type ledgerIndex uint32

func (l *ledgerIndex) UnmarshalJSON(data []byte) error {
	s := string(data)
	if len(s) >= 2 && s[0] == '"' {
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
	}
	n, err := strconv.ParseUint(s, 10, 32)
	if err != nil {
		return err
	}
	*l = ledgerIndex(n)
	return nil
}

func rippleTimeToISO(t int64) string {
	return time.Unix(t+rippleEpoch, 0).UTC().Format(time.RFC3339)
}
