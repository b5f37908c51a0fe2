package ledgerapi

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strings"
)

const (
	// tfFullyCanonicalSig is set on every transaction the client prepares.
	tfFullyCanonicalSig           uint32 = 0x80000000
	defaultMaxLedgerVersionOffset uint32 = 3
)

// GetTransaction looks up a transaction by its hash.
func (c *Client) GetTransaction(ctx context.Context, id string) (Transaction, error) {
	if err := validateHash("id", id); err != nil {
		return Transaction{}, err
	}
	var raw struct {
		Account         string          `json:"Account"`
		Amount          json.RawMessage `json:"Amount"`
		Destination     string          `json:"Destination"`
		Fee             string          `json:"Fee"`
		SendMax         json.RawMessage `json:"SendMax"`
		Sequence        uint32          `json:"Sequence"`
		TransactionType string          `json:"TransactionType"`
		Date            int64           `json:"date"`
		Hash            string          `json:"hash"`
		LedgerIndex     ledgerIndex     `json:"ledger_index"`
		Meta            *struct {
			TransactionIndex  int             `json:"TransactionIndex"`
			TransactionResult string          `json:"TransactionResult"`
			DeliveredAmount   json.RawMessage `json:"delivered_amount"`
		} `json:"meta"`
	}
	if err := c.request(ctx, "tx", map[string]interface{}{"transaction": id, "binary": false}, &raw); err != nil {
		return Transaction{}, err
	}
	if raw.Meta == nil {
		return Transaction{}, &ResponseFormatError{Command: "tx", Message: "transaction has no metadata"}
	}
	fee, err := DropsToXRP(raw.Fee)
	if err != nil {
		return Transaction{}, &ResponseFormatError{Command: "tx", Message: err.Error(), Data: raw.Fee}
	}
	tx := Transaction{
		Type:     lowerFirst(raw.TransactionType),
		Address:  raw.Account,
		Sequence: raw.Sequence,
		ID:       raw.Hash,
		Outcome: Outcome{
			Result:        raw.Meta.TransactionResult,
			Fee:           fee,
			LedgerVersion: uint32(raw.LedgerIndex),
			IndexInLedger: raw.Meta.TransactionIndex,
		},
	}
	if raw.Date != 0 {
		tx.Outcome.Timestamp = rippleTimeToISO(raw.Date)
	}
	if len(raw.Meta.DeliveredAmount) != 0 && string(raw.Meta.DeliveredAmount) != `"unavailable"` {
		delivered, err := parseRippledAmount("tx", raw.Meta.DeliveredAmount)
		if err != nil {
			return Transaction{}, err
		}
		tx.Outcome.DeliveredAmount = &delivered
	}
	if raw.TransactionType == "Payment" {
		amount, err := parseRippledAmount("tx", raw.Amount)
		if err != nil {
			return Transaction{}, err
		}
		maxAmount := amount
		if len(raw.SendMax) != 0 {
			if maxAmount, err = parseRippledAmount("tx", raw.SendMax); err != nil {
				return Transaction{}, err
			}
		}
		tx.Specification = &Payment{
			Source:      PaymentSource{Address: raw.Account, MaxAmount: maxAmount},
			Destination: PaymentDestination{Address: raw.Destination, Amount: amount},
		}
	}
	return tx, nil
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToLower(s[:1]) + s[1:]
}

// PreparePayment builds an unsigned Payment transaction from address. Whatever the
// instructions leave out is filled in from the server: the fee from GetFee, the sequence from
// the account, and the last valid ledger from the current ledger version plus an offset.
func (c *Client) PreparePayment(
	ctx context.Context,
	address string,
	payment Payment,
	instructions *Instructions,
) (Prepared, error) {
	if instructions == nil {
		instructions = &Instructions{}
	}
	if err := validatePayment(address, payment); err != nil {
		return Prepared{}, err
	}

	txJSON := map[string]interface{}{
		"TransactionType": "Payment",
		"Account":         address,
		"Destination":     payment.Destination.Address,
		"Flags":           tfFullyCanonicalSig,
	}
	amount, err := toRippledAmount(payment.Destination.Amount)
	if err != nil {
		return Prepared{}, err
	}
	txJSON["Amount"] = amount
	if !(payment.Source.MaxAmount.IsXRP() && payment.Destination.Amount.IsXRP()) {
		sendMax, err := toRippledAmount(payment.Source.MaxAmount)
		if err != nil {
			return Prepared{}, err
		}
		txJSON["SendMax"] = sendMax
	}

	fee := instructions.Fee
	if fee == "" {
		if fee, err = c.GetFee(ctx); err != nil {
			return Prepared{}, err
		}
	}
	feeDrops, err := xrpToDrops("instructions.fee", fee)
	if err != nil {
		return Prepared{}, err
	}
	txJSON["Fee"] = feeDrops

	var sequence uint32
	if instructions.Sequence != nil {
		sequence = *instructions.Sequence
	} else {
		info, err := c.accountInfo(ctx, address)
		if err != nil {
			return Prepared{}, err
		}
		sequence = info.AccountData.Sequence
	}
	txJSON["Sequence"] = sequence

	var maxLedgerVersion uint32
	if instructions.MaxLedgerVersion != nil {
		maxLedgerVersion = *instructions.MaxLedgerVersion
	} else {
		offset := defaultMaxLedgerVersionOffset
		if instructions.MaxLedgerVersionOffset != nil {
			offset = *instructions.MaxLedgerVersionOffset
		}
		current, err := c.GetLedgerVersion(ctx)
		if err != nil {
			return Prepared{}, err
		}
		if offset > math.MaxUint32-current {
			return Prepared{}, &ValidationError{
				Field:   "instructions.maxLedgerVersionOffset",
				Message: fmt.Sprintf("%d past ledger %d is not a valid ledger version", offset, current),
			}
		}
		maxLedgerVersion = current + offset
	}
	txJSON["LastLedgerSequence"] = maxLedgerVersion

	serialized, err := json.Marshal(txJSON)
	if err != nil {
		return Prepared{}, fmt.Errorf("could not serialize transaction: %w", err)
	}
	return Prepared{
		TxJSON: string(serialized),
		Instructions: PreparedInstructions{
			Fee:              fee,
			Sequence:         sequence,
			MaxLedgerVersion: maxLedgerVersion,
		},
	}, nil
}

func validatePayment(address string, payment Payment) error {
	if err := validateAddress("address", address); err != nil {
		return err
	}
	if payment.Source.Address != address {
		return &ValidationError{Field: "source.address", Message: "must match the address the payment is prepared for"}
	}
	if err := validateAddress("destination.address", payment.Destination.Address); err != nil {
		return err
	}
	if err := validateAmount("source.maxAmount", payment.Source.MaxAmount); err != nil {
		return err
	}
	return validateAmount("destination.amount", payment.Destination.Amount)
}

// Submit sends a signed transaction blob, in hex, to the server.
func (c *Client) Submit(ctx context.Context, signedTransaction string) (SubmitResult, error) {
	if err := validateBlob("signedTransaction", signedTransaction); err != nil {
		return SubmitResult{}, err
	}
	var raw struct {
		EngineResult        string          `json:"engine_result"`
		EngineResultMessage string          `json:"engine_result_message"`
		TxJSON              json.RawMessage `json:"tx_json"`
	}
	if err := c.request(ctx, "submit", map[string]interface{}{"tx_blob": signedTransaction}, &raw); err != nil {
		return SubmitResult{}, err
	}
	if raw.EngineResult == "" {
		return SubmitResult{}, &ResponseFormatError{Command: "submit", Message: "missing engine_result"}
	}
	return SubmitResult{
		ResultCode:    raw.EngineResult,
		ResultMessage: raw.EngineResultMessage,
		TxJSON:        raw.TxJSON,
	}, nil
}
