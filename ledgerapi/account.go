package ledgerapi

import (
	"context"
)

type rippledAccountInfo struct {
	AccountData struct {
		Account           string      `json:"Account"`
		Balance           string      `json:"Balance"`
		OwnerCount        int         `json:"OwnerCount"`
		PreviousTxnID     string      `json:"PreviousTxnID"`
		PreviousTxnLgrSeq ledgerIndex `json:"PreviousTxnLgrSeq"`
		Sequence          uint32      `json:"Sequence"`
	} `json:"account_data"`
}

func (c *Client) accountInfo(ctx context.Context, address string) (rippledAccountInfo, error) {
	var raw rippledAccountInfo
	if err := validateAddress("address", address); err != nil {
		return raw, err
	}
	err := c.request(ctx, "account_info", map[string]interface{}{
		"account":      address,
		"ledger_index": "validated",
	}, &raw)
	return raw, err
}

// GetAccountInfo returns the account's sequence number, XRP balance and related state.
func (c *Client) GetAccountInfo(ctx context.Context, address string) (AccountInfo, error) {
	raw, err := c.accountInfo(ctx, address)
	if err != nil {
		return AccountInfo{}, err
	}
	data := raw.AccountData
	balance, err := DropsToXRP(data.Balance)
	if err != nil {
		return AccountInfo{}, &ResponseFormatError{Command: "account_info", Message: err.Error(), Data: data.Balance}
	}
	return AccountInfo{
		Sequence:                       data.Sequence,
		XRPBalance:                     balance,
		OwnerCount:                     data.OwnerCount,
		PreviousAffectingTransactionID: data.PreviousTxnID,
		PreviousAffectingTransactionLedgerVersion: uint32(data.PreviousTxnLgrSeq),
	}, nil
}

// GetBalances returns the account's XRP balance followed by its trust line balances, in the
// order the server lists them.
func (c *Client) GetBalances(ctx context.Context, address string) ([]Amount, error) {
	info, err := c.GetAccountInfo(ctx, address)
	if err != nil {
		return nil, err
	}
	var raw struct {
		Lines []struct {
			Account  string `json:"account"`
			Balance  string `json:"balance"`
			Currency string `json:"currency"`
		} `json:"lines"`
	}
	if err := c.request(ctx, "account_lines", map[string]interface{}{
		"account":      address,
		"ledger_index": "validated",
	}, &raw); err != nil {
		return nil, err
	}
	balances := make([]Amount, 0, len(raw.Lines)+1)
	balances = append(balances, Amount{Currency: xrpCurrencyCode, Value: info.XRPBalance})
	for _, line := range raw.Lines {
		balances = append(balances, Amount{Currency: line.Currency, Value: line.Balance, Counterparty: line.Account})
	}
	return balances, nil
}
