package ledgerapi

import (
	"context"
	"encoding/json"
	"math/big"
)

type rippledServerInfo struct {
	Info struct {
		BuildVersion    string `json:"build_version"`
		CompleteLedgers string `json:"complete_ledgers"`
		HostID          string `json:"hostid"`
		IOLatencyMs     int    `json:"io_latency_ms"`
		LastClose       struct {
			ConvergeTimeS float64 `json:"converge_time_s"`
			Proposers     int     `json:"proposers"`
		} `json:"last_close"`
		LoadFactor      json.Number `json:"load_factor"`
		Peers           int         `json:"peers"`
		PubkeyNode      string      `json:"pubkey_node"`
		ServerState     string      `json:"server_state"`
		ValidatedLedger *struct {
			Age            int         `json:"age"`
			BaseFeeXRP     json.Number `json:"base_fee_xrp"`
			Hash           string      `json:"hash"`
			ReserveBaseXRP json.Number `json:"reserve_base_xrp"`
			ReserveIncXRP  json.Number `json:"reserve_inc_xrp"`
			Seq            ledgerIndex `json:"seq"`
		} `json:"validated_ledger"`
		ValidationQuorum int `json:"validation_quorum"`
	} `json:"info"`
}

func (c *Client) serverInfo(ctx context.Context) (rippledServerInfo, error) {
	var raw rippledServerInfo
	if err := c.request(ctx, "server_info", nil, &raw); err != nil {
		return raw, err
	}
	if raw.Info.ValidatedLedger == nil {
		return raw, &ResponseFormatError{Command: "server_info", Message: "server has no validated ledger"}
	}
	return raw, nil
}

func decimalField(command, field string, n json.Number) (*big.Rat, error) {
	r, ok := parseDecimal(n.String())
	if !ok {
		return nil, &ResponseFormatError{Command: command, Message: field + " is not a number", Data: n.String()}
	}
	return r, nil
}

// GetServerInfo returns the server's status.
func (c *Client) GetServerInfo(ctx context.Context) (ServerInfo, error) {
	raw, err := c.serverInfo(ctx)
	if err != nil {
		return ServerInfo{}, err
	}
	info := raw.Info
	var xrp [3]string
	for i, n := range []json.Number{
		info.ValidatedLedger.BaseFeeXRP, info.ValidatedLedger.ReserveBaseXRP, info.ValidatedLedger.ReserveIncXRP,
	} {
		r, err := decimalField("server_info", "validated_ledger", n)
		if err != nil {
			return ServerInfo{}, err
		}
		xrp[i] = formatDecimal(r)
	}
	loadFactor, err := info.LoadFactor.Float64()
	if err != nil {
		return ServerInfo{}, &ResponseFormatError{Command: "server_info", Message: "load_factor is not a number"}
	}
	return ServerInfo{
		BuildVersion:    info.BuildVersion,
		CompleteLedgers: info.CompleteLedgers,
		HostID:          info.HostID,
		IOLatencyMs:     info.IOLatencyMs,
		LastClose: LastClose{
			ConvergeTimeS: info.LastClose.ConvergeTimeS,
			Proposers:     info.LastClose.Proposers,
		},
		LoadFactor:  loadFactor,
		Peers:       info.Peers,
		PubkeyNode:  info.PubkeyNode,
		ServerState: info.ServerState,
		ValidatedLedger: ValidatedLedger{
			Age:                 info.ValidatedLedger.Age,
			BaseFeeXRP:          xrp[0],
			Hash:                info.ValidatedLedger.Hash,
			ReserveBaseXRP:      xrp[1],
			ReserveIncrementXRP: xrp[2],
			LedgerVersion:       uint32(info.ValidatedLedger.Seq),
		},
		ValidationQuorum: info.ValidationQuorum,
	}, nil
}

// GetFee returns the fee, in XRP, to offer for a transaction now: the base fee scaled by the
// server's load factor and the client's fee cushion, rounded up to whole drops and capped at
// the client's maximum fee.
func (c *Client) GetFee(ctx context.Context) (string, error) {
	raw, err := c.serverInfo(ctx)
	if err != nil {
		return "", err
	}
	baseFee, err := decimalField("server_info", "base_fee_xrp", raw.Info.ValidatedLedger.BaseFeeXRP)
	if err != nil {
		return "", err
	}
	loadFactor := big.NewRat(1, 1)
	if raw.Info.LoadFactor != "" {
		if loadFactor, err = decimalField("server_info", "load_factor", raw.Info.LoadFactor); err != nil {
			return "", err
		}
	}
	fee := new(big.Rat).Mul(baseFee, loadFactor)
	fee.Mul(fee, c.feeCushion)
	fee = ceilToDrops(fee)
	if fee.Cmp(c.maxFeeXRP) > 0 {
		fee = c.maxFeeXRP
	}
	return formatDecimal(fee), nil
}

// GetLedgerVersion returns the sequence number of the most recent validated ledger.
func (c *Client) GetLedgerVersion(ctx context.Context) (uint32, error) {
	var raw struct {
		LedgerIndex ledgerIndex `json:"ledger_index"`
	}
	if err := c.request(ctx, "ledger_closed", nil, &raw); err != nil {
		return 0, err
	}
	return uint32(raw.LedgerIndex), nil
}

// GetLedger returns a ledger header.
func (c *Client) GetLedger(ctx context.Context, options LedgerOptions) (Ledger, error) {
	params := map[string]interface{}{
		"ledger_index": "validated",
		"transactions": options.IncludeTransactions,
		"expand":       false,
	}
	if options.LedgerVersion != 0 {
		params["ledger_index"] = options.LedgerVersion
	}
	var raw struct {
		Ledger *struct {
			AccountHash         string      `json:"account_hash"`
			CloseFlags          int         `json:"close_flags"`
			CloseTime           int64       `json:"close_time"`
			CloseTimeResolution int         `json:"close_time_resolution"`
			LedgerHash          string      `json:"ledger_hash"`
			LedgerIndex         ledgerIndex `json:"ledger_index"`
			ParentCloseTime     int64       `json:"parent_close_time"`
			ParentHash          string      `json:"parent_hash"`
			TotalCoins          string      `json:"total_coins"`
			TransactionHash     string      `json:"transaction_hash"`
			Transactions        []string    `json:"transactions"`
		} `json:"ledger"`
	}
	if err := c.request(ctx, "ledger", params, &raw); err != nil {
		return Ledger{}, err
	}
	l := raw.Ledger
	if l == nil {
		return Ledger{}, &ResponseFormatError{Command: "ledger", Message: "missing ledger"}
	}
	ret := Ledger{
		StateHash:           l.AccountHash,
		CloseTime:           rippleTimeToISO(l.CloseTime),
		CloseTimeResolution: l.CloseTimeResolution,
		CloseFlags:          l.CloseFlags,
		LedgerHash:          l.LedgerHash,
		LedgerVersion:       uint32(l.LedgerIndex),
		ParentLedgerHash:    l.ParentHash,
		ParentCloseTime:     rippleTimeToISO(l.ParentCloseTime),
		TotalDrops:          l.TotalCoins,
		TransactionHash:     l.TransactionHash,
	}
	if options.IncludeTransactions {
		ret.TransactionHashes = l.Transactions
	}
	return ret, nil
}
