package payload

import "sort"

// NativeMint is the canonical wrapped-SOL mint used for native asset
// detection when an entry carries no symbol.
const NativeMint = "So11111111111111111111111111111111111111112"

// balanceListKeys are the conventional field names a balance list hides under.
var balanceListKeys = []string{"balances", "tokens", "entries", "items", "assets", "holdings"}

// BalanceEntry is one normalized balance record.
type BalanceEntry struct {
	Mint     string
	Symbol   string
	Name     string
	Amount   *float64
	USDValue *float64
	IsNative bool
}

// BalanceSummary aggregates normalized balance entries.
//
// TotalUSD is nil unless at least one entry supplied a value; an empty
// upstream list never fabricates a zero total. PrimaryAmount is the
// native asset amount when a native entry is present.
type BalanceSummary struct {
	Entries       []BalanceEntry
	PrimaryAmount *float64
	TotalUSD      *float64
	Count         int
}

// NormalizeBalances locates a balance-like list inside p (after
// unwrapping) and extracts per-entry identity, amount, and usd value
// using best-effort heuristics. It never panics on malformed input.
func NormalizeBalances(p any) *BalanceSummary {
	summary := &BalanceSummary{}

	// Look for the list before unwrapping: Extract would descend into the
	// first record of a bare top-level list.
	list := findBalanceList(p)
	if list == nil {
		list = findBalanceList(Extract(p))
	}
	if list == nil {
		return summary
	}

	for _, raw := range list {
		object, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		summary.Entries = append(summary.Entries, normalizeBalanceEntry(object))
	}

	var total float64
	hasTotal := false
	for i := range summary.Entries {
		entry := &summary.Entries[i]
		if entry.USDValue != nil {
			total += *entry.USDValue
			hasTotal = true
		}
		if entry.IsNative && summary.PrimaryAmount == nil {
			summary.PrimaryAmount = entry.Amount
		}
	}
	if hasTotal {
		summary.TotalUSD = &total
	}

	sort.SliceStable(summary.Entries, func(i, j int) bool {
		return balanceEntryLess(summary.Entries[j], summary.Entries[i])
	})

	summary.Count = len(summary.Entries)
	return summary
}

func findBalanceList(value any) []any {
	switch typed := value.(type) {
	case []any:
		return typed
	case map[string]any:
		for _, key := range balanceListKeys {
			if list, ok := typed[key].([]any); ok {
				return list
			}
		}
	}
	return nil
}

func normalizeBalanceEntry(object map[string]any) BalanceEntry {
	entry := BalanceEntry{
		Mint:   PickString(object["mint"], object["address"], object["tokenAddress"], object["token_address"], object["id"]),
		Symbol: PickString(object["symbol"], object["ticker"]),
		Name:   PickString(object["name"], object["tokenName"]),
		Amount: PickNumber(object["amountUi"], object["uiAmount"], object["amount"], object["balance"], object["quantity"]),
	}

	entry.IsNative = entry.Symbol == "SOL" || entry.Mint == NativeMint

	entry.USDValue = PickNumber(object["usdValue"], object["valueUsd"], object["usd"], object["totalUsd"])
	if entry.USDValue == nil && entry.Amount != nil {
		if price := PickNumber(object["priceUsd"], object["usdPrice"], object["price"]); price != nil {
			derived := *entry.Amount * *price
			entry.USDValue = &derived
		}
	}

	return entry
}

// balanceEntryLess orders by usd value, then amount; entries without a
// value sort below entries with one.
func balanceEntryLess(a, b BalanceEntry) bool {
	switch {
	case a.USDValue == nil && b.USDValue != nil:
		return true
	case a.USDValue != nil && b.USDValue == nil:
		return false
	case a.USDValue != nil && b.USDValue != nil && *a.USDValue != *b.USDValue:
		return *a.USDValue < *b.USDValue
	}

	switch {
	case a.Amount == nil && b.Amount != nil:
		return true
	case a.Amount != nil && b.Amount == nil:
		return false
	case a.Amount != nil && b.Amount != nil:
		return *a.Amount < *b.Amount
	}

	return false
}
