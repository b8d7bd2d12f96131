package matcher

import "strings"

var builtinSynonyms = map[string][]string{
	"hack":           {"exploit", "attack", "breach", "compromise"},
	"vulnerability":  {"weakness", "flaw", "bug", "security issue"},
	"smart contract": {"contract", "dapp", "decentralized application"},
	"cryptocurrency": {"crypto", "digital currency", "coin", "token"},
	"blockchain":     {"distributed ledger", "dlt", "chain"},
	"ethereum":       {"eth", "ether"},
	"bitcoin":        {"btc", "satoshi"},
	"defi":           {"decentralized finance", "yield farming", "liquidity mining"},
	"nft":            {"non-fungible token", "digital collectible"},
	"dao":            {"decentralized autonomous organization"},
}

// DefaultSynonyms returns a copy of the built-in synonym table
func DefaultSynonyms() map[string][]string {
	return mergeSynonyms(nil)
}

// mergeSynonyms appends extra entries to the built-in table. Keys are
// lower-cased; duplicates are dropped.
func mergeSynonyms(extra map[string][]string) map[string][]string {
	out := make(map[string][]string, len(builtinSynonyms)+len(extra))
	for k, v := range builtinSynonyms {
		out[k] = append([]string(nil), v...)
	}
	for k, v := range extra {
		key := strings.ToLower(strings.TrimSpace(k))
		for _, syn := range v {
			if !containsFold(out[key], syn) {
				out[key] = append(out[key], syn)
			}
		}
	}
	return out
}

func containsFold(list []string, s string) bool {
	for _, item := range list {
		if strings.EqualFold(item, s) {
			return true
		}
	}
	return false
}
