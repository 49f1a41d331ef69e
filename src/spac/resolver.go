package spac

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/username/tradenorm/src/cache"
	"github.com/username/tradenorm/src/logger"
	"github.com/username/tradenorm/src/models"
	"github.com/username/tradenorm/src/symbols"
)

// Former SPAC tickers and the ticker they trade under after the merger.
// Entries mapping to themselves never completed a merger.
var mergers = map[string]string{
	"IPOA": "SPCE", // Social Capital Hedosophia -> Virgin Galactic
	"IPOB": "OPEN", // Social Capital Hedosophia II -> Opendoor
	"IPOC": "CLOV", // Social Capital Hedosophia III -> Clover Health
	"IPOD": "IPOD",
	"IPOE": "SOFI", // Social Capital Hedosophia V -> SoFi
	"IPOF": "IPOF",
	"CCIV": "LCID", // Churchill Capital IV -> Lucid Motors
	"PSTH": "PSTH",
	"VTIQ": "NKLA", // VectoIQ -> Nikola
	"SPAQ": "FSRW", // Spartan Acquisition -> Fisker
	"DKNG": "DKNG",
	"DEAC": "DKNG", // Diamond Eagle Acquisition -> DraftKings
	"RTP":  "JOBY", // Reinvent Technology Partners -> Joby Aviation
	"RTPY": "AURA", // Reinvent Technology Partners Y -> Aurora Innovation
	"ACIC": "JOBY", // Atlas Crest Investment Corp -> Joby Aviation
	"HZON": "SPRT", // Horizon Acquisition
	"SFTW": "BKS",  // BlackSky Technology
	"VACQ": "RKLB", // Vector Acquisition -> Rocket Lab
	"NGAC": "EMBK", // NextGen Acquisition -> Embark Trucks
}

// Post-merger company names, checked in order against the description.
var companyTickers = []struct {
	name   string
	ticker string
}{
	{"VIRGIN GALACTIC", "SPCE"},
	{"LUCID", "LCID"},
	{"DRAFTKINGS", "DKNG"},
	{"OPENDOOR", "OPEN"},
	{"CLOVER HEALTH", "CLOV"},
	{"SOFI", "SOFI"},
	{"NIKOLA", "NKLA"},
	{"FISKER", "FSRW"},
	{"JOBY AVIATION", "JOBY"},
	{"JOBY", "JOBY"},
	{"AURORA INNOVATION", "AURA"},
	{"BLACKSKY", "BKS"},
	{"ROCKET LAB", "RKLB"},
	{"EMBARK", "EMBK"},
}

var spacKeywords = []string{
	"SPAC", "ACQUISITION CORP", "ACQUISITION HOLDINGS", "CAPITAL CORP", "HOLDINGS CORP",
	"MERGER", "SPECIAL PURPOSE", "BLANK CHECK", "TECHNOLOGY PARTNERS", "NEXTGEN ACQUISITION",
	"CAPITAL INVESTMENT", "UNIT", "WARRANT", "CLASS A", "CL A",
}

var spacSponsors = []string{
	"CHAMATH", "SOCIAL CAPITAL", "PERSHING SQUARE", "DIAMOND EAGLE", "CHURCHILL CAPITAL",
	"VECTOR ACQUISITION", "REINVENT TECH", "ATLAS CREST", "HORIZON ACQUISITION", "SOFTBANK",
}

// Merger records known without asking the lookup.
var knownInfo = map[string]models.SpacInfo{
	"IPOA": {
		OriginalSymbol: "IPOA",
		CurrentSymbol:  "SPCE",
		MergerStatus:   "completed",
		TargetCompany:  "Virgin Galactic",
		MergerDate:     "2019-10-28",
		SourceURLs:     []string{"https://www.virgingalactic.com/articles/virgin-galactic-completes-merger-with-social-capital-hedosophia"},
	},
	"CCIV": {
		OriginalSymbol: "CCIV",
		CurrentSymbol:  "LCID",
		MergerStatus:   "completed",
		TargetCompany:  "Lucid Motors",
		MergerDate:     "2021-07-23",
		SourceURLs:     []string{"https://ir.lucidmotors.com/news-releases/news-release-details/lucid-motors-completes-business-combination-churchill-capital"},
	},
}

// Result is the outcome of one SPAC resolution.
type Result struct {
	Symbol        string // post-merger ticker, or the cleaned input
	Resolved      bool   // a mapping matched
	PotentialSpac bool   // unresolved, but the description reads like a SPAC
}

// Resolver maps pre-merger SPAC tickers to current ones.
type Resolver struct {
	cache  *cache.SymbolCache
	lookup symbols.Lookup
}

// NewResolver wires a resolver. lookup only serves LookupInfo; nil disables it.
func NewResolver(c *cache.SymbolCache, lookup symbols.Lookup) *Resolver {
	if lookup == nil {
		lookup = symbols.NoopLookup{}
	}
	return &Resolver{cache: c, lookup: lookup}
}

// IsPotentialSpac reports whether a description carries SPAC keywords or names a
// known SPAC sponsor.
func IsPotentialSpac(description string) bool {
	if description == "" {
		return false
	}
	upper := strings.ToUpper(description)
	for _, kw := range spacKeywords {
		if strings.Contains(upper, kw) {
			return true
		}
	}
	for _, sp := range spacSponsors {
		if strings.Contains(upper, sp) {
			return true
		}
	}
	return false
}

// Resolve looks symbol up in the cache, the merger table and then the company
// name table. Matches are cached under SPAC_<symbol>.
func (r *Resolver) Resolve(ctx context.Context, symbol, description string) Result {
	cleaned := strings.Join(strings.Fields(symbol), "")
	if cleaned == "" {
		return Result{Symbol: cleaned}
	}

	key := cache.SpacPrefix + cleaned
	current, ok := r.cache.GetOrCompute(ctx, key, func(ctx context.Context) (string, bool) {
		if t, ok := mergers[strings.ToUpper(cleaned)]; ok {
			return t, true
		}
		upper := strings.ToUpper(description)
		for _, ct := range companyTickers {
			if description != "" && strings.Contains(upper, ct.name) {
				logger.FromContext(ctx).Info("SPAC lookup based on description", "symbol", cleaned, "ticker", ct.ticker)
				return ct.ticker, true
			}
		}
		return "", false
	})
	if !ok {
		res := Result{Symbol: cleaned, PotentialSpac: IsPotentialSpac(description)}
		if res.PotentialSpac {
			logger.FromContext(ctx).Info("Potential SPAC detected", "symbol", cleaned, "description", description)
		}
		return res
	}

	if current != cleaned {
		info := r.LookupInfo(ctx, cleaned, description)
		if info.MergerStatus == "completed" {
			logger.FromContext(ctx).Info("SPAC detailed info",
				"symbol", cleaned, "current_symbol", info.CurrentSymbol,
				"target_company", info.TargetCompany, "merger_date", info.MergerDate)
		}
	}
	return Result{Symbol: current, Resolved: true}
}

// LookupInfo returns the merger record for a SPAC ticker. Records are cached as
// JSON under SPAC_LLM_<symbol>. A reply that names nothing usable is cached as the
// "unknown" record; a failed lookup is not cached and is retried on the next call.
func (r *Resolver) LookupInfo(ctx context.Context, symbol, description string) models.SpacInfo {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	key := cache.SpacInfoPrefix + symbol
	unknown := unknownInfo(symbol)

	raw, ok := r.cache.GetOrCompute(ctx, key, func(ctx context.Context) (string, bool) {
		info, found := knownInfo[symbol]
		if !found {
			reply, err := r.lookup.Lookup(ctx, infoPrompt(symbol, description))
			if err != nil {
				logger.FromContext(ctx).Debug("SPAC info lookup unavailable", "symbol", symbol, "error", err)
				return "", false
			}
			if info, found = parseInfo(symbol, reply); !found {
				logger.FromContext(ctx).Info("SPAC info reply unusable, caching unknown", "symbol", symbol)
				info = unknown
			}
		}
		b, err := json.Marshal(info)
		if err != nil {
			return "", false
		}
		return string(b), true
	})

	if !ok {
		return unknown
	}
	var info models.SpacInfo
	if err := json.Unmarshal([]byte(raw), &info); err != nil {
		logger.FromContext(ctx).Warn("Corrupt SPAC info cache entry", "key", key, "error", err)
		return unknown
	}
	return info
}

func infoPrompt(symbol, description string) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "The security with ticker '%s' may be a SPAC. ", symbol)
	if description != "" {
		fmt.Fprintf(&sb, "Its description is: '%s'. ", description)
	}
	sb.WriteString("Report its merger outcome as a single JSON object with the keys ")
	sb.WriteString(`"current_symbol", "merger_status" (one of "completed", "pending", "liquidated", "unknown"), `)
	sb.WriteString(`"target_company", "merger_date" (YYYY-MM-DD) and "source_urls" (array of strings). `)
	sb.WriteString("Reply with ONLY the JSON object.")
	return sb.String()
}

func unknownInfo(symbol string) models.SpacInfo {
	return models.SpacInfo{OriginalSymbol: symbol, CurrentSymbol: symbol, MergerStatus: "unknown", SourceURLs: []string{}}
}

// parseInfo reads the JSON object out of a free-text reply.
func parseInfo(symbol, reply string) (models.SpacInfo, bool) {
	start, end := strings.Index(reply, "{"), strings.LastIndex(reply, "}")
	if start < 0 || end <= start {
		return models.SpacInfo{}, false
	}
	body := reply[start : end+1]
	if !gjson.Valid(body) {
		return models.SpacInfo{}, false
	}
	doc := gjson.Parse(body)
	current := strings.ToUpper(doc.Get("current_symbol").String())
	if !symbols.IsCleanTicker(current) {
		return models.SpacInfo{}, false
	}
	info := models.SpacInfo{
		OriginalSymbol: symbol,
		CurrentSymbol:  current,
		MergerStatus:   strings.ToLower(doc.Get("merger_status").String()),
		TargetCompany:  doc.Get("target_company").String(),
		MergerDate:     doc.Get("merger_date").String(),
		SourceURLs:     []string{},
	}
	if info.MergerStatus == "" {
		info.MergerStatus = "unknown"
	}
	for _, u := range doc.Get("source_urls").Array() {
		info.SourceURLs = append(info.SourceURLs, u.String())
	}
	return info, true
}
