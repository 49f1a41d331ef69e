package models

import "time"

// BatchResult summarizes one normalized upload. Partial success is the normal case.
type BatchResult struct {
	BatchID            string           `json:"batch_id"`
	Broker             string           `json:"broker"`
	Trades             []CanonicalTrade `json:"trades"`
	TotalRows          int              `json:"total_rows"`
	Processed          int              `json:"processed"`
	Skipped            int              `json:"skipped"`
	Errored            int              `json:"errored"`
	SymbolEnhancements int              `json:"symbol_enhancements"`
	PotentialSpacs     int              `json:"potential_spacs"`
	Inserted           int              `json:"inserted"`
	Duplicates         int              `json:"duplicates"`
	Duration           time.Duration    `json:"duration_ns"`
}

// SpacInfo is the detailed merger record cached under the SPAC_LLM_ prefix.
type SpacInfo struct {
	OriginalSymbol string   `json:"original_symbol"`
	CurrentSymbol  string   `json:"current_symbol"`
	MergerStatus   string   `json:"merger_status"`
	TargetCompany  string   `json:"target_company"`
	MergerDate     string   `json:"merger_date"`
	SourceURLs     []string `json:"source_urls"`
}

// ValidationResult is the outcome of a structure check on an export header.
type ValidationResult struct {
	Valid   bool     `json:"valid"`
	Broker  string   `json:"broker,omitempty"`
	Error   string   `json:"error,omitempty"`
	Missing []string `json:"missing,omitempty"`
}
