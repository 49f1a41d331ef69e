package ibkr

import (
	"encoding/xml"
	"fmt"
	"io"

	"github.com/username/tradenorm/src/logger"
	"github.com/username/tradenorm/src/models"
)

// FlexQueryResponse is the root element of an IB Flex Query report.
type FlexQueryResponse struct {
	XMLName        xml.Name        `xml:"FlexQueryResponse"`
	FlexStatements []FlexStatement `xml:"FlexStatements>FlexStatement"`
}

// FlexStatement contains all the data for a given account and period.
type FlexStatement struct {
	XMLName          xml.Name          `xml:"FlexStatement"`
	AccountId        string            `xml:"accountId,attr"`
	Trades           []Trade           `xml:"Trades>Trade"`
	CashTransactions []CashTransaction `xml:"CashTransactions>CashTransaction"`
}

// Trade is a stock or option execution. Numeric attributes stay text so they go
// through the same cleanup as CSV cells.
type Trade struct {
	AssetCategory string `xml:"assetCategory,attr"`
	Symbol        string `xml:"symbol,attr"`
	Description   string `xml:"description,attr"`
	DateTime      string `xml:"dateTime,attr"`
	TradeDate     string `xml:"tradeDate,attr"`
	Quantity      string `xml:"quantity,attr"`
	TradePrice    string `xml:"tradePrice,attr"`
	NetCash       string `xml:"netCash,attr"`
	Exchange      string `xml:"exchange,attr"`
	IBCommission  string `xml:"ibCommission,attr"`
	BuySell       string `xml:"buySell,attr"`
	PutCall       string `xml:"putCall,attr"`
	Strike        string `xml:"strike,attr"`
	Expiry        string `xml:"expiry,attr"`
}

// CashTransaction is a dividend, interest or transfer line.
type CashTransaction struct {
	Type          string `xml:"type,attr"`
	Description   string `xml:"description,attr"`
	DateTime      string `xml:"dateTime,attr"`
	Amount        string `xml:"amount,attr"`
	LevelOfDetail string `xml:"levelOfDetail,attr"`
	Symbol        string `xml:"symbol,attr"`
}

// FlexHeaders are the activity-statement column names Flex attributes are mapped onto.
var FlexHeaders = []string{
	"Symbol", "Description", "DateTime", "TradeDate", "Buy/Sell", "Quantity",
	"TradePrice", "NetCash", "IBCommission", "Put/Call", "Strike", "Expiry",
}

// ReadFlex decodes a Flex Query XML report into rows keyed like the CSV activity
// statement, so one mapper serves both. Cash transactions become DIVIDEND/INTEREST
// rows that the mapper skips.
func ReadFlex(r io.Reader) ([]string, []models.RawRow, error) {
	var response FlexQueryResponse
	if err := xml.NewDecoder(r).Decode(&response); err != nil {
		return nil, nil, fmt.Errorf("ibkr flex: failed to decode XML: %w", err)
	}

	var rows []models.RawRow
	add := func(record []string) {
		rows = append(rows, models.NewRawRow(len(rows)+1, FlexHeaders, record))
	}

	for _, stmt := range response.FlexStatements {
		for _, t := range stmt.Trades {
			// Currency conversions are not security trades.
			if t.Exchange == "IDEALFX" {
				logger.L.Debug("IB Flex: skipping FX conversion", "symbol", t.Symbol)
				continue
			}
			add([]string{
				t.Symbol, t.Description, t.DateTime, t.TradeDate, t.BuySell, t.Quantity,
				t.TradePrice, t.NetCash, t.IBCommission, t.PutCall, t.Strike, t.Expiry,
			})
		}
		for _, c := range stmt.CashTransactions {
			// Summary lines duplicate the detail lines.
			if c.LevelOfDetail != "" && c.LevelOfDetail != "DETAIL" {
				continue
			}
			action := "ADJUSTMENT"
			switch c.Type {
			case "Dividends", "Payment In Lieu Of Dividends":
				action = "DIVIDEND"
			case "Broker Interest Received", "Broker Interest Paid":
				action = "INTEREST"
			}
			add([]string{c.Symbol, c.Description, c.DateTime, "", action, "", "", c.Amount, "", "", "", ""})
		}
	}
	return FlexHeaders, rows, nil
}
