package rate

import (
	"bytes"
	"encoding/json"
	"encoding/xml"
	"fmt"
	"laundry/internal/config"
	"laundry/internal/domain"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// Parser turns a raw feed payload into "1 unit of code = rate pivot units" pairs.
type Parser interface {
	Parse(raw []byte) (map[string]decimal.Decimal, error)
}

func NewParser(format, pivot string) (Parser, error) {
	switch format {
	case config.FeedFormatTCMB:
		return TCMBParser{}, nil
	case config.FeedFormatExchangeRateAPI:
		return ExchangeRateAPIParser{Pivot: pivot}, nil
	default:
		return nil, fmt.Errorf("unknown rate feed format %q", format)
	}
}

// TCMBParser reads the Turkish Central Bank daily XML. Rates are quoted in TRY per Unit.
type TCMBParser struct{}

type tcmbDocument struct {
	XMLName    xml.Name       `xml:"Tarih_Date"`
	Currencies []tcmbCurrency `xml:"Currency"`
}

type tcmbCurrency struct {
	Code        string `xml:"CurrencyCode,attr"`
	Unit        string `xml:"Unit"`
	ForexBuying string `xml:"ForexBuying"`
}

func (TCMBParser) Parse(raw []byte) (map[string]decimal.Decimal, error) {
	var doc tcmbDocument
	dec := xml.NewDecoder(bytes.NewReader(raw))
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("%w: invalid TCMB xml: %w", domain.ErrParse, err)
	}

	rates := make(map[string]decimal.Decimal, len(doc.Currencies))
	for _, c := range doc.Currencies {
		code := strings.ToUpper(strings.TrimSpace(c.Code))
		buying := strings.TrimSpace(c.ForexBuying)
		if code == "" || buying == "" {
			// XDR and similar rows carry no forex quote
			continue
		}
		value, err := decimal.NewFromString(buying)
		if err != nil {
			return nil, fmt.Errorf("%w: ForexBuying of %s: %w", domain.ErrParse, code, err)
		}
		unit := decimal.NewFromInt(1)
		if u := strings.TrimSpace(c.Unit); u != "" {
			if unit, err = decimal.NewFromString(u); err != nil {
				return nil, fmt.Errorf("%w: Unit of %s: %w", domain.ErrParse, code, err)
			}
		}
		if !value.IsPositive() || !unit.IsPositive() {
			logrus.Warnf("Skipping non-positive TCMB quote for %s", code)
			continue
		}
		rates[code] = value.Div(unit)
	}
	if len(rates) == 0 {
		return nil, fmt.Errorf("%w: TCMB feed contained no rates", domain.ErrParse)
	}
	return rates, nil
}

// ExchangeRateAPIParser reads the exchangerate-api "latest" JSON, quoted as units of each
// currency per one pivot, and inverts it.
type ExchangeRateAPIParser struct {
	Pivot string
}

type exchangeRateAPIResponse struct {
	Result          string                     `json:"result"`
	BaseCode        string                     `json:"base_code"`
	ConversionRates map[string]decimal.Decimal `json:"conversion_rates"`
}

func (p ExchangeRateAPIParser) Parse(raw []byte) (map[string]decimal.Decimal, error) {
	var body exchangeRateAPIResponse
	if err := json.Unmarshal(raw, &body); err != nil {
		return nil, fmt.Errorf("%w: invalid json: %w", domain.ErrParse, err)
	}
	if body.Result != "success" {
		return nil, fmt.Errorf("%w: api returned non-success result: %s", domain.ErrParse, body.Result)
	}
	if body.BaseCode != p.Pivot {
		return nil, fmt.Errorf("%w: feed base %q does not match pivot %q", domain.ErrParse, body.BaseCode, p.Pivot)
	}

	rates := make(map[string]decimal.Decimal, len(body.ConversionRates))
	for code, perPivot := range body.ConversionRates {
		if !perPivot.IsPositive() {
			logrus.Warnf("Skipping non-positive quote for %s", code)
			continue
		}
		rates[code] = decimal.NewFromInt(1).Div(perPivot)
	}
	if len(rates) == 0 {
		return nil, fmt.Errorf("%w: feed contained no rates", domain.ErrParse)
	}
	return rates, nil
}
