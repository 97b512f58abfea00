package rate

import (
	"errors"
	"maps"
	"slices"
)

var (
	ErrCodeRequired    = errors.New("currency code is required")
	ErrCodeMalformed   = errors.New("currency code must be 3 letters")
	ErrCodeUnsupported = errors.New("currency not supported")
)

type CurrencyValidator struct {
	supportedCodesSet map[string]struct{} // read only copy
	supportedCodesLst []string            // read only copy
}

func (v *CurrencyValidator) ValidateCode(code string) error {
	if code == "" {
		return ErrCodeRequired
	}
	if len(code) != 3 {
		return ErrCodeMalformed
	}
	if _, ok := v.supportedCodesSet[code]; !ok {
		return ErrCodeUnsupported
	}
	return nil
}

func (v *CurrencyValidator) IsSupported(code string) bool {
	_, ok := v.supportedCodesSet[code]
	return ok
}

func (v *CurrencyValidator) SupportedCodes() []string {
	return slices.Clone(v.supportedCodesLst)
}

func NewValidator(supportedCurrencies []string) *CurrencyValidator {
	codesSet := make(map[string]struct{}, len(supportedCurrencies))
	for _, c := range supportedCurrencies {
		codesSet[c] = struct{}{}
	}
	codesLst := slices.Collect(maps.Keys(codesSet))
	slices.Sort(codesLst)

	return &CurrencyValidator{
		supportedCodesSet: codesSet,
		supportedCodesLst: codesLst,
	}
}
