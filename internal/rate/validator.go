package rate

import (
	"github.com/GorelikovMatvey/finalproject-Gorelikov-M25-555/internal/domain"
)

// ValidateCodes checks every code against the currency registry.
func ValidateCodes(codes ...string) error {
	for _, code := range codes {
		if _, err := domain.GetCurrency(code); err != nil {
			return err
		}
	}
	return nil
}
