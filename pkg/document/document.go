// Package document validates Brazilian tax identifiers: CPF for individuals
// and CNPJ for organizations. The check-digit arithmetic follows the official
// weighted mod-11 scheme; inputs may carry punctuation, which is stripped
// before validation.
package document

// Person type tags accepted by Validate.
const (
	PersonTypeIndividual   = "INDIVIDUAL"
	PersonTypeOrganization = "ORGANIZATION"
)

// Validate dispatches to the validator matching the person type. Unknown
// person types validate as an organization document, mirroring the dispatch
// used on check drawers.
func Validate(doc, personType string) bool {
	if personType == PersonTypeIndividual {
		return ValidateCPF(doc)
	}
	return ValidateCNPJ(doc)
}

// ValidateCPF reports whether doc is a structurally valid CPF: 11 digits, not
// all identical, with both check digits matching the weighted sums.
func ValidateCPF(doc string) bool {
	digits := digitsOf(doc)
	if len(digits) != 11 || allSame(digits) {
		return false
	}

	// First check digit: weights 10..2 over positions 0-8.
	sum := 0
	for i := 0; i < 9; i++ {
		sum += digits[i] * (10 - i)
	}
	dv1 := 11 - sum%11
	if dv1 < 2 {
		dv1 = 0
	}

	// Second check digit: weights 11..2 over positions 0-9.
	sum = 0
	for i := 0; i < 10; i++ {
		sum += digits[i] * (11 - i)
	}
	dv2 := 11 - sum%11
	if dv2 < 2 {
		dv2 = 0
	}

	return digits[9] == dv1 && digits[10] == dv2
}

// ValidateCNPJ reports whether doc is a structurally valid CNPJ: 14 digits,
// not all identical, with both check digits matching the cyclic-weight sums.
func ValidateCNPJ(doc string) bool {
	digits := digitsOf(doc)
	if len(digits) != 14 || allSame(digits) {
		return false
	}

	if digits[12] != cnpjCheckDigit(digits, 11) {
		return false
	}
	return digits[13] == cnpjCheckDigit(digits, 12)
}

// cnpjCheckDigit walks positions last..0 with weights cycling 2..9.
func cnpjCheckDigit(digits []int, last int) int {
	sum := 0
	weight := 2
	for i := last; i >= 0; i-- {
		sum += digits[i] * weight
		if weight == 9 {
			weight = 2
		} else {
			weight++
		}
	}
	rest := sum % 11
	if rest < 2 {
		return 0
	}
	return 11 - rest
}

func digitsOf(s string) []int {
	digits := make([]int, 0, len(s))
	for _, r := range s {
		if r >= '0' && r <= '9' {
			digits = append(digits, int(r-'0'))
		}
	}
	return digits
}

func allSame(digits []int) bool {
	for _, d := range digits[1:] {
		if d != digits[0] {
			return false
		}
	}
	return true
}
