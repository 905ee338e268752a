// Package validate holds checks for Brazilian document numbers.
package validate

import (
	"regexp"
	"strconv"
)

var nonDigit = regexp.MustCompile(`\D`)

// Digits strips every non-digit character from s.
func Digits(s string) string {
	return nonDigit.ReplaceAllString(s, "")
}

// CPF validates a CPF number, formatted ("529.982.247-25") or bare.
// It checks there are 11 digits, not all equal, and that both check digits match.
func CPF(cpf string) bool {
	cpf = Digits(cpf)
	if len(cpf) != 11 {
		return false
	}

	allSame := true
	for i := 1; i < len(cpf); i++ {
		if cpf[i] != cpf[0] {
			allSame = false
			break
		}
	}
	if allSame {
		return false
	}

	return checkDigit(cpf[:9], 10) == cpf[9] && checkDigit(cpf[:10], 11) == cpf[10]
}

// checkDigit computes the mod-11 verifier for digits weighted from weight down to 2.
func checkDigit(digits string, weight int) byte {
	sum := 0
	for i := 0; i < len(digits); i++ {
		d, _ := strconv.Atoi(string(digits[i]))
		sum += d * (weight - i)
	}
	r := sum % 11
	if r < 2 {
		return '0'
	}
	return strconv.Itoa(11 - r)[0]
}
