package moyasar

import (
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/shopspring/decimal"
)

var (
	minAmount = decimal.NewFromInt(1)
	maxAmount = decimal.NewFromInt(100000)

	// Saudi mobile numbers in national format
	walletPhonePattern = regexp.MustCompile(`^05\d{8}$`)
)

// ValidateAmount reports whether amount is within 1..100000 major units
func ValidateAmount(amount decimal.Decimal) bool {
	return amount.GreaterThanOrEqual(minAmount) && amount.LessThanOrEqual(maxAmount)
}

// ValidateCardNumber reports whether number is exactly 16 ASCII digits once
// whitespace is removed.
func ValidateCardNumber(number string) bool {
	digits := stripWhitespace(number)
	return len(digits) == 16 && isASCIIDigits(digits)
}

// ValidateExpiry reports whether month/year is not earlier than now's month.
// The year is compared on its last two digits so both "24" and "2024" work.
func ValidateExpiry(month, year string, now time.Time) bool {
	m, err := strconv.Atoi(strings.TrimSpace(month))
	if err != nil || m < 1 || m > 12 {
		return false
	}

	year = strings.TrimSpace(year)
	if len(year) != 2 && len(year) != 4 {
		return false
	}
	if !isASCIIDigits(year) {
		return false
	}
	y, _ := strconv.Atoi(year)
	y %= 100

	currentYear := now.Year() % 100
	currentMonth := int(now.Month())

	if y < currentYear {
		return false
	}
	if y == currentYear && m < currentMonth {
		return false
	}
	return true
}

// ValidateCVC reports whether cvc is 3 or 4 ASCII digits
func ValidateCVC(cvc string) bool {
	return (len(cvc) == 3 || len(cvc) == 4) && isASCIIDigits(cvc)
}

// ValidateWalletPhone reports whether phone is a national mobile number
func ValidateWalletPhone(phone string) bool {
	return walletPhonePattern.MatchString(phone)
}

func stripWhitespace(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
}

func isASCIIDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
