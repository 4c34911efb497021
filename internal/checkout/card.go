package checkout

import "strings"

type Network string

const (
	NetworkUnknown    Network = ""
	NetworkVisa       Network = "visa"
	NetworkMastercard Network = "mastercard"
	NetworkAmex       Network = "amex"
	NetworkDiscover   Network = "discover"
)

// digitsOnly drops everything but ASCII digits.
func digitsOnly(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// DetectNetwork infers the card network from the leading digits.
func DetectNetwork(number string) Network {
	n := digitsOnly(number)
	switch {
	case strings.HasPrefix(n, "4"):
		return NetworkVisa
	case len(n) >= 2 && n[0] == '5' && n[1] >= '1' && n[1] <= '5':
		return NetworkMastercard
	case strings.HasPrefix(n, "34"), strings.HasPrefix(n, "37"):
		return NetworkAmex
	case strings.HasPrefix(n, "6011"), strings.HasPrefix(n, "65"):
		return NetworkDiscover
	}
	return NetworkUnknown
}

// FormatCardNumber groups digits for display: 4-6-5 for amex, blocks of
// four otherwise.
func FormatCardNumber(number string) string {
	n := digitsOnly(number)

	groups := []int{4, 4, 4, 4, 3}
	if DetectNetwork(n) == NetworkAmex {
		groups = []int{4, 6, 5}
	}

	var parts []string
	for _, size := range groups {
		if n == "" {
			break
		}
		size = min(size, len(n))
		parts = append(parts, n[:size])
		n = n[size:]
	}
	if n != "" {
		parts = append(parts, n)
	}
	return strings.Join(parts, " ")
}

// FormatExpiry inserts the slash after the month: "1227" becomes "12/27".
func FormatExpiry(value string) string {
	n := digitsOnly(value)
	if len(n) > 4 {
		n = n[:4]
	}
	if len(n) < 2 {
		return n
	}
	return n[:2] + "/" + n[2:]
}

func lastFour(number string) string {
	n := digitsOnly(number)
	if len(n) <= 4 {
		return n
	}
	return n[len(n)-4:]
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
