package query

import "strings"

// CheckISBN validates a candidate ISBN and returns its cleaned form, or ""
// when the input is not a valid ISBN-10 or ISBN-13.
func CheckISBN(raw string) string {
	cleaned := cleanISBN(raw)
	switch len(cleaned) {
	case 10:
		if validISBN10(cleaned) {
			return cleaned
		}
	case 13:
		if validISBN13(cleaned) {
			return cleaned
		}
	}
	return ""
}

func cleanISBN(raw string) string {
	var sb strings.Builder
	for _, r := range strings.ToUpper(raw) {
		if r >= '0' && r <= '9' || r == 'X' {
			sb.WriteRune(r)
		}
	}
	return sb.String()
}

func validISBN10(isbn string) bool {
	sum := 0
	for i, r := range isbn {
		var digit int
		switch {
		case r >= '0' && r <= '9':
			digit = int(r - '0')
		case r == 'X' && i == 9:
			digit = 10
		default:
			return false
		}
		sum += (10 - i) * digit
	}
	return sum%11 == 0
}

func validISBN13(isbn string) bool {
	sum := 0
	for i, r := range isbn {
		if r < '0' || r > '9' {
			return false
		}
		digit := int(r - '0')
		if i%2 == 1 {
			digit *= 3
		}
		sum += digit
	}
	return sum%10 == 0
}
