package billing

import "strings"

var (
	ones = []string{
		"", "One", "Two", "Three", "Four", "Five", "Six", "Seven", "Eight", "Nine",
		"Ten", "Eleven", "Twelve", "Thirteen", "Fourteen", "Fifteen", "Sixteen",
		"Seventeen", "Eighteen", "Nineteen",
	}
	tens = []string{
		"", "", "Twenty", "Thirty", "Forty", "Fifty", "Sixty", "Seventy", "Eighty", "Ninety",
	}
)

// AmountInWords renders a rupee amount for printed invoices using the Indian
// numbering system, e.g. 125000 -> "One Lakh Twenty Five Thousand Rupees Only".
func AmountInWords(amount int64) string {
	if amount == 0 {
		return "Zero Rupees Only"
	}
	words := NumberToWords(amount)
	return words + " Rupees Only"
}

// NumberToWords spells out n with thousand/lakh/crore grouping. Crore counts
// above 99 are spelled recursively ("One Thousand Crore").
func NumberToWords(n int64) string {
	if n == 0 {
		return "Zero"
	}
	if n < 0 {
		// -n overflows for MinInt64; spell the magnitude as unsigned
		return "Minus " + strings.Join(indianGroups(uint64(-(n+1))+1), " ")
	}
	return strings.Join(indianGroups(uint64(n)), " ")
}

func indianGroups(n uint64) []string {
	var parts []string

	if crore := n / 10000000; crore > 0 {
		parts = append(parts, indianGroups(crore)...)
		parts = append(parts, "Crore")
		n %= 10000000
	}
	if lakh := n / 100000; lakh > 0 {
		parts = append(parts, belowHundred(lakh), "Lakh")
		n %= 100000
	}
	if thousand := n / 1000; thousand > 0 {
		parts = append(parts, belowHundred(thousand), "Thousand")
		n %= 1000
	}
	if hundreds := n / 100; hundreds > 0 {
		parts = append(parts, ones[hundreds], "Hundred")
		n %= 100
	}
	if n > 0 {
		parts = append(parts, belowHundred(n))
	}
	return parts
}

func belowHundred(n uint64) string {
	if n < 20 {
		return ones[n]
	}
	if n%10 == 0 {
		return tens[n/10]
	}
	return tens[n/10] + " " + ones[n%10]
}
