package cleaner

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/neurlang/NumToWordsGo/NumToWords"
)

// maxCardinal is the largest number read as a cardinal.
const maxCardinal = 999_999_999_999_999

var (
	commaNumberRe = regexp.MustCompile(`[0-9][0-9,]+[0-9]`)
	dollarsRe     = regexp.MustCompile(`\$([0-9.]*[0-9]+)`)
	poundsRe      = regexp.MustCompile(`£([0-9]+)`)
	decimalRe     = regexp.MustCompile(`([0-9]+)\.([0-9]+)`)
	ordinalRe     = regexp.MustCompile(`([0-9]+)(st|nd|rd|th)\b`)
	numberRe      = regexp.MustCompile(`[0-9]+`)
)

// numberWordsRe matches the separators a number-to-words conversion may emit
// between words: hyphens, commas and the British "and".
var numberWordsRe = regexp.MustCompile(`(?i)[\s,-]+(?:and\s+)?`)

// ExpandNumbers spells out English numbers, currency amounts, decimals and
// ordinals.
func ExpandNumbers(text string) string {
	text = commaNumberRe.ReplaceAllStringFunc(text, func(m string) string {
		return strings.ReplaceAll(m, ",", "")
	})
	text = poundsRe.ReplaceAllString(text, "$1 pounds")
	text = dollarsRe.ReplaceAllStringFunc(text, func(m string) string {
		return expandDollars(m[1:])
	})
	text = decimalRe.ReplaceAllStringFunc(text, func(m string) string {
		parts := strings.SplitN(m, ".", 2)
		return numberToWords(parts[0]) + " point " + spellDigits(parts[1])
	})
	text = ordinalRe.ReplaceAllStringFunc(text, func(m string) string {
		return ordinal(numberToWords(m[:len(m)-2]))
	})

	return numberRe.ReplaceAllStringFunc(text, numberToWords)
}

func expandDollars(amount string) string {
	parts := strings.Split(amount, ".")
	if len(parts) > 2 {
		return amount + " dollars"
	}

	dollars, _ := strconv.Atoi(parts[0])

	cents := 0
	if len(parts) == 2 && parts[1] != "" {
		c := parts[1]
		if len(c) > 2 {
			c = c[:2]
		} else if len(c) == 1 {
			c += "0"
		}

		cents, _ = strconv.Atoi(c)
	}

	unit := func(n int, one, many string) string {
		if n == 1 {
			return one
		}

		return many
	}

	switch {
	case dollars > 0 && cents > 0:
		return strconv.Itoa(dollars) + " " + unit(dollars, "dollar", "dollars") + ", " +
			strconv.Itoa(cents) + " " + unit(cents, "cent", "cents")
	case dollars > 0:
		return strconv.Itoa(dollars) + " " + unit(dollars, "dollar", "dollars")
	case cents > 0:
		return strconv.Itoa(cents) + " " + unit(cents, "cent", "cents")
	default:
		return "zero dollars"
	}
}

// numberToWords spells a decimal digit string. Years between 1000 and 3000
// are read in pairs ("nineteen eighty four"); numbers above maxCardinal are
// spelled digit by digit.
func numberToWords(digits string) string {
	n, err := strconv.ParseInt(digits, 10, 64)
	if err != nil || n > maxCardinal {
		return spellDigits(digits)
	}

	if n > 1000 && n < 3000 {
		return yearToWords(n)
	}

	return cardinal(n)
}

func yearToWords(n int64) string {
	switch {
	case n == 2000:
		return "two thousand"
	case n > 2000 && n < 2010:
		return "two thousand " + cardinal(n%100)
	case n%100 == 0:
		return cardinal(n/100) + " hundred"
	case n%100 < 10:
		return cardinal(n/100) + " oh " + cardinal(n%100)
	default:
		return cardinal(n/100) + " " + cardinal(n%100)
	}
}

// cardinal spells n as space-separated lower-case words. Values the
// converter rejects are spelled digit by digit.
func cardinal(n int64) string {
	if n == 0 {
		return "zero"
	}

	words, err := NumToWords.Convert(int(n), "en")
	if err != nil || strings.TrimSpace(words) == "" {
		return spellDigits(strconv.FormatInt(n, 10))
	}

	return normalizeNumberWords(words)
}

// normalizeNumberWords lower-cases converter output and joins its words with
// single spaces.
func normalizeNumberWords(words string) string {
	return strings.TrimSpace(numberWordsRe.ReplaceAllString(strings.ToLower(words), " "))
}

func spellDigits(digits string) string {
	words := make([]string, 0, len(digits))
	for _, d := range digits {
		words = append(words, digitWords[d-'0'])
	}

	return strings.Join(words, " ")
}

var digitWords = [10]string{"zero", "one", "two", "three", "four", "five", "six", "seven", "eight", "nine"}

var irregularOrdinals = map[string]string{
	"one": "first", "two": "second", "three": "third", "five": "fifth",
	"eight": "eighth", "nine": "ninth", "twelve": "twelfth",
}

// ordinal turns the last word of a cardinal into its ordinal form.
func ordinal(words string) string {
	idx := strings.LastIndex(words, " ")
	head, last := words[:idx+1], words[idx+1:]

	switch {
	case irregularOrdinals[last] != "":
		last = irregularOrdinals[last]
	case strings.HasSuffix(last, "y"):
		last = strings.TrimSuffix(last, "y") + "ieth"
	default:
		last += "th"
	}

	return head + last
}
