// Package validation holds the account form rules shared by the registration
// flow and the request DTOs: Ivorian phone numbers, e-mail, password strength
// and full name. Messages are returned in French, ready for display.
package validation

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/ttacon/libphonenumber"
)

const ciCountryCode = 225

// Result is the outcome of a single-field check. Error is empty when Valid.
type Result struct {
	Valid bool   `json:"is_valid"`
	Error string `json:"error,omitempty"`
}

var (
	phonePrefixesCI = []string{"07", "05", "01"}
	emailPattern    = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
)

// ── Phone ─────────────────────────────────────────────────────────────────────

// NormalizePhoneCI returns the national digits of a phone number. Numbers in
// international form (+225 / 00225) lose their country code; anything else is
// reduced to its digits.
func NormalizePhoneCI(raw string) string {
	trimmed := strings.TrimSpace(raw)
	intl := trimmed
	if strings.HasPrefix(intl, "00") {
		intl = "+" + intl[2:]
	}
	if strings.HasPrefix(intl, "+") {
		digits := digitsOnly(intl)
		num, err := libphonenumber.Parse(intl, "CI")
		if (err == nil && num.GetCountryCode() == ciCountryCode) || (err != nil && strings.HasPrefix(digits, "225")) {
			return strings.TrimPrefix(digits, "225")
		}
	}
	return digitsOnly(trimmed)
}

// ValidatePhoneCI checks a 10-digit Ivorian number starting with 07, 05 or 01.
func ValidatePhoneCI(phone string) Result {
	digits := NormalizePhoneCI(phone)
	if digits == "" {
		return Result{Error: "Le numéro de téléphone est requis"}
	}
	if len(digits) != 10 {
		return Result{Error: "Le numéro doit contenir exactement 10 chiffres"}
	}
	for _, p := range phonePrefixesCI {
		if strings.HasPrefix(digits, p) {
			return Result{Valid: true}
		}
	}
	return Result{Error: "Le numéro doit commencer par 07, 05 ou 01"}
}

// FormatPhoneCI groups the digits two by two: "0712345678" → "07 12 34 56 78".
func FormatPhoneCI(phone string) string {
	digits := NormalizePhoneCI(phone)
	groups := make([]string, 0, (len(digits)+1)/2)
	for i := 0; i < len(digits); i += 2 {
		end := i + 2
		if end > len(digits) {
			end = len(digits)
		}
		groups = append(groups, digits[i:end])
	}
	return strings.Join(groups, " ")
}

func digitsOnly(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// ── Email ─────────────────────────────────────────────────────────────────────

func ValidateEmail(email string) Result {
	email = strings.TrimSpace(email)
	if email == "" {
		return Result{Error: "L'adresse email est requise"}
	}
	if !emailPattern.MatchString(email) {
		return Result{Error: "Format d'email invalide"}
	}
	return Result{Valid: true}
}

// ── Password ──────────────────────────────────────────────────────────────────

// PasswordCheck reports the strength score (0–4) of a password.
type PasswordCheck struct {
	Valid  bool     `json:"is_valid"`
	Score  int      `json:"score"`
	Label  string   `json:"label"`
	Errors []string `json:"errors"`
}

var passwordLabels = [...]string{"Très faible", "Faible", "Moyen", "Fort", "Très fort"}

const maxPasswordScore = 4

// ValidatePassword scores one point per criterion met (8+ chars, 12+ chars,
// uppercase, digit, symbol), capped at 4. A password is accepted with a score
// of 2 and at least 8 characters; the 12-char and symbol criteria only raise
// the score.
func ValidatePassword(password string) PasswordCheck {
	length := len([]rune(password))
	var hasUpper, hasDigit, hasSymbol bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsDigit(r):
			hasDigit = true
		case !unicode.IsLetter(r) && !unicode.IsSpace(r):
			hasSymbol = true
		}
	}

	score := 0
	errs := make([]string, 0, 3)
	if length >= 8 {
		score++
	} else {
		errs = append(errs, "Au moins 8 caractères")
	}
	if length >= 12 {
		score++
	}
	if hasUpper {
		score++
	} else {
		errs = append(errs, "Au moins une majuscule")
	}
	if hasDigit {
		score++
	} else {
		errs = append(errs, "Au moins un chiffre")
	}
	if hasSymbol {
		score++
	}
	if score > maxPasswordScore {
		score = maxPasswordScore
	}

	return PasswordCheck{
		Valid:  score >= 2 && length >= 8,
		Score:  score,
		Label:  passwordLabels[score],
		Errors: errs,
	}
}

// ── Full name ─────────────────────────────────────────────────────────────────

// ValidateFullName requires at least 3 characters and two words (nom + prénom).
func ValidateFullName(name string) Result {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return Result{Error: "Le nom complet est requis"}
	}
	if len([]rune(trimmed)) < 3 {
		return Result{Error: "Le nom doit contenir au moins 3 caractères"}
	}
	if len(strings.Fields(trimmed)) < 2 {
		return Result{Error: "Veuillez saisir votre nom et prénom"}
	}
	return Result{Valid: true}
}
