package utils

import "strings"

// Phone numbers arrive in several shapes: "+251912345678", "251912345678",
// "0912345678" or already-normalized "912345678". The database stores the
// bare local form; the SMS provider wants the international form.

// NormalizePhone strips a leading +251, 251 or 0 prefix so that the same
// subscriber always maps to a single stored value.
func NormalizePhone(phone string) string {
	phone = strings.TrimSpace(phone)
	switch {
	case strings.HasPrefix(phone, "+251"):
		return phone[4:]
	case strings.HasPrefix(phone, "251"):
		return phone[3:]
	case strings.HasPrefix(phone, "0"):
		return phone[1:]
	}
	return phone
}

// InternationalPhone returns the +251-prefixed form expected by the OTP
// provider.
func InternationalPhone(phone string) string {
	return "+251" + NormalizePhone(phone)
}

// LocalPhone returns the 0-prefixed local dialing form used when handing
// payer details to the payment gateway.
func LocalPhone(phone string) string {
	return "0" + NormalizePhone(phone)
}

// ValidPhone reports whether the normalized number is nine digits, the
// length of an Ethiopian mobile subscriber number.
func ValidPhone(phone string) bool {
	p := NormalizePhone(phone)
	if len(p) != 9 {
		return false
	}
	for i := 0; i < len(p); i++ {
		if p[i] < '0' || p[i] > '9' {
			return false
		}
	}
	return true
}
