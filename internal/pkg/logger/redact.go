package logger

import "strings"

// RedactMail masks a mail address for safe logging.
// "juan.perez@example.com" → "ju***@example.com"
// Short local parts (≤2 chars) are fully masked: "jp@example.com" → "***@example.com"
func RedactMail(mail string) string {
	parts := strings.Split(mail, "@")
	if len(parts) != 2 {
		return "***@***"
	}
	name := parts[0]
	if len(name) > 2 {
		return name[:2] + "***@" + parts[1]
	}
	return "***@" + parts[1]
}

// RedactPhone masks a phone number keeping only the last four digits.
// "1155667788" → "******7788"
func RedactPhone(phone string) string {
	if len(phone) <= 4 {
		return "****"
	}
	return strings.Repeat("*", len(phone)-4) + phone[len(phone)-4:]
}
