package storage

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"FIT-CONTRACTS/internal/models"
)

const (
	ContractPrefix = "filled-contracts/"
	contentTypePDF = "application/pdf"
)

var slugInvalid = regexp.MustCompile(`[^a-z0-9]+`)

// Slugify turns a client name into a key-safe fragment: "Jane  O'Neil" -> "jane-o-neil".
func Slugify(name string) string {
	s := slugInvalid.ReplaceAllString(strings.ToLower(strings.TrimSpace(name)), "-")
	s = strings.Trim(s, "-")
	if s == "" {
		return "client"
	}
	if len(s) > 64 {
		s = strings.TrimRight(s[:64], "-")
	}
	return s
}

// ObjectKey is filled-contracts/{kind}_{client-slug}_{unix-millis}.pdf.
// Identical inputs always produce the same key.
func ObjectKey(kind models.DocumentKind, clientName string, ts time.Time) string {
	return fmt.Sprintf("%s%s_%s_%d.pdf", ContractPrefix, kind, Slugify(clientName), ts.UnixMilli())
}
