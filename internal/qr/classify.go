// Package qr holds the QR primitives shared by the batch pipeline and the
// single-item scanner: content classification and image decoding.
package qr

import "strings"

// Type is the semantic interpretation of QR payload text.
type Type string

const (
	TypeURL      Type = "url"
	TypeText     Type = "text"
	TypeWiFi     Type = "wifi"
	TypeVCard    Type = "vcard"
	TypeEmail    Type = "email"
	TypeSMS      Type = "sms"
	TypePhone    Type = "phone"
	TypeGeo      Type = "geo"
	TypeCalendar Type = "calendar"
)

// prefixRule maps one or more lower-case prefixes to a type.
type prefixRule struct {
	prefixes []string
	typ      Type
}

// prefixRules are evaluated in order and the first match wins.
// Keep this order stable: exported results depend on it.
var prefixRules = []prefixRule{
	{prefixes: []string{"wifi:"}, typ: TypeWiFi},
	{prefixes: []string{"begin:vcard"}, typ: TypeVCard},
	{prefixes: []string{"mailto:"}, typ: TypeEmail},
	{prefixes: []string{"sms:", "smsto:"}, typ: TypeSMS},
	{prefixes: []string{"tel:"}, typ: TypePhone},
	{prefixes: []string{"geo:"}, typ: TypeGeo},
	{prefixes: []string{"begin:vevent"}, typ: TypeCalendar},
	{prefixes: []string{"http://", "https://"}, typ: TypeURL},
}

// Classify returns the QR type for content. It never fails: anything that
// does not carry a known scheme prefix is TypeText.
func Classify(content string) Type {
	lower := strings.ToLower(content)

	for _, rule := range prefixRules {
		for _, p := range rule.prefixes {
			if strings.HasPrefix(lower, p) {
				return rule.typ
			}
		}
	}
	return TypeText
}

// Types returns every type Classify can produce, in rule order with text last.
func Types() []Type {
	out := make([]Type, 0, len(prefixRules)+1)
	for _, rule := range prefixRules {
		out = append(out, rule.typ)
	}
	return append(out, TypeText)
}
