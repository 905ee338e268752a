package models

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/acompanha/acompanha/internal/validate"
)

// CardInput is the client-supplied part of a new card.
type CardInput struct {
	IsGestante       bool     `json:"isGestante"`
	ChildrenNames    []string `json:"childrenNames"`
	ResponsibleNames []string `json:"responsibleNames"`
	AgeYears         int      `json:"ageYears"`
	AgeMonths        int      `json:"ageMonths"`
	Address          string   `json:"address"`
	ContactInfo      string   `json:"contactInfo"`
	CPF              string   `json:"cpf"`
}

// Normalize trims free-text fields and drops blank names.
func (in *CardInput) Normalize() {
	in.ChildrenNames = CleanNames(in.ChildrenNames)
	in.ResponsibleNames = CleanNames(in.ResponsibleNames)
	in.Address = strings.TrimSpace(in.Address)
	in.ContactInfo = strings.TrimSpace(in.ContactInfo)
	in.CPF = strings.TrimSpace(in.CPF)
}

// Validate checks value ranges. A card must name at least one child unless it
// tracks a pregnancy.
func (in CardInput) Validate() error {
	if !in.IsGestante && len(in.ChildrenNames) == 0 {
		return invalid("childrenNames", "at least one child is required unless isGestante is set")
	}
	if err := checkAge(in.AgeYears, in.AgeMonths); err != nil {
		return err
	}
	return checkCPF(in.CPF)
}

// CardPatch is a partial update restricted to the editable card fields.
// A nil field is left untouched.
type CardPatch struct {
	IsGestante       *bool     `json:"isGestante,omitempty"`
	ChildrenNames    *[]string `json:"childrenNames,omitempty"`
	ResponsibleNames *[]string `json:"responsibleNames,omitempty"`
	AgeYears         *int      `json:"ageYears,omitempty"`
	AgeMonths        *int      `json:"ageMonths,omitempty"`
	Address          *string   `json:"address,omitempty"`
	ContactInfo      *string   `json:"contactInfo,omitempty"`
	CPF              *string   `json:"cpf,omitempty"`
}

// serverManaged fields may appear in a patch (clients often echo a whole card)
// but are never taken from it.
var serverManaged = map[string]bool{"id": true, "createdAt": true, "updatedAt": true}

// ParseCardPatch decodes a JSON patch object field by field so that each
// malformed value is reported against its own field. Unknown fields are
// rejected; server-managed fields are ignored.
func ParseCardPatch(raw []byte) (CardPatch, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return CardPatch{}, nil
	}
	p, err := decodeCardFields(trimmed, "patch")
	if err != nil {
		return CardPatch{}, err
	}
	return p, p.Validate()
}

// ParseCardInput decodes a new card with the same per-field rules as
// ParseCardPatch. The body must be a JSON object.
func ParseCardInput(raw []byte) (CardInput, error) {
	p, err := decodeCardFields(bytes.TrimSpace(raw), "card")
	if err != nil {
		return CardInput{}, err
	}
	var in CardInput
	if p.IsGestante != nil {
		in.IsGestante = *p.IsGestante
	}
	if p.ChildrenNames != nil {
		in.ChildrenNames = *p.ChildrenNames
	}
	if p.ResponsibleNames != nil {
		in.ResponsibleNames = *p.ResponsibleNames
	}
	if p.AgeYears != nil {
		in.AgeYears = *p.AgeYears
	}
	if p.AgeMonths != nil {
		in.AgeMonths = *p.AgeMonths
	}
	if p.Address != nil {
		in.Address = *p.Address
	}
	if p.ContactInfo != nil {
		in.ContactInfo = *p.ContactInfo
	}
	if p.CPF != nil {
		in.CPF = *p.CPF
	}
	return in, nil
}

func decodeCardFields(raw []byte, what string) (CardPatch, error) {
	var p CardPatch
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil || fields == nil {
		return p, invalid("", what+" must be a JSON object")
	}
	for name, val := range fields {
		if serverManaged[name] {
			continue
		}
		var err error
		switch name {
		case "isGestante":
			p.IsGestante = new(bool)
			err = decodeField(name, val, p.IsGestante, "must be a boolean")
		case "childrenNames":
			p.ChildrenNames, err = decodeNames(name, val)
		case "responsibleNames":
			p.ResponsibleNames, err = decodeNames(name, val)
		case "ageYears":
			p.AgeYears = new(int)
			err = decodeField(name, val, p.AgeYears, "must be an integer")
		case "ageMonths":
			p.AgeMonths = new(int)
			err = decodeField(name, val, p.AgeMonths, "must be an integer")
		case "address":
			p.Address, err = decodeString(name, val)
		case "contactInfo":
			p.ContactInfo, err = decodeString(name, val)
		case "cpf":
			p.CPF, err = decodeString(name, val)
		default:
			err = invalid(name, "unknown field")
		}
		if err != nil {
			return CardPatch{}, err
		}
	}
	return p, nil
}

// Validate checks the value ranges of the fields present in p.
func (p CardPatch) Validate() error {
	if p.AgeYears != nil && *p.AgeYears < 0 {
		return invalid("ageYears", "must not be negative")
	}
	if p.AgeMonths != nil && (*p.AgeMonths < 0 || *p.AgeMonths > 11) {
		return invalid("ageMonths", "must be between 0 and 11")
	}
	if p.CPF != nil {
		return checkCPF(*p.CPF)
	}
	return nil
}

// Empty reports whether p changes nothing.
func (p CardPatch) Empty() bool {
	return p == CardPatch{}
}

// CleanNames trims every name and drops the blank ones. It never returns nil.
func CleanNames(names []string) []string {
	out := make([]string, 0, len(names))
	for _, n := range names {
		if n = strings.TrimSpace(n); n != "" {
			out = append(out, n)
		}
	}
	return out
}

func decodeField(name string, val json.RawMessage, dst interface{}, reason string) error {
	if err := json.Unmarshal(val, dst); err != nil {
		return invalid(name, reason)
	}
	return nil
}

func decodeNames(name string, val json.RawMessage) (*[]string, error) {
	var names []string
	if err := json.Unmarshal(val, &names); err != nil {
		return nil, invalid(name, "must be an array of strings")
	}
	names = CleanNames(names)
	return &names, nil
}

func decodeString(name string, val json.RawMessage) (*string, error) {
	var s string
	if err := json.Unmarshal(val, &s); err != nil {
		return nil, invalid(name, "must be a string")
	}
	s = strings.TrimSpace(s)
	return &s, nil
}

func checkAge(years, months int) error {
	if years < 0 {
		return invalid("ageYears", "must not be negative")
	}
	if months < 0 || months > 11 {
		return invalid("ageMonths", "must be between 0 and 11")
	}
	return nil
}

func checkCPF(cpf string) error {
	if cpf != "" && !validate.CPF(cpf) {
		return invalid("cpf", "check digits do not match")
	}
	return nil
}
