package models

import "time"

// Card is a single follow-up record: a pregnant woman (IsGestante) or one or
// more children, with the people responsible for them.
//
// By convention ChildrenNames is empty when IsGestante is set; the store does
// not enforce it.
type Card struct {
	ID               string    `json:"id"`
	IsGestante       bool      `json:"isGestante"`
	ChildrenNames    []string  `json:"childrenNames"`
	ResponsibleNames []string  `json:"responsibleNames"`
	AgeYears         int       `json:"ageYears"`
	AgeMonths        int       `json:"ageMonths"`
	Address          string    `json:"address"`
	ContactInfo      string    `json:"contactInfo"`
	CPF              string    `json:"cpf"`
	CreatedAt        time.Time `json:"createdAt"`
	UpdatedAt        time.Time `json:"updatedAt"`
}

// Clone returns a deep copy of c.
func (c Card) Clone() Card {
	c.ChildrenNames = append([]string{}, c.ChildrenNames...)
	c.ResponsibleNames = append([]string{}, c.ResponsibleNames...)
	return c
}

// Apply overwrites every field set in p. Replacement is shallow: a names
// slice in p replaces the stored slice wholesale.
func (c *Card) Apply(p CardPatch) {
	if p.IsGestante != nil {
		c.IsGestante = *p.IsGestante
	}
	if p.ChildrenNames != nil {
		c.ChildrenNames = append([]string{}, (*p.ChildrenNames)...)
	}
	if p.ResponsibleNames != nil {
		c.ResponsibleNames = append([]string{}, (*p.ResponsibleNames)...)
	}
	if p.AgeYears != nil {
		c.AgeYears = *p.AgeYears
	}
	if p.AgeMonths != nil {
		c.AgeMonths = *p.AgeMonths
	}
	if p.Address != nil {
		c.Address = *p.Address
	}
	if p.ContactInfo != nil {
		c.ContactInfo = *p.ContactInfo
	}
	if p.CPF != nil {
		c.CPF = *p.CPF
	}
}
