package document

import "github.com/acompanha/acompanha/internal/models"

// Document is the whole persisted state: every user and every card.
type Document struct {
	Users []models.User `json:"users"`
	Cards []models.Card `json:"cards"`
}

// Empty returns the document written on first run.
func Empty() *Document {
	return &Document{Users: []models.User{}, Cards: []models.Card{}}
}

// normalize replaces nil collections so the file always carries both arrays.
func (d *Document) normalize() {
	if d.Users == nil {
		d.Users = []models.User{}
	}
	if d.Cards == nil {
		d.Cards = []models.Card{}
	}
}
