package repository

import (
	"context"
	"errors"
	"time"

	"github.com/acompanha/acompanha/internal/document"
	"github.com/acompanha/acompanha/internal/models"
)

var (
	ErrNotFound    = errors.New("card not found")
	ErrDuplicateID = errors.New("card id already exists")
)

// DocumentStore is the subset of *document.Store the repository needs.
type DocumentStore interface {
	Read() (*document.Document, error)
	Update(fn document.Mutator) (*document.Document, error)
}

// Repository implements typed user and card operations on top of the
// document store. Each mutating call is exactly one store Update, so it is
// atomic and ordered with respect to every other call.
type Repository struct {
	store DocumentStore
	now   func() time.Time
}

// Option configures a Repository.
type Option func(*Repository)

// WithClock overrides the time source used for updatedAt.
func WithClock(now func() time.Time) Option {
	return func(r *Repository) { r.now = now }
}

func New(store DocumentStore, opts ...Option) *Repository {
	r := &Repository{store: store, now: func() time.Time { return time.Now().UTC() }}
	for _, o := range opts {
		o(r)
	}
	return r
}

// FindUserByEmail returns the user with exactly this email, or nil when none exists.
func (r *Repository) FindUserByEmail(ctx context.Context, email string) (*models.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	doc, err := r.store.Read()
	if err != nil {
		return nil, err
	}
	i := indexBy(doc.Users, func(u models.User) bool { return u.Email == email })
	if i < 0 {
		return nil, nil
	}
	u := doc.Users[i]
	return &u, nil
}

// UpsertUser replaces the user with the same email in place, or appends it.
func (r *Repository) UpsertUser(ctx context.Context, u models.User) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := r.store.Update(func(doc *document.Document) error {
		doc.Users = upsertBy(doc.Users, u, func(x models.User) string { return x.Email })
		return nil
	})
	return err
}

var errUnchanged = errors.New("unchanged")

// UpdateUser looks up the user by email and stores what fn returns within a
// single store Update, so nothing can change the user in between. fn gets
// nil when no user has that email; returning nil from fn leaves the document
// untouched and UpdateUser returns nil.
func (r *Repository) UpdateUser(ctx context.Context, email string, fn func(cur *models.User) (*models.User, error)) (*models.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var stored *models.User
	_, err := r.store.Update(func(doc *document.Document) error {
		var cur *models.User
		if i := indexBy(doc.Users, func(u models.User) bool { return u.Email == email }); i >= 0 {
			u := doc.Users[i]
			cur = &u
		}
		next, err := fn(cur)
		if err != nil {
			return err
		}
		if next == nil {
			return errUnchanged
		}
		if next.Email != email {
			return &models.ValidationError{Field: "email", Reason: "cannot change during update"}
		}
		doc.Users = upsertBy(doc.Users, *next, func(x models.User) string { return x.Email })
		stored = next
		return nil
	})
	if errors.Is(err, errUnchanged) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return stored, nil
}

// ListCards returns the cards in stored order.
func (r *Repository) ListCards(ctx context.Context) ([]models.Card, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	doc, err := r.store.Read()
	if err != nil {
		return nil, err
	}
	return doc.Cards, nil
}

// CreateCard appends c. The caller assigns ID, CreatedAt and UpdatedAt.
func (r *Repository) CreateCard(ctx context.Context, c models.Card) (models.Card, error) {
	if err := ctx.Err(); err != nil {
		return models.Card{}, err
	}
	switch {
	case c.ID == "":
		return models.Card{}, &models.ValidationError{Field: "id", Reason: "must be assigned before create"}
	case c.CreatedAt.IsZero() || c.UpdatedAt.IsZero():
		return models.Card{}, &models.ValidationError{Field: "createdAt", Reason: "timestamps must be assigned before create"}
	case c.UpdatedAt.Before(c.CreatedAt):
		return models.Card{}, &models.ValidationError{Field: "updatedAt", Reason: "must not precede createdAt"}
	}
	c = normalizeCard(c)
	_, err := r.store.Update(func(doc *document.Document) error {
		if indexBy(doc.Cards, byID(c.ID)) >= 0 {
			return ErrDuplicateID
		}
		doc.Cards = append(doc.Cards, c)
		return nil
	})
	if err != nil {
		return models.Card{}, err
	}
	return c, nil
}

// UpdateCard applies patch to the card with the given id and stamps
// updatedAt. The patch is validated before the store is touched.
func (r *Repository) UpdateCard(ctx context.Context, id string, patch models.CardPatch) (models.Card, error) {
	if err := ctx.Err(); err != nil {
		return models.Card{}, err
	}
	if err := patch.Validate(); err != nil {
		return models.Card{}, err
	}
	var updated models.Card
	_, err := r.store.Update(func(doc *document.Document) error {
		i := indexBy(doc.Cards, byID(id))
		if i < 0 {
			return ErrNotFound
		}
		c := doc.Cards[i]
		c.Apply(patch)
		c.UpdatedAt = r.stamp(c)
		c = normalizeCard(c)
		doc.Cards[i] = c
		updated = c
		return nil
	})
	if err != nil {
		return models.Card{}, err
	}
	return updated, nil
}

// DeleteCard removes the card with the given id.
func (r *Repository) DeleteCard(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := r.store.Update(func(doc *document.Document) error {
		i := indexBy(doc.Cards, byID(id))
		if i < 0 {
			return ErrNotFound
		}
		doc.Cards = append(doc.Cards[:i], doc.Cards[i+1:]...)
		return nil
	})
	return err
}

// stamp returns the new updatedAt: now, or 1ms past the previous value when
// the clock has not moved beyond it.
func (r *Repository) stamp(c models.Card) time.Time {
	now := r.now()
	prev := c.UpdatedAt
	if prev.Before(c.CreatedAt) {
		prev = c.CreatedAt
	}
	if !now.After(prev) {
		now = prev.Add(time.Millisecond)
	}
	return now
}

func byID(id string) func(models.Card) bool {
	return func(c models.Card) bool { return c.ID == id }
}

func normalizeCard(c models.Card) models.Card {
	if c.ChildrenNames == nil {
		c.ChildrenNames = []string{}
	}
	if c.ResponsibleNames == nil {
		c.ResponsibleNames = []string{}
	}
	return c
}
