package handlers

import (
	"net/http"
	"os"
	"strings"
	"testing"

	"github.com/acompanha/acompanha/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type cardResp struct {
	Card  models.Card `json:"card"`
	Error string      `json:"error"`
}

type cardsResp struct {
	Cards []models.Card `json:"cards"`
}

const newCard = `{"isGestante":false,"childrenNames":[" Ana ",""],"responsibleNames":["Maria"],"ageYears":2,"ageMonths":3,"address":"Rua A, 10","contactInfo":"555-0100","cpf":"529.982.247-25"}`

func TestCards_CRUD(t *testing.T) {
	e := newTestEnv(t)
	s := e.login(t)

	w := e.do(http.MethodPost, "/api/cards", newCard, s, true)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var created cardResp
	decode(t, w, &created)
	c := created.Card
	assert.True(t, strings.HasPrefix(c.ID, "c_"))
	assert.Equal(t, []string{"Ana"}, c.ChildrenNames)
	assert.True(t, c.CreatedAt.Equal(c.UpdatedAt))

	w = e.do(http.MethodGet, "/api/cards", "", s, false)
	require.Equal(t, http.StatusOK, w.Code)
	var list cardsResp
	decode(t, w, &list)
	require.Len(t, list.Cards, 1)
	assert.Equal(t, c.ID, list.Cards[0].ID)

	w = e.do(http.MethodPut, "/api/cards/"+c.ID, `{"address":"Rua B, 20","updatedAt":"2000-01-01T00:00:00Z"}`, s, true)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var updated cardResp
	decode(t, w, &updated)
	assert.Equal(t, "Rua B, 20", updated.Card.Address)
	assert.Equal(t, c.ChildrenNames, updated.Card.ChildrenNames)
	assert.Equal(t, c.ContactInfo, updated.Card.ContactInfo)
	assert.True(t, updated.Card.CreatedAt.Equal(c.CreatedAt))
	assert.True(t, updated.Card.UpdatedAt.After(c.UpdatedAt))

	w = e.do(http.MethodDelete, "/api/cards/"+c.ID, "", s, true)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"ok":true}`, w.Body.String())

	w = e.do(http.MethodDelete, "/api/cards/"+c.ID, "", s, true)
	require.Equal(t, http.StatusNotFound, w.Code)

	w = e.do(http.MethodGet, "/api/cards", "", s, false)
	decode(t, w, &list)
	assert.Empty(t, list.Cards)
}

func TestCards_RequireSession(t *testing.T) {
	e := newTestEnv(t)
	assert.Equal(t, http.StatusUnauthorized, e.do(http.MethodGet, "/api/cards", "", nil, false).Code)
	assert.Equal(t, http.StatusUnauthorized, e.do(http.MethodPost, "/api/cards", newCard, nil, false).Code)
}

func TestCards_MutationsRequireCSRF(t *testing.T) {
	e := newTestEnv(t)
	s := e.login(t)
	before, err := os.ReadFile(e.store.Path())
	require.NoError(t, err)

	assert.Equal(t, http.StatusForbidden, e.do(http.MethodPost, "/api/cards", newCard, s, false).Code)

	forged := &session{cookies: s.cookies, csrf: "forged-token"}
	assert.Equal(t, http.StatusForbidden, e.do(http.MethodPost, "/api/cards", newCard, forged, true).Code)
	assert.Equal(t, http.StatusForbidden, e.do(http.MethodPut, "/api/cards/x", `{}`, forged, true).Code)
	assert.Equal(t, http.StatusForbidden, e.do(http.MethodDelete, "/api/cards/x", "", forged, true).Code)

	after, err := os.ReadFile(e.store.Path())
	require.NoError(t, err)
	assert.Equal(t, before, after)

	// reads never need the header
	assert.Equal(t, http.StatusOK, e.do(http.MethodGet, "/api/cards", "", s, false).Code)
}

func TestCards_ValidationErrors(t *testing.T) {
	e := newTestEnv(t)
	s := e.login(t)

	w := e.do(http.MethodPost, "/api/cards", `{"childrenNames":[]}`, s, true)
	require.Equal(t, http.StatusBadRequest, w.Code)

	w = e.do(http.MethodPost, "/api/cards", `{"isGestante":true,"cpf":"123.456.789-00"}`, s, true)
	require.Equal(t, http.StatusBadRequest, w.Code)
	var resp cardResp
	decode(t, w, &resp)
	assert.Contains(t, resp.Error, "cpf")

	w = e.do(http.MethodPost, "/api/cards", `{"isGestante":true}`, s, true)
	require.Equal(t, http.StatusCreated, w.Code)
	decode(t, w, &resp)

	for _, body := range []string{
		`{"childrenNames":"Ana"}`,
		`{"ageMonths":12}`,
		`{"ageYears":"two"}`,
		`{"owner":"someone"}`,
		`[1,2]`,
	} {
		w = e.do(http.MethodPut, "/api/cards/"+resp.Card.ID, body, s, true)
		assert.Equal(t, http.StatusBadRequest, w.Code, body)
	}
}

func TestCards_CreateRejectsMalformedFields(t *testing.T) {
	e := newTestEnv(t)
	s := e.login(t)

	tests := []struct{ body, want string }{
		{`{"isGestante":true,"owner":"x"}`, "invalid owner: unknown field"},
		{`{"isGestante":true,"ageYears":"two"}`, "invalid ageYears: must be an integer"},
		{`{"childrenNames":"Ana"}`, "invalid childrenNames: must be an array of strings"},
		{`{"isGestante":`, "invalid input: card must be a JSON object"},
	}
	for _, tt := range tests {
		w := e.do(http.MethodPost, "/api/cards", tt.body, s, true)
		require.Equal(t, http.StatusBadRequest, w.Code, tt.body)
		assert.JSONEq(t, `{"error":"`+tt.want+`"}`, w.Body.String(), tt.body)
	}

	list := e.do(http.MethodGet, "/api/cards", "", s, false)
	assert.JSONEq(t, `{"cards":[]}`, list.Body.String())
}

func TestCards_UpdateUnknownID(t *testing.T) {
	e := newTestEnv(t)
	s := e.login(t)
	w := e.do(http.MethodPut, "/api/cards/c_missing", `{"address":"x"}`, s, true)
	require.Equal(t, http.StatusNotFound, w.Code)
	assert.JSONEq(t, `{"error":"card not found"}`, w.Body.String())
}

func TestCards_BodyTooLarge(t *testing.T) {
	e := newTestEnv(t, withMaxBody(64))
	s := e.login(t)
	big := `{"isGestante":true,"address":"` + strings.Repeat("x", 200) + `"}`
	w := e.do(http.MethodPost, "/api/cards", big, s, true)
	require.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
}
