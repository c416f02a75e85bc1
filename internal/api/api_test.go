package api

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"modelc/internal/dsl"
)

var libraryModel = map[string]string{
	"Author.entity": `Author {
  id    : int    { @Id } ;
  name  : string { @NotBlank @SizeMax(80) } ;
  books : Book[] ;
}`,
	"Book.entity": `Book { @DbTable("BOOKS") } {
  id       : int    { @Id } ;
  title    : string { @NotNull } ;
  authorId : int    { @FK(Author) #OnDelete(cascade) } ;
  author   : Author ;
}`,
	"Shelf.entity": `Shelf {
  code : string { @Id } ;
  room : string { @Id } ;
}`,
	"Placement.entity": `Placement {
  id        : int    { @Id } ;
  shelfCode : string { @FK(FK_PLACE_SHELF, Shelf.code) } ;
  shelfRoom : string { @FK(FK_PLACE_SHELF, Shelf.room) } ;
  shelf     : Shelf ;
}`,
}

func writeModel(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, src := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(src), 0o644))
	}
	return dir
}

func discard() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func testLoader(dir string) (*dsl.Model, error) {
	return dsl.LoadModel(dir, dsl.Options{Name: "library", Logger: discard()})
}

func newTestServer(t *testing.T, files map[string]string) (*Store, *gin.Engine) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	store := NewStore(writeModel(t, files), testLoader, discard())
	return store, NewRouter(store, discard())
}

func do(t *testing.T, r http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, rd)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func TestAPI_NotLoaded(t *testing.T) {
	_, r := newTestServer(t, libraryModel)
	for _, path := range []string{"/api/meta", "/api/meta/Book", "/api/fks", "/api/lint", "/api/ddl"} {
		w := do(t, r, http.MethodGet, path, "")
		assert.Equal(t, http.StatusServiceUnavailable, w.Code, path)
	}
	w := do(t, r, http.MethodGet, "/api/report", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"current":null,"last":null}`, w.Body.String())
}

func TestAPI_MetaList(t *testing.T) {
	store, r := newTestServer(t, libraryModel)
	require.True(t, store.Reload("").OK)

	w := do(t, r, http.MethodGet, "/api/meta", "")
	require.Equal(t, http.StatusOK, w.Code)
	list := decode[metaList](t, w)
	assert.Equal(t, "library", list.Model)
	assert.Equal(t, 4, list.Total)
	require.Len(t, list.Items, 4)
	assert.Equal(t, metaEntityListItem{Entity: "Book", File: "Book.entity", Fields: 4, Links: 1, ForeignKeys: 1}, list.Items[1])

	w = do(t, r, http.MethodGet, "/api/meta?sort=-name&limit=2&offset=1", "")
	list = decode[metaList](t, w)
	assert.Equal(t, 4, list.Total)
	assert.Equal(t, []string{"Placement", "Book"}, itemNames(list))

	w = do(t, r, http.MethodGet, "/api/meta?annotation=DbTable", "")
	assert.Equal(t, []string{"Book"}, itemNames(decode[metaList](t, w)))

	w = do(t, r, http.MethodGet, "/api/meta?q=SHEL", "")
	assert.Equal(t, []string{"Shelf"}, itemNames(decode[metaList](t, w)))
}

func itemNames(l metaList) []string {
	out := []string{}
	for _, it := range l.Items {
		out = append(out, it.Entity)
	}
	return out
}

func TestAPI_MetaEntity(t *testing.T) {
	store, r := newTestServer(t, libraryModel)
	require.True(t, store.Reload("").OK)

	w := do(t, r, http.MethodGet, "/api/meta/placement", "")
	require.Equal(t, http.StatusOK, w.Code)
	ent := decode[metaEntity](t, w)
	assert.Equal(t, "Placement", ent.Entity)
	require.Len(t, ent.Fields, 4)

	code := ent.Fields[1]
	assert.Equal(t, "shelfCode", code.Name)
	assert.Equal(t, "string", code.Type)
	assert.Equal(t, []metaFKPart{{Name: "FK_PLACE_SHELF", Entity: "Shelf", Attribute: "code"}}, code.FK)
	assert.Equal(t, "Shelf", code.ReferencedEntity)

	shelf := ent.Fields[3]
	require.NotNil(t, shelf.Link)
	assert.Equal(t, metaLink{Target: "Shelf", Cardinality: "one", JoinFK: "FK_PLACE_SHELF",
		JoinAttributes: []string{"shelfCode", "shelfRoom"}}, *shelf.Link)

	require.Len(t, ent.ForeignKeys, 1)
	assert.Equal(t, []string{"code", "room"}, ent.ForeignKeys[0].To)

	w = do(t, r, http.MethodGet, "/api/meta/Book", "")
	book := decode[metaEntity](t, w)
	assert.Equal(t, []string{`@DbTable("BOOKS")`}, book.Annotations)
	assert.Equal(t, []string{"@FK(Author)"}, book.Fields[2].Annotations)
	assert.Len(t, book.Fields[2].Tags, 1)
	assert.True(t, book.Fields[0].ID)

	w = do(t, r, http.MethodGet, "/api/meta/Nope", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAPI_ForeignKeys(t *testing.T) {
	store, r := newTestServer(t, libraryModel)
	require.True(t, store.Reload("").OK)

	w := do(t, r, http.MethodGet, "/api/fks", "")
	require.Equal(t, http.StatusOK, w.Code)
	fks := decode[[]metaForeignKey](t, w)
	require.Len(t, fks, 2)

	w = do(t, r, http.MethodGet, "/api/fks?entity=book", "")
	fks = decode[[]metaForeignKey](t, w)
	require.Len(t, fks, 1)
	assert.Equal(t, metaForeignKey{Name: "FK_Book_Author", Origin: "Book", Referenced: "Author",
		From: []string{"authorId"}, To: []string{"id"}}, fks[0])

	w = do(t, r, http.MethodGet, "/api/fks?entity=Nope", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAPI_DDL(t *testing.T) {
	store, r := newTestServer(t, libraryModel)
	require.True(t, store.Reload("").OK)

	w := do(t, r, http.MethodGet, "/api/ddl?schema=lib", "")
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, `create schema if not exists "lib";`)
	assert.Contains(t, body, `create table if not exists "lib"."books" (`)
	assert.Contains(t, body, `alter table "lib"."books" add constraint "fk_book_author" foreign key ("authorid") references "lib"."authors"("id") on delete CASCADE;`)
}

func TestAPI_AdminReload(t *testing.T) {
	store, r := newTestServer(t, libraryModel)

	w := do(t, r, http.MethodPost, "/api/admin/reload", "{}")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	first := store.Current()
	require.NotNil(t, first)
	assert.Equal(t, 4, first.Entities)

	// сломанная модель: текущая остаётся прежней
	broken := writeModel(t, map[string]string{"Bad.entity": "Bad {\n  a : strng ;\n}"})
	w = do(t, r, http.MethodPost, "/api/admin/reload", `{"model_dir":"`+broken+`"}`)
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)
	resp := decode[struct {
		Report dsl.Report `json:"report"`
	}](t, w)
	require.Len(t, resp.Report.Entities, 1)
	assert.Equal(t, "Bad", resp.Report.Entities[0].Entity)
	assert.Same(t, first, store.Current())
	assert.False(t, store.Last().OK)
	assert.NotEqual(t, first.ID, store.Last().ID)

	w = do(t, r, http.MethodGet, "/api/meta/Book", "")
	assert.Equal(t, http.StatusOK, w.Code)

	w = do(t, r, http.MethodPost, "/api/admin/reload", `{"model_dir":`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	missing := filepath.Join(t.TempDir(), "absent")
	w = do(t, r, http.MethodPost, "/api/admin/reload", `{"model_dir":"`+missing+`"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Same(t, first, store.Current())
}

func TestAPI_AdminReload_Lint(t *testing.T) {
	store, r := newTestServer(t, libraryModel)
	require.True(t, store.Reload("").OK)
	first := store.Current()

	conflict := writeModel(t, map[string]string{
		"A.entity": `A {
  id : int { @Id } ;
}`,
		"B.entity": `B {
  id  : int { @Id } ;
  aId : int { @NotNull @FK(A) #OnDelete(set_null) } ;
}`,
	})
	w := do(t, r, http.MethodPost, "/api/admin/reload", `{"model_dir":"`+conflict+`"}`)
	require.Equal(t, http.StatusBadRequest, w.Code)
	resp := decode[struct {
		Issues []SchemaIssue `json:"issues"`
	}](t, w)
	require.Len(t, resp.Issues, 1)
	assert.Equal(t, "on_delete_set_null_not_null", resp.Issues[0].Code)
	assert.Same(t, first, store.Current())

	// без @Id — только предупреждение: strict блокирует, обычный режим нет
	noID := writeModel(t, map[string]string{"Log.entity": "Log {\n  msg : string ;\n}"})
	w = do(t, r, http.MethodPost, "/api/admin/reload", `{"model_dir":"`+noID+`","strict":true}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Same(t, first, store.Current())

	w = do(t, r, http.MethodPost, "/api/admin/reload", `{"model_dir":"`+noID+`"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, noID, store.Current().Dir)

	// без model_dir — каталог последней успешной сборки
	w = do(t, r, http.MethodPost, "/api/admin/reload", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, noID, store.Current().Dir)
}

func TestAPI_Report(t *testing.T) {
	store, r := newTestServer(t, libraryModel)
	b := store.Reload("")
	require.True(t, b.OK)

	w := do(t, r, http.MethodGet, "/api/report", "")
	require.Equal(t, http.StatusOK, w.Code)
	resp := decode[struct {
		Current *Build `json:"current"`
		Last    *Build `json:"last"`
	}](t, w)
	require.NotNil(t, resp.Current)
	assert.Equal(t, b.ID, resp.Current.ID)
	assert.Equal(t, b.ID, resp.Last.ID)
	assert.Equal(t, 4, resp.Current.Entities)
}
