package store

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/ppiankov/endi/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestStore(t *testing.T, maxFacts int, backend Backend) *FactStore {
	t.Helper()
	s := New(Options{MaxFacts: maxFacts, Backend: backend, Logger: zap.NewNop()})
	t.Cleanup(func() { _ = s.Close() })
	return s
}

// failingBackend fails every operation
type failingBackend struct {
	saves int
}

func (f *failingBackend) Load() (Document, error) {
	return Document{}, errors.New("disk on fire")
}

func (f *failingBackend) Save(Document) error {
	f.saves++
	return errors.New("disk on fire")
}

func TestAddFact_Deduplicates(t *testing.T) {
	s := newTestStore(t, 10, nil)

	require.NoError(t, s.AddFact("кот", "это", "животное", ""))
	err := s.AddFact("кот", "это", "животное", "другой источник")
	assert.ErrorIs(t, err, ErrDuplicateFact)
	assert.Equal(t, 1, s.Len())

	// Comparison is case-sensitive
	require.NoError(t, s.AddFact("Кот", "это", "животное", ""))
	assert.Equal(t, 2, s.Len())
}

func TestAddFact_Capacity(t *testing.T) {
	s := newTestStore(t, 2, nil)

	require.NoError(t, s.AddFact("a", "b", "c", ""))
	require.NoError(t, s.AddFact("d", "e", "f", ""))

	assert.ErrorIs(t, s.AddFact("g", "h", "i", ""), ErrCapacityExceeded)
	// A duplicate at capacity reports capacity first
	assert.ErrorIs(t, s.AddFact("a", "b", "c", ""), ErrCapacityExceeded)
	assert.Equal(t, 2, s.Len())
}

func TestAddFact_AssignsIDAndTimestamp(t *testing.T) {
	s := newTestStore(t, 10, nil)

	require.NoError(t, s.AddFact("луна", "это", "спутник", "луна это спутник"))
	require.NoError(t, s.AddFact("солнце", "это", "звезда", ""))

	facts := s.Facts()
	require.Len(t, facts, 2)
	assert.NotEmpty(t, facts[0].ID)
	assert.NotEqual(t, facts[0].ID, facts[1].ID)
	assert.NotEmpty(t, facts[0].Timestamp)
	assert.Equal(t, "луна это спутник", facts[0].Source)
}

func TestAddFact_ConcurrentWritersRespectInvariants(t *testing.T) {
	const maxFacts = 50
	s := newTestStore(t, maxFacts, nil)

	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 20; i++ {
				_ = s.AddFact(fmt.Sprintf("s%d", i), "это", "o", "")
			}
		}()
	}
	wg.Wait()

	// 20 distinct triples, written by 8 goroutines each
	assert.Equal(t, 20, s.Len())
	assert.LessOrEqual(t, s.Len(), maxFacts)
}

func TestSearchByToken(t *testing.T) {
	s := newTestStore(t, 10, nil)
	require.NoError(t, s.AddFact("Кот", "это", "домашнее животное", ""))
	require.NoError(t, s.AddFact("собака", "это", "друг", ""))
	require.NoError(t, s.AddFact("животное", "имеет", "лапы", ""))

	assert.Equal(t, []string{"Кот — это — домашнее животное"}, s.SearchByToken("кот"))
	assert.Equal(t, []string{"Кот — это — домашнее животное"}, s.SearchByToken("  КОТ  "))
	assert.Equal(t,
		[]string{"Кот — это — домашнее животное", "животное — имеет — лапы"},
		s.SearchByToken("животн"))

	// Predicate is not searched
	assert.Empty(t, s.SearchByToken("имеет"))
	assert.Empty(t, s.SearchByToken("гравитация"))
	assert.Empty(t, s.SearchByToken("   "))
}

func TestFindBySubject(t *testing.T) {
	s := newTestStore(t, 10, nil)
	require.NoError(t, s.AddFact("Кот", "это", "животное", ""))
	require.NoError(t, s.AddFact("кот", "любит", "рыбу", ""))
	require.NoError(t, s.AddFact("котёнок", "это", "кот", ""))

	found := s.FindBySubject("КОТ")
	require.Len(t, found, 2)
	assert.Equal(t, "животное", found[0].Object)
	assert.Equal(t, "рыбу", found[1].Object)

	assert.Empty(t, s.FindBySubject("пёс"))
}

func TestKnowledge(t *testing.T) {
	s := newTestStore(t, 10, nil)

	s.AddKnowledge("Гравитация", "сила притяжения", model.KnowledgeConcept, []string{"физика"})
	s.AddKnowledge("Гравитация", "сила притяжения", model.KnowledgeConcept, []string{"физика", "наука"})
	s.AddKnowledge("Рецепт", "борщ", model.KnowledgeRule, nil)

	// No dedupe for knowledge entries
	assert.Len(t, s.Knowledge(), 3)
	assert.Len(t, s.FindKnowledgeByTag("физика"), 2)
	assert.Len(t, s.FindKnowledgeByTag("наука"), 1)
	assert.Empty(t, s.FindKnowledgeByTag("история"))

	stats := s.Stats()
	assert.Equal(t, Stats{Facts: 0, Knowledge: 3, MaxFacts: 10}, stats)
}

func TestExtractFactFromText(t *testing.T) {
	s := newTestStore(t, 10, nil)

	assert.True(t, s.ExtractFactFromText("кот это животное"))
	assert.Equal(t, []string{"кот — это — животное"}, s.SearchByToken("кот"))

	// Duplicate, question, single word and short input do not store anything
	assert.False(t, s.ExtractFactFromText("кот это животное"))
	assert.False(t, s.ExtractFactFromText("Что такое гравитация?"))
	assert.False(t, s.ExtractFactFromText("привет"))
	assert.Equal(t, 1, s.Len())

	facts := s.Facts()
	assert.Equal(t, "кот это животное", facts[0].Source)
}

func TestExtractFactFromText_FullStore(t *testing.T) {
	s := newTestStore(t, 1, nil)

	assert.True(t, s.ExtractFactFromText("кот это животное"))
	assert.False(t, s.ExtractFactFromText("луна это спутник"))
}

func TestUpdateFact(t *testing.T) {
	s := newTestStore(t, 10, nil)
	require.NoError(t, s.AddFact("кот", "это", "животное", "src"))
	require.NoError(t, s.AddFact("пёс", "это", "животное", ""))

	original := s.Facts()[0]
	require.NoError(t, s.UpdateFact(original.ID, "кот", "это", "хищник"))

	updated := s.Facts()[0]
	assert.Equal(t, original.ID, updated.ID)
	assert.Equal(t, original.Timestamp, updated.Timestamp)
	assert.Equal(t, "src", updated.Source)
	assert.Equal(t, "хищник", updated.Object)

	// Updating into an existing triple is a duplicate
	assert.ErrorIs(t, s.UpdateFact(original.ID, "пёс", "это", "животное"), ErrDuplicateFact)
	// Updating to the same triple is fine
	assert.NoError(t, s.UpdateFact(original.ID, "кот", "это", "хищник"))

	assert.ErrorIs(t, s.UpdateFact("missing", "a", "b", "c"), ErrFactNotFound)
}

func TestDeleteFact(t *testing.T) {
	s := newTestStore(t, 10, nil)
	require.NoError(t, s.AddFact("a", "b", "c", ""))
	require.NoError(t, s.AddFact("d", "e", "f", ""))

	id := s.Facts()[0].ID
	require.NoError(t, s.DeleteFact(id))
	assert.Equal(t, 1, s.Len())
	assert.Equal(t, "d", s.Facts()[0].Subject)

	assert.ErrorIs(t, s.DeleteFact(id), ErrFactNotFound)

	// Freed capacity and triple can be reused
	require.NoError(t, s.AddFact("a", "b", "c", ""))
}

func TestFactsReturnsCopy(t *testing.T) {
	s := newTestStore(t, 10, nil)
	require.NoError(t, s.AddFact("a", "b", "c", ""))

	facts := s.Facts()
	facts[0].Subject = "changed"

	assert.Equal(t, "a", s.Facts()[0].Subject)
}

func TestJSONFile_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "memory.json")

	s := newTestStore(t, 10, NewJSONFile(path))
	require.NoError(t, s.AddFact("кот", "это", "животное", "кот это животное"))
	s.AddKnowledge("Гравитация", "сила", model.KnowledgeDefinition, []string{"физика"})

	reloaded := newTestStore(t, 10, NewJSONFile(path))
	assert.Equal(t, s.Facts(), reloaded.Facts())
	assert.Equal(t, s.Knowledge(), reloaded.Knowledge())

	// Dedupe survives a reload
	assert.ErrorIs(t, reloaded.AddFact("кот", "это", "животное", ""), ErrDuplicateFact)
}

// staticBackend serves a fixed document
type staticBackend struct {
	doc Document
}

func (b *staticBackend) Load() (Document, error) { return b.doc, nil }
func (b *staticBackend) Save(Document) error     { return nil }

func TestLoad_RestoresInvariants(t *testing.T) {
	backend := &staticBackend{doc: Document{
		Facts: []model.Fact{
			model.NewFact("a", "b", "c", ""),
			model.NewFact("a", "b", "c", "again"),
			model.NewFact("d", "e", "f", ""),
			model.NewFact("g", "h", "i", ""),
		},
		Entries: []model.KnowledgeEntry{
			{ID: "1", Title: "Луна", Type: "Concept"},
			{ID: "2", Title: "Марс", Type: "planet"},
		},
	}}

	s := newTestStore(t, 2, backend)

	var got [][3]string
	for _, f := range s.Facts() {
		got = append(got, [3]string{f.Subject, f.Predicate, f.Object})
	}
	assert.Equal(t, [][3]string{{"a", "b", "c"}, {"d", "e", "f"}}, got)
	assert.Equal(t, "", s.Facts()[0].Source, "the earliest duplicate is kept")
	assert.ErrorIs(t, s.AddFact("x", "y", "z", ""), ErrCapacityExceeded)

	knowledge := s.Knowledge()
	require.Len(t, knowledge, 2)
	assert.Equal(t, model.KnowledgeConcept, knowledge[0].Type)
	assert.Equal(t, model.KnowledgeType("planet"), knowledge[1].Type)
}

func TestJSONFile_MissingFileIsEmpty(t *testing.T) {
	doc, err := NewJSONFile(filepath.Join(t.TempDir(), "absent.json")).Load()
	require.NoError(t, err)
	assert.Empty(t, doc.Facts)
	assert.Empty(t, doc.Entries)
}

func TestJSONFile_DocumentShape(t *testing.T) {
	path := filepath.Join(t.TempDir(), "memory.json")
	require.NoError(t, NewJSONFile(path).Save(Document{}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.JSONEq(t, `{"facts": [], "entries": []}`, string(data))
}

func TestLoadFailure_StartsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "memory.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0644))

	s := newTestStore(t, 10, NewJSONFile(path))
	assert.Equal(t, 0, s.Len())

	// The store stays usable and overwrites the broken file
	require.NoError(t, s.AddFact("a", "b", "c", ""))
	reloaded := newTestStore(t, 10, NewJSONFile(path))
	assert.Equal(t, 1, reloaded.Len())
}

func TestSaveFailure_AddStillSucceeds(t *testing.T) {
	backend := &failingBackend{}
	s := newTestStore(t, 10, backend)

	require.NoError(t, s.AddFact("a", "b", "c", ""))
	s.AddKnowledge("t", "c", model.KnowledgeFact, nil)

	assert.Equal(t, 1, s.Len())
	assert.Equal(t, 2, backend.saves)
}

func TestSQLite_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "memory.db")

	db, err := OpenSQLite(path)
	require.NoError(t, err)
	s := New(Options{MaxFacts: 10, Backend: db, Logger: zap.NewNop()})

	require.NoError(t, s.AddFact("кот", "это", "животное", "кот это животное"))
	require.NoError(t, s.AddFact("луна", "это", "спутник", ""))
	s.AddKnowledge("Гравитация", "сила", model.KnowledgeConcept, []string{"физика", "наука"})
	s.AddKnowledge("Пусто", "без тегов", model.KnowledgeEvent, nil)
	require.NoError(t, s.DeleteFact(s.Facts()[1].ID))
	require.NoError(t, s.Close())

	db2, err := OpenSQLite(path)
	require.NoError(t, err)
	reloaded := newTestStore(t, 10, db2)

	assert.Equal(t, s.Facts(), reloaded.Facts())
	require.Len(t, reloaded.Knowledge(), 2)
	assert.Equal(t, []string{"физика", "наука"}, reloaded.Knowledge()[0].Tags)
	assert.Equal(t, model.KnowledgeConcept, reloaded.Knowledge()[0].Type)
	assert.Empty(t, reloaded.Knowledge()[1].Tags)
}

func TestSQLite_InMemory(t *testing.T) {
	db, err := OpenSQLite(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	doc := Document{Facts: []model.Fact{model.NewFact("a", "b", "c", "")}}
	require.NoError(t, db.Save(doc))
	require.NoError(t, db.Save(doc))

	loaded, err := db.Load()
	require.NoError(t, err)
	assert.Equal(t, doc.Facts, loaded.Facts)
}

func TestSQLite_OpenError(t *testing.T) {
	orig := openDB
	t.Cleanup(func() { openDB = orig })

	openDB = func(driverName, dataSourceName string) (*sql.DB, error) {
		return nil, errors.New("no driver")
	}

	_, err := OpenSQLite(":memory:")
	assert.ErrorContains(t, err, "no driver")
}

func TestOpenBackend(t *testing.T) {
	cfg := model.DefaultConfig()
	cfg.Paths.MemoryFile = filepath.Join(t.TempDir(), "memory.json")

	backend, err := OpenBackend(cfg)
	require.NoError(t, err)
	assert.IsType(t, &JSONFile{}, backend)

	cfg.Storage.Driver = DriverSQLite
	cfg.Storage.SQLitePath = filepath.Join(t.TempDir(), "memory.db")
	backend, err = OpenBackend(cfg)
	require.NoError(t, err)
	assert.IsType(t, &SQLite{}, backend)
	_ = backend.(*SQLite).Close()

	cfg.Storage.Driver = "postgres"
	_, err = OpenBackend(cfg)
	assert.Error(t, err)
}
