package session

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ternarybob/abacus/pkg/calc"
)

func TestMemorySession_Creation(t *testing.T) {
	session := NewMemorySession("test-session")

	assert.Equal(t, "test-session", session.ID())
	assert.Equal(t, calc.Initial(), session.State())
}

func TestMemorySession_Press(t *testing.T) {
	session := NewMemorySession("test")

	state, err := session.Press(calc.Digit(6), calc.Multiply, calc.Digit(7), calc.Equals)
	require.NoError(t, err)

	assert.Equal(t, "42", calc.Display(state))
	assert.Equal(t, state, session.State())
}

func TestMemorySession_Reset(t *testing.T) {
	session := NewMemorySession("test")
	session.Press(calc.Digit(9), calc.Add)

	state, err := session.Reset()
	require.NoError(t, err)

	assert.Equal(t, calc.Initial(), state)
	assert.Equal(t, calc.Initial(), session.State())
}

func TestMemorySession_ConcurrentPressesAreSerialized(t *testing.T) {
	session := NewMemorySession("test")
	session.Press(calc.Digit(0), calc.Add)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			// Each press is a complete "+1" step
			session.Press(calc.Digit(1), calc.Add)
		}()
	}
	wg.Wait()

	assert.Equal(t, "50", calc.Display(session.State()))
}

func TestFileSession_SaveAndLoad(t *testing.T) {
	tmpDir := t.TempDir()

	session, err := NewFileSession("test-file-session", tmpDir)
	require.NoError(t, err)

	_, err = session.Press(calc.Digit(1), calc.Point, calc.Digit(5), calc.Add)
	require.NoError(t, err)

	sessionPath := filepath.Join(tmpDir, "test-file-session.json")
	assert.FileExists(t, sessionPath)

	loaded, err := NewFileSession("test-file-session", tmpDir)
	require.NoError(t, err)

	assert.Equal(t, session.State(), loaded.State())
	assert.Equal(t, "1.5", loaded.State().Accumulator)
	assert.Equal(t, calc.OpAdd, loaded.State().Pending)
}

func TestFileSession_ResetIsSaved(t *testing.T) {
	tmpDir := t.TempDir()

	session, err := NewFileSession("reset", tmpDir)
	require.NoError(t, err)
	session.Press(calc.Digit(3), calc.Divide)
	session.Reset()

	loaded, err := NewFileSession("reset", tmpDir)
	require.NoError(t, err)
	assert.Equal(t, calc.Initial(), loaded.State())
}

func TestFileSession_LoadNonexistent(t *testing.T) {
	tmpDir := t.TempDir()

	session, err := NewFileSession("new-session", tmpDir)
	require.NoError(t, err)
	assert.Equal(t, calc.Initial(), session.State())
}

func TestFileSession_CorruptFile(t *testing.T) {
	tmpDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, "bad.json"), []byte("{not json"), 0644))

	_, err := NewFileSession("bad", tmpDir)
	assert.Error(t, err)
}

func TestStore_CreateGetList(t *testing.T) {
	store, err := NewStore("", 0)
	require.NoError(t, err)

	s1, err := store.Create()
	require.NoError(t, err)
	s2, err := store.Create()
	require.NoError(t, err)
	assert.NotEqual(t, s1.ID(), s2.ID())

	got, err := store.Get(s1.ID())
	require.NoError(t, err)
	assert.Same(t, s1, got)

	assert.Len(t, store.List(), 2)
	assert.Equal(t, 2, store.Len())
}

func TestStore_SessionsAreIndependent(t *testing.T) {
	store, err := NewStore("", 0)
	require.NoError(t, err)

	a, err := store.Create()
	require.NoError(t, err)
	b, err := store.Create()
	require.NoError(t, err)

	a.Press(calc.Digit(4))
	b.Press(calc.Digit(7))

	assert.Equal(t, "4", calc.Display(a.State()))
	assert.Equal(t, "7", calc.Display(b.State()))
}

func TestStore_GetUnknown(t *testing.T) {
	store, err := NewStore("", 0)
	require.NoError(t, err)

	_, err = store.Get("missing")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, store.Delete("missing"), ErrNotFound)
}

func TestStore_Capacity(t *testing.T) {
	store, err := NewStore("", 1)
	require.NoError(t, err)

	s, err := store.Create()
	require.NoError(t, err)

	_, err = store.Create()
	assert.ErrorIs(t, err, ErrStoreFull)

	require.NoError(t, store.Delete(s.ID()))
	_, err = store.Create()
	assert.NoError(t, err)
}

func TestStore_FileBacked(t *testing.T) {
	tmpDir := t.TempDir()

	store, err := NewStore(tmpDir, 0)
	require.NoError(t, err)

	s, err := store.Create()
	require.NoError(t, err)
	s.Press(calc.Digit(8), calc.Subtract, calc.Digit(3), calc.Equals)
	path := filepath.Join(tmpDir, s.ID()+".json")
	assert.FileExists(t, path)

	// A new store over the same directory sees the saved session
	reopened, err := NewStore(tmpDir, 0)
	require.NoError(t, err)
	n, err := reopened.LoadAll()
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	restored, err := reopened.Get(s.ID())
	require.NoError(t, err)
	assert.Equal(t, "5", calc.Display(restored.State()))

	require.NoError(t, reopened.SaveAll())
	require.NoError(t, reopened.Delete(s.ID()))
	assert.NoFileExists(t, path)
}

func TestFileSession_PressReportsSaveFailure(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "sessions")

	session, err := NewFileSession("unwritable", dir)
	require.NoError(t, err)

	// Replace the directory with a plain file so writes fail for any user
	require.NoError(t, os.RemoveAll(dir))
	require.NoError(t, os.WriteFile(dir, []byte("x"), 0644))

	state, err := session.Press(calc.Digit(4))
	assert.Error(t, err)
	assert.Equal(t, "4", state.Operand, "state is applied in memory")
	assert.Equal(t, "4", session.State().Operand)

	_, err = session.Reset()
	assert.Error(t, err)
}

func TestMemorySession_UpdatedAt(t *testing.T) {
	session := NewMemorySession("t")
	before := session.UpdatedAt()

	time.Sleep(time.Millisecond)
	session.Press(calc.Digit(1))

	assert.True(t, session.UpdatedAt().After(before))
}

func TestStore_IdleSessionsExpire(t *testing.T) {
	store, err := NewStore("", 1, WithIdleTTL(time.Minute))
	require.NoError(t, err)

	clock := time.Now()
	store.now = func() time.Time { return clock }

	old, err := store.Create()
	require.NoError(t, err)

	_, err = store.Create()
	assert.ErrorIs(t, err, ErrStoreFull, "fresh sessions are not evicted")

	clock = clock.Add(2 * time.Minute)

	_, err = store.Get(old.ID())
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = store.Create()
	require.NoError(t, err, "capacity is reclaimed from idle sessions")
	assert.Equal(t, 1, store.Len())
}

func TestStore_Prune(t *testing.T) {
	tmpDir := t.TempDir()
	store, err := NewStore(tmpDir, 0, WithIdleTTL(time.Minute))
	require.NoError(t, err)

	idle, err := store.Create()
	require.NoError(t, err)
	active, err := store.Create()
	require.NoError(t, err)

	fs := idle.(*FileSession)
	fs.mu.Lock()
	fs.updatedAt = time.Now().Add(-time.Hour)
	fs.mu.Unlock()

	assert.Equal(t, 1, store.Prune())
	assert.Equal(t, []string{active.ID()}, store.List())
	assert.NoFileExists(t, filepath.Join(tmpDir, idle.ID()+".json"))

	store.idleTTL = 0
	assert.Zero(t, store.Prune())
}

func TestStore_LoadAllRespectsCapacity(t *testing.T) {
	tmpDir := t.TempDir()

	writer, err := NewStore(tmpDir, 0)
	require.NoError(t, err)
	var newest Session
	for i := 0; i < 3; i++ {
		s, err := writer.Create()
		require.NoError(t, err)
		time.Sleep(2 * time.Millisecond)
		_, err = s.Press(calc.Digit(i + 1))
		require.NoError(t, err)
		newest = s
	}

	reader, err := NewStore(tmpDir, 2)
	require.NoError(t, err)
	n, err := reader.LoadAll()
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, 2, reader.Len())

	_, err = reader.Get(newest.ID())
	assert.NoError(t, err, "most recently used sessions are kept")

	entries, err := os.ReadDir(tmpDir)
	require.NoError(t, err)
	assert.Len(t, entries, 3, "sessions over capacity stay on disk")
}
