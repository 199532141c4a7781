package importer

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/port4k/port4k/internal/domain"
	"github.com/port4k/port4k/internal/store/memstore"
)

func writeRoomFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func TestImportAtomicityRollsBackWholeBatch(t *testing.T) {
	base := t.TempDir()
	sub := "rooms"
	dir := filepath.Join(base, sub)
	require.NoError(t, os.Mkdir(dir, 0o755))

	writeRoomFile(t, dir, "a.yaml", "id: a\nname: Room A\ndescription: first room\n")
	writeRoomFile(t, dir, "b.yaml", "id: b\nname: Room B\ndescription: second room\n")
	writeRoomFile(t, dir, "c.yaml", "id: c\nname: Room C\ndescription: third room\n")
	writeRoomFile(t, dir, "d.yaml", "id: d\nname: Room D\ndescription: 'references {obj:ghost}'\n")

	s := memstore.New()
	bp, err := s.CreateBlueprint(context.Background(), domain.Blueprint{
		ID: domain.NewBlueprintID(), Key: "test-bp", Title: "Test",
	})
	require.NoError(t, err)

	_, err = Import(context.Background(), s, bp.ID, base, sub)
	require.Error(t, err)

	for _, key := range []domain.RoomKey{"a", "b", "c", "d"} {
		_, err := s.GetRoom(context.Background(), bp.ID, key)
		require.Error(t, err, "room %q must not exist after a rolled-back import", key)
	}
}

func TestImportSucceedsAndIsIdempotent(t *testing.T) {
	base := t.TempDir()
	sub := "rooms"
	dir := filepath.Join(base, sub)
	require.NoError(t, os.Mkdir(dir, 0o755))
	writeRoomFile(t, dir, "a.yaml", "id: a\nname: Room A\ndescription: first room\n")

	s := memstore.New()
	bp, err := s.CreateBlueprint(context.Background(), domain.Blueprint{
		ID: domain.NewBlueprintID(), Key: "test-bp2", Title: "Test",
	})
	require.NoError(t, err)

	res1, err := Import(context.Background(), s, bp.ID, base, sub)
	require.NoError(t, err)
	require.Equal(t, 1, res1.RoomsImported)

	res2, err := Import(context.Background(), s, bp.ID, base, sub)
	require.NoError(t, err)
	require.Equal(t, res1, res2)

	room, err := s.GetRoom(context.Background(), bp.ID, "a")
	require.NoError(t, err)
	require.Equal(t, "Room A", room.Title)
}

func TestDiscoverFilesRejectsPathWithSeparator(t *testing.T) {
	base := t.TempDir()
	_, err := DiscoverFiles(base, "sub/dir")
	require.ErrorIs(t, err, domain.ErrImportPathEscape)
}

func TestDiscoverFilesRejectsDotDot(t *testing.T) {
	base := t.TempDir()
	_, err := DiscoverFiles(base, "..")
	require.ErrorIs(t, err, domain.ErrImportPathEscape)
}
