// Command import-yaml runs the authoring import pipeline of spec.md §4.4
// against a directory of room YAML files, creating the target blueprint
// if it doesn't already exist.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/port4k/port4k/internal/domain"
	"github.com/port4k/port4k/internal/importer"
	"github.com/port4k/port4k/internal/store"
	"github.com/port4k/port4k/internal/store/pgstore"
)

var (
	flagDatabaseURL string
	flagBPID        string
	flagBPKey       string
	flagOwner       string
	flagSubdir      string
	flagEntryRoom   string
)

func main() {
	root := &cobra.Command{
		Use:   "import-yaml",
		Short: "Import a blueprint's rooms from a directory of YAML files",
		RunE:  run,
	}
	root.Flags().StringVar(&flagDatabaseURL, "database-url", "", "PostgreSQL connection string (defaults to $DATABASE_URL)")
	root.Flags().StringVar(&flagBPID, "bp-id", "", "existing blueprint UUID")
	root.Flags().StringVar(&flagBPKey, "bp-key", "", "blueprint key; created if it doesn't exist")
	root.Flags().StringVar(&flagOwner, "owner", "", "owning account UUID, required when creating a blueprint")
	root.Flags().StringVar(&flagSubdir, "subdir", "rooms", "subdirectory under the content base holding room YAML files")
	root.Flags().StringVar(&flagEntryRoom, "entry-room", "", "room key to set as the blueprint's entry room after import")

	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "import-yaml: %v\n", err)
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: import-yaml [flags] <content-base-dir>")
	}
	base := args[0]

	connString := flagDatabaseURL
	if connString == "" {
		connString = os.Getenv("DATABASE_URL")
	}
	if connString == "" {
		return fmt.Errorf("--database-url or $DATABASE_URL is required")
	}

	ctx := context.Background()
	pg, err := pgstore.Open(ctx, connString)
	if err != nil {
		return fmt.Errorf("connect store: %w", err)
	}
	defer pg.Close()

	bp, err := resolveBlueprint(ctx, pg)
	if err != nil {
		return err
	}

	result, err := importer.Import(ctx, pg, bp.ID, base, flagSubdir)
	if err != nil {
		return fmt.Errorf("import: %w", err)
	}
	fmt.Printf("imported %d rooms, %d exits into blueprint %s (%s)\n", result.RoomsImported, result.ExitsImported, bp.Key, bp.ID)

	if flagEntryRoom != "" {
		if err := importer.SetEntryRoom(ctx, pg, bp.ID, domain.RoomKey(flagEntryRoom)); err != nil {
			return fmt.Errorf("set entry room: %w", err)
		}
		fmt.Printf("entry room set to %q\n", flagEntryRoom)
	}
	return nil
}

func resolveBlueprint(ctx context.Context, s store.Store) (domain.Blueprint, error) {
	if flagBPID != "" {
		id, err := domain.ParseBlueprintID(flagBPID)
		if err != nil {
			return domain.Blueprint{}, fmt.Errorf("--bp-id: %w", err)
		}
		return s.GetBlueprintByID(ctx, id)
	}
	if flagBPKey == "" {
		return domain.Blueprint{}, fmt.Errorf("one of --bp-id or --bp-key is required")
	}
	bp, err := s.GetBlueprintByKey(ctx, flagBPKey)
	if err == nil {
		return bp, nil
	}
	if flagOwner == "" {
		return domain.Blueprint{}, fmt.Errorf("blueprint %q not found; --owner is required to create it", flagBPKey)
	}
	ownerID, err := domain.ParseAccountID(flagOwner)
	if err != nil {
		return domain.Blueprint{}, fmt.Errorf("--owner: %w", err)
	}
	return s.CreateBlueprint(ctx, domain.Blueprint{
		ID:      domain.NewBlueprintID(),
		Key:     flagBPKey,
		Title:   flagBPKey,
		OwnerID: ownerID,
		Status:  domain.StatusDraft,
	})
}
