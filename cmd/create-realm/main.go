// Command create-realm instantiates a Realm from an existing Blueprint that
// has an entry room set, whatever its authoring status (spec.md §3's
// Blueprint/Realm relationship).
package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/port4k/port4k/internal/domain"
	"github.com/port4k/port4k/internal/store/pgstore"
)

var (
	flagDatabaseURL string
	flagBPKey       string
	flagTitle       string
	flagKey         string
	flagOwner       string
	flagKind        string
)

func main() {
	root := &cobra.Command{
		Use:   "create-realm",
		Short: "Instantiate a Realm from a Blueprint",
		RunE:  run,
	}
	root.Flags().StringVar(&flagDatabaseURL, "database-url", "", "PostgreSQL connection string (defaults to $DATABASE_URL)")
	root.Flags().StringVar(&flagBPKey, "bp-key", "", "source blueprint key")
	root.Flags().StringVar(&flagTitle, "title", "", "realm title")
	root.Flags().StringVar(&flagKey, "key", "", "realm key, unique across all realms")
	root.Flags().StringVar(&flagOwner, "owner", "", "owning account UUID")
	root.Flags().StringVar(&flagKind, "kind", "live", "realm kind: live, staging, template, or ephemeral")

	root.MarkFlagRequired("bp-key")
	root.MarkFlagRequired("key")
	root.MarkFlagRequired("owner")

	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "create-realm: %v\n", err)
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) error {
	connString := flagDatabaseURL
	if connString == "" {
		connString = os.Getenv("DATABASE_URL")
	}
	if connString == "" {
		return fmt.Errorf("--database-url or $DATABASE_URL is required")
	}

	kind, err := parseKind(flagKind)
	if err != nil {
		return err
	}
	ownerID, err := domain.ParseAccountID(flagOwner)
	if err != nil {
		return fmt.Errorf("--owner: %w", err)
	}

	ctx := context.Background()
	pg, err := pgstore.Open(ctx, connString)
	if err != nil {
		return fmt.Errorf("connect store: %w", err)
	}
	defer pg.Close()

	bp, err := pg.GetBlueprintByKey(ctx, flagBPKey)
	if err != nil {
		return fmt.Errorf("look up blueprint %q: %w", flagBPKey, err)
	}
	if !bp.HasEntry {
		return fmt.Errorf("blueprint %q has no entry room set; run import-yaml --entry-room first", flagBPKey)
	}

	title := flagTitle
	if title == "" {
		title = bp.Title
	}
	realm, err := pg.CreateRealm(ctx, domain.Realm{
		ID:          domain.NewRealmID(),
		Key:         flagKey,
		Title:       title,
		OwnerID:     ownerID,
		Kind:        kind,
		BlueprintID: bp.ID,
	})
	if err != nil {
		return fmt.Errorf("create realm: %w", err)
	}
	fmt.Printf("created realm %q (%s) from blueprint %q\n", realm.Key, realm.ID, bp.Key)
	return nil
}

func parseKind(s string) (domain.RealmKind, error) {
	switch strings.ToLower(s) {
	case "live", "":
		return domain.RealmLive, nil
	case "staging":
		return domain.RealmStaging, nil
	case "template":
		return domain.RealmTemplate, nil
	case "ephemeral":
		return domain.RealmEphemeral, nil
	default:
		return 0, fmt.Errorf("unknown realm kind %q", s)
	}
}
