package domain

import "errors"

// Store-tier errors (spec.md §7 tier 1). Service and command errors wrap
// these with fmt.Errorf("...: %w", ...) rather than inventing parallel
// sentinels, so errors.Is still finds the root cause.
var (
	ErrNotFound         = errors.New("not found")
	ErrUniqueViolation  = errors.New("unique violation")
	ErrForeignKey       = errors.New("foreign key violation")
	ErrTimeout          = errors.New("store timeout")
	ErrSerialization    = errors.New("serialization failure")
	ErrInvalidInput     = errors.New("invalid input")
)

// Service-tier errors (spec.md §7 tier 2).
var (
	ErrNotOwner           = errors.New("blueprint not owned by caller")
	ErrRoomKeyNotFound    = errors.New("room key not found in blueprint")
	ErrBlueprintNotFound  = errors.New("blueprint not found")
	ErrEntryRoomNotSet    = errors.New("blueprint has no entry room")
	ErrObjectIDCollision  = errors.New("object id already used in room")
	ErrDanglingObjectRef  = errors.New("description references an undefined object id")
	ErrUnknownDirection   = errors.New("direction not in canonical set")
	ErrCrossBlueprintExit = errors.New("exit target belongs to a different blueprint")
)

// Command-tier errors (spec.md §7 tier 3).
var (
	ErrUnknownCommand  = errors.New("unknown command")
	ErrUsage           = errors.New("usage error")
	ErrPermissionDenied = errors.New("permission denied")
	ErrNotLoggedIn     = errors.New("not logged in")
	ErrNoCursor        = errors.New("no active cursor")
	ErrInvalidArgs     = errors.New("invalid arguments")
)

// Navigation failures surfaced by the Go verb (spec.md §4.2).
var (
	ErrNoSuchExit = errors.New("no such exit")
	ErrExitLocked = errors.New("exit is locked")
	ErrBlocked    = errors.New("movement blocked by script")
)

// Script-runtime failures (spec.md §4.3).
var (
	ErrScriptTooLarge      = errors.New("script exceeds size cap")
	ErrScriptBlacklisted   = errors.New("script contains a blacklisted token")
	ErrScriptCompileFailed = errors.New("script failed to compile")
	ErrScriptTimedOut      = errors.New("script timed out")
)

// Filesystem-hardening failures for the import pipeline (spec.md §4.4).
var (
	ErrImportPathEscape   = errors.New("import path escapes the content base")
	ErrImportSymlink      = errors.New("import path traverses a symlink")
	ErrImportTooManyFiles = errors.New("import exceeds the file-count cap")
	ErrImportFileTooLarge = errors.New("import file exceeds the per-file size cap")
	ErrImportTotalTooLarge = errors.New("import exceeds the total size cap")
)
