package importer

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/port4k/port4k/internal/domain"
)

// RoomYaml is the on-disk blueprint room schema of spec.md §4.4/§6.
type RoomYaml struct {
	ID          string                    `yaml:"id"`
	Name        string                    `yaml:"name"`
	Short       string                    `yaml:"short"`
	Description string                    `yaml:"description"`
	Hints       []string                  `yaml:"hints"`
	Objects     []ObjectYaml              `yaml:"objects"`
	Exits       []ExitYaml                `yaml:"exits"`
	Scripts     ScriptsYaml               `yaml:"scripts"`
}

// ObjectYaml mirrors BlueprintObject's authoring form. UseLegacy carries
// the deprecated "use" alias; Use carries the canonical "use_" field after
// NormalizeAliases runs.
type ObjectYaml struct {
	ID          string         `yaml:"id"`
	Nouns       []string       `yaml:"nouns"`
	Short       string         `yaml:"short"`
	Description string         `yaml:"description"`
	Examine     string         `yaml:"examine"`
	State       map[string]any `yaml:"state"`
	Use         string         `yaml:"use_"`
	UseLegacy   string         `yaml:"use"`
	Position    *int           `yaml:"position"`
}

type ExitYaml struct {
	Direction         string `yaml:"direction"`
	To                string `yaml:"to"`
	Description       string `yaml:"description"`
	Locked            *bool  `yaml:"locked"`
	VisibleWhenLocked *bool  `yaml:"visible_when_locked"`
}

type ScriptsYaml struct {
	OnEnter   string                    `yaml:"on_enter"`
	OnCommand string                    `yaml:"on_command"`
	OnTimer   string                    `yaml:"on_timer"`
	Objects   map[string]ObjectScripts  `yaml:"objects"`
}

type ObjectScripts struct {
	Use       string `yaml:"use_"`
	UseLegacy string `yaml:"use"`
}

// ParseFile reads and YAML-decodes a single room file.
func ParseFile(path string) (RoomYaml, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return RoomYaml{}, err
	}
	var room RoomYaml
	if err := yaml.Unmarshal(data, &room); err != nil {
		return RoomYaml{}, fmt.Errorf("%s: %w", path, err)
	}
	NormalizeAliases(&room)
	return room, nil
}

// NormalizeAliases maps the legacy "use" key onto "use_" wherever present,
// on both the per-object field and the scripts.objects map (spec.md §4.4
// step 3).
func NormalizeAliases(room *RoomYaml) {
	for i := range room.Objects {
		if room.Objects[i].Use == "" && room.Objects[i].UseLegacy != "" {
			room.Objects[i].Use = room.Objects[i].UseLegacy
		}
	}
	for id, entry := range room.Scripts.Objects {
		if entry.Use == "" && entry.UseLegacy != "" {
			entry.Use = entry.UseLegacy
			room.Scripts.Objects[id] = entry
		}
	}
}

var exitTargetPattern = regexp.MustCompile(`^[A-Za-z0-9_\-:]+$`)

// Validate applies the semantic validation rules of spec.md §4.4 step 4
// that do not require script compilation (that happens separately via
// script.Validate/script.CompileCheck, per step 5).
func Validate(room RoomYaml) error {
	if strings.TrimSpace(room.ID) == "" {
		return fmt.Errorf("%w: room id must not be empty", domain.ErrInvalidInput)
	}
	if len(room.ID) > 64 {
		return fmt.Errorf("%w: room id exceeds 64 characters", domain.ErrInvalidInput)
	}
	if strings.TrimSpace(room.Name) == "" {
		return fmt.Errorf("%w: room name must not be empty", domain.ErrInvalidInput)
	}
	if len(room.Name) > 128 {
		return fmt.Errorf("%w: room name exceeds 128 characters", domain.ErrInvalidInput)
	}
	if strings.TrimSpace(room.Description) == "" {
		return fmt.Errorf("%w: room description must not be empty", domain.ErrInvalidInput)
	}

	seen := make(map[string]bool, len(room.Objects))
	for _, obj := range room.Objects {
		if seen[obj.ID] {
			return fmt.Errorf("%w: %q", domain.ErrObjectIDCollision, obj.ID)
		}
		seen[obj.ID] = true
	}
	for _, ref := range domain.ObjectPlaceholders(room.Description) {
		if !seen[ref] {
			return fmt.Errorf("%w: {obj:%s}", domain.ErrDanglingObjectRef, ref)
		}
	}
	for _, exit := range room.Exits {
		if _, ok := domain.NormalizeDirection(exit.Direction); !ok {
			return fmt.Errorf("%w: %q", domain.ErrUnknownDirection, exit.Direction)
		}
		if strings.TrimSpace(exit.To) == "" || !exitTargetPattern.MatchString(exit.To) {
			return fmt.Errorf("%w: exit target %q is invalid", domain.ErrInvalidInput, exit.To)
		}
	}
	return nil
}

// ToBlueprintRoom converts a validated RoomYaml into the store's
// BlueprintRoom/BlueprintExit shapes, ready for validateScripts followed by
// a transactional upsert.
func ToBlueprintRoom(bpID domain.BlueprintID, room RoomYaml) (domain.BlueprintRoom, []domain.BlueprintExit) {
	out := domain.BlueprintRoom{
		BlueprintID: bpID,
		Key:         domain.RoomKey(room.ID),
		Title:       room.Name,
		Short:       room.Short,
		Body:        room.Description,
		Hints:       room.Hints,
		Scripts: domain.ScriptBundle{
			OnEnter:     domain.ScriptSource{Source: room.Scripts.OnEnter},
			OnCommand:   domain.ScriptSource{Source: room.Scripts.OnCommand},
			OnTimer:     domain.ScriptSource{Source: room.Scripts.OnTimer},
			ObjectOnUse: map[domain.ObjectID]domain.ScriptSource{},
		},
	}
	for i, obj := range room.Objects {
		bo := domain.BlueprintObject{
			BlueprintID: bpID,
			RoomKey:     out.Key,
			ID:          domain.ObjectID(obj.ID),
			Nouns:       obj.Nouns,
			Short:       obj.Short,
			Description: obj.Description,
			State:       obj.State,
		}
		if obj.Examine != "" {
			bo.HasExamine = true
			bo.Examine = obj.Examine
		}
		if obj.Position != nil {
			bo.HasPosition = true
			bo.Position = *obj.Position
		} else {
			bo.Position = i
		}
		use := obj.Use
		if os, ok := room.Scripts.Objects[obj.ID]; ok && use == "" {
			use = os.Use
		}
		if use != "" {
			bo.OnUse = domain.ScriptSource{Source: use}
			out.Scripts.ObjectOnUse[bo.ID] = bo.OnUse
		}
		out.Objects = append(out.Objects, bo)
	}

	exits := make([]domain.BlueprintExit, 0, len(room.Exits))
	for _, e := range room.Exits {
		dir, _ := domain.NormalizeDirection(e.Direction)
		locked := e.Locked != nil && *e.Locked
		visible := e.VisibleWhenLocked == nil || *e.VisibleWhenLocked
		exits = append(exits, domain.BlueprintExit{
			BlueprintID: bpID, FromRoomKey: out.Key, Direction: dir, ToRoomKey: domain.RoomKey(e.To),
			Description: e.Description, Locked: locked, VisibleWhenLocked: visible,
		})
	}
	return out, exits
}
