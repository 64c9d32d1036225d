package voice

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/book-expert/logger"
	"github.com/book-expert/voice-service/internal/audio"
	"github.com/book-expert/voice-service/internal/core"
)

const (
	indexFileName   = ".index.json"
	dirPermissions  = 0o750
	filePermissions = 0o600
	stagingPrefix   = ".staging_"
)

// ProvisionOutcome reports what ProvisionPreset did.
type ProvisionOutcome int

const (
	// ProvisionExisting means the clip was already on disk.
	ProvisionExisting ProvisionOutcome = iota
	// ProvisionSynthesized means the engine produced the clip.
	ProvisionSynthesized
	// ProvisionPlaceholder means a silent placeholder was written instead.
	ProvisionPlaceholder
	// ProvisionFailed means neither the engine nor the placeholder succeeded.
	ProvisionFailed
	// ProvisionCancelled means the context ended first. Nothing was written,
	// so the next start retries the preset.
	ProvisionCancelled
)

func (o ProvisionOutcome) String() string {
	switch o {
	case ProvisionExisting:
		return "existing"
	case ProvisionSynthesized:
		return "synthesized"
	case ProvisionPlaceholder:
		return "placeholder"
	case ProvisionCancelled:
		return "cancelled"
	default:
		return "failed"
	}
}

// ClonedVoice is a user-submitted reference voice.
type ClonedVoice struct {
	ID          string    `json:"id"`
	FileName    string    `json:"file_name"`
	DisplayName string    `json:"display_name"`
	AudioPath   string    `json:"-"`
	CreatedAt   time.Time `json:"created_at"`
}

// StoreConfig locates the two namespaces.
type StoreConfig struct {
	VoicesDir string
	ClonedDir string
	Presets   []Preset
}

// Store is the filesystem-backed registry of presets and cloned voices. The
// cloned namespace is mirrored in an in-memory index that is persisted next to
// the clips and reconciled with the directory on every listing.
type Store struct {
	voicesDir string
	clonedDir string
	presets   []Preset
	presetsBy map[string]Preset
	synth     core.Synthesizer
	log       *logger.Logger

	mu     sync.RWMutex
	cloned map[string]ClonedVoice
}

// NewStore creates the namespace directories and loads the cloned-voice index.
func NewStore(cfg StoreConfig, synth core.Synthesizer, log *logger.Logger) (*Store, error) {
	if len(cfg.Presets) == 0 {
		return nil, ErrNoPresets
	}

	presetsBy := make(map[string]Preset, len(cfg.Presets))

	for _, preset := range cfg.Presets {
		if _, exists := presetsBy[preset.ID]; exists {
			return nil, fmt.Errorf("%w: '%s'", ErrDuplicatePreset, preset.ID)
		}

		presetsBy[preset.ID] = preset
	}

	for _, dir := range []string{cfg.VoicesDir, cfg.ClonedDir} {
		err := os.MkdirAll(dir, dirPermissions)
		if err != nil {
			return nil, fmt.Errorf("failed to create voice directory %s: %w", dir, err)
		}
	}

	store := &Store{
		voicesDir: cfg.VoicesDir,
		clonedDir: cfg.ClonedDir,
		presets:   append([]Preset(nil), cfg.Presets...),
		presetsBy: presetsBy,
		synth:     synth,
		log:       log,
		cloned:    make(map[string]ClonedVoice),
	}

	store.loadIndex()

	return store, nil
}

// ListPresets returns the configured presets in display order.
func (s *Store) ListPresets() []Preset {
	return append([]Preset(nil), s.presets...)
}

// Preset returns the preset with the given id.
func (s *Store) Preset(id string) (Preset, bool) {
	preset, ok := s.presetsBy[id]

	return preset, ok
}

// ClonedDir returns the directory of the cloned namespace.
func (s *Store) ClonedDir() string {
	return s.clonedDir
}

// ListClonedVoices lists the cloned namespace sorted by file name. A directory
// read error is logged and yields an empty result.
func (s *Store) ListClonedVoices() []ClonedVoice {
	entries, err := os.ReadDir(s.clonedDir)
	if err != nil {
		s.log.Error("%v: %v", ErrListingFailed, err)

		return []ClonedVoice{}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	seen := make(map[string]struct{}, len(entries))
	voices := make([]ClonedVoice, 0, len(entries))

	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !isClonedFileName(name) {
			continue
		}

		seen[name] = struct{}{}

		clone, ok := s.cloned[name]
		if !ok {
			clone = s.deriveClone(name, entry)
			s.cloned[name] = clone
		}

		voices = append(voices, clone)
	}

	for name := range s.cloned {
		if _, ok := seen[name]; !ok {
			delete(s.cloned, name)
		}
	}

	sort.Slice(voices, func(i, j int) bool { return voices[i].FileName < voices[j].FileName })

	return voices
}

// LookupCloned returns the cloned voice stored under fileName. The file is
// always re-checked on disk since clips can be deleted out of band.
func (s *Store) LookupCloned(fileName string) (ClonedVoice, bool) {
	if !isSafeFileName(fileName) {
		return ClonedVoice{}, false
	}

	path := filepath.Join(s.clonedDir, fileName)

	info, err := os.Stat(path)
	if err != nil || !info.Mode().IsRegular() {
		s.mu.Lock()
		delete(s.cloned, fileName)
		s.mu.Unlock()

		return ClonedVoice{}, false
	}

	s.mu.RLock()
	clone, ok := s.cloned[fileName]
	s.mu.RUnlock()

	if ok {
		return clone, true
	}

	return ClonedVoice{
		ID:          trimWAV(fileName),
		FileName:    fileName,
		DisplayName: DisplayNameFromFileName(fileName),
		AudioPath:   path,
		CreatedAt:   info.ModTime(),
	}, true
}

// StagingPath returns a hidden path inside the cloned namespace for work files
// belonging to id. Staging files are never listed.
func (s *Store) StagingPath(id, suffix string) string {
	return filepath.Join(s.clonedDir, stagingPrefix+id+suffix)
}

// Register moves the clip at stagedPath into the cloned namespace under id and
// records it in the index.
func (s *Store) Register(id, displayName, stagedPath string) (ClonedVoice, error) {
	fileName := FileNameForID(id)
	finalPath := filepath.Join(s.clonedDir, fileName)

	err := os.Rename(stagedPath, finalPath)
	if err != nil {
		return ClonedVoice{}, fmt.Errorf("failed to register cloned voice %s: %w", id, err)
	}

	clone := ClonedVoice{
		ID:          id,
		FileName:    fileName,
		DisplayName: displayName,
		AudioPath:   finalPath,
		CreatedAt:   time.Now().UTC(),
	}

	s.mu.Lock()
	s.cloned[fileName] = clone
	saveErr := s.saveIndexLocked()
	s.mu.Unlock()

	if saveErr != nil {
		s.log.Warn("Cloned voice %s registered but index not saved: %v", id, saveErr)
	}

	return clone, nil
}

// ProvisionAll provisions every preset and returns the outcome per preset id.
func (s *Store) ProvisionAll(ctx context.Context) map[string]ProvisionOutcome {
	outcomes := make(map[string]ProvisionOutcome, len(s.presets))

	for _, preset := range s.presets {
		outcomes[preset.ID] = s.ProvisionPreset(ctx, preset)
	}

	return outcomes
}

// ProvisionPreset creates the preset clip when it is missing. Engine failures
// are absorbed by writing a silent placeholder so that startup never fails.
// A cancelled context leaves the preset missing instead.
func (s *Store) ProvisionPreset(ctx context.Context, preset Preset) ProvisionOutcome {
	_, err := os.Stat(preset.AudioPath)
	if err == nil {
		return ProvisionExisting
	}

	if ctx.Err() != nil {
		return ProvisionCancelled
	}

	s.log.Info("Creating voice preset: %s...", preset.DisplayName)

	staging := filepath.Join(filepath.Dir(preset.AudioPath), stagingPrefix+preset.FileName())

	synthErr := s.synthesizePreset(ctx, preset, staging)
	if synthErr == nil {
		s.log.Info("Created: %s (Speaker: %s)", preset.DisplayName, preset.SpeakerTag)

		return ProvisionSynthesized
	}

	_ = os.Remove(staging)

	if ctx.Err() != nil {
		s.log.Warn("Provisioning of %s interrupted: %v", preset.ID, ctx.Err())

		return ProvisionCancelled
	}

	s.log.Error("Error creating %s: %v", preset.DisplayName, synthErr)

	placeholderErr := audio.WriteSilence(preset.AudioPath, audio.PlaceholderDuration, audio.ReferenceFormat())
	if placeholderErr != nil {
		s.log.Error("Failed to write placeholder for %s: %v", preset.ID, placeholderErr)

		return ProvisionFailed
	}

	s.log.Warn("Preset %s uses a silent placeholder", preset.ID)

	return ProvisionPlaceholder
}

func (s *Store) synthesizePreset(ctx context.Context, preset Preset, staging string) error {
	if s.synth == nil {
		return errors.New("no synthesizer configured")
	}

	err := s.synth.Synthesize(ctx, core.SynthesisRequest{
		Text:       preset.SeedText,
		OutputPath: staging,
		Model:      preset.SourceModel,
		Speaker:    preset.SpeakerTag,
	})
	if err != nil {
		return err
	}

	err = os.Rename(staging, preset.AudioPath)
	if err != nil {
		return fmt.Errorf("failed to move provisioned clip into place: %w", err)
	}

	return nil
}

func (s *Store) deriveClone(name string, entry os.DirEntry) ClonedVoice {
	clone := ClonedVoice{
		ID:          trimWAV(name),
		FileName:    name,
		DisplayName: DisplayNameFromFileName(name),
		AudioPath:   filepath.Join(s.clonedDir, name),
	}

	info, err := entry.Info()
	if err == nil {
		clone.CreatedAt = info.ModTime()
	}

	return clone
}

func (s *Store) loadIndex() {
	data, err := os.ReadFile(filepath.Join(s.clonedDir, indexFileName))
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			s.log.Warn("Failed to read cloned voice index: %v", err)
		}

		return
	}

	var records []ClonedVoice

	err = json.Unmarshal(data, &records)
	if err != nil {
		s.log.Warn("Ignoring corrupt cloned voice index: %v", err)

		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, record := range records {
		if !isClonedFileName(record.FileName) || !isSafeFileName(record.FileName) {
			continue
		}

		record.AudioPath = filepath.Join(s.clonedDir, record.FileName)
		s.cloned[record.FileName] = record
	}
}

func (s *Store) saveIndexLocked() error {
	records := make([]ClonedVoice, 0, len(s.cloned))
	for _, clone := range s.cloned {
		records = append(records, clone)
	}

	sort.Slice(records, func(i, j int) bool { return records[i].FileName < records[j].FileName })

	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal cloned voice index: %w", err)
	}

	tempPath := filepath.Join(s.clonedDir, indexFileName+".tmp")

	err = os.WriteFile(tempPath, data, filePermissions)
	if err != nil {
		return fmt.Errorf("failed to write cloned voice index: %w", err)
	}

	err = os.Rename(tempPath, filepath.Join(s.clonedDir, indexFileName))
	if err != nil {
		return fmt.Errorf("failed to replace cloned voice index: %w", err)
	}

	return nil
}

func trimWAV(fileName string) string {
	return fileName[:len(fileName)-len(filepath.Ext(fileName))]
}
