package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"docketvoice/internal/domain"
)

const PetitionFileName = "complete_bankruptcy_data.json"

// PetitionFile writes finished interviews into a directory. The file is
// written to a temp name and renamed, so readers never see half a file.
type PetitionFile struct {
	dir string
}

func NewPetitionFile(dir string) *PetitionFile {
	return &PetitionFile{dir: dir}
}

func (p *PetitionFile) Path() string {
	return filepath.Join(p.dir, PetitionFileName)
}

func (p *PetitionFile) Write(_ context.Context, data *domain.PetitionData) (string, error) {
	if err := os.MkdirAll(p.dir, 0755); err != nil {
		return "", fmt.Errorf("creating output dir: %w", err)
	}

	body, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encoding petition data: %w", err)
	}

	tmp, err := os.CreateTemp(p.dir, ".petition-*.json")
	if err != nil {
		return "", fmt.Errorf("creating temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(append(body, '\n')); err != nil {
		tmp.Close()
		return "", fmt.Errorf("writing temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("closing temp file: %w", err)
	}

	path := p.Path()
	if err := os.Rename(tmp.Name(), path); err != nil {
		return "", fmt.Errorf("renaming into place: %w", err)
	}
	return path, nil
}
