package authenticity

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/jayvicsanantonio/collect-iq-sub000/internal/cardmodel"
)

// FileReferenceStore reads reference hashes from
// <baseDir>/<card-name>/<hash>.json, matching the
// authentic-samples/<card-name>/<hash>.json layout spec.md §4.4 names.
type FileReferenceStore struct {
	BaseDir string
}

// NewFileReferenceStore builds a store rooted at baseDir.
func NewFileReferenceStore(baseDir string) *FileReferenceStore {
	return &FileReferenceStore{BaseDir: baseDir}
}

// ReferencesFor reads every *.json file under baseDir/<cardName>/, each
// holding one ReferenceHash. A missing directory is not an error — it
// means no references have been collected yet for this card.
func (f *FileReferenceStore) ReferencesFor(ctx context.Context, cardName string) ([]cardmodel.ReferenceHash, error) {
	dir := filepath.Join(f.BaseDir, sanitizeCardName(cardName))
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read reference directory %s: %w", dir, err)
	}

	var refs []cardmodel.ReferenceHash
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".json" {
			continue
		}
		data, rerr := os.ReadFile(filepath.Join(dir, entry.Name()))
		if rerr != nil {
			continue
		}
		var ref cardmodel.ReferenceHash
		if jerr := json.Unmarshal(data, &ref); jerr != nil {
			continue
		}
		refs = append(refs, ref)
	}
	return refs, nil
}

func sanitizeCardName(name string) string {
	lower := strings.ToLower(strings.TrimSpace(name))
	return strings.ReplaceAll(lower, " ", "-")
}
