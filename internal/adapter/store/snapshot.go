package store

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/google/uuid"
	"go.etcd.io/bbolt"

	"deckqa/internal/adapter/vecindex"
	"deckqa/internal/domain"
)

var (
	bucketMeta   = []byte("meta")
	bucketIndex  = []byte("index")
	bucketChunks = []byte("chunks")

	keySchemaVersion = []byte("schema_version")
	keyInfo          = []byte("info")
	keyFlat          = []byte("flat")
)

// Info is the snapshot header.
type Info struct {
	SchemaVersion int       `json:"schema_version"`
	BuildID       string    `json:"build_id"`
	Model         string    `json:"model"`
	Dimension     int       `json:"dimension"`
	ChunkTokens   int       `json:"chunk_tokens"`
	Fingerprint   string    `json:"fingerprint,omitempty"`
	Count         int       `json:"count"`
	Sources       []string  `json:"sources"`
	CreatedAt     time.Time `json:"created_at"`
}

// Snapshot is the unit of persistence: a flat index and the chunk metadata
// parallel to it. Index position i holds the vector of Chunks[i].
type Snapshot struct {
	Info   Info
	Index  *vecindex.Flat
	Chunks []domain.Chunk
}

// NewSnapshot bundles an index with its chunk metadata and fills in the
// derived header fields.
func NewSnapshot(info Info, index *vecindex.Flat, chunks []domain.Chunk) (*Snapshot, error) {
	if index == nil {
		index = &vecindex.Flat{}
	}
	if index.Len() != len(chunks) {
		return nil, fmt.Errorf("index has %d vectors but there are %d chunks", index.Len(), len(chunks))
	}

	info.SchemaVersion = CurrentSchemaVersion
	if info.BuildID == "" {
		info.BuildID = uuid.NewString()
	}
	if info.CreatedAt.IsZero() {
		info.CreatedAt = time.Now().UTC()
	}
	if index.Len() > 0 {
		info.Dimension = index.Dimension()
	}
	info.Count = len(chunks)
	info.Sources = distinctSources(chunks)

	return &Snapshot{Info: info, Index: index, Chunks: chunks}, nil
}

// Len returns the number of stored chunks.
func (s *Snapshot) Len() int {
	return len(s.Chunks)
}

// Save writes the snapshot to path. The file is written next to path and
// renamed into place, so a reader sees either the old or the new snapshot.
func Save(path string, snap *Snapshot) error {
	if snap.Index == nil || snap.Index.Len() != len(snap.Chunks) || snap.Info.Count != len(snap.Chunks) {
		return errors.New("refusing to save misaligned snapshot")
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create store directory: %w", err)
	}

	tmp := path + ".tmp"
	if err := os.Remove(tmp); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove stale temp file: %w", err)
	}

	if err := writeSnapshot(tmp, snap); err != nil {
		os.Remove(tmp)
		return err
	}

	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to move snapshot into place: %w", err)
	}
	return nil
}

func writeSnapshot(path string, snap *Snapshot) error {
	db, err := bbolt.Open(path, 0644, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return fmt.Errorf("failed to open bolt db: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		meta, err := tx.CreateBucket(bucketMeta)
		if err != nil {
			return err
		}
		infoData, err := json.Marshal(snap.Info)
		if err != nil {
			return err
		}
		if err := meta.Put(keySchemaVersion, []byte(strconv.Itoa(snap.Info.SchemaVersion))); err != nil {
			return err
		}
		if err := meta.Put(keyInfo, infoData); err != nil {
			return err
		}

		index, err := tx.CreateBucket(bucketIndex)
		if err != nil {
			return err
		}
		blob, err := snap.Index.MarshalBinary()
		if err != nil {
			return err
		}
		if err := index.Put(keyFlat, blob); err != nil {
			return err
		}

		chunks, err := tx.CreateBucket(bucketChunks)
		if err != nil {
			return err
		}
		chunks.FillPercent = 1.0 // keys are appended in order
		for i, c := range snap.Chunks {
			data, err := json.Marshal(c)
			if err != nil {
				return err
			}
			if err := chunks.Put(positionKey(i), data); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return fmt.Errorf("failed to write snapshot: %w", err)
	}

	return db.Close()
}

// Load reads a snapshot from path. A missing file is reported as
// os.ErrNotExist; anything unreadable or misaligned is a CorruptStoreError.
func Load(path string) (*Snapshot, error) {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("vector store %s not found, run 'deckqa build' first: %w", path, os.ErrNotExist)
		}
		return nil, err
	}

	db, err := bbolt.Open(path, 0644, &bbolt.Options{ReadOnly: true, Timeout: time.Second})
	if err != nil {
		return nil, corrupt(path, "cannot open", err)
	}
	defer db.Close()

	var snap Snapshot
	err = db.View(func(tx *bbolt.Tx) error {
		meta := tx.Bucket(bucketMeta)
		if meta == nil {
			return corrupt(path, "missing meta bucket", nil)
		}
		version, err := strconv.Atoi(string(meta.Get(keySchemaVersion)))
		if err != nil {
			return corrupt(path, "unreadable schema version", err)
		}
		if version != CurrentSchemaVersion {
			return corrupt(path, fmt.Sprintf("schema version %d, expected %d", version, CurrentSchemaVersion), nil)
		}
		if err := json.Unmarshal(meta.Get(keyInfo), &snap.Info); err != nil {
			return corrupt(path, "unreadable header", err)
		}

		index := tx.Bucket(bucketIndex)
		if index == nil {
			return corrupt(path, "missing index bucket", nil)
		}
		blob := index.Get(keyFlat)
		if blob == nil {
			return corrupt(path, "missing index data", nil)
		}
		snap.Index = &vecindex.Flat{}
		if err := snap.Index.UnmarshalBinary(blob); err != nil {
			return corrupt(path, "unreadable index", err)
		}

		chunks := tx.Bucket(bucketChunks)
		if chunks == nil {
			return corrupt(path, "missing chunks bucket", nil)
		}
		snap.Chunks = make([]domain.Chunk, 0, snap.Index.Len())
		c := chunks.Cursor()
		for k, v := c.First(); k != nil; k, v = c.Next() {
			pos := len(snap.Chunks)
			if len(k) != 8 || binary.BigEndian.Uint64(k) != uint64(pos) {
				return corrupt(path, fmt.Sprintf("chunk key out of sequence at position %d", pos), nil)
			}
			var chunk domain.Chunk
			if err := json.Unmarshal(v, &chunk); err != nil {
				return corrupt(path, fmt.Sprintf("unreadable chunk at position %d", pos), err)
			}
			snap.Chunks = append(snap.Chunks, chunk)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if snap.Index.Len() != len(snap.Chunks) {
		return nil, corrupt(path, fmt.Sprintf("index has %d vectors but metadata has %d chunks", snap.Index.Len(), len(snap.Chunks)), nil)
	}
	if snap.Info.Count != len(snap.Chunks) {
		return nil, corrupt(path, fmt.Sprintf("header count %d does not match %d chunks", snap.Info.Count, len(snap.Chunks)), nil)
	}
	if snap.Index.Len() > 0 && snap.Index.Dimension() != snap.Info.Dimension {
		return nil, corrupt(path, fmt.Sprintf("header dimension %d does not match index dimension %d", snap.Info.Dimension, snap.Index.Dimension()), nil)
	}

	return &snap, nil
}

// ReadInfo returns the header of the snapshot at path without loading the
// index.
func ReadInfo(path string) (Info, error) {
	var info Info
	if _, err := os.Stat(path); err != nil {
		return info, err
	}

	db, err := bbolt.Open(path, 0644, &bbolt.Options{ReadOnly: true, Timeout: time.Second})
	if err != nil {
		return info, corrupt(path, "cannot open", err)
	}
	defer db.Close()

	err = db.View(func(tx *bbolt.Tx) error {
		meta := tx.Bucket(bucketMeta)
		if meta == nil {
			return corrupt(path, "missing meta bucket", nil)
		}
		if err := json.Unmarshal(meta.Get(keyInfo), &info); err != nil {
			return corrupt(path, "unreadable header", err)
		}
		return nil
	})
	return info, err
}

func positionKey(i int) []byte {
	key := make([]byte, 8)
	binary.BigEndian.PutUint64(key, uint64(i))
	return key
}

func distinctSources(chunks []domain.Chunk) []string {
	seen := make(map[string]bool)
	sources := []string{}
	for _, c := range chunks {
		if !seen[c.Source] {
			seen[c.Source] = true
			sources = append(sources, c.Source)
		}
	}
	return sources
}

func corrupt(path, reason string, err error) error {
	return &domain.CorruptStoreError{Path: path, Reason: reason, Err: err}
}
