package store

import (
	"context"
	"encoding/binary"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"go.etcd.io/bbolt"

	"deckqa/config"
	"deckqa/internal/adapter/vecindex"
	"deckqa/internal/domain"
)

func testSnapshot(t *testing.T) *Snapshot {
	t.Helper()
	index, err := vecindex.NewFlat([][]float32{
		{1, 0, 0},
		{0, 1, 0},
		{0, 0, 1},
	})
	if err != nil {
		t.Fatal(err)
	}
	chunks := []domain.Chunk{
		{ID: "c0", DocID: "d0", Source: "a.pptx", Ordinal: 0, Text: "Data protection requires consent."},
		{ID: "c1", DocID: "d1", Source: "b.pptx", Ordinal: 0, Text: "Breach notification must occur within 72 hours."},
		{ID: "c2", DocID: "d1", Source: "b.pptx", Ordinal: 1, Text: "Appoint a data protection officer."},
	}
	snap, err := NewSnapshot(Info{Model: "stub", ChunkTokens: 300}, index, chunks)
	if err != nil {
		t.Fatal(err)
	}
	return snap
}

func TestNewSnapshotHeader(t *testing.T) {
	snap := testSnapshot(t)

	if snap.Info.Count != 3 || snap.Info.Dimension != 3 {
		t.Errorf("unexpected header count/dimension: %d/%d", snap.Info.Count, snap.Info.Dimension)
	}
	if snap.Info.BuildID == "" || snap.Info.CreatedAt.IsZero() {
		t.Error("build id and creation time should be set")
	}
	if len(snap.Info.Sources) != 2 || snap.Info.Sources[0] != "a.pptx" || snap.Info.Sources[1] != "b.pptx" {
		t.Errorf("unexpected sources: %v", snap.Info.Sources)
	}
	if snap.Info.SchemaVersion != CurrentSchemaVersion {
		t.Errorf("expected schema version %d, got %d", CurrentSchemaVersion, snap.Info.SchemaVersion)
	}
}

func TestNewSnapshotRejectsMisalignment(t *testing.T) {
	index, _ := vecindex.NewFlat([][]float32{{1, 0}})
	if _, err := NewSnapshot(Info{}, index, nil); err == nil {
		t.Error("expected error when index and chunks differ in length")
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	snap := testSnapshot(t)
	path := filepath.Join(t.TempDir(), ".deckqa", "vectorstore.db")

	if err := Save(path, snap); err != nil {
		t.Fatalf("save failed: %v", err)
	}
	if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
		t.Error("temp file should not remain after save")
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	if loaded.Len() != snap.Len() || loaded.Index.Len() != snap.Index.Len() {
		t.Fatalf("length mismatch after round trip: %d/%d", loaded.Len(), loaded.Index.Len())
	}
	for i := range snap.Chunks {
		if loaded.Chunks[i] != snap.Chunks[i] {
			t.Errorf("chunk %d differs: %+v vs %+v", i, loaded.Chunks[i], snap.Chunks[i])
		}
	}
	if loaded.Info.BuildID != snap.Info.BuildID || loaded.Info.Model != "stub" {
		t.Errorf("header not preserved: %+v", loaded.Info)
	}

	q := []float32{0.2, 0.9, 0.1}
	want, _ := snap.Index.Search(q, 3)
	got, _ := loaded.Index.Search(q, 3)
	for i := range want {
		if want[i] != got[i] {
			t.Errorf("search rank %d differs after round trip", i)
		}
	}
}

func TestSaveLoadEmptySnapshot(t *testing.T) {
	snap, err := NewSnapshot(Info{Model: "stub"}, nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(t.TempDir(), "empty.db")
	if err := Save(path, snap); err != nil {
		t.Fatal(err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("empty store should load: %v", err)
	}
	if loaded.Len() != 0 {
		t.Errorf("expected empty snapshot, got %d chunks", loaded.Len())
	}
}

func TestSaveReplacesExisting(t *testing.T) {
	path := filepath.Join(t.TempDir(), "store.db")
	first := testSnapshot(t)
	if err := Save(path, first); err != nil {
		t.Fatal(err)
	}

	second := testSnapshot(t)
	if err := Save(path, second); err != nil {
		t.Fatal(err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if loaded.Info.BuildID != second.Info.BuildID {
		t.Error("second save should replace the first snapshot")
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.db"))
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("expected not-exist error, got %v", err)
	}
	if errors.Is(err, domain.ErrCorruptStore) {
		t.Error("a missing store is not a corrupt store")
	}
}

func TestLoadGarbageFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "garbage.db")
	garbage := make([]byte, 16384)
	for i := range garbage {
		garbage[i] = byte(i * 7)
	}
	if err := os.WriteFile(path, garbage, 0644); err != nil {
		t.Fatal(err)
	}

	_, err := Load(path)
	if !errors.Is(err, domain.ErrCorruptStore) {
		t.Errorf("expected corrupt store error, got %v", err)
	}
}

func TestLoadDetectsMisalignedChunks(t *testing.T) {
	path := filepath.Join(t.TempDir(), "store.db")
	if err := Save(path, testSnapshot(t)); err != nil {
		t.Fatal(err)
	}

	db, err := bbolt.Open(path, 0644, nil)
	if err != nil {
		t.Fatal(err)
	}
	err = db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketChunks).Delete(positionKey(2))
	})
	db.Close()
	if err != nil {
		t.Fatal(err)
	}

	_, err = Load(path)
	var corruptErr *domain.CorruptStoreError
	if !errors.As(err, &corruptErr) {
		t.Fatalf("expected CorruptStoreError, got %v", err)
	}
	if corruptErr.Path != path {
		t.Errorf("expected path %s in error, got %s", path, corruptErr.Path)
	}
}

func TestLoadDetectsChunkGap(t *testing.T) {
	path := filepath.Join(t.TempDir(), "store.db")
	if err := Save(path, testSnapshot(t)); err != nil {
		t.Fatal(err)
	}

	db, err := bbolt.Open(path, 0644, nil)
	if err != nil {
		t.Fatal(err)
	}
	err = db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketChunks).Delete(positionKey(1))
	})
	db.Close()
	if err != nil {
		t.Fatal(err)
	}

	if _, err := Load(path); !errors.Is(err, domain.ErrCorruptStore) {
		t.Errorf("expected corrupt store error for gap, got %v", err)
	}
}

func TestLoadRejectsOverflowingIndexHeader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "store.db")
	if err := Save(path, testSnapshot(t)); err != nil {
		t.Fatal(err)
	}

	header := make([]byte, 8)
	binary.LittleEndian.PutUint32(header[0:4], 1<<31)
	binary.LittleEndian.PutUint32(header[4:8], 1<<31)

	db, err := bbolt.Open(path, 0644, nil)
	if err != nil {
		t.Fatal(err)
	}
	err = db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketIndex).Put(keyFlat, header)
	})
	db.Close()
	if err != nil {
		t.Fatal(err)
	}

	if _, err := Load(path); !errors.Is(err, domain.ErrCorruptStore) {
		t.Errorf("expected corrupt store error for oversized index header, got %v", err)
	}
}

func TestReadInfo(t *testing.T) {
	path := filepath.Join(t.TempDir(), "store.db")
	snap := testSnapshot(t)
	if err := Save(path, snap); err != nil {
		t.Fatal(err)
	}

	info, err := ReadInfo(path)
	if err != nil {
		t.Fatal(err)
	}
	if info.BuildID != snap.Info.BuildID || info.Count != 3 {
		t.Errorf("unexpected info: %+v", info)
	}
}

type stubEmbedder struct {
	name string
	dim  int
}

func (s stubEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	return nil, nil
}

func (s stubEmbedder) Dimension() int    { return s.dim }
func (s stubEmbedder) ModelName() string { return s.name }

func TestCheckCompatibility(t *testing.T) {
	info := Info{Model: "all-minilm", Dimension: 384, Count: 10}

	if r := CheckCompatibility(info, stubEmbedder{name: "all-minilm", dim: 384}); !r.Compatible {
		t.Errorf("expected compatible, got %s", r.Reason)
	}
	if r := CheckCompatibility(info, stubEmbedder{name: "nomic-embed-text", dim: 384}); r.Compatible || !r.NeedsRebuild {
		t.Error("different model must not be compatible")
	}
	if r := CheckCompatibility(info, stubEmbedder{name: "all-minilm", dim: 768}); r.Compatible {
		t.Error("different dimension must not be compatible")
	}
	if r := CheckCompatibility(info, stubEmbedder{name: "all-minilm", dim: 0}); !r.Compatible {
		t.Errorf("unknown embedder dimension should skip the dimension check, got %s", r.Reason)
	}
}

func TestFingerprint(t *testing.T) {
	cfg := config.DefaultConfig()
	fp := ComputeFingerprint(cfg)
	if fp != ComputeFingerprint(config.DefaultConfig()) {
		t.Error("fingerprint should be stable")
	}

	info := Info{Fingerprint: fp}
	if FingerprintChanged(info, cfg) {
		t.Error("same config should not report a change")
	}

	cfg.Index.ChunkTokens = 100
	if !FingerprintChanged(info, cfg) {
		t.Error("changed chunk size should change the fingerprint")
	}
	if FingerprintChanged(Info{}, cfg) {
		t.Error("missing fingerprint should not report a change")
	}
}
