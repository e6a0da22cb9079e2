package extract

import (
	"archive/zip"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"deckqa/internal/domain"
)

const testPresentation = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<p:presentation xmlns:a="http://schemas.openxmlformats.org/drawingml/2006/main" xmlns:r="http://schemas.openxmlformats.org/officeDocument/2006/relationships" xmlns:p="http://schemas.openxmlformats.org/presentationml/2006/main">
  <p:sldIdLst>
    <p:sldId id="256" r:id="rId3"/>
    <p:sldId id="257" r:id="rId2"/>
  </p:sldIdLst>
</p:presentation>`

const testPresentationRels = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">
  <Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/slideMaster" Target="slideMasters/slideMaster1.xml"/>
  <Relationship Id="rId2" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/slide" Target="slides/slide1.xml"/>
  <Relationship Id="rId3" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/slide" Target="slides/slide2.xml"/>
</Relationships>`

// slide2.xml is listed first in sldIdLst.
const testSlideFirst = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<p:sld xmlns:a="http://schemas.openxmlformats.org/drawingml/2006/main" xmlns:r="http://schemas.openxmlformats.org/officeDocument/2006/relationships" xmlns:p="http://schemas.openxmlformats.org/presentationml/2006/main">
  <p:cSld>
    <p:spTree>
      <p:nvGrpSpPr><p:cNvPr id="1" name=""/><p:cNvGrpSpPr/><p:nvPr/></p:nvGrpSpPr>
      <p:sp>
        <p:nvSpPr><p:cNvPr id="2" name="Title 1"/></p:nvSpPr>
        <p:txBody><a:bodyPr/><a:p><a:r><a:rPr lang="en-US"/><a:t>Breach notification</a:t></a:r></a:p></p:txBody>
      </p:sp>
      <p:sp>
        <p:nvSpPr><p:cNvPr id="3" name="Content 2"/></p:nvSpPr>
        <p:txBody>
          <a:bodyPr/>
          <a:p><a:pPr lvl="0"/><a:r><a:t>Notify within </a:t></a:r><a:r><a:rPr b="1"/><a:t>72 hours</a:t></a:r></a:p>
          <a:p><a:r><a:t>Inform</a:t></a:r><a:br/><a:r><a:t>subjects</a:t></a:r><a:endParaRPr/></a:p>
        </p:txBody>
      </p:sp>
      <p:grpSp>
        <p:sp><p:txBody><a:p><a:r><a:t>grouped text is not a top-level shape</a:t></a:r></a:p></p:txBody></p:sp>
      </p:grpSp>
      <p:pic><p:nvPicPr><p:cNvPr id="9" name="Picture"/></p:nvPicPr></p:pic>
    </p:spTree>
  </p:cSld>
</p:sld>`

const testSlideSecond = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<p:sld xmlns:a="http://schemas.openxmlformats.org/drawingml/2006/main" xmlns:p="http://schemas.openxmlformats.org/presentationml/2006/main">
  <p:cSld>
    <p:spTree>
      <p:sp><p:nvSpPr><p:cNvPr id="2" name="Rectangle"/></p:nvSpPr></p:sp>
      <p:sp><p:txBody><a:p><a:fld id="{1}" type="slidenum"><a:t>2</a:t></a:fld><a:r><a:t> Consent</a:t></a:r></a:p></p:txBody></p:sp>
    </p:spTree>
  </p:cSld>
</p:sld>`

func writeZip(t *testing.T, path string, parts map[string]string) {
	t.Helper()
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	zw := zip.NewWriter(f)
	for name, content := range parts {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := w.Write([]byte(content)); err != nil {
			t.Fatal(err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}
}

func writeTestDeck(t *testing.T, dir string) string {
	t.Helper()
	path := filepath.Join(dir, "deck.pptx")
	writeZip(t, path, map[string]string{
		"[Content_Types].xml":             `<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types"/>`,
		"ppt/presentation.xml":            testPresentation,
		"ppt/_rels/presentation.xml.rels": testPresentationRels,
		"ppt/slides/slide1.xml":           testSlideSecond,
		"ppt/slides/slide2.xml":           testSlideFirst,
	})
	return path
}

func TestPPTXExtractOrder(t *testing.T) {
	path := writeTestDeck(t, t.TempDir())

	text, err := NewPPTXExtractor().Extract(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := "Breach notification\n" +
		"Notify within 72 hours\n" +
		"Inform\nsubjects\n" +
		"\n" +
		"2 Consent"
	if text != want {
		t.Errorf("unexpected text:\n got: %q\nwant: %q", text, want)
	}
}

func TestPPTXExtractMissingFile(t *testing.T) {
	_, err := NewPPTXExtractor().Extract(filepath.Join(t.TempDir(), "missing.pptx"))
	if !errors.Is(err, domain.ErrExtraction) {
		t.Fatalf("expected extraction error, got %v", err)
	}

	var extErr *domain.ExtractionError
	if !errors.As(err, &extErr) || extErr.Path == "" {
		t.Errorf("expected ExtractionError carrying the path, got %v", err)
	}
}

func TestPPTXExtractNotAZip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.pptx")
	if err := os.WriteFile(path, []byte("definitely not a zip archive"), 0644); err != nil {
		t.Fatal(err)
	}

	if _, err := NewPPTXExtractor().Extract(path); !errors.Is(err, domain.ErrExtraction) {
		t.Fatalf("expected extraction error, got %v", err)
	}
}

func TestPPTXExtractMissingSlide(t *testing.T) {
	path := filepath.Join(t.TempDir(), "partial.pptx")
	writeZip(t, path, map[string]string{
		"ppt/presentation.xml":            testPresentation,
		"ppt/_rels/presentation.xml.rels": testPresentationRels,
		"ppt/slides/slide2.xml":           testSlideFirst,
	})

	if _, err := NewPPTXExtractor().Extract(path); !errors.Is(err, domain.ErrExtraction) {
		t.Fatalf("expected extraction error for missing slide part, got %v", err)
	}
}

func TestRegistryDispatch(t *testing.T) {
	dir := t.TempDir()
	deck := writeTestDeck(t, dir)

	notes := filepath.Join(dir, "notes.TXT")
	if err := os.WriteFile(notes, []byte("plain  notes\n"), 0644); err != nil {
		t.Fatal(err)
	}

	r := NewRegistry()

	if !r.Supports(deck) || !r.Supports(notes) || !r.Supports("readme.md") {
		t.Error("expected pptx, txt and md to be supported")
	}
	if r.Supports("sheet.xlsx") {
		t.Error("xlsx should not be supported")
	}

	text, err := r.Extract(notes)
	if err != nil {
		t.Fatal(err)
	}
	if text != "plain  notes\n" {
		t.Errorf("text extractor should return content verbatim, got %q", text)
	}

	if _, err := r.Extract(deck); err != nil {
		t.Errorf("unexpected error for deck: %v", err)
	}

	_, err = r.Extract(filepath.Join(dir, "sheet.xlsx"))
	if !errors.Is(err, domain.ErrExtraction) || !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("expected unsupported format extraction error, got %v", err)
	}
}
