package extract

import (
	"archive/zip"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"deckqa/internal/domain"
)

const (
	presentationPart = "ppt/presentation.xml"
	presentationRels = "ppt/_rels/presentation.xml.rels"
)

// PPTXExtractor reads the text of every top-level shape of every slide, in
// slide order and then shape order, one shape per line.
type PPTXExtractor struct{}

func NewPPTXExtractor() *PPTXExtractor {
	return &PPTXExtractor{}
}

func (e *PPTXExtractor) Extract(file string) (string, error) {
	zr, err := zip.OpenReader(file)
	if err != nil {
		return "", &domain.ExtractionError{Path: file, Err: err}
	}
	defer zr.Close()

	texts, err := slideTexts(&zr.Reader)
	if err != nil {
		return "", &domain.ExtractionError{Path: file, Err: err}
	}
	return strings.Join(texts, "\n"), nil
}

type presentationXML struct {
	SlideIDs []struct {
		RID string `xml:"http://schemas.openxmlformats.org/officeDocument/2006/relationships id,attr"`
	} `xml:"sldIdLst>sldId"`
}

type relationshipsXML struct {
	Rels []struct {
		ID     string `xml:"Id,attr"`
		Target string `xml:"Target,attr"`
	} `xml:"Relationship"`
}

type slideXML struct {
	Shapes []shapeXML `xml:"cSld>spTree>sp"`
}

type shapeXML struct {
	TxBody *struct {
		Paragraphs []paragraphXML `xml:"p"`
	} `xml:"txBody"`
}

type paragraphXML struct {
	Items []textItemXML `xml:",any"`
}

type textItemXML struct {
	XMLName xml.Name
	Text    string `xml:"t"`
}

func slideTexts(zr *zip.Reader) ([]string, error) {
	files := make(map[string]*zip.File, len(zr.File))
	for _, f := range zr.File {
		files[f.Name] = f
	}

	slides, err := slideParts(files)
	if err != nil {
		return nil, err
	}

	var texts []string
	for _, part := range slides {
		f, ok := files[part]
		if !ok {
			return nil, fmt.Errorf("missing slide part %s", part)
		}
		var slide slideXML
		if err := decodePart(f, &slide); err != nil {
			return nil, fmt.Errorf("parse %s: %w", part, err)
		}
		for _, shape := range slide.Shapes {
			texts = append(texts, shape.text())
		}
	}
	return texts, nil
}

// slideParts resolves the presentation's slide list to zip part names.
func slideParts(files map[string]*zip.File) ([]string, error) {
	pf, ok := files[presentationPart]
	if !ok {
		return nil, errors.New("not a presentation: missing " + presentationPart)
	}
	var pres presentationXML
	if err := decodePart(pf, &pres); err != nil {
		return nil, fmt.Errorf("parse %s: %w", presentationPart, err)
	}

	rf, ok := files[presentationRels]
	if !ok {
		return nil, errors.New("not a presentation: missing " + presentationRels)
	}
	var rels relationshipsXML
	if err := decodePart(rf, &rels); err != nil {
		return nil, fmt.Errorf("parse %s: %w", presentationRels, err)
	}

	targets := make(map[string]string, len(rels.Rels))
	for _, r := range rels.Rels {
		targets[r.ID] = r.Target
	}

	parts := make([]string, 0, len(pres.SlideIDs))
	for _, s := range pres.SlideIDs {
		target, ok := targets[s.RID]
		if !ok {
			return nil, fmt.Errorf("slide relationship %s not found", s.RID)
		}
		if strings.HasPrefix(target, "/") {
			parts = append(parts, strings.TrimPrefix(target, "/"))
		} else {
			parts = append(parts, path.Join("ppt", target))
		}
	}
	return parts, nil
}

func (s shapeXML) text() string {
	if s.TxBody == nil {
		return ""
	}
	paras := make([]string, len(s.TxBody.Paragraphs))
	for i, p := range s.TxBody.Paragraphs {
		var sb strings.Builder
		for _, item := range p.Items {
			switch item.XMLName.Local {
			case "r", "fld":
				sb.WriteString(item.Text)
			case "br":
				sb.WriteString("\n")
			}
		}
		paras[i] = sb.String()
	}
	return strings.Join(paras, "\n")
}

func decodePart(f *zip.File, v any) error {
	rc, err := f.Open()
	if err != nil {
		return err
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return err
	}
	return xml.Unmarshal(data, v)
}
