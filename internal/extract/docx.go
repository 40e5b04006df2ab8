package extract

import (
	"archive/zip"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"
)

// extractDocx reads word/document.xml: top-level paragraphs first, then every
// table row as its non-empty cells joined with " | ".
func extractDocx(path string) (string, error) {
	r, err := zip.OpenReader(path)
	if err != nil {
		return "", fmt.Errorf("open zip: %w", err)
	}
	defer r.Close()

	var docFile *zip.File
	for _, f := range r.File {
		if f.Name == "word/document.xml" {
			docFile = f
			break
		}
	}
	if docFile == nil {
		return "", errors.New("word/document.xml not found in archive")
	}

	rc, err := docFile.Open()
	if err != nil {
		return "", fmt.Errorf("open document.xml: %w", err)
	}
	defer rc.Close()

	paras, rows, err := parseDocumentXML(rc)
	if err != nil {
		return "", err
	}
	return strings.Join(append(paras, rows...), "\n"), nil
}

func parseDocumentXML(r io.Reader) (paras, rows []string, err error) {
	decoder := xml.NewDecoder(r)

	var (
		tblDepth  int
		inText    bool
		para      strings.Builder
		cellParas []string
		rowCells  []string
	)

	for {
		tok, terr := decoder.Token()
		if terr == io.EOF {
			break
		}
		if terr != nil {
			return nil, nil, fmt.Errorf("parse document.xml: %w", terr)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "tbl":
				tblDepth++
			case "tr":
				if tblDepth == 1 {
					rowCells = rowCells[:0]
				}
			case "tc":
				if tblDepth == 1 {
					cellParas = cellParas[:0]
				}
			case "p":
				para.Reset()
			case "t":
				inText = true
			case "tab":
				para.WriteByte('\t')
			case "br", "cr":
				para.WriteByte('\n')
			}

		case xml.CharData:
			if inText {
				para.Write(t)
			}

		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inText = false
			case "p":
				text := para.String()
				switch tblDepth {
				case 0:
					if s := strings.TrimSpace(text); s != "" {
						paras = append(paras, s)
					}
				case 1:
					cellParas = append(cellParas, text)
				}
			case "tc":
				if tblDepth == 1 {
					if s := strings.TrimSpace(strings.Join(cellParas, "\n")); s != "" {
						rowCells = append(rowCells, s)
					}
				}
			case "tr":
				if tblDepth == 1 && len(rowCells) > 0 {
					rows = append(rows, strings.Join(rowCells, " | "))
				}
			case "tbl":
				tblDepth--
			}
		}
	}
	return paras, rows, nil
}
