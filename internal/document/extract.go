package document

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/dslipak/pdf" // Pure Go PDF text extractor

	simerrors "github.com/Aman-CERP/simscore/internal/errors"
)

// DefaultMaxBytes is the extraction size limit when none is given.
const DefaultMaxBytes = 10 * 1024 * 1024

// Format is a supported input file format.
type Format string

const (
	FormatText Format = "text"
	FormatPDF  Format = "pdf"
	FormatDOCX Format = "docx"
)

// unsupported lists binary formats rejected up front instead of being
// misread as text.
var unsupported = map[string]bool{
	".doc": true, ".rtf": true, ".odt": true, ".pages": true,
	".xls": true, ".xlsx": true, ".ppt": true, ".pptx": true,
	".zip": true, ".gz": true, ".png": true, ".jpg": true, ".jpeg": true,
}

// DetectFormat picks the format from the file extension. Unknown extensions
// are treated as text and must then pass the UTF-8 check.
func DetectFormat(name string) (Format, error) {
	ext := strings.ToLower(filepath.Ext(name))
	switch {
	case ext == ".pdf":
		return FormatPDF, nil
	case ext == ".docx":
		return FormatDOCX, nil
	case unsupported[ext]:
		return "", simerrors.New(simerrors.ErrCodeUnsupportedFormat,
			fmt.Sprintf("unsupported file type %s", ext), nil).
			WithDetail("file", name).
			WithSuggestion("use .txt, .md, .pdf or .docx")
	default:
		return FormatText, nil
	}
}

// ExtractFile reads and extracts the text of the file at path.
func ExtractFile(path string, maxBytes int64) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", simerrors.New(simerrors.ErrCodeFileNotFound,
				fmt.Sprintf("file not found: %s", path), err)
		}
		return "", simerrors.New(simerrors.ErrCodeFileNotFound,
			fmt.Sprintf("cannot open %s", path), err)
	}
	defer func() { _ = f.Close() }()

	return Extract(filepath.Base(path), f, maxBytes)
}

// Extract reads at most maxBytes from r and extracts its text according to
// the format implied by name. maxBytes <= 0 means DefaultMaxBytes.
func Extract(name string, r io.Reader, maxBytes int64) (string, error) {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}

	format, err := DetectFormat(name)
	if err != nil {
		return "", err
	}

	data, err := io.ReadAll(io.LimitReader(r, maxBytes+1))
	if err != nil {
		return "", simerrors.New(simerrors.ErrCodeFileCorrupt,
			fmt.Sprintf("failed to read %s", name), err)
	}
	if int64(len(data)) > maxBytes {
		return "", simerrors.New(simerrors.ErrCodeFileTooLarge,
			fmt.Sprintf("%s exceeds the %d byte limit", name, maxBytes), nil).
			WithDetail("file", name)
	}

	var text string
	switch format {
	case FormatPDF:
		text, err = extractPDF(data)
	case FormatDOCX:
		text, err = extractDOCX(data)
	default:
		text, err = extractText(data)
	}
	if err != nil {
		return "", simerrors.New(simerrors.ErrCodeFileCorrupt,
			fmt.Sprintf("failed to extract %s", name), err).
			WithDetail("file", name).
			WithDetail("format", string(format))
	}
	return text, nil
}

// extractText accepts UTF-8 only, with an optional byte order mark.
func extractText(data []byte) (string, error) {
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))
	if !utf8.Valid(data) {
		return "", fmt.Errorf("not valid UTF-8 text")
	}
	return string(data), nil
}

func extractPDF(data []byte) (text string, err error) {
	// The PDF parser panics on some malformed input
	defer func() {
		if r := recover(); r != nil {
			text, err = "", fmt.Errorf("malformed PDF: %v", r)
		}
	}()

	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("failed to open PDF: %w", err)
	}

	plain, err := r.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("failed to read PDF text: %w", err)
	}

	var buf bytes.Buffer
	if _, err := buf.ReadFrom(plain); err != nil {
		return "", fmt.Errorf("failed to read PDF text: %w", err)
	}
	return buf.String(), nil
}

// extractDOCX reads word/document.xml from the DOCX zip and keeps its
// character data, with paragraph and tab breaks.
func extractDOCX(data []byte) (string, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("failed to open DOCX zip: %w", err)
	}

	var documentXML *zip.File
	for _, f := range zr.File {
		if f.Name == "word/document.xml" {
			documentXML = f
			break
		}
	}
	if documentXML == nil {
		return "", fmt.Errorf("invalid docx: missing word/document.xml")
	}

	rc, err := documentXML.Open()
	if err != nil {
		return "", err
	}
	defer func() { _ = rc.Close() }()

	decoder := xml.NewDecoder(rc)
	var sb strings.Builder
	for {
		token, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", err
		}

		switch t := token.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "p", "br":
				sb.WriteString("\n")
			case "tab":
				sb.WriteString("\t")
			}
		case xml.CharData:
			sb.Write(t)
		}
	}
	return sb.String(), nil
}
