package ingest

import (
	"bytes"
	"slices"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

const vocabularySheet = "Vocabulary"

// VocabularyRow is one line of an uploaded vocabulary workbook. Rows that
// fail validation are skipped with a warning rather than failing the whole
// upload.
type VocabularyRow struct {
	Headword    string `validate:"required"`
	Translation string `validate:"required"`
	Level       string `validate:"required,oneof=A0 A1 A2 B1 B2 C1 C2"`
	Example     string
	Notes       string
}

var rowValidate = validator.New()

// ParseVocabularyWorkbook extracts vocabulary rows from an xlsx upload. The
// workbook must carry a "Vocabulary" sheet whose first row names the
// columns; unknown columns are ignored.
func ParseVocabularyWorkbook(content []byte) ([]VocabularyRow, error) {
	excelFile, err := excelize.OpenReader(bytes.NewReader(content))
	if err != nil {
		return nil, errors.Wrap(err, "opening workbook")
	}
	defer excelFile.Close()

	sheets := excelFile.GetSheetList()
	if !slices.Contains(sheets, vocabularySheet) {
		return nil, errors.Errorf("workbook has no %q sheet", vocabularySheet)
	}

	rows, err := excelFile.GetRows(vocabularySheet)
	if err != nil {
		return nil, errors.Wrapf(err, "reading %q sheet", vocabularySheet)
	}
	if len(rows) <= 1 {
		return []VocabularyRow{}, nil
	}

	colMap := buildColumnMap(rows[0])
	parsed := make([]VocabularyRow, 0, len(rows)-1)
	for i, row := range rows[1:] {
		if len(row) == 0 {
			continue
		}
		entry := VocabularyRow{
			Headword:    getColumnValue(row, colMap, "headword"),
			Translation: getColumnValue(row, colMap, "translation"),
			Level:       strings.ToUpper(getColumnValue(row, colMap, "level")),
			Example:     getColumnValue(row, colMap, "example"),
			Notes:       getColumnValue(row, colMap, "notes"),
		}
		if err := rowValidate.Struct(entry); err != nil {
			zap.S().Named("ingest").Warnf("skipping vocabulary row %d: %v", i+2, err)
			continue
		}
		parsed = append(parsed, entry)
	}

	return parsed, nil
}

// IsExcelFile sniffs the zip magic bytes and verifies the archive actually
// opens as a workbook.
func IsExcelFile(content []byte) bool {
	if len(content) < 2 {
		return false
	}
	if content[0] == 0x50 && content[1] == 0x4B {
		f, err := excelize.OpenReader(bytes.NewReader(content))
		if err != nil {
			return false
		}
		defer f.Close()
		return true
	}
	return false
}

func buildColumnMap(headers []string) map[string]int {
	colMap := make(map[string]int)
	for i, header := range headers {
		key := strings.ToLower(strings.TrimSpace(header))
		colMap[key] = i
	}
	return colMap
}

func getColumnValue(row []string, colMap map[string]int, key string) string {
	if idx, exists := colMap[key]; exists && idx < len(row) {
		return strings.TrimSpace(row[idx])
	}
	return ""
}
