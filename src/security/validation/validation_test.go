package validation

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateClientContentType(t *testing.T) {
	assert.NoError(t, ValidateClientContentType("text/csv", "csv"))
	assert.NoError(t, ValidateClientContentType("text/csv; charset=utf-8", "csv"))
	assert.NoError(t, ValidateClientContentType("", "csv"))
	assert.NoError(t, ValidateClientContentType("application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", "xlsx"))

	err := ValidateClientContentType("application/pdf", "csv")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrValidationFailed)

	assert.Error(t, ValidateClientContentType("text/csv", "xlsx"))
}

func TestValidateFileContentByMagicBytes(t *testing.T) {
	r := strings.NewReader("Date,Action\n2024-01-02,Buy\n")
	detected, err := ValidateFileContentByMagicBytes(r, "csv")
	require.NoError(t, err)
	assert.Equal(t, "text/plain", detected)
	assert.Equal(t, int64(0), r.Size()-int64(r.Len()), "reader rewound")

	zip := bytes.NewReader([]byte("PK\x03\x04 rest of archive"))
	detected, err = ValidateFileContentByMagicBytes(zip, "xlsx")
	require.NoError(t, err)
	assert.Equal(t, "application/zip", detected)

	_, err = ValidateFileContentByMagicBytes(bytes.NewReader([]byte("PK\x03\x04")), "csv")
	assert.ErrorIs(t, err, ErrValidationFailed)

	_, err = ValidateFileContentByMagicBytes(strings.NewReader(`<?xml version="1.0"?><FlexQueryResponse/>`), "xml")
	assert.NoError(t, err)
}

func TestSanitizeForFormulaInjection(t *testing.T) {
	assert.Equal(t, "'=HYPERLINK(\"x\")", SanitizeForFormulaInjection("=HYPERLINK(\"x\")"))
	assert.Equal(t, "'@SUM(A1)", SanitizeForFormulaInjection("@SUM(A1)"))
	assert.Equal(t, "'\tcmd", SanitizeForFormulaInjection("\tcmd"))
	assert.Equal(t, "APPLE INC", SanitizeForFormulaInjection("APPLE INC"))
	assert.Equal(t, "", SanitizeForFormulaInjection(""))
}

func TestStripUnprintable(t *testing.T) {
	assert.Equal(t, "Buy", StripUnprintable("\uFEFFBu\x00y"))
	assert.Equal(t, "a\tb", StripUnprintable("a\tb"))
}
