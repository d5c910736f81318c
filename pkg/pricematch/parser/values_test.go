package parser

import (
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ukaji3/pricematch-go/pkg/pricematch/models"
)

func TestParsePrice(t *testing.T) {
	tests := []struct {
		input   string
		want    string
		wantErr bool
	}{
		{"12", "12", false},
		{"12.5", "12.5", false},
		{" 3.75 ", "3.75", false},
		{"-100", "-100", false},
		{"1e3", "1000", false},
		{"0.30000000000000004", "0.30000000000000004", false},
		{"abc", "", true},
		{"12,5", "", true},
		{"$5", "", true},
	}

	for _, tt := range tests {
		got, err := parsePrice(tt.input)
		if tt.wantErr {
			assert.Error(t, err, "parsePrice(%q)", tt.input)
			continue
		}
		require.NoError(t, err, "parsePrice(%q)", tt.input)
		assert.True(t, decimal.RequireFromString(tt.want).Equal(got),
			"parsePrice(%q) = %s, want %s", tt.input, got, tt.want)
	}
}

func TestDataBounds(t *testing.T) {
	rows := [][]string{
		{},
		{"", "b2", "c2"},
		{"", "", "", "", "e4"},
	}
	b := dataBounds(rows)
	assert.Equal(t, Bounds{MinRow: 2, MaxRow: 3, MinCol: 2, MaxCol: 5}, b)
	assert.True(t, dataBounds(nil).Empty())
}

func TestStore_UsedBounds(t *testing.T) {
	path := writeWorkbook(t, "bounds.xlsx", map[string]any{"A1": "h", "D3": 4})

	store := NewStore(models.DefaultLimits())
	defer store.CloseAll()
	require.NoError(t, store.Load(path, path))

	b, err := store.UsedBounds(path)
	require.NoError(t, err)
	assert.Equal(t, 4, b.MaxCol)
	assert.Equal(t, 3, b.MaxRow)

	_, err = store.UsedBounds(filepath.Join(t.TempDir(), "nope.xlsx"))
	assert.Error(t, err)
}

func TestIsDateFormat(t *testing.T) {
	tests := []struct {
		code string
		want bool
	}{
		{"yyyy-mm-dd", true},
		{"h:mm AM/PM", true},
		{"[h]:mm:ss", true},
		{"[$-409]d-mmm-yy", true},
		{"0.00", false},
		{"#,##0.00;[Red]-#,##0.00", false},
		{`0.00 "days"`, false},
		{`\d0`, false},
		{"[$€-2] #,##0.00", false},
		{"General", false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, isDateFormat(tt.code), "isDateFormat(%q)", tt.code)
	}
}
