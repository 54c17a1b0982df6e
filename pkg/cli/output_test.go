package cli

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrintTable_Basic(t *testing.T) {
	var buf bytes.Buffer
	PrintTable(&buf, []string{"name", "dn"}, [][]string{
		{"alice", "CN=alice,DC=example,DC=test"},
		{"bob", "CN=bob,DC=example,DC=test"},
	})
	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")

	require.Len(t, lines, 3, "expected header + 2 data rows")
	assert.Equal(t, "NAME   DN", lines[0])
	assert.Equal(t, "alice  CN=alice,DC=example,DC=test", lines[1])
	assert.Equal(t, "bob    CN=bob,DC=example,DC=test", lines[2])
}

func TestPrintTable_EmptyColumns(t *testing.T) {
	var buf bytes.Buffer
	PrintTable(&buf, []string{}, [][]string{{"a"}})
	assert.Empty(t, buf.String())
}

func TestPrintTable_EmptyRows(t *testing.T) {
	var buf bytes.Buffer
	PrintTable(&buf, []string{"id", "value"}, nil)
	assert.Equal(t, "ID  VALUE\n", buf.String())
}

func TestPrintTable_ShortRow(t *testing.T) {
	var buf bytes.Buffer
	PrintTable(&buf, []string{"a", "b"}, [][]string{{"1"}})
	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "1", lines[1])
}

func TestPrintDetail_SortedAndPadded(t *testing.T) {
	var buf bytes.Buffer
	PrintDetail(&buf, map[string]interface{}{
		"id":          "123",
		"description": "some text",
	})
	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")

	require.Len(t, lines, 2)
	assert.Equal(t, "description:  some text", lines[0])
	assert.Equal(t, "id:"+strings.Repeat(" ", 9)+"  123", lines[1])
}

func TestFormatValue(t *testing.T) {
	tests := []struct {
		name string
		in   interface{}
		want string
	}{
		{name: "nil", in: nil, want: ""},
		{name: "string", in: "alice", want: "alice"},
		{name: "whole float", in: float64(42), want: "42"},
		{name: "fraction", in: 1.5, want: "1.5"},
		{name: "bool", in: true, want: "true"},
		{name: "string slice", in: []string{"a", "b"}, want: "a, b"},
		{name: "map as json", in: map[string]interface{}{"k": "v"}, want: `{"k":"v"}`},
		{name: "any slice as json", in: []interface{}{"a", "b"}, want: `["a","b"]`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, formatValue(tt.in))
		})
	}
}

func TestPrintJSON_Indented(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, PrintJSON(&buf, map[string]int{"count": 1}))
	assert.Equal(t, "{\n  \"count\": 1\n}\n", buf.String())
}
