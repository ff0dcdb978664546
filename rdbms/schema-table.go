package rdbms

import (
	"fmt"
	"regexp"
	"strings"
)

var reQuoted = regexp.MustCompile(`^"([^"]|"")+"$`) // a quoted identifier whose embedded quotes are doubled

type SchemaTable struct {
	SchemaTable string `errorTxt:"<schema>.<table>"`
}

func NewSchemaTable(schema string, table string) SchemaTable {
	if schema == "" {
		return SchemaTable{table}
	} else {
		return SchemaTable{schema + "." + table}
	}
}

func (st *SchemaTable) isQuotedTable() bool {
	re1 := regexp.MustCompile(`".+\..+"`)   // "random.table"
	re2 := regexp.MustCompile(`".+"\.".+"`) // "table"."schema"
	if re1.MatchString(st.SchemaTable) && !re2.MatchString(st.SchemaTable) {
		// if the schemaTable is a quoted "random.table" and not a regular "schema"."table"...
		return true
	} else {
		return false
	}
}

func (st *SchemaTable) GetTable() string {
	if st.isQuotedTable() {
		// if the schemaTable is a quoted "random.table" and not a regular "schema"."table"...
		return st.SchemaTable // return the "random.table"
	}
	// else we have a schema.table...
	_, t := splitSchemaTable(st.SchemaTable)
	return t
}

func (st *SchemaTable) GetSchema() string {
	if st.isQuotedTable() {
		return ""
	}
	s, _ := splitSchemaTable(st.SchemaTable)
	return s
}

// FullyQualified returns "<DATABASE>"."<SCHEMA>"."<TABLE>" with every part quoted by QuoteIdentifier.
// The database is omitted if empty, as is the schema.
func (st *SchemaTable) FullyQualified(database string) string {
	parts := make([]string, 0, 3)
	if database != "" {
		parts = append(parts, QuoteIdentifier(database))
	}
	if s := st.GetSchema(); s != "" {
		parts = append(parts, QuoteIdentifier(s))
	}
	parts = append(parts, QuoteIdentifier(st.GetTable()))
	return strings.Join(parts, ".")
}

func (st *SchemaTable) String() string {
	return st.SchemaTable
}

// splitSchemaTable splits s on the first period that is not inside double quotes.
func splitSchemaTable(s string) (string, string) {
	inQuotes := false
	for i, c := range s {
		switch c {
		case '"':
			inQuotes = !inQuotes
		case '.':
			if !inQuotes {
				return s[:i], s[i+1:]
			}
		}
	}
	return "", s
}

// QuoteIdentifier converts an unquoted identifier to upper case and wraps it in double quotes, doubling any
// embedded quotes. Identifiers that are already quoted, with any embedded quotes doubled, are returned unchanged.
func QuoteIdentifier(s string) string {
	s = strings.TrimSpace(s)
	if reQuoted.MatchString(s) { // if already quoted...
		return s
	}
	return fmt.Sprintf(`"%v"`, strings.ReplaceAll(strings.ToUpper(s), `"`, `""`))
}
