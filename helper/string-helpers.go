package helper

import (
	"fmt"
	"regexp"
	"strings"

	om "github.com/cevaris/ordered_map"
)

// TokensToOrderedMap converts a string of the form 'k1:v1,k2:v2' into an ordered map.
// 1) Split on comma to find each key:value pair.
// 2) Split on the first colon to separate the key from the value.
// Keys and values are trimmed of spaces. Pairs without a colon are ignored.
func TokensToOrderedMap(s string) *om.OrderedMap {
	o := om.NewOrderedMap()
	for _, token := range strings.Split(s, ",") {
		k, v := Split(token, ":")
		k = strings.TrimSpace(k)
		v = strings.TrimSpace(v)
		if k != "" && v != "" { // if there is a key:value...
			o.Set(k, v)
		}
	}
	return o
}

// OrderedMapToTokens converts the supplied ordered map to a CSV of key:value,key:value,...
// All keys and values are expected to be of type string.
func OrderedMapToTokens(m *om.OrderedMap) (string, error) {
	b := strings.Builder{}
	iter := m.IterFunc()
	if iter == nil {
		return "", fmt.Errorf("failed to get iterFunc in OrderedMapToTokens()")
	}
	for kv, ok := iter(); ok; kv, ok = iter() {
		b.WriteString(fmt.Sprintf(",%v:%v", kv.Key, kv.Value))
	}
	return strings.TrimLeft(b.String(), ","), nil
}

// OrderedMapKeys returns the keys of m in insertion order as strings.
func OrderedMapKeys(m *om.OrderedMap) []string {
	retval := make([]string, 0, m.Len())
	iter := m.IterFunc()
	for kv, ok := iter(); ok; kv, ok = iter() {
		retval = append(retval, fmt.Sprint(kv.Key))
	}
	return retval
}

// CsvToStringSliceTrimSpaces converts a string of the form, 'f1,f2,f3...' into a slice of string values.
// Empty values are dropped.
func CsvToStringSliceTrimSpaces(s string) []string {
	retval := make([]string, 0)
	for _, t := range strings.Split(s, ",") {
		t = strings.TrimSpace(t)
		if t != "" {
			retval = append(retval, t)
		}
	}
	return retval
}

// GetTrueFalseStringAsBool trims spaces from s and checks if it can regexp (case insensitive) match "true".
// It returns true if there's a match else false.
func GetTrueFalseStringAsBool(s string) bool {
	re := regexp.MustCompile("(?i)^(true|1|yes)$")
	return re.MatchString(strings.TrimSpace(s))
}

// Maybe s is of the form t c u.
// If so, return  t, u.
// If not, return s, "".
func Split(s string, c string) (string, string) {
	i := strings.Index(s, c)
	if i < 0 {
		return s, ""
	}
	return s[:i], s[i+len(c):]
}

// GenerateStringOfColsEqualsCols returns "src.col1 = tgt.col1 and src.col2 = tgt.col2" for the colList supplied,
// where " and " is whatever separator you pass in.
func GenerateStringOfColsEqualsCols(colList []string, srcAlias string, tgtAlias string, separator string) string {
	return strings.Join(GenerateSliceOfColsEqualCols(colList, srcAlias, tgtAlias), separator)
}

func GenerateSliceOfColsEqualCols(colList []string, srcAlias string, tgtAlias string) []string {
	retval := make([]string, len(colList))
	for idx, col := range colList {
		retval[idx] = fmt.Sprintf("%s.%s = %s.%s", srcAlias, col, tgtAlias, col)
	}
	return retval
}

// PrefixStrings returns a copy of s with each element prefixed by alias and a dot.
func PrefixStrings(s []string, alias string) []string {
	retval := make([]string, len(s))
	for idx, v := range s {
		retval[idx] = alias + "." + v
	}
	return retval
}
