package constants

import (
	"regexp"
	"strings"
	"testing"
)

func TestTimeFormat(t *testing.T) {
	// Check that the global regexp can match constant TimeFormatYearSeconds.
	re := regexp.MustCompile(TimeFormatYearSecondsRegex)
	if !re.MatchString(TimeFormatYearSeconds) {
		t.Fatal("Mismatch between TimeFormatYearSeconds and regexp in constant TimeFormatYearSecondsRegex.")
	}
}

func TestDbtEnvVarNames(t *testing.T) {
	for _, v := range []string{DbtEnvVarUser, DbtEnvVarPassword, DbtEnvVarAccount, DbtEnvVarSchema,
		DbtEnvVarDatabase, DbtEnvVarRole, DbtEnvVarWarehouse, DbtEnvVarType} {
		if !strings.HasPrefix(v, DbtEnvVarPrefix) {
			t.Fatalf("expected dbt variable %q to start with %q", v, DbtEnvVarPrefix)
		}
	}
}
