package testutil

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

// AssertLogged checks that the captured log output contains a record with the
// given level and message.
func AssertLogged(t *testing.T, logs fmt.Stringer, level, msg string) {
	t.Helper()

	for _, line := range strings.Split(logs.String(), "\n") {
		if strings.Contains(line, "level="+level) && strings.Contains(line, msg) {
			return
		}
	}
	require.Fail(t, "log record not found", "no %s record containing %q in:\n%s", level, msg, logs.String())
}
