package sqlite

import (
	"database/sql/driver"
	"fmt"

	"golang.org/x/text/cases"
	"modernc.org/sqlite"

	"fundingScope/internal/query"
)

func init() {
	if err := sqlite.RegisterDeterministicScalarFunction(query.FoldFunc, 1, casefold); err != nil {
		panic(fmt.Sprintf("register %s: %v", query.FoldFunc, err))
	}
}

// casefold applies full Unicode case folding to a text argument.
// NULL stays NULL; other types pass through untouched.
func casefold(_ *sqlite.FunctionContext, args []driver.Value) (driver.Value, error) {
	switch v := args[0].(type) {
	case string:
		return foldString(v), nil
	case []byte:
		return foldString(string(v)), nil
	default:
		return v, nil
	}
}

// foldString uses a fresh Caser per call; Casers are not safe for
// concurrent use.
func foldString(s string) string {
	return cases.Fold().String(s)
}
