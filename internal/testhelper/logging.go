package testhelper

import (
	"os"

	"github.com/rs/zerolog"
)

// init silences zerolog under test unless CARBONWISE_TEST_LOG is set.
func init() {
	if isTesting() && os.Getenv("CARBONWISE_TEST_LOG") == "" {
		zerolog.SetGlobalLevel(zerolog.Disabled)
	}
}

// isTesting returns true if we're currently running tests
func isTesting() bool {
	return testingBinary() ||
		os.Getenv("GO_TEST") != "" ||
		(len(os.Args) > 1 && os.Args[1] == "test")
}
