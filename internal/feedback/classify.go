package feedback

import (
	"strings"

	"github.com/tommyengstrom/haskell-agent-tooling/internal/domain"
)

// SuccessPrefix is the literal marker ghcid puts at the start of the
// report when every module compiled. Case-sensitive, anchored at the
// start of the text.
const SuccessPrefix = "All good"

// Classify maps report content to an exit code and output stream.
// Success goes to stdout with exit 0; anything else, including an
// empty report, goes to stderr with exit 2.
func Classify(report string) domain.Verdict {
	if strings.HasPrefix(report, SuccessPrefix) {
		return domain.Verdict{
			ExitCode: domain.ExitOK,
			Message:  report,
			Stream:   domain.StreamStdout,
		}
	}
	return domain.Verdict{
		ExitCode: domain.ExitFailure,
		Message:  report,
		Stream:   domain.StreamStderr,
	}
}
