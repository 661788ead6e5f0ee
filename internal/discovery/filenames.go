package discovery

import (
	"fmt"
	"regexp"
	"strings"
)

const agentPrefix = "agent-"

var sessionIDRe = regexp.MustCompile(`^[0-9a-fA-F-]{32,}$`)
var agentHashRe = regexp.MustCompile(`^[a-fA-F0-9]+$`)

// ParseSessionFilename strips the .jsonl extension and classifies
// the remainder: names beginning "agent-" are sub-agent sessions
// (the hash after the prefix is preserved as-is); others must be
// UUID-shaped (32+ hex/dash characters).
func ParseSessionFilename(name string) (id string, isSubagent bool, err error) {
	base := strings.TrimSuffix(name, ".jsonl")
	if base == name {
		return "", false, fmt.Errorf("discovery: %q is not a .jsonl file", name)
	}

	if strings.HasPrefix(base, agentPrefix) {
		hash := strings.TrimPrefix(base, agentPrefix)
		if hash == "" || !agentHashRe.MatchString(hash) {
			return "", false, fmt.Errorf("discovery: %q is not a valid agent session filename", name)
		}
		return base, true, nil
	}

	if !sessionIDRe.MatchString(base) {
		return "", false, fmt.Errorf("discovery: %q is not a valid session filename", name)
	}
	return base, false, nil
}
