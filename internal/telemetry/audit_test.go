package telemetry

import (
	"bytes"
	"strings"
	"testing"
)

// TestAuditConnectedIncludesPeerAddr checks that the connected event line
// carries the role and peer address fields a log consumer would filter on.
func TestAuditConnectedIncludesPeerAddr(t *testing.T) {
	var buf bytes.Buffer
	a := NewAudit(&buf, "server")
	a.Connected("10.0.0.5:9000")

	out := buf.String()
	if !strings.Contains(out, `"role":"server"`) {
		t.Errorf("missing role field: %s", out)
	}
	if !strings.Contains(out, `"peer_addr":"10.0.0.5:9000"`) {
		t.Errorf("missing peer_addr field: %s", out)
	}
	if !strings.Contains(out, `"event":"connected"`) {
		t.Errorf("missing event field: %s", out)
	}
}
