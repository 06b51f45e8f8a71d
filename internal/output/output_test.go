package output

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func newTestUI() (*UI, *bytes.Buffer, *bytes.Buffer) {
	out := &bytes.Buffer{}
	errOut := &bytes.Buffer{}
	return &UI{Out: out, ErrOut: errOut}, out, errOut
}

func TestInfo(t *testing.T) {
	u, out, _ := newTestUI()
	u.Info("hello %s", "world")
	assert.Contains(t, out.String(), "hello world")
}

func TestSuccess(t *testing.T) {
	u, out, _ := newTestUI()
	u.Success("done %d", 42)
	assert.Contains(t, out.String(), "done 42")
}

func TestWarning(t *testing.T) {
	u, _, errOut := newTestUI()
	u.Warning("careful %s", "now")
	assert.Contains(t, errOut.String(), "careful now")
}

func TestError(t *testing.T) {
	u, _, errOut := newTestUI()
	u.Error("failed %s", "badly")
	assert.Contains(t, errOut.String(), "failed badly")
}

func TestVerboseLog_OnlyWhenVerbose(t *testing.T) {
	u, out, _ := newTestUI()
	u.VerboseLog("hidden")
	assert.Empty(t, out.String())

	u.Verbose = true
	u.VerboseLog("shown")
	assert.Contains(t, out.String(), "shown")
}

func TestDryRunMsg_OnlyWhenDryRun(t *testing.T) {
	u, _, errOut := newTestUI()
	u.DryRunMsg("skipped")
	assert.Empty(t, errOut.String())

	u.DryRun = true
	u.DryRunMsg("would do it")
	assert.Contains(t, errOut.String(), "would do it")
}

func TestStatusColor_PassesThroughUnknown(t *testing.T) {
	assert.Equal(t, "weird", StatusColor("weird"))
}
