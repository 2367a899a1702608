package out_test

import (
	"context"
	"errors"
	"os/exec"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	out "officetime/internal/modules/attendance/adapter/out"
)

type scriptedRunner struct {
	outputs map[string]string
	err     error
	calls   []string
}

func (r *scriptedRunner) Run(_ context.Context, name string, args ...string) ([]byte, error) {
	call := strings.Join(append([]string{name}, args...), " ")
	r.calls = append(r.calls, call)
	if r.err != nil {
		return nil, r.err
	}
	for prefix, output := range r.outputs {
		if strings.HasPrefix(call, prefix) {
			return []byte(output), nil
		}
	}
	return nil, nil
}

func TestNmcliOracle(t *testing.T) {
	t.Parallel()
	runner := &scriptedRunner{outputs: map[string]string{
		"nmcli -t -f DEVICE,TYPE,STATE": "lo:loopback:unmanaged\nwlp2s0:wifi:connected\nenp0s31f6:ethernet:unavailable\n",
		"nmcli -t -f ACTIVE,SSID":       "no:Neighbors\nyes:Work\\:HQ\nno:Cafe\n",
	}}
	oracle := out.NewNmcliOracle(runner, "")
	ctx := context.Background()

	onWifi, err := oracle.IsOnWifi(ctx)
	require.NoError(t, err)
	assert.True(t, onWifi)

	ssid, ok, err := oracle.ResolvedIdentifier(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "Work:HQ", ssid)
}

func TestNmcliOracleFiltersInterface(t *testing.T) {
	t.Parallel()
	runner := &scriptedRunner{outputs: map[string]string{
		"nmcli -t -f DEVICE,TYPE,STATE": "wlan0:wifi:disconnected\nwlan1:wifi:connected\n",
		"nmcli -t -f ACTIVE,SSID":       "yes:\n",
	}}
	oracle := out.NewNmcliOracle(runner, "wlan0")
	ctx := context.Background()

	onWifi, err := oracle.IsOnWifi(ctx)
	require.NoError(t, err)
	assert.False(t, onWifi)

	_, ok, err := oracle.ResolvedIdentifier(ctx)
	require.NoError(t, err)
	assert.False(t, ok, "hidden or unresolvable network")
	assert.Contains(t, runner.calls[len(runner.calls)-1], "ifname wlan0")
}

func TestNmcliOracleFailure(t *testing.T) {
	t.Parallel()
	oracle := out.NewNmcliOracle(&scriptedRunner{err: errors.New("nmcli: not found")}, "")

	_, err := oracle.IsOnWifi(context.Background())
	assert.Error(t, err)
}

func TestIwgetidOracle(t *testing.T) {
	t.Parallel()
	oracle := out.NewIwgetidOracle(&scriptedRunner{outputs: map[string]string{"iwgetid -r": "Work-WiFi\n"}}, "")
	ctx := context.Background()

	onWifi, err := oracle.IsOnWifi(ctx)
	require.NoError(t, err)
	assert.True(t, onWifi)

	ssid, ok, err := oracle.ResolvedIdentifier(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "Work-WiFi", ssid)
}

func TestIwgetidOracleMissingBinary(t *testing.T) {
	t.Parallel()
	oracle := out.NewIwgetidOracle(&scriptedRunner{err: exec.ErrNotFound}, "wlan0")

	_, err := oracle.IsOnWifi(context.Background())
	assert.ErrorIs(t, err, exec.ErrNotFound)
}

func TestStaticOracle(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	ssid, ok, err := out.StaticOracle{OnWifi: true, SSID: "Work"}.ResolvedIdentifier(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "Work", ssid)

	_, ok, err = out.StaticOracle{SSID: "Work"}.ResolvedIdentifier(ctx)
	require.NoError(t, err)
	assert.False(t, ok)
}
