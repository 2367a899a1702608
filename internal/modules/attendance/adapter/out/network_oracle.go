package out

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	attendanceout "officetime/internal/modules/attendance/port/out"
)

// CommandRunner runs an external tool and returns its stdout.
type CommandRunner interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

type ExecRunner struct {
	Timeout time.Duration
}

func (r ExecRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	if r.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.Timeout)
		defer cancel()
	}
	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return out, fmt.Errorf("%s: %w: %s", name, err, msg)
		}
		return out, fmt.Errorf("%s: %w", name, err)
	}
	return out, nil
}

// NmcliOracle asks NetworkManager for the Wi-Fi state.
type NmcliOracle struct {
	runner CommandRunner
	iface  string
}

func NewNmcliOracle(runner CommandRunner, iface string) attendanceout.NetworkOracle {
	return &NmcliOracle{runner: runner, iface: iface}
}

func (o *NmcliOracle) IsOnWifi(ctx context.Context) (bool, error) {
	out, err := o.runner.Run(ctx, "nmcli", "-t", "-f", "DEVICE,TYPE,STATE", "device", "status")
	if err != nil {
		return false, err
	}
	for _, fields := range splitTerse(out) {
		if len(fields) < 3 {
			continue
		}
		if o.iface != "" && fields[0] != o.iface {
			continue
		}
		if fields[1] == "wifi" && fields[2] == "connected" {
			return true, nil
		}
	}
	return false, nil
}

func (o *NmcliOracle) ResolvedIdentifier(ctx context.Context) (string, bool, error) {
	args := []string{"-t", "-f", "ACTIVE,SSID", "device", "wifi", "list", "--rescan", "no"}
	if o.iface != "" {
		args = append(args, "ifname", o.iface)
	}
	out, err := o.runner.Run(ctx, "nmcli", args...)
	if err != nil {
		return "", false, err
	}
	for _, fields := range splitTerse(out) {
		if len(fields) < 2 || fields[0] != "yes" {
			continue
		}
		ssid := strings.Join(fields[1:], ":")
		if ssid == "" {
			return "", false, nil
		}
		return ssid, true, nil
	}
	return "", false, nil
}

// splitTerse parses nmcli terse output, honoring the \: and \\ escapes.
func splitTerse(out []byte) [][]string {
	rows := [][]string{}
	scanner := bufio.NewScanner(bytes.NewReader(out))
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}
		fields := []string{}
		var cur strings.Builder
		for i := 0; i < len(line); i++ {
			switch {
			case line[i] == '\\' && i+1 < len(line):
				i++
				cur.WriteByte(line[i])
			case line[i] == ':':
				fields = append(fields, cur.String())
				cur.Reset()
			default:
				cur.WriteByte(line[i])
			}
		}
		rows = append(rows, append(fields, cur.String()))
	}
	return rows
}

// IwgetidOracle uses the wireless-tools iwgetid binary. iwgetid exits non-zero
// when the interface is not associated, which counts as off Wi-Fi.
type IwgetidOracle struct {
	runner CommandRunner
	iface  string
}

func NewIwgetidOracle(runner CommandRunner, iface string) attendanceout.NetworkOracle {
	return &IwgetidOracle{runner: runner, iface: iface}
}

func (o *IwgetidOracle) IsOnWifi(ctx context.Context) (bool, error) {
	ssid, _, err := o.ResolvedIdentifier(ctx)
	if err != nil {
		return false, err
	}
	return ssid != "", nil
}

func (o *IwgetidOracle) ResolvedIdentifier(ctx context.Context) (string, bool, error) {
	args := []string{"-r"}
	if o.iface != "" {
		args = append(args, o.iface)
	}
	out, err := o.runner.Run(ctx, "iwgetid", args...)
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) && exitErr.ExitCode() > 0 {
			return "", false, nil
		}
		return "", false, err
	}
	ssid := strings.TrimSpace(string(out))
	return ssid, ssid != "", nil
}

// StaticOracle reports fixed values. It backs hosts without a supported
// network tool and the smoke tests.
type StaticOracle struct {
	OnWifi bool
	SSID   string
}

func (o StaticOracle) IsOnWifi(context.Context) (bool, error) {
	return o.OnWifi, nil
}

func (o StaticOracle) ResolvedIdentifier(context.Context) (string, bool, error) {
	if !o.OnWifi {
		return "", false, nil
	}
	return o.SSID, o.SSID != "", nil
}
