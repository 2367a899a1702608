package out

import "context"

// Store is the key-value persistence the engine runs on. Get reports ok=false
// for keys that are absent.
type Store interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Remove(ctx context.Context, key string) error
}

// NetworkOracle reports live Wi-Fi state. ResolvedIdentifier returns ok=false
// when the platform cannot tell which network the device is associated with.
type NetworkOracle interface {
	IsOnWifi(ctx context.Context) (bool, error)
	ResolvedIdentifier(ctx context.Context) (string, bool, error)
}

// DaemonStore tracks the pid of the background tracker so other processes can
// tell it to drop its cached settings.
type DaemonStore interface {
	WritePID(ctx context.Context, pid int) error
	ReadPID(ctx context.Context) (int, error)
	ClearPID(ctx context.Context) error
}
