// Package deploy ships a rendered release to the remote host and manages the
// symlink-based release protocol, the vhost config, TLS provisioning, and
// release pruning.
package deploy

import "context"

// Transport is the remote-execution and file-transfer channel. The production
// implementation runs over SSH/SFTP; tests use a recording mock.
type Transport interface {
	// Run executes a shell command as the deploy user and returns stdout.
	Run(ctx context.Context, cmd string) (string, error)
	// Sudo executes a privileged command and returns stdout.
	Sudo(ctx context.Context, cmd string) (string, error)
	// Upload writes data to an absolute remote path.
	Upload(ctx context.Context, data []byte, remotePath string) error
	// MkdirAll creates a remote directory tree.
	MkdirAll(ctx context.Context, remotePath string) error
	Close() error
}

// TransportFactory opens a transport for one deploy/rollback operation.
type TransportFactory func(ctx context.Context) (Transport, error)
