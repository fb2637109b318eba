package deploy

import (
	"bytes"
	"context"
	"fmt"
	"net"
	"os"
	"path"
	"strconv"
	"time"

	"github.com/pkg/sftp"
	"golang.org/x/crypto/ssh"

	"github.com/free-plinko-game/aff-web-gen/internal/apperr"
	"github.com/free-plinko-game/aff-web-gen/internal/config"
)

// SSHTransport implements Transport over an SSH connection with SFTP for
// file transfer.
type SSHTransport struct {
	client *ssh.Client
	sftp   *sftp.Client
}

// DialSSH opens the transport described by the deploy config.
func DialSSH(ctx context.Context, cfg config.DeployConfig) (*SSHTransport, error) {
	key, err := os.ReadFile(expandHome(cfg.KeyPath))
	if err != nil {
		return nil, apperr.Wrap(err, apperr.CategoryConfig, apperr.SeverityError, "read ssh private key")
	}
	signer, err := ssh.ParsePrivateKey(key)
	if err != nil {
		return nil, apperr.Wrap(err, apperr.CategoryConfig, apperr.SeverityError, "parse ssh private key")
	}

	sshCfg := &ssh.ClientConfig{
		User: cfg.User,
		Auth: []ssh.AuthMethod{ssh.PublicKeys(signer)},
		// Hosts are provisioned by the same operators running deploys.
		HostKeyCallback: ssh.InsecureIgnoreHostKey(),
		Timeout:         30 * time.Second,
	}

	addr := net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port))
	dialer := net.Dialer{Timeout: sshCfg.Timeout}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, apperr.WrapRetryable(err, apperr.CategoryNetwork, apperr.SeverityError, "dial deploy host")
	}
	sshConn, chans, reqs, err := ssh.NewClientConn(conn, addr, sshCfg)
	if err != nil {
		_ = conn.Close()
		return nil, apperr.WrapRetryable(err, apperr.CategoryNetwork, apperr.SeverityError, "ssh handshake")
	}
	client := ssh.NewClient(sshConn, chans, reqs)

	sftpClient, err := sftp.NewClient(client)
	if err != nil {
		_ = client.Close()
		return nil, apperr.WrapRetryable(err, apperr.CategoryNetwork, apperr.SeverityError, "open sftp session")
	}
	return &SSHTransport{client: client, sftp: sftpClient}, nil
}

func expandHome(p string) string {
	if len(p) >= 2 && p[:2] == "~/" {
		if home, err := os.UserHomeDir(); err == nil {
			return path.Join(home, p[2:])
		}
	}
	return p
}

func (t *SSHTransport) run(ctx context.Context, cmd string) (string, error) {
	session, err := t.client.NewSession()
	if err != nil {
		return "", fmt.Errorf("open ssh session: %w", err)
	}
	defer session.Close()

	var stdout, stderr bytes.Buffer
	session.Stdout = &stdout
	session.Stderr = &stderr

	done := make(chan error, 1)
	go func() { done <- session.Run(cmd) }()
	select {
	case <-ctx.Done():
		_ = session.Signal(ssh.SIGKILL)
		return "", ctx.Err()
	case err := <-done:
		if err != nil {
			return stdout.String(), fmt.Errorf("remote command %q: %w (stderr: %s)", cmd, err, stderr.String())
		}
		return stdout.String(), nil
	}
}

func (t *SSHTransport) Run(ctx context.Context, cmd string) (string, error) {
	return t.run(ctx, cmd)
}

func (t *SSHTransport) Sudo(ctx context.Context, cmd string) (string, error) {
	return t.run(ctx, "sudo "+cmd)
}

func (t *SSHTransport) Upload(ctx context.Context, data []byte, remotePath string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := t.sftp.MkdirAll(path.Dir(remotePath)); err != nil {
		return fmt.Errorf("create remote directory %s: %w", path.Dir(remotePath), err)
	}
	f, err := t.sftp.Create(remotePath)
	if err != nil {
		return fmt.Errorf("create remote file %s: %w", remotePath, err)
	}
	defer f.Close()
	if _, err := f.Write(data); err != nil {
		return fmt.Errorf("write remote file %s: %w", remotePath, err)
	}
	return f.Close()
}

func (t *SSHTransport) MkdirAll(ctx context.Context, remotePath string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := t.sftp.MkdirAll(remotePath); err != nil {
		return fmt.Errorf("create remote directory %s: %w", remotePath, err)
	}
	return nil
}

func (t *SSHTransport) Close() error {
	_ = t.sftp.Close()
	return t.client.Close()
}
