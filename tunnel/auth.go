package tunnel

import (
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"

	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/agent"
	"golang.org/x/crypto/ssh/knownhosts"
	"golang.org/x/term"
)

// prompter reads a secret from the operator. label is printed first.
type prompter func(label string) ([]byte, error)

// terminalPrompt reads a secret from stdin without echo.
func terminalPrompt(label string) ([]byte, error) {
	fmt.Fprint(os.Stderr, label)
	secret, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(os.Stderr)
	return secret, err
}

// defaultKeyNames are tried under ~/.ssh when nothing is configured.
var defaultKeyNames = []string{"id_ed25519", "id_ecdsa", "id_rsa"} //nolint:gochecknoglobals

// BuildAuthMethods returns the gateway authentication methods in the
// order they are offered: key file, agent, password. Prompts happen here,
// so the gateway is connected once at startup rather than per login.
func BuildAuthMethods(cfg *SSHConfig) ([]ssh.AuthMethod, error) {
	return authMethods(cfg, terminalPrompt)
}

func authMethods(cfg *SSHConfig, prompt prompter) ([]ssh.AuthMethod, error) {
	var methods []ssh.AuthMethod

	if cfg.KeyPath != "" {
		signer, err := loadSigner(cfg.KeyPath, prompt)
		if err != nil {
			return nil, fmt.Errorf("key %s: %w", cfg.KeyPath, err)
		}
		methods = append(methods, ssh.PublicKeys(signer))
	}
	if cfg.UseAgent {
		m, err := agentMethod()
		if err != nil {
			return nil, fmt.Errorf("ssh-agent: %w", err)
		}
		methods = append(methods, m)
	}
	if cfg.PromptPass {
		user := cfg.User
		if user == "" {
			user = "gateway"
		}
		pass, err := prompt(fmt.Sprintf("SSH password for %s@%s: ", user, cfg.Host))
		if err != nil {
			return nil, fmt.Errorf("reading password: %w", err)
		}
		methods = append(methods, ssh.Password(string(pass)))
	}

	if len(methods) == 0 {
		methods = discoverMethods()
	}
	if len(methods) == 0 {
		return nil, errors.New("no SSH authentication methods available: " +
			"use --ssh-key, --ssh-password or --ssh-agent")
	}
	return methods, nil
}

// loadSigner parses a private key, asking for the passphrase when the
// key is encrypted.
func loadSigner(path string, prompt prompter) (ssh.Signer, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	signer, err := ssh.ParsePrivateKey(data)
	var missing *ssh.PassphraseMissingError
	if !errors.As(err, &missing) {
		return signer, err
	}

	pass, err := prompt(fmt.Sprintf("Enter passphrase for %s: ", path))
	if err != nil {
		return nil, fmt.Errorf("reading passphrase: %w", err)
	}
	return ssh.ParsePrivateKeyWithPassphrase(data, pass)
}

func agentMethod() (ssh.AuthMethod, error) {
	sock := os.Getenv("SSH_AUTH_SOCK")
	if sock == "" {
		return nil, errors.New("SSH_AUTH_SOCK is not set")
	}
	conn, err := net.Dial("unix", sock)
	if err != nil {
		return nil, fmt.Errorf("connecting to agent at %s: %w", sock, err)
	}
	return ssh.PublicKeysCallback(agent.NewClient(conn).Signers), nil
}

// discoverMethods offers the agent and any unencrypted default key. An
// encrypted default key is skipped: nobody asked for it, so nobody is
// prompted for it.
func discoverMethods() []ssh.AuthMethod {
	var out []ssh.AuthMethod
	if m, err := agentMethod(); err == nil {
		out = append(out, m)
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return out
	}
	noPrompt := func(string) ([]byte, error) { return nil, errors.New("encrypted") }
	for _, name := range defaultKeyNames {
		if signer, err := loadSigner(filepath.Join(home, ".ssh", name), noPrompt); err == nil {
			out = append(out, ssh.PublicKeys(signer))
		}
	}
	return out
}

// hostKeyCallback verifies the gateway against known_hosts when strict
// checking is on.
func hostKeyCallback(cfg *SSHConfig) (ssh.HostKeyCallback, error) {
	if !cfg.StrictHostKey {
		//nolint:gosec // user opted out of host key checking
		return ssh.InsecureIgnoreHostKey(), nil
	}

	path := cfg.KnownHosts
	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("locating home directory: %w", err)
		}
		path = filepath.Join(home, ".ssh", "known_hosts")
	}
	cb, err := knownhosts.New(path)
	if err != nil {
		return nil, fmt.Errorf("loading known_hosts from %s: %w", path, err)
	}
	return cb, nil
}
