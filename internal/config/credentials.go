package config

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/term"
	"gopkg.in/yaml.v3"
)

// Credentials are the persisted compute server settings.
type Credentials struct {
	URL    string `yaml:"url"`
	APIKey string `yaml:"api_key"`
}

// Store keeps Credentials in a YAML file readable only by the user.
type Store struct {
	path string
}

func NewStore(path string) *Store { return &Store{path: path} }

// DefaultStore lives in the user's config directory.
func DefaultStore() (*Store, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return nil, err
	}
	return NewStore(filepath.Join(dir, "rhinoview", "credentials.yaml")), nil
}

func (s *Store) Path() string { return s.path }

// Load reports ok=false when nothing has been saved yet.
func (s *Store) Load() (Credentials, bool, error) {
	var c Credentials
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return c, false, nil
	}
	if err != nil {
		return c, false, fmt.Errorf("failed to read credentials: %w", err)
	}
	if err := yaml.Unmarshal(data, &c); err != nil {
		return c, false, fmt.Errorf("failed to parse %s: %w", s.path, err)
	}
	return c, c.URL != "", nil
}

func (s *Store) Save(c Credentials) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return err
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(s.path, data, 0o600)
}

// Prompter asks the user for a value. Secret input is not echoed.
type Prompter interface {
	Prompt(label string, secret bool) (string, error)
}

// TermPrompter prompts on a terminal.
type TermPrompter struct {
	In  *os.File
	Out io.Writer

	reader *bufio.Reader
}

func NewTermPrompter() *TermPrompter {
	return &TermPrompter{In: os.Stdin, Out: os.Stderr}
}

func (p *TermPrompter) Prompt(label string, secret bool) (string, error) {
	fmt.Fprint(p.Out, label)
	fd := int(p.In.Fd())
	if secret && term.IsTerminal(fd) {
		b, err := term.ReadPassword(fd)
		fmt.Fprintln(p.Out)
		if err != nil {
			return "", err
		}
		return strings.TrimSpace(string(b)), nil
	}
	if p.reader == nil {
		p.reader = bufio.NewReader(p.In)
	}
	line, err := p.reader.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// ResolveCompute fills in the server URL and key when none is configured:
// first from the store, then by prompting and saving the answers. A
// configured URL skips both.
func ResolveCompute(c *Compute, store *Store, p Prompter) error {
	if c.URL != "" {
		return nil
	}
	if store != nil {
		saved, ok, err := store.Load()
		if err != nil {
			return err
		}
		if ok {
			c.URL, c.APIKey = saved.URL, saved.APIKey
			return nil
		}
	}
	if p == nil {
		return errors.New("config: no compute URL configured")
	}
	url, err := p.Prompt("RhinoCompute server URL: ", false)
	if err != nil {
		return err
	}
	if url == "" {
		return errors.New("config: no compute URL given")
	}
	key, err := p.Prompt("RhinoCompute API key (blank for none): ", true)
	if err != nil {
		return err
	}
	c.URL, c.APIKey = url, key
	if store != nil {
		return store.Save(Credentials{URL: url, APIKey: key})
	}
	return nil
}
