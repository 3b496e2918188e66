// Package register writes a docindex-mcp entry into an MCP client configuration file.
package register

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"
)

// ErrUsage is returned when the register arguments are malformed.
var ErrUsage = errors.New("invalid register arguments")

type mcpServerEntry struct {
	Command string            `json:"command"`
	Args    []string          `json:"args,omitempty"`
	Env     map[string]string `json:"env,omitempty"`
}

// request is the parsed form of the register arguments.
type request struct {
	scope      string
	directory  string
	env        map[string]string
	serverArgs []string
}

// Run executes the register subcommand. args is everything after "register":
//
//	project [directory] [-e KEY=VALUE ...] [-- server flags]
//	user [-e KEY=VALUE ...] [-- server flags]
//
// A project registration without forwarded flags points -root at the directory, so the
// server indexes the documents of that project.
func Run(serverName string, args []string, stdout io.Writer) error {
	req, err := parseArgs(args)
	if err != nil {
		return err
	}

	binaryPath, err := detectBinaryPath()
	if err != nil {
		return fmt.Errorf("detecting binary path: %w", err)
	}

	configPath, err := resolveConfigPath(req.scope, req.directory)
	if err != nil {
		return fmt.Errorf("resolving config path: %w", err)
	}

	if req.scope == "project" && req.serverArgs == nil {
		req.serverArgs = []string{"-root", filepath.Dir(configPath)}
	}

	entry := buildEntry(binaryPath, req.serverArgs, req.env)
	if err := writeConfig(configPath, serverName, entry); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	fmt.Fprintf(stdout, "Registered %q in %s\n", serverName, configPath)
	return nil
}

// PrintUsage describes the register subcommand.
func PrintUsage(w io.Writer) {
	binaryName := filepath.Base(os.Args[0])
	fmt.Fprintf(w, "Usage:\n")
	fmt.Fprintf(w, "  %s register project [directory]            # → <directory>/.mcp.json (default: .)\n", binaryName)
	fmt.Fprintf(w, "  %s register user                           # → ~/.claude.json\n", binaryName)
	fmt.Fprintf(w, "  %s register project . -e DOCINDEX_WORKERS=2 # set server environment\n", binaryName)
	fmt.Fprintf(w, "  %s register user -- -root ~/notes          # forward flags to the server\n", binaryName)
}

// DeriveServerName extracts a server name from a binary path by stripping .exe and -mcp suffixes.
func DeriveServerName(binaryPath string) string {
	name := filepath.Base(binaryPath)
	name = strings.TrimSuffix(name, ".exe")
	name = strings.TrimSuffix(name, "-mcp")
	return name
}

func parseArgs(args []string) (request, error) {
	if len(args) == 0 {
		return request{}, fmt.Errorf("%w: missing scope", ErrUsage)
	}

	req := request{scope: args[0]}
	if req.scope != "project" && req.scope != "user" {
		return request{}, fmt.Errorf("%w: unknown scope %q (must be \"project\" or \"user\")", ErrUsage, req.scope)
	}
	if req.scope == "project" {
		req.directory = "."
	}

	rest := args[1:]
	for i := 0; i < len(rest); i++ {
		arg := rest[i]
		switch {
		case arg == "--":
			req.serverArgs = rest[i+1:]
			if req.serverArgs == nil {
				req.serverArgs = []string{}
			}
			return req, nil
		case arg == "-e" || arg == "--env":
			if i+1 >= len(rest) {
				return request{}, fmt.Errorf("%w: %s needs KEY=VALUE", ErrUsage, arg)
			}
			i++
			if err := req.addEnv(rest[i]); err != nil {
				return request{}, err
			}
		case req.scope == "project" && i == 0:
			req.directory = arg
		default:
			return request{}, fmt.Errorf("%w: unexpected argument %q", ErrUsage, arg)
		}
	}
	return req, nil
}

func (r *request) addEnv(pair string) error {
	key, value, ok := strings.Cut(pair, "=")
	if !ok || key == "" {
		return fmt.Errorf("%w: environment entry %q is not KEY=VALUE", ErrUsage, pair)
	}
	if r.env == nil {
		r.env = make(map[string]string)
	}
	r.env[key] = value
	return nil
}

func detectBinaryPath() (string, error) {
	exe, err := os.Executable()
	if err != nil {
		return "", fmt.Errorf("getting executable path: %w", err)
	}
	resolved, err := filepath.EvalSymlinks(exe)
	if err != nil {
		return "", fmt.Errorf("resolving symlinks for %s: %w", exe, err)
	}
	return resolved, nil
}

func resolveConfigPath(scope string, directory string) (string, error) {
	if scope == "project" {
		absDir, err := filepath.Abs(directory)
		if err != nil {
			return "", fmt.Errorf("resolving directory %s: %w", directory, err)
		}
		return filepath.Join(absDir, ".mcp.json"), nil
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting home directory: %w", err)
	}
	return filepath.Join(homeDir, ".claude.json"), nil
}

func buildEntry(binaryPath string, serverArgs []string, env map[string]string) mcpServerEntry {
	if runtime.GOOS == "windows" {
		args := []string{"/C", binaryPath}
		args = append(args, serverArgs...)
		return mcpServerEntry{Command: "cmd", Args: args, Env: env}
	}
	var args []string
	if len(serverArgs) > 0 {
		args = serverArgs
	}
	return mcpServerEntry{Command: binaryPath, Args: args, Env: env}
}

// writeConfig adds or replaces the server entry, keeping every other key of the file.
func writeConfig(configPath string, serverName string, entry mcpServerEntry) error {
	config := map[string]interface{}{}

	data, err := os.ReadFile(configPath)
	switch {
	case err == nil:
		if err := json.Unmarshal(data, &config); err != nil {
			return fmt.Errorf("parsing existing config %s: %w", configPath, err)
		}
	case !errors.Is(err, os.ErrNotExist):
		return fmt.Errorf("reading config %s: %w", configPath, err)
	}

	servers, ok := config["mcpServers"]
	if !ok {
		servers = map[string]interface{}{}
		config["mcpServers"] = servers
	}
	serversMap, ok := servers.(map[string]interface{})
	if !ok {
		return fmt.Errorf("mcpServers in %s is not an object", configPath)
	}
	serversMap[serverName] = entry

	output, err := json.MarshalIndent(config, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	output = append(output, '\n')

	return writeAtomic(configPath, output)
}

// writeAtomic writes to a temp file in the same directory, then renames it over path.
func writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	tmpFile, err := os.CreateTemp(dir, ".mcp-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file in %s: %w", dir, err)
	}
	tmpPath := tmpFile.Name()

	if _, err := tmpFile.Write(data); err != nil {
		tmpFile.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("writing temp file %s: %w", tmpPath, err)
	}
	if err := tmpFile.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("closing temp file %s: %w", tmpPath, err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("renaming %s to %s: %w", tmpPath, path, err)
	}
	return nil
}
