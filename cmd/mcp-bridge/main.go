package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"mcp-bridge/internal/client"
	"mcp-bridge/internal/config"
	"mcp-bridge/internal/render"
	"mcp-bridge/internal/server"
	"mcp-bridge/internal/tools"
)

var version = "dev"

// errToolFailed makes `call` exit non-zero after printing a failed result.
var errToolFailed = errors.New("tool reported an error")

func main() {
	root := newRootCmd()
	if err := root.Execute(); err != nil {
		if !errors.Is(err, errToolFailed) {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "mcp-bridge",
		Short:         "mcp-bridge - expose configured shell commands as MCP tools",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cmd)
			if err != nil {
				return err
			}
			logger := buildLogger(cfg.Verbose)
			defer func() { _ = logger.Sync() }()

			renderer := render.NewStdoutRenderer(os.Stdout, cfg.Verbose)
			defer func() { _ = renderer.Close() }()

			registry, path, err := loadRegistry(cfg, tools.WithLogger(logger), tools.WithRenderer(renderer))
			if err != nil {
				return err
			}
			logger.Info("loaded tools", zap.String("path", path), zap.Int("count", len(registry.Names())))

			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			srv := server.New(registry, server.WithVersion(version), server.WithLogger(logger))
			return srv.Run(ctx, cfg.Addr(), cfg.ShutdownTimeout)
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringP("config", "f", "", "Tools file (json, yaml or toml); searched from cwd when unset")
	flags.StringP("cwd", "c", "", "Working directory substituted for {{cwd}}")
	flags.BoolP("verbose", "v", false, "Enable verbose logging")
	flags.String("shell", config.DefaultShell, "Shell used to run commands")
	cmd.Flags().IntP("port", "p", config.DefaultPort, "Port to listen on")
	cmd.Flags().String("host", "", "Host to bind")
	cmd.Flags().String("shutdown-timeout", config.DefaultShutdownTimeout.String(), "Graceful shutdown timeout")

	cmd.AddCommand(newToolsCmd(), newCallCmd())
	return cmd
}

func newToolsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tools",
		Short: "Print the configured tool catalog",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cmd)
			if err != nil {
				return err
			}
			registry, _, err := loadRegistry(cfg)
			if err != nil {
				return err
			}
			format, _ := cmd.Flags().GetString("format")
			return printCatalog(cmd.OutOrStdout(), registry, format)
		},
	}
	cmd.Flags().String("format", "yaml", "Output format: yaml or openai")
	return cmd
}

func newCallCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "call <tool>",
		Short: "Call a tool on a running bridge",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			url, _ := cmd.Flags().GetString("url")
			pairs, _ := cmd.Flags().GetStringArray("arg")
			params, err := parseArgs(pairs)
			if err != nil {
				return err
			}

			ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			c := client.New(url)
			if err := c.Initialize(ctx); err != nil {
				return err
			}
			res, err := c.CallTool(ctx, args[0], params)
			if err != nil {
				return err
			}
			out, err := res.Output()
			if err != nil {
				out = res.Text()
			}
			fmt.Fprintln(cmd.OutOrStdout(), out)
			if res.IsError {
				return errToolFailed
			}
			return nil
		},
	}
	cmd.Flags().String("url", fmt.Sprintf("http://localhost:%d%s", config.DefaultPort, server.Endpoint), "Bridge endpoint")
	cmd.Flags().StringArray("arg", nil, "Tool argument as key=value (repeatable)")
	return cmd
}

func loadRegistry(cfg config.Config, opts ...tools.ExecutorOption) (*tools.Registry, string, error) {
	path, err := config.ResolveToolsPath(cfg.ToolsPath, cfg.Cwd)
	if err != nil {
		return nil, "", err
	}
	defs, err := config.LoadTools(path, cfg.Cwd)
	if err != nil {
		return nil, "", err
	}
	opts = append([]tools.ExecutorOption{tools.WithShell(cfg.Shell)}, opts...)
	registry, err := tools.NewRegistry(defs, cfg.Cwd, opts...)
	if err != nil {
		return nil, "", err
	}
	return registry, path, nil
}

type catalogEntry struct {
	Name        string             `yaml:"name"`
	Description string             `yaml:"description"`
	Parameters  []catalogParameter `yaml:"parameters,omitempty"`
}

type catalogParameter struct {
	Name        string `yaml:"name"`
	Type        string `yaml:"type"`
	Default     any    `yaml:"default,omitempty"`
	Description string `yaml:"description"`
}

func printCatalog(w io.Writer, registry *tools.Registry, format string) error {
	switch format {
	case "openai":
		payload, err := json.MarshalIndent(registry.OpenAITools(), "", "  ")
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(w, string(payload))
		return err
	case "yaml":
		var entries []catalogEntry
		for _, name := range registry.Names() {
			tool, _ := registry.Get(name)
			entry := catalogEntry{Name: name, Description: tool.Description()}
			for _, p := range tool.Parameters() {
				entry.Parameters = append(entry.Parameters, catalogParameter(p))
			}
			entries = append(entries, entry)
		}
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(entries); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("unknown format %q (want yaml or openai)", format)
	}
}

// parseArgs turns key=value pairs into call arguments. Values that parse as
// JSON scalars keep their type; anything else is a string.
func parseArgs(pairs []string) (map[string]any, error) {
	params := make(map[string]any, len(pairs))
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid --arg %q (want key=value)", pair)
		}
		var decoded any
		if err := json.Unmarshal([]byte(value), &decoded); err == nil {
			switch decoded.(type) {
			case float64, bool:
				params[key] = decoded
				continue
			}
		}
		params[key] = value
	}
	return params, nil
}

func buildLogger(verbose bool) *zap.Logger {
	if verbose {
		logger, _ := zap.NewDevelopment()
		return logger
	}
	logger, _ := zap.NewProduction()
	return logger
}
