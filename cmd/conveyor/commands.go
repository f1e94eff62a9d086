package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	conveyor "github.com/goliatone/go-conveyor"
	"github.com/goliatone/go-conveyor/pkg/logging"
	toml "github.com/pelletier/go-toml/v2"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

type rootOptions struct {
	configPath string
	stateFile  string
	output     string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:           "conveyor",
		Short:         "Inspect and edit state files through store paths and expressions",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVarP(&opts.stateFile, "file", "f", "", "state file (.json, .yaml, .yml or .toml)")
	cmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "store config file (.toml or .yaml)")
	cmd.PersistentFlags().StringVarP(&opts.output, "output", "o", "json", "output format: json or yaml")
	_ = cmd.MarkPersistentFlagRequired("file")

	cmd.AddCommand(newGetCmd(opts))
	cmd.AddCommand(newEvalCmd(opts))
	cmd.AddCommand(newPathsCmd(opts))
	cmd.AddCommand(newSetCmd(opts))
	return cmd
}

func newGetCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "get <path>",
		Short: "Print the value at a dotted path",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := opts.open(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			path := conveyor.ParsePath(args[0])
			value, err := store.Select(func(op *conveyor.Operators) any {
				return op.Track(path...)
			})
			if err != nil {
				return err
			}
			return opts.print(cmd.OutOrStdout(), value)
		},
	}
}

func newEvalCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "eval <expression>",
		Short: "Evaluate an expr-lang expression against the state",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := opts.open(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			value, err := store.Select(conveyor.Derive(args[0]))
			if err != nil {
				return err
			}
			return opts.print(cmd.OutOrStdout(), value)
		},
	}
}

func newPathsCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "paths",
		Short: "List every leaf path of the state with its type",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, err := opts.open(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, field := range conveyor.Describe(store.Root()) {
				fmt.Fprintf(out, "%s\t%s\n", field.Path, field.Type)
			}
			return nil
		},
	}
}

func newSetCmd(opts *rootOptions) *cobra.Command {
	var write bool
	cmd := &cobra.Command{
		Use:   "set <path> <yaml-value>",
		Short: "Replace the value at a path and print the resulting state",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := opts.open(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			var value any
			if err := yaml.Unmarshal([]byte(args[1]), &value); err != nil {
				return fmt.Errorf("parse value: %w", err)
			}
			path := conveyor.ParsePath(args[0])
			if _, err := store.Update(func(op *conveyor.Operators) any {
				return op.Edit(path...)
			}, conveyor.Replace(value)); err != nil {
				return err
			}
			if write {
				return writeState(opts.stateFile, store.Root())
			}
			return opts.print(cmd.OutOrStdout(), store.Root())
		},
	}
	cmd.Flags().BoolVarP(&write, "write", "w", false, "write the result back to the state file")
	return cmd
}

func (o *rootOptions) open(logOut io.Writer) (*conveyor.Store, error) {
	cfg, err := conveyor.LoadConfig(o.configPath)
	if err != nil {
		return nil, err
	}
	state, err := readState(o.stateFile)
	if err != nil {
		return nil, err
	}
	name := cfg.Name
	if name == "" {
		name = strings.TrimSuffix(filepath.Base(o.stateFile), filepath.Ext(o.stateFile))
	}
	return conveyor.New(state,
		conveyor.WithConfig(cfg),
		conveyor.WithName(name),
		conveyor.WithLogger(logging.FromConfig(cfg.Log, logOut)),
		conveyor.WithDeferrer(conveyor.ImmediateDeferrer),
	), nil
}

func (o *rootOptions) print(out io.Writer, value any) error {
	switch o.output {
	case "yaml":
		enc := yaml.NewEncoder(out)
		enc.SetIndent(2)
		if err := enc.Encode(value); err != nil {
			return fmt.Errorf("encode yaml: %w", err)
		}
		return enc.Close()
	case "json", "":
		data, err := json.MarshalIndent(value, "", "  ")
		if err != nil {
			return fmt.Errorf("encode json: %w", err)
		}
		_, err = fmt.Fprintln(out, string(data))
		return err
	default:
		return fmt.Errorf("unsupported output format %q", o.output)
	}
}

func readState(path string) (any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read state: %w", err)
	}
	var state any
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".json":
		err = json.Unmarshal(data, &state)
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &state)
	case ".toml":
		var record map[string]any
		err = toml.Unmarshal(data, &record)
		state = record
	default:
		return nil, fmt.Errorf("read state: unsupported extension %q", ext)
	}
	if err != nil {
		return nil, fmt.Errorf("parse state: %w", err)
	}
	return state, nil
}

func writeState(path string, state any) error {
	var (
		data []byte
		err  error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		data, err = json.MarshalIndent(state, "", "  ")
	case ".yaml", ".yml":
		data, err = yaml.Marshal(state)
	case ".toml":
		data, err = toml.Marshal(state)
	}
	if err != nil {
		return fmt.Errorf("encode state: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}
