package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/rpggio/notiontime/internal/config"
	"github.com/rpggio/notiontime/internal/domain/project"
)

// projectsFile is the YAML document written by export and read by import.
type projectsFile struct {
	Projects []project.Mapping `yaml:"projects"`
}

func newProjectsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "projects",
		Short: "Inspect and manage Notion to Clockify project mappings",
	}
	cmd.AddCommand(newProjectsListCommand())
	cmd.AddCommand(newProjectsDeleteCommand())
	cmd.AddCommand(newProjectsExportCommand())
	cmd.AddCommand(newProjectsImportCommand())
	return cmd
}

// withProjects loads config, opens the store and hands the service to fn.
func withProjects(cmd *cobra.Command, fn func(*project.Service) error) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger := newLogger(cmd.ErrOrStderr(), cfg.Log.Level)
	db, svc, err := projectStore(cfg, logger)
	if err != nil {
		return err
	}
	defer db.Close()
	return fn(svc)
}

func newProjectsListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List stored project mappings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withProjects(cmd, func(svc *project.Service) error {
				mappings, err := svc.List(cmd.Context())
				if err != nil {
					return err
				}
				return printMappings(cmd.OutOrStdout(), mappings)
			})
		},
	}
}

func printMappings(w io.Writer, mappings []project.Mapping) error {
	if len(mappings) == 0 {
		_, err := fmt.Fprintln(w, "no project mappings")
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNOTION ID\tCLOCKIFY ID\tNAME")
	for _, m := range mappings {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", m.ID, m.NotionID, m.ClockifyID, m.DisplayName())
	}
	return tw.Flush()
}

func newProjectsDeleteCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a project mapping by row id",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil || id <= 0 {
				return fmt.Errorf("invalid project id %q", args[0])
			}
			return withProjects(cmd, func(svc *project.Service) error {
				m, err := svc.Delete(cmd.Context(), id)
				if errors.Is(err, project.ErrProjectNotFound) {
					return fmt.Errorf("project %d not found", id)
				}
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "deleted project %d (%s)\n", m.ID, m.Name)
				return nil
			})
		},
	}
}

func newProjectsExportCommand() *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write all project mappings as YAML",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withProjects(cmd, func(svc *project.Service) error {
				mappings, err := svc.List(cmd.Context())
				if err != nil {
					return err
				}
				data, err := yaml.Marshal(projectsFile{Projects: mappings})
				if err != nil {
					return fmt.Errorf("encode projects: %w", err)
				}
				if file == "" || file == "-" {
					_, err = cmd.OutOrStdout().Write(data)
					return err
				}
				return os.WriteFile(file, data, 0o644)
			})
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "output file (default stdout)")
	return cmd
}

func newProjectsImportCommand() *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Store project mappings from a YAML export",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var (
				data []byte
				err  error
			)
			if file == "" || file == "-" {
				data, err = io.ReadAll(cmd.InOrStdin())
			} else {
				data, err = os.ReadFile(file)
			}
			if err != nil {
				return fmt.Errorf("read projects: %w", err)
			}
			var doc projectsFile
			if err := yaml.Unmarshal(data, &doc); err != nil {
				return fmt.Errorf("parse projects: %w", err)
			}
			return withProjects(cmd, func(svc *project.Service) error {
				if err := svc.Import(cmd.Context(), doc.Projects); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "imported %d projects\n", len(doc.Projects))
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "input file (default stdin)")
	return cmd
}
