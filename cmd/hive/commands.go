package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"taskhive/internal/mapper"
	"taskhive/internal/model"
	"taskhive/internal/seed"
	"taskhive/internal/views"
	"taskhive/pkg/auth"
)

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create the TaskHive tables if they do not exist",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEnv(cmd.Context())
			if err != nil {
				return err
			}
			defer e.Close()
			fmt.Printf("Tables ready (%s)\n", e.cfg.Backend)
			return nil
		},
	}
}

func seedCmd() *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Insert projects, tasks and subtasks from a YAML fixture",
		Long: `Insert a fixture through the record stores, parents first.

Without --file the built-in demo workspace is used.

Examples:
  hive seed
  hive seed --file fixtures/launch.yaml`,
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				f   *seed.Fixture
				err error
			)
			if file == "" {
				f, err = seed.Demo()
			} else {
				var r *os.File
				if r, err = os.Open(file); err != nil {
					return err
				}
				defer r.Close()
				f, err = seed.Parse(r)
			}
			if err != nil {
				return err
			}

			e, err := openEnv(cmd.Context())
			if err != nil {
				return err
			}
			defer e.Close()

			n, err := f.Apply(cmd.Context(), e.backend.Remote)
			if err != nil {
				return fmt.Errorf("%w (inserted %d projects, %d tasks, %d subtasks)", err, n.Projects, n.Tasks, n.SubTasks)
			}
			if jsonOutput {
				return printJSON(n)
			}
			fmt.Printf("Seeded %d projects, %d tasks, %d subtasks\n", n.Projects, n.Tasks, n.SubTasks)
			return nil
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "fixture file (YAML)")
	return cmd
}

func dashboardCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "dashboard",
		Short: "Show project and task totals",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEnv(cmd.Context())
			if err != nil {
				return err
			}
			defer e.Close()

			st := e.loadStore(cmd.Context())
			defer st.Close()
			snap := st.Snapshot()

			if jsonOutput {
				return printJSON(views.Dashboard(snap.Projects, snap.Tasks))
			}
			fmt.Println(renderDashboard(snap.Projects, snap.Tasks))
			return nil
		},
	}
}

func boardCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "board <project-id>",
		Short: "Show the Kanban board of a project",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEnv(cmd.Context())
			if err != nil {
				return err
			}
			defer e.Close()

			st := e.loadStore(cmd.Context())
			defer st.Close()
			p, ok := st.Project(args[0])
			if !ok {
				return fmt.Errorf("project %s not found", args[0])
			}

			board := views.Board(st.Tasks(), p.ID)
			if jsonOutput {
				return printJSON(board)
			}
			fmt.Println(renderBoard(p, board))
			return nil
		},
	}
}

func activityCmd() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "activity",
		Short: "Show the most recent activity",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEnv(cmd.Context())
			if err != nil {
				return err
			}
			defer e.Close()

			rows, err := e.backend.Remote.Activities.Recent(cmd.Context(), limit)
			if err != nil {
				return err
			}
			now := time.Now()
			acts := make([]model.Activity, len(rows))
			for i, r := range rows {
				acts[i] = mapper.ToLocalActivity(r, now)
			}
			if jsonOutput {
				return printJSON(acts)
			}
			fmt.Println(renderActivity(acts))
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 10, "number of entries")
	return cmd
}

func userCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage accounts",
	}

	var email, password, name string
	create := &cobra.Command{
		Use:   "create",
		Short: "Register an account",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEnv(cmd.Context())
			if err != nil {
				return err
			}
			defer e.Close()

			client := auth.NewClient(e.backend.Auth)
			u, err := client.SignUp(cmd.Context(), email, password, name)
			if err != nil {
				return err
			}
			if jsonOutput {
				return printJSON(u)
			}
			fmt.Printf("Created user %s (%s)\n", u.Email, u.ID)
			return nil
		},
	}
	create.Flags().StringVar(&email, "email", "", "email address")
	create.Flags().StringVar(&password, "password", "", "password, at least 6 characters")
	create.Flags().StringVar(&name, "name", "", "full name")
	_ = create.MarkFlagRequired("email")
	_ = create.MarkFlagRequired("password")

	cmd.AddCommand(create)
	return cmd
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println("hive", Version)
		},
	}
}
