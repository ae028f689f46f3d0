package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/VarunWeb6/ALEX-AI/internal/api"
	"github.com/VarunWeb6/ALEX-AI/internal/channel"
	"github.com/VarunWeb6/ALEX-AI/internal/ui"
)

func projectsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "projects",
		Short: "List and create projects",
	}
	cmd.AddCommand(projectsListCmd(a), projectsCreateCmd(a))
	return cmd
}

func projectsListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List your projects",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.requireAuth(); err != nil {
				return err
			}
			projects, err := a.api.ListProjects(cmd.Context())
			if err != nil {
				return err
			}
			if len(projects) == 0 {
				fmt.Println("no projects yet — create one with `alex projects create <name>`")
				return nil
			}
			for _, p := range projects {
				fmt.Printf("%-24s %d collaborator(s)  %s\n", p.Name, len(p.Users), p.ID)
			}
			return nil
		},
	}
}

func projectsCreateCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "create <name>",
		Short: "Create a project",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.requireAuth(); err != nil {
				return err
			}
			p, err := a.api.CreateProject(cmd.Context(), args[0])
			if err != nil {
				if errors.Is(err, api.ErrDuplicateName) {
					return fmt.Errorf("project %q already exists, pick another name", args[0])
				}
				return err
			}
			fmt.Printf("created project %s (%s)\n", p.Name, p.ID)
			return nil
		},
	}
}

func openCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "open <project-name-or-id>",
		Short: "Open a project room",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.requireAuth(); err != nil {
				return err
			}
			project, err := a.findProject(cmd, args[0])
			if err != nil {
				return err
			}

			manager := channel.NewManager(a.cfg.API.WSURL, a.session.Token)
			return ui.Run(a.session, a.api, manager, *project)
		},
	}
}

func (a *app) findProject(cmd *cobra.Command, nameOrID string) (*api.Project, error) {
	projects, err := a.api.ListProjects(cmd.Context())
	if err != nil {
		return nil, err
	}
	for i := range projects {
		if projects[i].Name == nameOrID || projects[i].ID == nameOrID {
			return &projects[i], nil
		}
	}
	// Maybe an id not in the listing (joined out of band).
	p, err := a.api.GetProject(cmd.Context(), nameOrID)
	if err != nil {
		if errors.Is(err, api.ErrNotFound) {
			return nil, fmt.Errorf("no project named %q", nameOrID)
		}
		return nil, err
	}
	return p, nil
}
