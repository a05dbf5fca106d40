package cli

import (
	"errors"
	"fmt"
	"text/tabwriter"
)

type UsersCmd struct{}

func (c *UsersCmd) Run(ctx *Context) error {
	creds, err := ctx.credentials()
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(ctx.Out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "USERNAME\tROLE\tNAME\tEMAIL")
	for _, u := range creds.Users() {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", u.Username, u.Role, u.Name, u.Email)
	}
	return tw.Flush()
}

type SetRoleCmd struct {
	As       string `help:"Admin performing the change." required:""`
	Username string `arg:"" help:"User to change."`
	Role     string `arg:"" help:"New role." enum:"admin,user"`
}

func (c *SetRoleCmd) Run(ctx *Context) error {
	creds, err := ctx.credentials()
	if err != nil {
		return err
	}
	if err := creds.SetRole(c.As, c.Username, c.Role); err != nil {
		return fmt.Errorf("set role for %s: %w", c.Username, err)
	}
	fmt.Fprintf(ctx.Out, "%s is now %s\n", c.Username, c.Role)
	return nil
}

type ClearUsersCmd struct {
	As  string `help:"Admin performing the change." required:""`
	Yes bool   `help:"Confirm removal of every user except demo."`
}

func (c *ClearUsersCmd) Run(ctx *Context) error {
	if !c.Yes {
		return errors.New("refusing to clear users without --yes")
	}
	creds, err := ctx.credentials()
	if err != nil {
		return err
	}
	removed, err := creds.ClearAllUsers(c.As)
	if err != nil {
		return fmt.Errorf("clear users: %w", err)
	}
	fmt.Fprintf(ctx.Out, "removed %d user(s)\n", removed)
	return nil
}
