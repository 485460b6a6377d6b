package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/folio-cms/folio/internal/binder"
	"github.com/folio-cms/folio/internal/identity"
	"github.com/folio-cms/folio/internal/media"
	"github.com/folio-cms/folio/internal/page"
	"github.com/folio-cms/folio/internal/users"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

func (c *cli) editCmd() *cobra.Command {
	var email string
	cmd := &cobra.Command{
		Use:   "edit",
		Short: "Sign in as the owner and edit content interactively",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if email == "" {
				email = c.cfg.Owner.Email
			}
			if email == "" {
				return errors.New("--email is required")
			}
			if err := c.backend.SeedOwner(ctx, c.cfg); err != nil {
				return err
			}

			in := bufio.NewScanner(cmd.InOrStdin())
			out := cmd.OutOrStdout()
			password, err := readPassword(in, cmd.InOrStdin(), out)
			if err != nil {
				return err
			}

			src := identity.NewPasswordSource(ownerAuthenticator(c.backend.Users))
			gate := identity.NewGate(src)
			defer gate.Close()
			if err := gate.Wait(ctx); err != nil {
				return err
			}
			if err := src.SignIn(ctx, email, password); err != nil {
				return err
			}

			p := page.New(c.backend.Store, binder.Options{
				Writer: binder.NewWriter(c.cfg.Write.Policy()),
				Guard:  gate,
				Media:  media.Policy(c.cfg.Media),
			})
			p.SetEditMode(gate.EditMode())
			off := gate.OnChange(func(id *identity.Identity) { p.SetEditMode(id != nil) })
			defer off()
			if err := p.Activate(ctx); err != nil {
				return err
			}
			defer p.Close()

			fmt.Fprintf(out, "signed in as %s; type help for commands\n", email)
			return newConsole(p, gate, in, out).run(ctx)
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "owner email (defaults to OWNER_EMAIL)")
	return cmd
}

// ownerAuthenticator signs in against the owner account.
func ownerAuthenticator(svc *users.Service) identity.Authenticator {
	return identity.AuthenticatorFunc(func(ctx context.Context, email, password string) (*identity.Identity, error) {
		u, err := svc.Authenticate(ctx, email, password)
		if err != nil {
			return nil, err
		}
		return &identity.Identity{Subject: u.Sub, Email: u.Email, Name: u.Name}, nil
	})
}

// readPassword reads without echo from a terminal, or a plain line from
// anything else.
func readPassword(in *bufio.Scanner, r io.Reader, out io.Writer) (string, error) {
	fmt.Fprint(out, "password: ")
	if f, ok := r.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		b, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(out)
		return string(b), err
	}
	if !in.Scan() {
		if err := in.Err(); err != nil {
			return "", err
		}
		return "", io.ErrUnexpectedEOF
	}
	return in.Text(), nil
}
