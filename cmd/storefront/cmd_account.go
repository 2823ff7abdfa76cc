package main

import (
	"fmt"
	"io"
	"sort"

	"github.com/go-faster/errors"
	"github.com/spf13/cobra"

	"storefront/internal/forms"
)

var (
	regUsername  string
	regEmail     string
	regPassword  string
	regPassword2 string
	regAgree     bool

	loginUsername string
	loginPassword string

	curPassword  string
	newPassword  string
	confPassword string
	newLogin     string
)

// printFieldErrors выводит ошибки формы рядом с именами полей
func printFieldErrors(w io.Writer, err error) error {
	var verr *forms.ValidationError
	if !errors.As(err, &verr) {
		return err
	}
	fields := make([]string, 0, len(verr.Fields))
	for f := range verr.Fields {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	for _, f := range fields {
		fmt.Fprintf(w, "  %s: %s\n", f, verr.Fields[f])
	}
	return errActionFailed
}

var registerCmd = &cobra.Command{
	Use:   "register",
	Short: "Create an account",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		draft := forms.NewRegistrationDraft()
		draft.Input(forms.FieldUsername, regUsername)
		draft.Input(forms.FieldEmail, regEmail)
		draft.Input(forms.FieldPassword, regPassword)
		draft.Input(forms.FieldPassword2, regPassword2)
		draft.SetAgree(regAgree)

		res, err := current.accounts.Register(cmd.Context(), draft)
		if err != nil {
			return printFieldErrors(cmd.ErrOrStderr(), err)
		}
		return outcome(res)
	},
}

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Open a session; cookies are kept in the cookie file",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if loginUsername == "" || loginPassword == "" {
			return errors.New("--username and --password are required")
		}
		return outcome(current.accounts.Login(cmd.Context(), loginUsername, loginPassword))
	},
}

var passwordCmd = &cobra.Command{
	Use:   "password",
	Short: "Change the account password",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		confirm := confPassword
		if !cmd.Flags().Changed("confirm") {
			confirm = newPassword
		}
		res, err := current.profile.ChangePassword(cmd.Context(), curPassword, newPassword, confirm)
		if err != nil {
			return printFieldErrors(cmd.ErrOrStderr(), err)
		}
		return outcome(res)
	},
}

var renameCmd = &cobra.Command{
	Use:   "rename",
	Short: "Change the account login",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		res, err := current.profile.ChangeLogin(cmd.Context(), curPassword, newLogin)
		if err != nil {
			return printFieldErrors(cmd.ErrOrStderr(), err)
		}
		return outcome(res)
	},
}

func init() {
	registerCmd.Flags().StringVar(&regUsername, "username", "", "Login")
	registerCmd.Flags().StringVar(&regEmail, "email", "", "Email (optional)")
	registerCmd.Flags().StringVar(&regPassword, "password", "", "Password")
	registerCmd.Flags().StringVar(&regPassword2, "password2", "", "Password confirmation")
	registerCmd.Flags().BoolVar(&regAgree, "agree", false, "Accept the terms of service")

	loginCmd.Flags().StringVar(&loginUsername, "username", "", "Login")
	loginCmd.Flags().StringVar(&loginPassword, "password", "", "Password")

	passwordCmd.Flags().StringVar(&curPassword, "current", "", "Current password")
	passwordCmd.Flags().StringVar(&newPassword, "new", "", "New password, at least 6 characters")
	passwordCmd.Flags().StringVar(&confPassword, "confirm", "", "Repeat the new password (defaults to --new)")

	renameCmd.Flags().StringVar(&curPassword, "current", "", "Current password")
	renameCmd.Flags().StringVar(&newLogin, "login", "", "New login: latin letters, digits and underscore")
}
