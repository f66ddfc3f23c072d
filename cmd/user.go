package cmd

import (
	"bufio"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/vibast-solutions/ms-go-identity/app/repository"
	"github.com/vibast-solutions/ms-go-identity/app/service"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var userCmd = &cobra.Command{
	Use:   "user",
	Short: "Administer user accounts",
}

var userSetRoleCmd = &cobra.Command{
	Use:   "set-role <email> <role>",
	Short: "Change the role of a user (STUDENT or ADMIN)",
	Args:  cobra.ExactArgs(2),
	RunE: func(_ *cobra.Command, args []string) error {
		userService, db, err := newUserServiceForCommands()
		if err != nil {
			return err
		}
		defer db.Close()

		return setRole(context.Background(), userService, os.Stdout, args[0], strings.ToUpper(args[1]))
	},
}

var userDeleteCmd = &cobra.Command{
	Use:   "delete <email>",
	Short: "Permanently delete a user and its refresh token",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		userService, db, err := newUserServiceForCommands()
		if err != nil {
			return err
		}
		defer db.Close()

		yes, _ := cmd.Flags().GetBool("yes")
		if !yes && !confirm(os.Stdin, os.Stdout, fmt.Sprintf("Delete user %s? [y/N]: ", args[0])) {
			fmt.Println("aborted")
			return nil
		}
		return deleteUser(context.Background(), userService, os.Stdout, args[0])
	},
}

func init() {
	userDeleteCmd.Flags().BoolP("yes", "y", false, "skip the confirmation prompt")
	userCmd.AddCommand(userSetRoleCmd)
	userCmd.AddCommand(userDeleteCmd)
	rootCmd.AddCommand(userCmd)
}

func setRole(ctx context.Context, users service.UserService, out io.Writer, email, role string) error {
	user, err := users.GetUserByEmail(ctx, email)
	if err != nil {
		return commandError(err, email)
	}

	updated, err := users.UpdateRole(ctx, user.ID, role)
	if err != nil {
		return commandError(err, email)
	}

	fmt.Fprintf(out, "user_id: %d\n", updated.ID)
	fmt.Fprintf(out, "email: %s\n", updated.Email)
	fmt.Fprintf(out, "role: %s\n", updated.Role)
	return nil
}

func deleteUser(ctx context.Context, users service.UserService, out io.Writer, email string) error {
	user, err := users.GetUserByEmail(ctx, email)
	if err != nil {
		return commandError(err, email)
	}

	if err = users.DeleteUser(ctx, user.ID); err != nil {
		return commandError(err, email)
	}

	fmt.Fprintf(out, "deleted user %d (%s)\n", user.ID, user.Email)
	return nil
}

func commandError(err error, email string) error {
	switch {
	case errors.Is(err, service.ErrUserNotFound):
		return fmt.Errorf("user %q not found", email)
	case errors.Is(err, service.ErrInvalidRole):
		return errors.New("role must be STUDENT or ADMIN")
	default:
		return err
	}
}

func confirm(in io.Reader, out io.Writer, prompt string) bool {
	fmt.Fprint(out, prompt)
	input, _ := bufio.NewReader(in).ReadString('\n')
	switch strings.ToLower(strings.TrimSpace(input)) {
	case "y", "yes":
		return true
	default:
		return false
	}
}

func newUserServiceForCommands() (service.UserService, *sql.DB, error) {
	_ = godotenv.Load()

	dsn := strings.TrimSpace(os.Getenv("MYSQL_DSN"))
	if dsn == "" {
		return nil, nil, errors.New("MYSQL_DSN environment variable is required")
	}

	db, err := openDB(dsn)
	if err != nil {
		return nil, nil, err
	}

	userService := service.NewUserService(
		repository.NewUserRepository(db),
		repository.NewRefreshTokenRepository(db),
	)
	return userService, db, nil
}
