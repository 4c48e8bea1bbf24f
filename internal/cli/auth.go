package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/shaiso/infra/internal/auth"
)

func newLoginCmd(app *App) *cobra.Command {
	var username, password string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in to the admin API",
		RunE: func(cmd *cobra.Command, args []string) error {
			if password == "" {
				p, err := readSecret(app.Stdin)
				if err != nil {
					return err
				}
				password = p
			}

			s, err := app.Session()
			if err != nil {
				return err
			}
			if err := s.Login(cmd.Context(), username, password); err != nil {
				return err
			}
			if err := app.SaveSession(); err != nil {
				return err
			}

			app.Output().Success(fmt.Sprintf("Вход выполнен: %s", s.State().Username))
			return nil
		},
	}

	cmd.Flags().StringVarP(&username, "username", "u", "admin", "Admin username")
	cmd.Flags().StringVarP(&password, "password", "p", "", "Password (read from stdin if empty)")

	return cmd
}

func newLogoutCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "End the admin session",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := app.Session()
			if err != nil {
				return err
			}

			// Локальная сессия очищается даже при ошибке сервера
			logoutErr := s.Logout(cmd.Context())
			if err := app.SaveSession(); err != nil {
				return err
			}
			if logoutErr != nil {
				return logoutErr
			}

			app.Output().Success("Выход выполнен.")
			return nil
		},
	}
}

func newWhoamiCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the current session",
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := app.Authed(cmd.Context()); err != nil {
				return err
			}
			st := app.session.State()

			app.Output().Fields(
				[][2]string{{"Пользователь", st.Username}, {"Сессия", st.Phase.String()}},
				map[string]any{"authenticated": true, "username": st.Username},
			)
			return nil
		},
	}
}

func newHashPasswordCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "hash-password [PASSWORD]",
		Short: "Print a bcrypt hash for ADMIN_PANEL_PASSWORD_HASH",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var password string
			if len(args) == 1 {
				password = args[0]
			} else {
				p, err := readSecret(app.Stdin)
				if err != nil {
					return err
				}
				password = p
			}

			hash, err := auth.HashPassword(password)
			if err != nil {
				return err
			}
			fmt.Fprintln(app.Stdout, hash)
			return nil
		},
	}
}

// readSecret читает первую строку из r.
func readSecret(r io.Reader) (string, error) {
	if r == nil {
		return "", errors.New("пароль не указан")
	}
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("read password: %w", err)
	}
	line = strings.TrimRight(line, "\r\n")
	if line == "" {
		return "", errors.New("пароль не указан")
	}
	return line, nil
}
